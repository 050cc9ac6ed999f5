package lint

import (
	"fmt"
	"regexp"

	"github.com/jrcribb/yara-x/parser"
)

// Linter is implemented by all linters that can be passed to
// Compiler.AddLinter. The check method is unexported on purpose: the set
// of diagnostics is closed, user code configures the provided linters
// instead of defining new ones.
type Linter interface {
	check(rb *reportBuilder, rule *parser.Rule) linterResult
}

// linterResult is the outcome of one linter on one rule: ok (both nil),
// a warning, or a compile error.
type linterResult struct {
	warning *Warning
	err     *CompileError
}

var lintOK = linterResult{}

// RuleNameLinter ensures that rule names match a regular expression.
type RuleNameLinter struct {
	regex    string
	compiled *regexp.Regexp
	error    bool
}

// RuleName creates a linter that makes sure rule names match the given
// regular expression.
//
//	compiler.AddLinter(lint.MustRuleName("APT_.*"))
//
// A rule named `foo` then produces:
//
//	warning[invalid_rule_name]: rule name does not match regex `APT_.*`
func RuleName(regex string) (*RuleNameLinter, error) {
	compiled, err := regexp.Compile(regex)
	if err != nil {
		return nil, err
	}
	return &RuleNameLinter{regex: regex, compiled: compiled}, nil
}

// MustRuleName is like RuleName but panics if the regular expression
// doesn't compile. Intended for statically known expressions.
func MustRuleName(regex string) *RuleNameLinter {
	l, err := RuleName(regex)
	if err != nil {
		panic(err)
	}
	return l
}

// Error makes the linter produce an error instead of a warning.
func (l *RuleNameLinter) Error(yes bool) *RuleNameLinter {
	l.error = yes
	return l
}

func (l *RuleNameLinter) check(rb *reportBuilder, rule *parser.Rule) linterResult {
	if l.compiled.MatchString(rule.Identifier.Name) {
		return lintOK
	}
	primary := fmt.Sprintf("rule name does not match regex `%s`", l.regex)
	secondary := fmt.Sprintf("this rule name does not match regex `%s`", l.regex)
	if l.error {
		e := rb.err("invalid_rule_name", primary, rule.Identifier.Span, secondary, "")
		return linterResult{err: &e}
	}
	w := rb.warn("invalid_rule_name", primary, rule.Identifier.Span, secondary, "")
	return linterResult{warning: &w}
}

// MetadataLinter validates metadata entries.
type MetadataLinter struct {
	identifier string
	predicate  func(*parser.Meta) bool
	required   bool
	error      bool
	message    string
	note       string
}

// Metadata creates a linter that validates metadata entries with the
// given identifier.
//
//	compiler.AddLinter(lint.Metadata("author").Required(true))
//
// A rule without an `author` entry then produces:
//
//	warning[missing_metadata]: required metadata is missing
func Metadata(identifier string) *MetadataLinter {
	return &MetadataLinter{identifier: identifier}
}

// Required makes the metadata mandatory in every rule.
func (l *MetadataLinter) Required(yes bool) *MetadataLinter {
	l.required = yes
	return l
}

// Error makes the linter produce errors instead of warnings.
func (l *MetadataLinter) Error(yes bool) *MetadataLinter {
	l.error = yes
	return l
}

// Note attaches a note to the missing-metadata diagnostic.
func (l *MetadataLinter) Note(note string) *MetadataLinter {
	l.note = note
	return l
}

// Validator sets a predicate that decides whether a metadata entry is
// valid. When the predicate returns false, a diagnostic with the given
// message is produced, pointing at the value.
//
//	lint.Metadata("author").Validator(func(m *parser.Meta) bool {
//		return m.Value.Kind == parser.MetaString
//	}, "author must be a string")
func (l *MetadataLinter) Validator(predicate func(*parser.Meta) bool, message string) *MetadataLinter {
	l.predicate = predicate
	l.message = message
	return l
}

func (l *MetadataLinter) check(rb *reportBuilder, rule *parser.Rule) linterResult {
	found := false
	for i := range rule.Meta {
		meta := &rule.Meta[i]
		if meta.Identifier.Name != l.identifier {
			continue
		}
		if l.predicate != nil && !l.predicate(meta) {
			message := l.message
			if message == "" {
				message = "invalid metadata"
			}
			primary := fmt.Sprintf("metadata `%s` is not valid", meta.Identifier.Name)
			if l.error {
				e := rb.err("invalid_metadata", primary, meta.Value.Span, message, "")
				return linterResult{err: &e}
			}
			w := rb.warn("invalid_metadata", primary, meta.Value.Span, message, "")
			return linterResult{warning: &w}
		}
		found = true
	}

	if l.required && !found {
		secondary := fmt.Sprintf("required metadata `%s` not found", l.identifier)
		if l.error {
			e := rb.err("missing_metadata", "required metadata is missing", rule.Identifier.Span, secondary, l.note)
			return linterResult{err: &e}
		}
		w := rb.warn("missing_metadata", "required metadata is missing", rule.Identifier.Span, secondary, l.note)
		return linterResult{warning: &w}
	}

	return lintOK
}
