package lint

import (
	"fmt"
	"strconv"

	"github.com/jrcribb/yara-x/parser"
	tok "github.com/jrcribb/yara-x/tokenizer"
)

// knownModules are the modules the scanning engine ships host functions
// for. Importing anything else produces an unsupported_module warning.
var knownModules = map[string]struct{}{
	"console": {},
	"dotnet":  {},
	"elf":     {},
	"hash":    {},
	"lnk":     {},
	"macho":   {},
	"math":    {},
	"pe":      {},
	"string":  {},
	"time":    {},
}

// Compiler accumulates rule sources, runs the registered linters and the
// built-in checks over every rule, and collects the resulting
// diagnostics.
type Compiler struct {
	linters  []Linter
	warnings []Warning
	errors   []CompileError
}

// NewCompiler creates an empty compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// AddLinter registers a linter that will run on every rule of every
// source added afterwards. Chainable.
func (c *Compiler) AddLinter(l Linter) *Compiler {
	c.linters = append(c.linters, l)
	return c
}

// Warnings returns every warning produced so far, in the order they were
// produced: for each source, the import checks first, then for each rule
// the built-in checks followed by the registered linters.
func (c *Compiler) Warnings() []Warning { return c.warnings }

// Errors returns every error-severity diagnostic produced so far.
func (c *Compiler) Errors() []CompileError { return c.errors }

// AddSource parses the given source, runs the built-in checks and the
// registered linters, and accumulates the diagnostics. Name is used in
// rendered diagnostics; pass "" for anonymous sources.
//
// Warnings never make AddSource fail. The returned error is non-nil when
// the source has syntax errors or when any error-severity diagnostic was
// produced; the parse still completes and all diagnostics are collected
// either way.
func (c *Compiler) AddSource(name string, source []byte) error {
	rb := &reportBuilder{filename: name, source: source}

	cst := parser.New(source).CST()
	for _, se := range cst.Errors() {
		c.errors = append(c.errors, rb.err("syntax_error", se.Message, se.Span, "error occurred here", ""))
	}

	ast := parser.NewAST(cst)
	errorsBefore := len(c.errors)

	for _, imp := range ast.Imports {
		c.checkImport(rb, imp)
	}

	for i := range ast.Rules {
		rule := &ast.Rules[i]
		c.checkTextAsHex(rb, rule)
		c.checkInvariantExpr(rb, rule)
		for _, l := range c.linters {
			switch res := l.check(rb, rule); {
			case res.err != nil:
				c.errors = append(c.errors, *res.err)
			case res.warning != nil:
				c.warnings = append(c.warnings, *res.warning)
			}
		}
	}

	if len(cst.Errors()) > 0 {
		return fmt.Errorf("%s", cst.Errors()[0].Message)
	}
	if len(c.errors) > errorsBefore {
		return &c.errors[errorsBefore]
	}
	return nil
}

// checkImport warns about imports of modules the scanning engine has no
// support for.
func (c *Compiler) checkImport(rb *reportBuilder, imp parser.Import) {
	if _, known := knownModules[imp.ModuleName]; known {
		return
	}
	c.warnings = append(c.warnings, rb.warn(
		"unsupported_module",
		fmt.Sprintf("module `%s` is not supported", imp.ModuleName),
		imp.Span,
		fmt.Sprintf("module `%s` used here", imp.ModuleName),
		""))
}

// checkTextAsHex warns about hex patterns that contain only literal
// printable bytes and could be written as a text literal instead.
func (c *Compiler) checkTextAsHex(rb *reportBuilder, rule *parser.Rule) {
	for _, pat := range rule.Patterns {
		if pat.Kind != parser.PatternHex {
			continue
		}
		text, ok := hexPatternAsText(pat.Node)
		if !ok {
			continue
		}
		c.warnings = append(c.warnings, rb.warn(
			"text_as_hex",
			"hex pattern could be written as text literal",
			pat.Node.Span(),
			fmt.Sprintf("help: replace with %s", strconv.Quote(text)),
			""))
	}
}

// hexPatternAsText decodes a hex pattern into the text literal it is
// equivalent to. ok is false when the pattern uses wildcards, jumps or
// alternatives, or when any byte is not printable ASCII.
func hexPatternAsText(def parser.Node) (string, bool) {
	hex, found := def.ChildOfKind(parser.HexPattern)
	if !found {
		return "", false
	}
	sub, found := hex.ChildOfKind(parser.HexSubPattern)
	if !found {
		return "", false
	}

	var out []byte
	for _, ch := range sub.Children() {
		if ch.Kind() == parser.Whitespace {
			continue
		}
		if !ch.IsLeaf() || ch.Kind().TokenKind() != tok.HEX_BYTE {
			// A jump or an alternative, not expressible as text.
			return "", false
		}
		text := ch.Text()
		if len(text) != 2 || text[0] == '?' || text[1] == '?' {
			return "", false
		}
		v, err := strconv.ParseUint(string(text), 16, 8)
		if err != nil {
			return "", false
		}
		if v < 0x20 || v > 0x7e {
			return "", false
		}
		out = append(out, byte(v))
	}
	if len(out) == 0 {
		return "", false
	}
	return string(out), true
}

// checkInvariantExpr warns when an operand of `and`/`or` is a bare
// boolean literal, which makes that part of the condition invariant. A
// condition that is nothing but `true` or `false` is left alone: rules
// like that are commonly used as switches.
func (c *Compiler) checkInvariantExpr(rb *reportBuilder, rule *parser.Rule) {
	var walk func(n parser.Node)
	walk = func(n parser.Node) {
		if n.Kind() == parser.BooleanExpr {
			terms := n.ChildrenOfKind(parser.BooleanTerm)
			if len(terms) > 1 {
				for _, term := range terms {
					if lit, ok := booleanLiteral(term); ok {
						c.warnings = append(c.warnings, rb.warn(
							"invariant_expr",
							"invariant boolean expression",
							term.Span(),
							fmt.Sprintf("this expression is always %s", lit),
							""))
					}
				}
			}
		}
		for _, ch := range n.Children() {
			walk(ch)
		}
	}
	walk(rule.Condition)
}

// booleanLiteral reports whether the boolean term is a bare `true` or
// `false` literal, and which one.
func booleanLiteral(term parser.Node) (string, bool) {
	lit := ""
	for _, ch := range term.Children() {
		if ch.Kind() == parser.Whitespace {
			continue
		}
		if !ch.IsLeaf() {
			return "", false
		}
		switch ch.Kind().TokenKind() {
		case tok.TRUE_KW:
			if lit != "" {
				return "", false
			}
			lit = "true"
		case tok.FALSE_KW:
			if lit != "" {
				return "", false
			}
			lit = "false"
		default:
			return "", false
		}
	}
	return lit, lit != ""
}
