package parser

import (
	"strconv"

	"github.com/jrcribb/yara-x/internal/span"
	tok "github.com/jrcribb/yara-x/tokenizer"
)

// This file implements a thin typed view over the CST for consumers that
// don't care about trivia or the exact token structure: the linters and
// the downstream compiler. The view never mutates the CST and extracts
// only what it needs; spans always point back into the original source.

// AST is the abstract view of a parsed source file.
type AST struct {
	Imports []Import
	Rules   []Rule
}

// Import is an `import "module"` statement.
type Import struct {
	ModuleName string
	Span       span.Span
}

// Ident is an identifier with its span.
type Ident struct {
	Name string
	Span span.Span
}

// Rule is a rule declaration.
type Rule struct {
	Identifier Ident
	Private    bool
	Global     bool
	Tags       []Ident
	Meta       []Meta    // nil when the rule has no metadata block
	Patterns   []Pattern // nil when the rule has no patterns block
	Condition  Node      // the CONDITION_BLK node
	Node       Node      // the RULE_DECL node
}

// Meta is one metadata definition.
type Meta struct {
	Identifier Ident
	Value      MetaValue
}

// MetaValueKind discriminates the type of a metadata value.
type MetaValueKind int

const (
	MetaString MetaValueKind = iota
	MetaInteger
	MetaFloat
	MetaBool
)

// MetaValue is the value of a metadata definition.
type MetaValue struct {
	Kind  MetaValueKind
	Str   []byte // unescaped bytes, for MetaString
	Int   int64
	Float float64
	Bool  bool
	Span  span.Span
}

// PatternDefKind discriminates what a pattern matches on.
type PatternDefKind int

const (
	PatternText PatternDefKind = iota
	PatternRegexp
	PatternHex
)

// Pattern is one pattern definition from the strings block.
type Pattern struct {
	Identifier Ident
	Kind       PatternDefKind
	Modifiers  []Ident // modifier keywords, e.g. "ascii", "xor"
	Node       Node    // the PATTERN_DEF node
}

// NewAST builds the abstract view of a CST. Constructs inside Error
// nodes are skipped: everything the view exposes is well-formed.
func NewAST(cst *CST) *AST {
	a := &AST{}
	src := cst.Source()
	for _, item := range cst.Root().Children() {
		switch item.Kind() {
		case ImportStmt:
			if imp, ok := newImport(src, item); ok {
				a.Imports = append(a.Imports, imp)
			}
		case RuleDecl:
			if rule, ok := newRule(src, item); ok {
				a.Rules = append(a.Rules, rule)
			}
		}
	}
	return a
}

func newImport(src []byte, n Node) (Import, bool) {
	lit, ok := findToken(n, tok.STRING_LIT)
	if !ok {
		return Import{}, false
	}
	return Import{
		ModuleName: string(unescapeString(lit.Text())),
		Span:       lit.Span(),
	}, true
}

func newRule(src []byte, n Node) (Rule, bool) {
	rule := Rule{Node: n}

	ident, ok := findToken(n, tok.IDENT)
	if !ok {
		return Rule{}, false
	}
	rule.Identifier = Ident{Name: string(ident.Text()), Span: ident.Span()}

	if mods, ok := n.ChildOfKind(RuleMods); ok {
		if _, ok := findToken(mods, tok.PRIVATE_KW); ok {
			rule.Private = true
		}
		if _, ok := findToken(mods, tok.GLOBAL_KW); ok {
			rule.Global = true
		}
	}

	if tags, ok := n.ChildOfKind(RuleTags); ok {
		for _, ch := range tags.Children() {
			if ch.IsLeaf() && ch.Kind().IsToken() && ch.Kind().TokenKind() == tok.IDENT {
				rule.Tags = append(rule.Tags, Ident{Name: string(ch.Text()), Span: ch.Span()})
			}
		}
	}

	if meta, ok := n.ChildOfKind(MetaBlk); ok {
		for _, def := range meta.ChildrenOfKind(MetaDef) {
			if m, ok := newMeta(def); ok {
				rule.Meta = append(rule.Meta, m)
			}
		}
	}

	if patterns, ok := n.ChildOfKind(PatternsBlk); ok {
		for _, def := range patterns.ChildrenOfKind(PatternDef) {
			if p, ok := newPattern(def); ok {
				rule.Patterns = append(rule.Patterns, p)
			}
		}
	}

	cond, ok := n.ChildOfKind(ConditionBlk)
	if !ok {
		return Rule{}, false
	}
	rule.Condition = cond

	return rule, true
}

func newMeta(def Node) (Meta, bool) {
	m := Meta{}
	negative := false
	var minusSpan span.Span
	sawIdent := false

	for _, ch := range def.Children() {
		if !ch.IsLeaf() || !ch.Kind().IsToken() {
			continue
		}
		switch ch.Kind().TokenKind() {
		case tok.IDENT:
			if !sawIdent {
				m.Identifier = Ident{Name: string(ch.Text()), Span: ch.Span()}
				sawIdent = true
			}
		case tok.MINUS:
			negative = true
			minusSpan = ch.Span()
		case tok.STRING_LIT:
			m.Value = MetaValue{Kind: MetaString, Str: unescapeString(ch.Text()), Span: ch.Span()}
		case tok.TRUE_KW:
			m.Value = MetaValue{Kind: MetaBool, Bool: true, Span: ch.Span()}
		case tok.FALSE_KW:
			m.Value = MetaValue{Kind: MetaBool, Bool: false, Span: ch.Span()}
		case tok.INTEGER_LIT:
			v := parseInteger(ch.Text())
			sp := ch.Span()
			if negative {
				v = -v
				sp = minusSpan.Combine(sp)
			}
			m.Value = MetaValue{Kind: MetaInteger, Int: v, Span: sp}
		case tok.FLOAT_LIT:
			v, _ := strconv.ParseFloat(string(ch.Text()), 64)
			sp := ch.Span()
			if negative {
				v = -v
				sp = minusSpan.Combine(sp)
			}
			m.Value = MetaValue{Kind: MetaFloat, Float: v, Span: sp}
		}
	}

	return m, sawIdent
}

func newPattern(def Node) (Pattern, bool) {
	p := Pattern{Node: def}

	ident, ok := findToken(def, tok.PATTERN_IDENT)
	if !ok {
		return Pattern{}, false
	}
	p.Identifier = Ident{Name: string(ident.Text()), Span: ident.Span()}

	matched := false
	for _, ch := range def.Children() {
		switch {
		case ch.IsLeaf() && ch.Kind().IsToken() && ch.Kind().TokenKind() == tok.STRING_LIT:
			p.Kind = PatternText
			matched = true
		case ch.IsLeaf() && ch.Kind().IsToken() && ch.Kind().TokenKind() == tok.REGEXP:
			p.Kind = PatternRegexp
			matched = true
		case ch.Kind() == HexPattern:
			p.Kind = PatternHex
			matched = true
		case ch.Kind() == PatternMods:
			for _, mod := range ch.ChildrenOfKind(PatternMod) {
				for _, kw := range mod.Children() {
					if kw.IsLeaf() && kw.Kind() != Whitespace {
						p.Modifiers = append(p.Modifiers, Ident{Name: string(kw.Text()), Span: kw.Span()})
						break
					}
				}
			}
		}
	}

	return p, matched
}

// findToken returns the first leaf of the given token kind among the
// node's direct children.
func findToken(n Node, kind tok.TokenKind) (Node, bool) {
	for _, ch := range n.Children() {
		if ch.IsLeaf() && ch.Kind().IsToken() && ch.Kind() != Whitespace && ch.Kind().TokenKind() == kind {
			return ch, true
		}
	}
	return Node{}, false
}

// unescapeString strips the surrounding quotes from a string literal and
// processes its escape sequences.
func unescapeString(lit []byte) []byte {
	if len(lit) >= 2 && lit[0] == '"' && lit[len(lit)-1] == '"' {
		lit = lit[1 : len(lit)-1]
	}
	out := make([]byte, 0, len(lit))
	for i := 0; i < len(lit); i++ {
		if lit[i] != '\\' || i+1 >= len(lit) {
			out = append(out, lit[i])
			continue
		}
		i++
		switch lit[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case '\\':
			out = append(out, '\\')
		case '"':
			out = append(out, '"')
		case 'x':
			if i+2 < len(lit) {
				if v, err := strconv.ParseUint(string(lit[i+1:i+3]), 16, 8); err == nil {
					out = append(out, byte(v))
					i += 2
					continue
				}
			}
			out = append(out, 'x')
		default:
			out = append(out, lit[i])
		}
	}
	return out
}

// parseInteger parses an integer literal: decimal, 0x hex, or with a
// KB/MB suffix.
func parseInteger(text []byte) int64 {
	s := string(text)
	mult := int64(1)
	if len(s) > 2 && s[len(s)-2:] == "KB" {
		s, mult = s[:len(s)-2], 1024
	} else if len(s) > 2 && s[len(s)-2:] == "MB" {
		s, mult = s[:len(s)-2], 1024*1024
	}
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		v, _ := strconv.ParseInt(s[2:], 16, 64)
		return v * mult
	}
	v, _ := strconv.ParseInt(s, 10, 64)
	return v * mult
}
