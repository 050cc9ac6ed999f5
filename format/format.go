// Package format implements a canonical formatter for YARA rule source.
//
// The formatter depends only on the CST. It normalizes layout: imports
// on consecutive lines, a blank line before each rule, two-space
// indentation for rule body sections, and single spaces between tokens
// except just inside brackets, before a call or index bracket, around
// `.`, before `,`, after a unary operator, and around the `-` of an xor
// range.
// Formatting is idempotent:
// formatting already formatted output is a no-op.
package format

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jrcribb/yara-x/parser"
	tok "github.com/jrcribb/yara-x/tokenizer"
)

// ErrSyntax is returned when the source contains syntax errors. The
// formatter only rewrites syntactically valid source.
var ErrSyntax = errors.New("source contains syntax errors")

// Source formats the given rule source and returns the canonical form.
//
// Returns an error when the source is not valid UTF-8 (the message pins
// the offset of the first invalid byte) or when it has syntax errors; in
// both cases the input is returned unchanged.
func Source(src []byte) ([]byte, error) {
	if idx := firstInvalidUTF8(src); idx >= 0 {
		return src, fmt.Errorf("invalid UTF-8 at [%d..%d]", idx, idx+1)
	}

	cst := parser.New(src).CST()
	if len(cst.Errors()) > 0 {
		return src, fmt.Errorf("%w: %s", ErrSyntax, cst.Errors()[0].Message)
	}
	// Constructs cut short by the end of the input produce an Error node
	// without a recorded message; refuse to rewrite those too.
	if hasErrorNode(cst.Root()) {
		return src, ErrSyntax
	}

	p := &printer{}
	p.sourceFile(cst.Root())
	return p.buf.Bytes(), nil
}

func hasErrorNode(n parser.Node) bool {
	if n.Kind() == parser.Error {
		return true
	}
	for _, ch := range n.Children() {
		if hasErrorNode(ch) {
			return true
		}
	}
	return false
}

func firstInvalidUTF8(src []byte) int {
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRune(src[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

type printer struct {
	buf bytes.Buffer
}

func (p *printer) sourceFile(root parser.Node) {
	prevWasRule := false
	first := true
	for _, item := range root.Children() {
		switch item.Kind() {
		case parser.Whitespace:
			// Top-level comments survive formatting on their own line;
			// plain whitespace is regenerated.
			if text := item.Text(); isComment(text) {
				if !first {
					p.buf.WriteByte('\n')
				}
				if prevWasRule {
					p.buf.WriteByte('\n')
					prevWasRule = false
				}
				p.buf.Write(text)
				first = false
			}
		case parser.ImportStmt:
			if !first {
				p.buf.WriteByte('\n')
			}
			if prevWasRule {
				p.buf.WriteByte('\n')
			}
			p.buf.WriteString("import ")
			if lit, ok := childToken(item, tok.STRING_LIT); ok {
				p.buf.Write(lit.Text())
			}
			first = false
			prevWasRule = false
		case parser.RuleDecl:
			if !first {
				p.buf.WriteByte('\n')
				p.buf.WriteByte('\n')
			}
			p.ruleDecl(item)
			first = false
			prevWasRule = true
		}
	}
	if !first {
		p.buf.WriteByte('\n')
	}
}

func isComment(text []byte) bool {
	trimmed := bytes.TrimSpace(text)
	return bytes.HasPrefix(trimmed, []byte("//")) || bytes.HasPrefix(trimmed, []byte("/*"))
}

func (p *printer) ruleDecl(rule parser.Node) {
	var header []string
	if mods, ok := rule.ChildOfKind(parser.RuleMods); ok {
		for _, kw := range tokensOf(mods) {
			header = append(header, string(kw.Text()))
		}
	}
	header = append(header, "rule")
	if ident, ok := childToken(rule, tok.IDENT); ok {
		header = append(header, string(ident.Text()))
	}
	p.buf.WriteString(strings.Join(header, " "))

	if tags, ok := rule.ChildOfKind(parser.RuleTags); ok {
		p.buf.WriteString(" :")
		for _, tag := range tokensOf(tags) {
			if tag.Kind().TokenKind() == tok.IDENT {
				p.buf.WriteByte(' ')
				p.buf.Write(tag.Text())
			}
		}
	}
	p.buf.WriteString(" {\n")

	if meta, ok := rule.ChildOfKind(parser.MetaBlk); ok {
		p.buf.WriteString("  meta:\n")
		for _, def := range meta.ChildrenOfKind(parser.MetaDef) {
			p.buf.WriteString("    ")
			p.expression(def)
			p.buf.WriteByte('\n')
		}
	}

	if patterns, ok := rule.ChildOfKind(parser.PatternsBlk); ok {
		p.buf.WriteString("  strings:\n")
		for _, def := range patterns.ChildrenOfKind(parser.PatternDef) {
			p.buf.WriteString("    ")
			p.patternDef(def)
			p.buf.WriteByte('\n')
		}
	}

	if cond, ok := rule.ChildOfKind(parser.ConditionBlk); ok {
		p.buf.WriteString("  condition:\n    ")
		terms := cond.Children()
		// Skip the `condition` keyword and the colon, print the rest.
		for _, ch := range terms {
			if ch.Kind() == parser.BooleanExpr {
				p.expression(ch)
			}
		}
		p.buf.WriteByte('\n')
	}

	p.buf.WriteString("}")
}

func (p *printer) patternDef(def parser.Node) {
	if ident, ok := childToken(def, tok.PATTERN_IDENT); ok {
		p.buf.Write(ident.Text())
	}
	p.buf.WriteString(" = ")
	for _, ch := range def.Children() {
		switch {
		case ch.Kind() == parser.HexPattern:
			p.hexPattern(ch)
		case ch.IsLeaf() && ch.Kind() != parser.Whitespace:
			switch ch.Kind().TokenKind() {
			case tok.STRING_LIT, tok.REGEXP:
				p.buf.Write(ch.Text())
			}
		case ch.Kind() == parser.PatternMods:
			for _, mod := range ch.ChildrenOfKind(parser.PatternMod) {
				p.buf.WriteByte(' ')
				p.expression(mod)
			}
		}
	}
}

func (p *printer) hexPattern(hex parser.Node) {
	p.buf.WriteString("{ ")
	if sub, ok := hex.ChildOfKind(parser.HexSubPattern); ok {
		p.hexSubPattern(sub)
	}
	p.buf.WriteString(" }")
}

func (p *printer) hexSubPattern(sub parser.Node) {
	firstTok := true
	sep := func() {
		if !firstTok {
			p.buf.WriteByte(' ')
		}
		firstTok = false
	}
	for _, ch := range sub.Children() {
		switch ch.Kind() {
		case parser.Whitespace:
		case parser.HexJump:
			sep()
			p.buf.WriteByte('[')
			for _, j := range tokensOf(ch) {
				switch j.Kind().TokenKind() {
				case tok.INTEGER_LIT, tok.MINUS:
					p.buf.Write(j.Text())
				}
			}
			p.buf.WriteByte(']')
		case parser.HexAlternative:
			sep()
			p.buf.WriteString("( ")
			inner := false
			for _, alt := range ch.Children() {
				if alt.Kind() == parser.HexSubPattern {
					if inner {
						p.buf.WriteString(" | ")
					}
					p.hexSubPattern(alt)
					inner = true
				}
			}
			p.buf.WriteString(" )")
		default:
			if ch.IsLeaf() && ch.Kind() != parser.Whitespace {
				sep()
				p.buf.Write(ch.Text())
			}
		}
	}
}

// expression prints the non-trivia leaves under a node with canonical
// spacing.
func (p *printer) expression(n parser.Node) {
	leaves := leavesOf(n)
	var prev parser.Node
	for i, leaf := range leaves {
		if i > 0 && spaceBetween(prev, leaf) {
			p.buf.WriteByte(' ')
		}
		p.buf.Write(leaf.Text())
		prev = leaf
	}
}

// spaceBetween decides whether a space belongs between two adjacent
// tokens in a formatted expression.
func spaceBetween(prev, next parser.Node) bool {
	pk := prev.Kind().TokenKind()
	nk := next.Kind().TokenKind()

	switch nk {
	case tok.COMMA, tok.R_PAREN, tok.R_BRACKET, tok.DOT:
		return false
	case tok.L_BRACKET:
		// Indexing binds tightly: @a[1], !a[2].
		return false
	case tok.MINUS:
		// The `-` of an xor range: xor(0-255).
		if parentKind(next) == parser.PatternMod {
			return false
		}
	case tok.L_PAREN:
		// Call parentheses bind to the callee, grouping parentheses
		// don't.
		switch pk {
		case tok.IDENT, tok.PATTERN_COUNT, tok.XOR_KW, tok.BASE64_KW, tok.BASE64WIDE_KW:
			return false
		}
		return true
	}

	switch pk {
	case tok.L_PAREN, tok.L_BRACKET, tok.DOT:
		return false
	case tok.MINUS, tok.TILDE:
		// Unary operators attach to their operand.
		if unaryContext(prev) {
			return false
		}
	}
	return true
}

// unaryContext reports whether a `-` or `~` leaf is a unary operator, by
// checking the kind of node it hangs off.
func unaryContext(leaf parser.Node) bool {
	switch parentKind(leaf) {
	case parser.PrimaryExpr, parser.MetaDef, parser.HexJump, parser.PatternMod:
		return true
	}
	return false
}

func parentKind(leaf parser.Node) parser.SyntaxKind {
	parent, ok := leaf.Parent()
	if !ok {
		return parser.Error
	}
	return parent.Kind()
}

func childToken(n parser.Node, kind tok.TokenKind) (parser.Node, bool) {
	for _, ch := range n.Children() {
		if ch.IsLeaf() && ch.Kind() != parser.Whitespace && ch.Kind().TokenKind() == kind {
			return ch, true
		}
	}
	return parser.Node{}, false
}

// tokensOf returns the direct non-trivia leaf children of a node.
func tokensOf(n parser.Node) []parser.Node {
	var out []parser.Node
	for _, ch := range n.Children() {
		if ch.IsLeaf() && ch.Kind() != parser.Whitespace {
			out = append(out, ch)
		}
	}
	return out
}

// leavesOf returns every non-trivia leaf under a node, in source order.
func leavesOf(n parser.Node) []parser.Node {
	var out []parser.Node
	var walk func(parser.Node)
	walk = func(cur parser.Node) {
		if cur.IsLeaf() {
			if cur.Kind() != parser.Whitespace {
				out = append(out, cur)
			}
			return
		}
		for _, ch := range cur.Children() {
			walk(ch)
		}
	}
	walk(n)
	return out
}
