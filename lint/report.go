// Package lint validates rule structure on top of the parser's AST.
//
// A Compiler accumulates sources and runs a set of linters over every
// rule, producing structured diagnostics with source snippets. Two
// linters are provided, RuleName and Metadata, plus a handful of
// built-in checks that always run (text patterns written as hex,
// invariant boolean subexpressions, imports of unsupported modules).
package lint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jrcribb/yara-x/internal/span"
)

// Warning is a diagnostic that doesn't prevent compilation.
type Warning struct {
	// Code is the stable kind tag, e.g. "invalid_rule_name". UIs and
	// test suites match on it.
	Code string
	// Span is the primary source range the warning points at.
	Span span.Span

	rendered string
}

// String returns the rendered diagnostic. The format is a stable
// contract:
//
//	warning[kind]: <primary message>
//	 --> <file>:<line>:<col>
//	  |
//	1 | <source line>
//	  |      --- <secondary message>
//	  |
//	  = note: <optional note>
func (w Warning) String() string { return w.rendered }

// CompileError is a diagnostic that makes compilation fail.
type CompileError struct {
	Code string
	Span span.Span

	rendered string
}

// Error returns the rendered diagnostic.
func (e CompileError) Error() string { return e.rendered }

// reportBuilder renders diagnostics against one source file.
type reportBuilder struct {
	filename string
	source   []byte
}

// render produces the diagnostic text. severity is "warning" or "error";
// secondary is printed under the dashes that underline the span; note is
// optional.
func (rb *reportBuilder) render(severity, code, primary string, sp span.Span, secondary, note string) string {
	line, col := sp.LineCol(rb.source)

	filename := rb.filename
	if filename == "" {
		filename = "line"
	}

	lineText := rb.sourceLine(line)
	lineNum := strconv.Itoa(line)
	gutter := strings.Repeat(" ", len(lineNum))

	dashes := sp.Len()
	if dashes < 1 {
		dashes = 1
	}
	// Don't let the underline run past the quoted line.
	if max := len(lineText) - (col - 1); dashes > max && max > 0 {
		dashes = max
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]: %s\n", severity, code, primary)
	fmt.Fprintf(&b, " --> %s:%d:%d\n", filename, line, col)
	fmt.Fprintf(&b, "%s |\n", gutter)
	fmt.Fprintf(&b, "%s | %s\n", lineNum, lineText)
	fmt.Fprintf(&b, "%s | %s%s %s\n", gutter, strings.Repeat(" ", col-1), strings.Repeat("-", dashes), secondary)
	fmt.Fprintf(&b, "%s |", gutter)
	if note != "" {
		fmt.Fprintf(&b, "\n%s = note: %s", gutter, note)
	}
	return b.String()
}

func (rb *reportBuilder) warn(code, primary string, sp span.Span, secondary, note string) Warning {
	return Warning{
		Code:     code,
		Span:     sp,
		rendered: rb.render("warning", code, primary, sp, secondary, note),
	}
}

func (rb *reportBuilder) err(code, primary string, sp span.Span, secondary, note string) CompileError {
	return CompileError{
		Code:     code,
		Span:     sp,
		rendered: rb.render("error", code, primary, sp, secondary, note),
	}
}

// sourceLine returns the 1-based line of the source, without its
// terminating newline.
func (rb *reportBuilder) sourceLine(line int) string {
	cur := 1
	start := 0
	for i, b := range rb.source {
		if cur == line && b == '\n' {
			return string(rb.source[start:i])
		}
		if b == '\n' {
			cur++
			start = i + 1
		}
	}
	if cur == line {
		return string(rb.source[start:])
	}
	return ""
}
