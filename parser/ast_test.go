package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestASTRule(t *testing.T) {
	src := `import "pe"

private global rule example : apt backdoor {
  meta:
    author = "someone"
    score = -10
    size = 2KB
    threshold = 7.5
    prod = false
  strings:
    $a = "foo" ascii wide
    $b = { 66 6f 6f }
    $c = /fo+/i
  condition:
    any of them
}`

	ast := NewAST(New([]byte(src)).CST())

	if len(ast.Imports) != 1 || ast.Imports[0].ModuleName != "pe" {
		t.Fatalf("imports = %+v, want one import of pe", ast.Imports)
	}
	if len(ast.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(ast.Rules))
	}

	rule := ast.Rules[0]
	if rule.Identifier.Name != "example" {
		t.Fatalf("identifier = %q", rule.Identifier.Name)
	}
	if !rule.Private || !rule.Global {
		t.Fatalf("modifiers = private:%t global:%t", rule.Private, rule.Global)
	}

	var tags []string
	for _, tag := range rule.Tags {
		tags = append(tags, tag.Name)
	}
	if diff := cmp.Diff([]string{"apt", "backdoor"}, tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}

	if len(rule.Meta) != 5 {
		t.Fatalf("got %d meta entries, want 5", len(rule.Meta))
	}
	checks := []struct {
		ident string
		check func(MetaValue) bool
	}{
		{"author", func(v MetaValue) bool { return v.Kind == MetaString && string(v.Str) == "someone" }},
		{"score", func(v MetaValue) bool { return v.Kind == MetaInteger && v.Int == -10 }},
		{"size", func(v MetaValue) bool { return v.Kind == MetaInteger && v.Int == 2048 }},
		{"threshold", func(v MetaValue) bool { return v.Kind == MetaFloat && v.Float == 7.5 }},
		{"prod", func(v MetaValue) bool { return v.Kind == MetaBool && !v.Bool }},
	}
	for i, want := range checks {
		m := rule.Meta[i]
		if m.Identifier.Name != want.ident {
			t.Fatalf("meta[%d] = %q, want %q", i, m.Identifier.Name, want.ident)
		}
		if !want.check(m.Value) {
			t.Fatalf("meta %q has unexpected value %+v", want.ident, m.Value)
		}
	}

	if len(rule.Patterns) != 3 {
		t.Fatalf("got %d patterns, want 3", len(rule.Patterns))
	}
	if rule.Patterns[0].Kind != PatternText || rule.Patterns[0].Identifier.Name != "$a" {
		t.Fatalf("pattern[0] = %+v", rule.Patterns[0])
	}
	var mods []string
	for _, m := range rule.Patterns[0].Modifiers {
		mods = append(mods, m.Name)
	}
	if diff := cmp.Diff([]string{"ascii", "wide"}, mods); diff != "" {
		t.Fatalf("modifiers mismatch (-want +got):\n%s", diff)
	}
	if rule.Patterns[1].Kind != PatternHex {
		t.Fatalf("pattern[1].Kind = %d, want hex", rule.Patterns[1].Kind)
	}
	if rule.Patterns[2].Kind != PatternRegexp {
		t.Fatalf("pattern[2].Kind = %d, want regexp", rule.Patterns[2].Kind)
	}
}

func TestASTStringEscapes(t *testing.T) {
	src := `rule t {
  meta:
    path = "C:\\dir\t\"q\" \x41"
  condition:
    true
}`
	ast := NewAST(New([]byte(src)).CST())
	if len(ast.Rules) != 1 || len(ast.Rules[0].Meta) != 1 {
		t.Fatal("rule or meta missing")
	}
	got := string(ast.Rules[0].Meta[0].Value.Str)
	want := "C:\\dir\t\"q\" A"
	if got != want {
		t.Fatalf("unescaped = %q, want %q", got, want)
	}
}

func TestASTSpansPointIntoSource(t *testing.T) {
	src := []byte(`rule foo { condition: true }`)
	ast := NewAST(New(src).CST())
	if len(ast.Rules) != 1 {
		t.Fatal("rule missing")
	}
	sp := ast.Rules[0].Identifier.Span
	if string(sp.Bytes(src)) != "foo" {
		t.Fatalf("identifier span %s covers %q", sp, sp.Bytes(src))
	}
	line, col := sp.LineCol(src)
	if line != 1 || col != 6 {
		t.Fatalf("identifier at %d:%d, want 1:6", line, col)
	}
}

func TestASTSkipsBrokenRules(t *testing.T) {
	src := []byte("rule { condition: true }\nrule good { condition: true }")
	ast := NewAST(New(src).CST())
	// The first declaration has no identifier; only the valid rule shows
	// up in the abstract view.
	if len(ast.Rules) != 1 || ast.Rules[0].Identifier.Name != "good" {
		t.Fatalf("rules = %+v", ast.Rules)
	}
}
