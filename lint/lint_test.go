package lint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrcribb/yara-x/parser"
)

func TestNoDiagnosticsForCleanRule(t *testing.T) {
	c := NewCompiler()
	err := c.AddSource("", []byte("rule test { condition: true }"))
	require.NoError(t, err)
	require.Empty(t, c.Warnings())
	require.Empty(t, c.Errors())
}

func TestRuleNameWarning(t *testing.T) {
	c := NewCompiler()
	linter, err := RuleName("APT_.*")
	require.NoError(t, err)

	err = c.AddSource("", []byte(`rule foo { strings: $foo = "foo" condition: $foo }`))
	require.NoError(t, err)
	c.AddLinter(linter)
	require.Empty(t, c.Warnings(), "linter added after the source must not fire")

	c = NewCompiler().AddLinter(linter)
	err = c.AddSource("", []byte(`rule foo { strings: $foo = "foo" condition: $foo }`))
	require.NoError(t, err)

	warnings := c.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "invalid_rule_name", warnings[0].Code)
	assert.Equal(t,
		"warning[invalid_rule_name]: rule name does not match regex `APT_.*`\n"+
			" --> line:1:6\n"+
			"  |\n"+
			"1 | rule foo { strings: $foo = \"foo\" condition: $foo }\n"+
			"  |      --- this rule name does not match regex `APT_.*`\n"+
			"  |",
		warnings[0].String())
}

func TestRuleNameMatching(t *testing.T) {
	c := NewCompiler().AddLinter(MustRuleName("APT_.*"))
	err := c.AddSource("", []byte(`rule APT_28 { condition: true }`))
	require.NoError(t, err)
	require.Empty(t, c.Warnings())
}

func TestRuleNameError(t *testing.T) {
	c := NewCompiler().AddLinter(MustRuleName("APT_.*").Error(true))
	err := c.AddSource("", []byte(`rule foo { condition: true }`))
	require.Error(t, err)
	require.Len(t, c.Errors(), 1)
	assert.Equal(t, "invalid_rule_name", c.Errors()[0].Code)
	assert.True(t, strings.HasPrefix(c.Errors()[0].Error(), "error[invalid_rule_name]:"))
}

func TestRuleNameBadRegex(t *testing.T) {
	_, err := RuleName("(")
	require.Error(t, err)
}

func TestMissingMetadata(t *testing.T) {
	c := NewCompiler().AddLinter(Metadata("author").Required(true))
	err := c.AddSource("", []byte(`rule foo { strings: $foo = "foo" condition: $foo }`))
	require.NoError(t, err)

	warnings := c.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "missing_metadata", warnings[0].Code)
	assert.Equal(t,
		"warning[missing_metadata]: required metadata is missing\n"+
			" --> line:1:6\n"+
			"  |\n"+
			"1 | rule foo { strings: $foo = \"foo\" condition: $foo }\n"+
			"  |      --- required metadata `author` not found\n"+
			"  |",
		warnings[0].String())
}

func TestMetadataNotRequiredByDefault(t *testing.T) {
	c := NewCompiler().AddLinter(Metadata("author"))
	err := c.AddSource("", []byte(`rule foo { condition: true }`))
	require.NoError(t, err)
	require.Empty(t, c.Warnings())
}

func TestMetadataValidator(t *testing.T) {
	linter := Metadata("author").Validator(func(m *parser.Meta) bool {
		return m.Value.Kind == parser.MetaString
	}, "author must be a string")

	c := NewCompiler().AddLinter(linter)
	err := c.AddSource("", []byte(`rule foo {
  meta:
    author = false
  condition:
    true
}`))
	require.NoError(t, err)

	warnings := c.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "invalid_metadata", warnings[0].Code)
	assert.Contains(t, warnings[0].String(), "metadata `author` is not valid")
	assert.Contains(t, warnings[0].String(), "----- author must be a string")
	assert.Contains(t, warnings[0].String(), " --> line:3:14")
}

func TestMetadataValidatorAccepts(t *testing.T) {
	linter := Metadata("author").Validator(func(m *parser.Meta) bool {
		return m.Value.Kind == parser.MetaString
	}, "author must be a string")

	c := NewCompiler().AddLinter(linter)
	err := c.AddSource("", []byte(`rule foo {
  meta:
    author = "someone"
  condition:
    true
}`))
	require.NoError(t, err)
	require.Empty(t, c.Warnings())
}

func TestMetadataErrorSeverity(t *testing.T) {
	c := NewCompiler().AddLinter(Metadata("author").Required(true).Error(true))
	err := c.AddSource("", []byte(`rule foo { condition: true }`))
	require.Error(t, err)
	require.Len(t, c.Errors(), 1)
	assert.Equal(t, "missing_metadata", c.Errors()[0].Code)
}

func TestTextAsHex(t *testing.T) {
	c := NewCompiler()
	err := c.AddSource("", []byte(`rule foo { strings: $foo_hex = { 66 6f 6f } condition: $foo_hex }`))
	require.NoError(t, err)

	warnings := c.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "text_as_hex", warnings[0].Code)
	assert.Contains(t, warnings[0].String(), "hex pattern could be written as text literal")
	assert.Contains(t, warnings[0].String(), `help: replace with "foo"`)
	assert.Contains(t, warnings[0].String(), " --> line:1:21")
}

func TestTextAsHexNotFiredForWildcards(t *testing.T) {
	sources := []string{
		`rule t { strings: $a = { 66 ?? 6f } condition: $a }`,
		`rule t { strings: $a = { 66 [1-2] 6f } condition: $a }`,
		`rule t { strings: $a = { ( 66 | 67 ) } condition: $a }`,
		`rule t { strings: $a = { 00 01 02 } condition: $a }`,
	}
	for _, src := range sources {
		c := NewCompiler()
		require.NoError(t, c.AddSource("", []byte(src)))
		assert.Empty(t, c.Warnings(), "source: %s", src)
	}
}

func TestInvariantExpr(t *testing.T) {
	c := NewCompiler()
	err := c.AddSource("", []byte(`rule t { strings: $a = "x" condition: true and $a }`))
	require.NoError(t, err)

	warnings := c.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "invariant_expr", warnings[0].Code)
	assert.Contains(t, warnings[0].String(), "invariant boolean expression")
	assert.Contains(t, warnings[0].String(), "this expression is always true")
}

func TestInvariantExprNotFiredForBareLiteral(t *testing.T) {
	c := NewCompiler()
	require.NoError(t, c.AddSource("", []byte(`rule t { condition: true }`)))
	require.Empty(t, c.Warnings())
}

func TestUnsupportedModule(t *testing.T) {
	c := NewCompiler()
	err := c.AddSource("", []byte("import \"unknown\"\nrule t { condition: true }"))
	require.NoError(t, err)

	warnings := c.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "unsupported_module", warnings[0].Code)
	assert.Contains(t, warnings[0].String(), "module `unknown` is not supported")
	assert.Contains(t, warnings[0].String(), "module `unknown` used here")
}

func TestSupportedModule(t *testing.T) {
	c := NewCompiler()
	require.NoError(t, c.AddSource("", []byte("import \"pe\"\nrule t { condition: true }")))
	require.Empty(t, c.Warnings())
}

func TestSyntaxErrorsFailCompilation(t *testing.T) {
	c := NewCompiler()
	err := c.AddSource("bad.yar", []byte("rule r { condition: true and }"))
	require.Error(t, err)
	require.NotEmpty(t, c.Errors())
	assert.Equal(t, "syntax_error", c.Errors()[0].Code)
	assert.Contains(t, c.Errors()[0].Error(), "expecting expression, found `}`")
	assert.Contains(t, c.Errors()[0].Error(), " --> bad.yar:1:30")
}

func TestWarningsAccumulateAcrossSources(t *testing.T) {
	c := NewCompiler().AddLinter(Metadata("author").Required(true))
	require.NoError(t, c.AddSource("a.yar", []byte("rule a { condition: true }")))
	require.NoError(t, c.AddSource("b.yar", []byte("rule b { condition: true }")))
	require.Len(t, c.Warnings(), 2)
	assert.Contains(t, c.Warnings()[0].String(), " --> a.yar:")
	assert.Contains(t, c.Warnings()[1].String(), " --> b.yar:")
}
