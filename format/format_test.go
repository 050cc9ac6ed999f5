package format

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalForm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "minimal rule",
			input: "rule   test {condition:true}",
			want:  "rule test {\n  condition:\n    true\n}\n",
		},
		{
			name:  "import",
			input: "import    \"pe\"",
			want:  "import \"pe\"\n",
		},
		{
			name: "full rule",
			input: "import \"pe\"\n" +
				"rule demo : t1 t2 { meta: a = \"x\" n = -1 strings: " +
				"$a = \"foo\" ascii xor(0-255) $b = { 66 ( 6f | 70 ) [1-2] 99 } " +
				"condition: $a and #a in (0..100) == 2 }",
			want: "import \"pe\"\n" +
				"\n" +
				"rule demo : t1 t2 {\n" +
				"  meta:\n" +
				"    a = \"x\"\n" +
				"    n = -1\n" +
				"  strings:\n" +
				"    $a = \"foo\" ascii xor(0-255)\n" +
				"    $b = { 66 ( 6f | 70 ) [1-2] 99 }\n" +
				"  condition:\n" +
				"    $a and #a in (0..100) == 2\n" +
				"}\n",
		},
		{
			name:  "rule modifiers",
			input: "private   global   rule r { condition: false }",
			want:  "private global rule r {\n  condition:\n    false\n}\n",
		},
		{
			name:  "two rules get a blank line",
			input: "rule a { condition: true }rule b { condition: false }",
			want: "rule a {\n  condition:\n    true\n}\n" +
				"\n" +
				"rule b {\n  condition:\n    false\n}\n",
		},
		{
			name:  "module call",
			input: "rule t { condition: math.entropy( 0 , filesize )  >  7.5 }",
			want:  "rule t {\n  condition:\n    math.entropy(0, filesize) > 7.5\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Source([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestIdempotence(t *testing.T) {
	inputs := []string{
		"rule test { condition: true }",
		"import \"pe\"\nimport \"elf\"\nrule r { condition: pe.entry_point == 0 }",
		"rule r : a b { meta: x = -1 y = \"s\" z = true strings: $a = { 66 ?? [1-] ( 67 | 68 ) } $b = /re+/i nocase condition: all of them }",
		"rule t { strings: $a = \"x\" condition: for any i in (1..10) : ( @a[i] < 100 ) }",
		"rule t { condition: ( 1 + 2 ) * 3 \\ 4 % 5 == 0 and filesize < 2MB }",
		"// leading comment\nrule t { condition: true }",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			once, err := Source([]byte(input))
			require.NoError(t, err)
			twice, err := Source(once)
			require.NoError(t, err)
			assert.Equal(t, string(once), string(twice))
		})
	}
}

func TestInvalidUTF8(t *testing.T) {
	src := []byte{0xff, 0xff}
	out, err := Source(src)
	require.Error(t, err)
	assert.Equal(t, "invalid UTF-8 at [0..1]", err.Error())
	assert.Equal(t, src, out, "input must be returned unchanged")
}

func TestSyntaxErrorsAreReported(t *testing.T) {
	out, err := Source([]byte("rule r { condition: true and }"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))
	assert.Equal(t, "rule r { condition: true and }", string(out))
}
