package tokenizer

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/jrcribb/yara-x/internal/span"
)

// collect drains the tokenizer, returning "KIND@start..end" strings.
func collect(t *Tokenizer) []string {
	var out []string
	for {
		tk := t.Next()
		if tk.Kind == EOF {
			return out
		}
		out = append(out, fmt.Sprintf("%s@%d..%d", tk.Kind, tk.Span.Start(), tk.Span.End()))
	}
}

// kinds drains the tokenizer, returning kind names only.
func kinds(t *Tokenizer) []string {
	var out []string
	for {
		tk := t.Next()
		if tk.Kind == EOF {
			return out
		}
		out = append(out, tk.Kind.String())
	}
}

func TestNormalMode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "keywords and identifiers",
			input: "rule foo",
			want:  []string{"RULE_KW", "WHITESPACE", "IDENT"},
		},
		{
			name:  "all keyword classes",
			input: "import private global meta strings condition true false",
			want: []string{
				"IMPORT_KW", "WHITESPACE", "PRIVATE_KW", "WHITESPACE",
				"GLOBAL_KW", "WHITESPACE", "META_KW", "WHITESPACE",
				"STRINGS_KW", "WHITESPACE", "CONDITION_KW", "WHITESPACE",
				"TRUE_KW", "WHITESPACE", "FALSE_KW",
			},
		},
		{
			name:  "string comparison keywords",
			input: "contains icontains startswith istartswith endswith iendswith matches",
			want: []string{
				"CONTAINS_KW", "WHITESPACE", "ICONTAINS_KW", "WHITESPACE",
				"STARTSWITH_KW", "WHITESPACE", "ISTARTSWITH_KW", "WHITESPACE",
				"ENDSWITH_KW", "WHITESPACE", "IENDSWITH_KW", "WHITESPACE",
				"MATCHES_KW",
			},
		},
		{
			name:  "pattern identifiers",
			input: "$a #a @a !a",
			want: []string{
				"PATTERN_IDENT", "WHITESPACE", "PATTERN_COUNT", "WHITESPACE",
				"PATTERN_OFFSET", "WHITESPACE", "PATTERN_LENGTH",
			},
		},
		{
			name:  "bare pattern sigil",
			input: "$",
			want:  []string{"PATTERN_IDENT"},
		},
		{
			name:  "numbers",
			input: "10 0x1F 3.14 10KB 2MB",
			want: []string{
				"INTEGER_LIT", "WHITESPACE", "INTEGER_LIT", "WHITESPACE",
				"FLOAT_LIT", "WHITESPACE", "INTEGER_LIT", "WHITESPACE",
				"INTEGER_LIT",
			},
		},
		{
			name:  "range keeps its dots",
			input: "(0..10)",
			want: []string{
				"L_PAREN", "INTEGER_LIT", "DOT", "DOT", "INTEGER_LIT", "R_PAREN",
			},
		},
		{
			name:  "operators",
			input: "== != <= < >= > << >> & | ^ ~ + - * % =",
			want: []string{
				"EQ", "WHITESPACE", "NE", "WHITESPACE", "LE", "WHITESPACE",
				"LT", "WHITESPACE", "GE", "WHITESPACE", "GT", "WHITESPACE",
				"SHL", "WHITESPACE", "SHR", "WHITESPACE", "AMPERSAND",
				"WHITESPACE", "PIPE", "WHITESPACE", "CARET", "WHITESPACE",
				"TILDE", "WHITESPACE", "PLUS", "WHITESPACE", "MINUS",
				"WHITESPACE", "ASTERISK", "WHITESPACE", "PERCENT",
				"WHITESPACE", "EQUAL",
			},
		},
		{
			name:  "string literal with escapes",
			input: `"a\n\t\"\\\x41"`,
			want:  []string{"STRING_LIT"},
		},
		{
			name:  "unterminated string",
			input: "\"abc\ntrue",
			want:  []string{"INVALID", "NEWLINE", "TRUE_KW"},
		},
		{
			name:  "invalid escape",
			input: `"a\q"`,
			want:  []string{"INVALID"},
		},
		{
			name:  "line comment",
			input: "// hi\nrule",
			want:  []string{"COMMENT", "NEWLINE", "RULE_KW"},
		},
		{
			name:  "block comment",
			input: "/* hi\nthere */rule",
			want:  []string{"BLOCK_COMMENT", "RULE_KW"},
		},
		{
			name:  "unterminated block comment",
			input: "/* hi",
			want:  []string{"INVALID"},
		},
		{
			name:  "regexp with flags",
			input: "/ab+c/is",
			want:  []string{"REGEXP"},
		},
		{
			name:  "regexp with escaped slash",
			input: `/a\/b/`,
			want:  []string{"REGEXP"},
		},
		{
			name:  "division",
			input: "filesize \\ 2",
			want:  []string{"FILESIZE_KW", "WHITESPACE", "DIV", "WHITESPACE", "INTEGER_LIT"},
		},
		{
			name:  "unterminated regexp",
			input: "/abc",
			want:  []string{"INVALID", "IDENT"},
		},
		{
			name:  "unrecognized byte",
			input: "rule \x01",
			want:  []string{"RULE_KW", "WHITESPACE", "INVALID"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(New([]byte(tt.input)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("token kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHexPatternMode(t *testing.T) {
	tz := New([]byte("66 6f ?? A? }"))
	tz.SetMode(ModeHexPattern)

	want := []string{
		"HEX_BYTE@0..2", "WHITESPACE@2..3",
		"HEX_BYTE@3..5", "WHITESPACE@5..6",
		"HEX_BYTE@6..8", "WHITESPACE@8..9",
		"HEX_BYTE@9..11", "WHITESPACE@11..12",
		"R_BRACE@12..13",
	}
	if diff := cmp.Diff(want, collect(tz)); diff != "" {
		t.Fatalf("hex tokens mismatch (-want +got):\n%s", diff)
	}
	if tz.Mode() != ModeNormal {
		t.Fatalf("expected `}` to pop back to normal mode, got mode %d", tz.Mode())
	}
}

func TestHexJumpMode(t *testing.T) {
	// The parser enters jump mode right after the `[`; emulate that.
	tz := New([]byte("[10-20]"))
	tz.SetMode(ModeHexPattern)

	tk := tz.Next()
	if tk.Kind != L_BRACKET {
		t.Fatalf("expected L_BRACKET, got %s", tk.Kind)
	}
	tz.SetMode(ModeHexJump)

	want := []string{"INTEGER_LIT", "MINUS", "INTEGER_LIT", "R_BRACKET"}
	if diff := cmp.Diff(want, kinds(tz)); diff != "" {
		t.Fatalf("jump tokens mismatch (-want +got):\n%s", diff)
	}
	if tz.Mode() != ModeHexPattern {
		t.Fatalf("expected `]` to pop back to hex pattern mode, got mode %d", tz.Mode())
	}
}

func TestSpansAreContiguous(t *testing.T) {
	inputs := []string{
		"rule test { condition: true }",
		"import \"pe\"\nrule r : a b { meta: i = -1 strings: $a = \"x\" condition: $a }",
		"rule bad { strings $a = condition }",
		"// comment\n/* block */ rule r { condition: filesize > 10KB }",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			tz := New([]byte(input))
			end := 0
			for {
				tk := tz.Next()
				if tk.Kind == EOF {
					break
				}
				if tk.Span.Start() != end {
					t.Fatalf("gap before token %s at %s, previous ended at %d", tk.Kind, tk.Span, end)
				}
				end = tk.Span.End()
			}
			if end != len(input) {
				t.Fatalf("tokens cover %d of %d bytes", end, len(input))
			}
		})
	}
}

func TestSeek(t *testing.T) {
	src := []byte("rule test")
	tz := New(src)
	first := tz.Next()
	tz.Next() // whitespace
	tz.Next() // test

	tz.Seek(0, ModeNormal)
	again := tz.Next()
	if diff := cmp.Diff(first, again, cmpopts.EquateComparable(span.Span{})); diff != "" {
		t.Fatalf("token after seek differs (-want +got):\n%s", diff)
	}
}
