package tokenizer

// Character classification tables. Indexing a 256-entry bool array is
// faster than calling unicode functions and keeps the hot lexing loops
// allocation free.

var isWhitespaceChar [256]bool
var isDigitChar [256]bool
var isHexDigitChar [256]bool
var isIdentStartChar [256]bool
var isIdentPartChar [256]bool

func init() {
	for _, c := range []byte{' ', '\t', '\r'} {
		isWhitespaceChar[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		isDigitChar[c] = true
		isHexDigitChar[c] = true
	}
	for c := 'a'; c <= 'f'; c++ {
		isHexDigitChar[c] = true
	}
	for c := 'A'; c <= 'F'; c++ {
		isHexDigitChar[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		isIdentStartChar[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		isIdentStartChar[c] = true
	}
	isIdentStartChar['_'] = true
	for c := 0; c < 256; c++ {
		isIdentPartChar[c] = isIdentStartChar[c] || isDigitChar[c]
	}
}
