package parser

import (
	"github.com/jrcribb/yara-x/tokenizer"
)

// TokenStream is a peekable, bookmarkable cursor over the tokenizer.
//
// Tokens are lexed on demand: peeking ahead never forces more
// tokenization than requested. Bookmarks save the cursor position and the
// tokenizer mode; restoring a bookmark is exact, including the mode state
// of the tokenizer. Lookahead that was lexed after the bookmark is
// dropped on restore and re-lexed, because a different grammar branch may
// drive the tokenizer through different mode switches.
type TokenStream struct {
	t      *tokenizer.Tokenizer
	tokens []tokenizer.Token // every token lexed so far
	modes  []tokenizer.Mode  // mode in effect when tokens[i] was lexed
	pos    int               // index of the next token to consume
}

// TokenBookmark is a savepoint into the token stream. See
// TokenStream.Bookmark.
type TokenBookmark struct {
	pos  int
	mode tokenizer.Mode
}

// NewTokenStream creates a stream over the given tokenizer.
func NewTokenStream(t *tokenizer.Tokenizer) *TokenStream {
	return &TokenStream{t: t}
}

// Source returns the source code being tokenized.
func (ts *TokenStream) Source() []byte { return ts.t.Source() }

// Index returns the absolute index of the next token to consume. Used as
// the position component of packrat cache keys.
func (ts *TokenStream) Index() int { return ts.pos }

// Peek returns the token n positions ahead without consuming anything.
// The second result is false when the requested position is past the end
// of the input.
func (ts *TokenStream) Peek(n int) (tokenizer.Token, bool) {
	if !ts.fill(n) {
		return tokenizer.Token{Kind: tokenizer.EOF}, false
	}
	return ts.tokens[ts.pos+n], true
}

// Next consumes and returns the next token. The second result is false
// at the end of the input, in which case nothing is consumed.
func (ts *TokenStream) Next() (tokenizer.Token, bool) {
	if !ts.fill(0) {
		return tokenizer.Token{Kind: tokenizer.EOF}, false
	}
	t := ts.tokens[ts.pos]
	ts.pos++
	return t, true
}

// HasMore reports whether any token, trivia included, remains.
func (ts *TokenStream) HasMore() bool {
	return ts.fill(0)
}

// fill lexes until tokens[pos+n] exists. Returns false if the input ends
// first.
func (ts *TokenStream) fill(n int) bool {
	for len(ts.tokens) <= ts.pos+n {
		mode := ts.t.Mode()
		tok := ts.t.Next()
		if tok.Kind == tokenizer.EOF {
			return false
		}
		ts.tokens = append(ts.tokens, tok)
		ts.modes = append(ts.modes, mode)
	}
	return true
}

// Bookmark saves the current position and tokenizer mode.
func (ts *TokenStream) Bookmark() TokenBookmark {
	return TokenBookmark{pos: ts.pos, mode: ts.currentMode()}
}

// Restore rewinds the stream to the state saved by the bookmark. Any
// lookahead lexed after the bookmark is dropped and will be re-lexed,
// guaranteeing that tokenizer mode switches taken by an abandoned grammar
// branch don't leak into the next attempt.
func (ts *TokenStream) Restore(b TokenBookmark) {
	if b.pos < len(ts.tokens) {
		off := ts.tokens[b.pos].Span.Start()
		ts.tokens = ts.tokens[:b.pos]
		ts.modes = ts.modes[:b.pos]
		ts.t.Seek(off, b.mode)
	} else {
		ts.t.SetMode(b.mode)
	}
	ts.pos = b.pos
}

// Remove releases a bookmark. The bookmark must not be restored
// afterwards.
func (ts *TokenStream) Remove(b TokenBookmark) {}

// EnterHexPatternMode switches the tokenizer to hex pattern mode. The
// tokenizer pops back to normal mode on its own when it lexes the
// closing `}`.
func (ts *TokenStream) EnterHexPatternMode() {
	ts.setMode(tokenizer.ModeHexPattern)
}

// EnterHexJumpMode switches the tokenizer to hex jump mode. The
// tokenizer pops back to hex pattern mode on its own when it lexes the
// closing `]`.
func (ts *TokenStream) EnterHexJumpMode() {
	ts.setMode(tokenizer.ModeHexJump)
}

// setMode makes m the mode for the next token to be lexed. Buffered
// lookahead that was lexed in a different mode is dropped and re-lexed.
func (ts *TokenStream) setMode(m tokenizer.Mode) {
	if ts.pos < len(ts.tokens) {
		if ts.modes[ts.pos] != m {
			off := ts.tokens[ts.pos].Span.Start()
			ts.tokens = ts.tokens[:ts.pos]
			ts.modes = ts.modes[:ts.pos]
			ts.t.Seek(off, m)
		}
		return
	}
	ts.t.SetMode(m)
}

func (ts *TokenStream) currentMode() tokenizer.Mode {
	if ts.pos < len(ts.tokens) {
		return ts.modes[ts.pos]
	}
	return ts.t.Mode()
}
