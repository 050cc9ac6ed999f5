// Package parser implements an error-tolerant PEG parser for YARA rules.
//
// The parser consumes tokens produced by the tokenizer and emits a flat
// stream of events that linearizes a Concrete Syntax Tree (CST). The CST
// is lossless: it preserves every byte of the input, whitespace and
// comments included, so that the original source can be reproduced from
// the tree byte-exactly.
//
// The parser never fails. Source code with syntax errors still produces
// a CST; each ill-formed region is delimited by an Error node, and
// everything outside Error nodes is valid rule syntax. After an error
// the parser recovers at explicit synchronization points and keeps
// going, so a single pass reports every error in the input.
package parser

import (
	"fmt"
	"time"

	"github.com/jrcribb/yara-x/internal/invariant"
	"github.com/jrcribb/yara-x/internal/span"
	tok "github.com/jrcribb/yara-x/tokenizer"
)

// Parser produces a CST for a given piece of YARA source code.
type Parser struct {
	impl        *parserImpl
	whitespaces bool
}

// New creates a parser for the given source code.
func New(source []byte, opts ...Option) *Parser {
	cfg := &config{whitespaces: true, cache: true}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Parser{
		impl:        newParserImpl(source, cfg),
		whitespaces: cfg.whitespaces,
	}
}

// Source returns the source code passed to the parser.
func (p *Parser) Source() []byte { return p.impl.tokens.Source() }

// Events returns the CST as a lazy sequence of events. Each call to Next
// drives the parser at most one top-level item (import statement or rule
// declaration) forward.
func (p *Parser) Events() *Events {
	return &Events{impl: p.impl, whitespaces: p.whitespaces}
}

// CST consumes the parser and builds the Concrete Syntax Tree.
func (p *Parser) CST() *CST {
	return buildCST(p.Source(), p.Events(), p.whitespaces)
}

// Telemetry returns parser metrics. Nil unless telemetry was enabled.
func (p *Parser) Telemetry() *ParseTelemetry { return p.impl.telemetry }

// DebugEvents returns the debug trace. Nil unless debugging was enabled.
func (p *Parser) DebugEvents() []DebugEvent { return p.impl.debugEvents }

// Events iterates over the parser's output events.
type Events struct {
	impl        *parserImpl
	whitespaces bool
}

// Next returns the next event. The second result is false once the
// stream is exhausted.
func (e *Events) Next() (Event, bool) {
	for {
		ev, ok := e.impl.next()
		if !ok {
			return Event{}, false
		}
		if !e.whitespaces && ev.Kind == EventToken && ev.Node == Whitespace {
			continue
		}
		return ev, true
	}
}

// Collect drains the iterator into a slice.
func (e *Events) Collect() []Event {
	var events []Event
	for {
		ev, ok := e.Next()
		if !ok {
			return events
		}
		events = append(events, ev)
	}
}

// parserState describes the state of the parser.
type parserState int

const (
	// stateStartOfInput indicates that the parser is at the start of the
	// input and hasn't emitted the SOURCE_FILE begin event yet.
	stateStartOfInput parserState = iota
	// stateOK means the parser can continue parsing.
	stateOK
	// stateFailure means the parser failed to parse some portion of the
	// source. It can recover and go back to stateOK.
	stateFailure
	// stateEndOfInput is terminal.
	stateEndOfInput
)

type cacheKey struct {
	tokenIndex int
	kind       SyntaxKind
}

type pendingError struct {
	span span.Span
	msg  string
}

// parserImpl holds the parser's mutable state. The public Parser type is
// a thin wrapper around it.
type parserImpl struct {
	// Stream the parser consumes input tokens from.
	tokens *TokenStream

	// Stream the parser writes output events to.
	output *SyntaxStream

	state parserState

	// How deep the parser is into "optional" branches of the grammar: an
	// optional branch is one that may fail without the whole production
	// failing (opt, alternatives, zero-or-more). While optDepth > 0,
	// error aggregation records expectations but doesn't commit them.
	optDepth int

	// How deep the parser is into "not" branches, where the meaning of
	// expect is inverted.
	notDepth int

	// Spans where the parser expected tokens that were not found, and
	// the descriptions of those tokens. This map is what allows an error
	// like "expecting `a` or `b`, found `c`" to mention `a` even though
	// `a` was only tried inside an optional branch: the failed attempt
	// records `a` here, and when a later mandatory expect fails at the
	// same position the message is synthesized from the union.
	expected      map[span.Span][]string
	expectedOrder []span.Span

	// Spans where tokens matched inside a "not" branch, i.e. tokens that
	// were not supposed to be there.
	unexpected      map[span.Span]struct{}
	unexpectedOrder []span.Span

	// Errors not yet sent to the output stream. At most one message
	// survives per span; the first writer wins.
	pending      []pendingError
	pendingSpans map[span.Span]struct{}

	// Packrat cache. The presence of a (token index, kind) key means the
	// non-terminal already failed at that position. Only failures are
	// cached; successes are not, which keeps memory low while still
	// short-circuiting the pathological retries. Cleared between
	// top-level items.
	cache        map[cacheKey]struct{}
	cacheEnabled bool

	telemetry   *ParseTelemetry
	timing      bool
	debug       DebugLevel
	debugEvents []DebugEvent
	depth       int
}

func newParserImpl(source []byte, cfg *config) *parserImpl {
	pi := &parserImpl{
		tokens:       NewTokenStream(tok.New(source)),
		output:       &SyntaxStream{},
		state:        stateStartOfInput,
		expected:     make(map[span.Span][]string),
		unexpected:   make(map[span.Span]struct{}),
		pendingSpans: make(map[span.Span]struct{}),
		cache:        make(map[cacheKey]struct{}),
		cacheEnabled: cfg.cache,
		debug:        cfg.debug,
	}
	if cfg.telemetry > TelemetryOff {
		pi.telemetry = &ParseTelemetry{}
		pi.timing = cfg.telemetry >= TelemetryTiming
	}
	if cfg.debug > DebugOff {
		pi.debugEvents = make([]DebugEvent, 0, 128)
	}
	return pi
}

// next returns the next output event, parsing more input on demand.
//
// Each call parses at most one top-level item (an import statement or a
// rule declaration). This parses the source lazily, one item at a time,
// and gives the error maps and the packrat cache a natural flush point.
func (pi *parserImpl) next() (Event, bool) {
	switch pi.state {
	case stateStartOfInput:
		pi.state = stateOK
		return pi.emit(Event{Kind: EventBegin, Node: SourceFile}), true
	case stateEndOfInput:
		return Event{}, false
	}

	if ev, ok := pi.output.Pop(); ok {
		return pi.emit(ev), true
	}

	if pi.tokens.HasMore() {
		var start time.Time
		if pi.timing {
			start = time.Now()
		}
		prev := pi.tokens.Index()
		pi.trivia()
		pi.topLevelItem()
		pi.flushErrors()
		clear(pi.cache)
		pi.state = stateOK
		invariant.Invariant(pi.tokens.Index() > prev || !pi.tokens.HasMore(),
			"parser stuck at token %d, no progress made", prev)
		if pi.telemetry != nil {
			if pi.timing {
				pi.telemetry.ParseTime += time.Since(start)
			}
			pi.telemetry.TokenCount = pi.tokens.Index()
		}
	}

	if ev, ok := pi.output.Pop(); ok {
		return pi.emit(ev), true
	}

	pi.state = stateEndOfInput
	return pi.emit(Event{Kind: EventEnd, Node: SourceFile}), true
}

func (pi *parserImpl) emit(ev Event) Event {
	if pi.telemetry != nil {
		pi.telemetry.EventCount++
		if ev.Kind == EventError {
			pi.telemetry.ErrorCount++
		}
	}
	return ev
}

// peek returns the next token without consuming it. ok is false at the
// end of the input.
func (pi *parserImpl) peek() (tok.Token, bool) {
	return pi.tokens.Peek(0)
}

// peekNonWS returns the next non-trivia token without consuming
// anything. ok is false when only trivia remains.
func (pi *parserImpl) peekNonWS() (tok.Token, bool) {
	for i := 0; ; i++ {
		t, ok := pi.tokens.Peek(i)
		if !ok {
			return t, false
		}
		if !t.IsTrivia() {
			return t, true
		}
	}
}

// bump consumes the next token and appends it to the output.
func (pi *parserImpl) bump() {
	if t, ok := pi.tokens.Next(); ok {
		pi.output.PushToken(kindOfToken(t.Kind), t.Span)
	}
}

type bookmark struct {
	tokens TokenBookmark
	output SyntaxBookmark
}

// setBookmark saves the current parser state, allowing a grammar
// production to be tried and rolled back if it fails.
func (pi *parserImpl) setBookmark() bookmark {
	return bookmark{
		tokens: pi.tokens.Bookmark(),
		output: pi.output.Bookmark(),
	}
}

// restoreBookmark rolls both streams back to the state saved by the
// bookmark.
func (pi *parserImpl) restoreBookmark(b bookmark) {
	pi.tokens.Restore(b.tokens)
	pi.output.Truncate(b.output)
}

// removeBookmark releases a bookmark. Once removed the parser can't be
// restored to it.
func (pi *parserImpl) removeBookmark(b bookmark) {
	pi.tokens.Remove(b.tokens)
	pi.output.Remove(b.output)
}

// enterHexPatternMode switches the tokenizer to hex pattern mode.
func (pi *parserImpl) enterHexPatternMode() *parserImpl {
	if pi.state == stateFailure {
		return pi
	}
	pi.tokens.EnterHexPatternMode()
	return pi
}

// enterHexJumpMode switches the tokenizer to hex jump mode.
func (pi *parserImpl) enterHexJumpMode() *parserImpl {
	if pi.state == stateFailure {
		return pi
	}
	pi.tokens.EnterHexJumpMode()
	return pi
}

// begin indicates the start of a non-terminal of the given kind. Must be
// followed by a matching end.
func (pi *parserImpl) begin(kind SyntaxKind) *parserImpl {
	pi.trivia()
	if pi.debug > DebugOff {
		pi.recordDebugEvent("enter_"+kind.String(), "")
		pi.depth++
	}
	pi.output.Begin(kind)
	return pi
}

// end indicates the end of the non-terminal previously started with
// begin. If the parser is in failure state, the node is closed as an
// Error node, preserving any children parsed so far.
func (pi *parserImpl) end() *parserImpl {
	if pi.debug > DebugOff {
		pi.depth--
		pi.recordDebugEvent("exit", "")
	}
	if pi.state == stateFailure {
		pi.output.EndWithError()
	} else {
		pi.output.End()
	}
	return pi
}

// recover resets a failure back to the OK state.
func (pi *parserImpl) recover() *parserImpl {
	if pi.state == stateFailure {
		pi.state = stateOK
	}
	return pi
}

// sync advances to the next token in the recovery set, wrapping any
// skipped tokens in an Error node. If the next token is already in the
// recovery set this is a no-op.
func (pi *parserImpl) sync(recoverySet tokenSet) *parserImpl {
	pi.trivia()
	t, ok := pi.peek()
	if !ok {
		return pi
	}
	if recoverySet.contains(t.Kind) {
		return pi
	}
	for _, k := range recoverySet {
		pi.addExpected(t.Span, k.Description())
	}
	if len(pi.pending) == 0 {
		pi.handleErrors()
	} else {
		pi.flushErrors()
	}
	pi.output.Begin(Error)
	for {
		t, ok := pi.peek()
		if !ok || recoverySet.contains(t.Kind) {
			break
		}
		pi.bump()
	}
	pi.output.End()
	return pi
}

// recoverAndSync recovers from a previous failure and then advances to
// the next token in the recovery set, wrapping the skipped tokens in an
// Error node.
//
// It establishes a point past which earlier errors don't cascade: the
// sections of a rule body must parse independently, so the parser
// resynchronizes on the keyword that starts the next section. The error
// stays localized to the section that actually contains it.
func (pi *parserImpl) recoverAndSync(recoverySet tokenSet) *parserImpl {
	pi.recover()
	pi.sync(recoverySet)
	return pi
}

// trivia consumes trivia tokens (whitespace, newlines, comments) until a
// non-trivia token is found.
func (pi *parserImpl) trivia() *parserImpl {
	if pi.state == stateFailure {
		return pi
	}
	for {
		t, ok := pi.peek()
		if !ok || !t.IsTrivia() {
			break
		}
		pi.bump()
	}
	return pi
}

// expect checks that the next non-trivia token is in the expected set.
//
// On a match, leading trivia and the matching token are consumed and
// sent to the output. On a miss, nothing is consumed, the descriptions
// of every expected token are recorded for the current position and the
// parser transitions to the failure state. Inside a "not" branch the
// meaning is inverted: a match is what causes the failure.
func (pi *parserImpl) expect(set tokenSet) *parserImpl {
	return pi.expectD(set, "")
}

// expectD is like expect with a custom description for the whole set,
// used where a category name ("expression", "pattern modifier") reads
// better in error messages than the token list.
func (pi *parserImpl) expectD(set tokenSet, description string) *parserImpl {
	invariant.Precondition(len(set) > 0, "expect called with an empty token set")

	if pi.state == stateFailure {
		return pi
	}

	t, ok := pi.peekNonWS()
	matched := ok && set.contains(t.Kind)

	if ok {
		switch {
		case pi.notDepth > 0 && matched:
			// Inside a "not" any expect is negated: finding the token
			// means it was *not* expected here.
			pi.addUnexpected(t.Span)
			pi.handleErrors()
		case pi.notDepth == 0 && !matched:
			if description != "" {
				pi.addExpected(t.Span, description)
			} else {
				for _, k := range set {
					pi.addExpected(t.Span, k.Description())
				}
			}
			pi.handleErrors()
		}
	}

	if matched {
		pi.trivia()
		consumed, _ := pi.tokens.Next()
		if pi.debug >= DebugDetailed {
			pi.recordDebugEvent("consume_"+consumed.Kind.String(), "")
		}
		pi.output.PushToken(kindOfToken(consumed.Kind), consumed.Span)
		// After matching a token outside any optional branch the parser
		// is guaranteed not to backtrack to the left of it, so this is a
		// safe point for flushing errors.
		if pi.optDepth == 0 {
			pi.flushErrors()
		}
	} else {
		pi.state = stateFailure
	}

	return pi
}

// optExpect is like expect, but optional.
func (pi *parserImpl) optExpect(set tokenSet) *parserImpl {
	return pi.opt(func(p *parserImpl) *parserImpl { return p.expect(set) })
}

// opt applies f optionally: a failure inside f is ignored and the parser
// rolls back to its previous state. Expectations recorded inside are
// kept, seeding the "or ..." alternatives of later error messages.
func (pi *parserImpl) opt(f parseFn) *parserImpl {
	if pi.state == stateFailure {
		return pi
	}
	b := pi.setBookmark()
	pi.trivia()
	pi.optDepth++
	f(pi)
	pi.optDepth--
	if pi.state == stateFailure {
		pi.recover()
		pi.restoreBookmark(b)
	}
	pi.removeBookmark(b)
	return pi
}

// not applies f and inverts the outcome. The token and event streams are
// always rolled back.
func (pi *parserImpl) not(f parseFn) *parserImpl {
	if pi.state == stateFailure {
		return pi
	}
	b := pi.setBookmark()
	pi.trivia()
	pi.notDepth++
	f(pi)
	pi.notDepth--
	switch pi.state {
	case stateOK:
		pi.state = stateFailure
	case stateFailure:
		pi.state = stateOK
	default:
		invariant.Invariant(false, "not applied in state %d", pi.state)
	}
	pi.restoreBookmark(b)
	pi.removeBookmark(b)
	return pi
}

// ifNext applies f only when the next non-trivia token is in the set.
//
// Logically equivalent to opt(expect...) when the optional production is
// unequivocally identified by its first token, but cheaper because no
// backtracking is needed. The set is recorded in the expectations either
// way, so the token still shows up in "expecting ..." messages.
func (pi *parserImpl) ifNext(set tokenSet, f parseFn) *parserImpl {
	if pi.state == stateFailure {
		return pi
	}
	t, ok := pi.peekNonWS()
	if !ok {
		return pi
	}
	for _, k := range set {
		pi.addExpected(t.Span, k.Description())
	}
	if set.contains(t.Kind) {
		pi.trivia()
		f(pi)
	}
	return pi
}

// cond is like ifNext but also consumes the matching token before
// applying f.
func (pi *parserImpl) cond(set tokenSet, f parseFn) *parserImpl {
	return pi.ifNext(set, func(p *parserImpl) *parserImpl {
		return p.expect(set).then(f)
	})
}

// zeroOrMore applies f zero or more times.
func (pi *parserImpl) zeroOrMore(f parseFn) *parserImpl {
	return pi.nOrMore(0, f)
}

// oneOrMore applies f one or more times.
func (pi *parserImpl) oneOrMore(f parseFn) *parserImpl {
	return pi.nOrMore(1, f)
}

// nOrMore applies f at least n times, then as many more as possible.
func (pi *parserImpl) nOrMore(n int, f parseFn) *parserImpl {
	if pi.state == stateFailure {
		return pi
	}
	// The first n applications must match.
	for i := 0; i < n; i++ {
		pi.trivia()
		f(pi)
		if pi.state == stateFailure {
			return pi
		}
	}
	// Keep matching as long as possible.
	for {
		b := pi.setBookmark()
		pi.trivia()
		pi.optDepth++
		f(pi)
		pi.optDepth--
		if pi.state == stateFailure {
			pi.recover()
			pi.restoreBookmark(b)
			pi.removeBookmark(b)
			return pi
		}
		pi.removeBookmark(b)
	}
}

// then applies f exactly once, consuming leading trivia first.
func (pi *parserImpl) then(f parseFn) *parserImpl {
	if pi.state == stateFailure {
		return pi
	}
	pi.trivia()
	f(pi)
	return pi
}

// cached is the packrat combinator: if kind is known to have failed at
// the current token the parser fails immediately; otherwise f runs and a
// failure is recorded in the cache.
func (pi *parserImpl) cached(kind SyntaxKind, f parseFn) *parserImpl {
	if !pi.cacheEnabled {
		return f(pi)
	}
	key := cacheKey{tokenIndex: pi.tokens.Index(), kind: kind}
	if _, hit := pi.cache[key]; hit {
		pi.state = stateFailure
		return pi
	}
	f(pi)
	if pi.state == stateFailure {
		pi.cache[key] = struct{}{}
	}
	return pi
}

type parseFn func(*parserImpl) *parserImpl

// alternatives implements ordered choice. The first alternative that
// matches wins; the streams are rolled back between attempts.
type alternatives struct {
	p       *parserImpl
	matched bool
	bm      bookmark
}

// beginAlt starts a group of alternatives, closed by endAlt.
func (pi *parserImpl) beginAlt() *alternatives {
	return &alternatives{p: pi, bm: pi.setBookmark()}
}

// alt tries one alternative, skipped if an earlier one already matched.
func (a *alternatives) alt(f parseFn) *alternatives {
	if a.p.state == stateFailure {
		return a
	}
	if !a.matched {
		a.p.trivia()
		a.p.optDepth++
		f(a.p)
		a.p.optDepth--
		switch a.p.state {
		case stateOK:
			a.matched = true
		case stateFailure:
			a.p.recover()
			a.p.restoreBookmark(a.bm)
		default:
			invariant.Invariant(false, "alternative tried in state %d", a.p.state)
		}
	}
	return a
}

// endAlt closes the group. If no alternative matched, the group fails.
func (a *alternatives) endAlt() *parserImpl {
	a.p.removeBookmark(a.bm)
	if a.matched {
		a.p.state = stateOK
	} else {
		a.p.state = stateFailure
		a.p.handleErrors()
	}
	return a.p
}

func (pi *parserImpl) addExpected(sp span.Span, description string) {
	list, seen := pi.expected[sp]
	if !seen {
		pi.expectedOrder = append(pi.expectedOrder, sp)
	}
	for _, d := range list {
		if d == description {
			return
		}
	}
	pi.expected[sp] = append(list, description)
}

func (pi *parserImpl) addUnexpected(sp span.Span) {
	if _, seen := pi.unexpected[sp]; !seen {
		pi.unexpectedOrder = append(pi.unexpectedOrder, sp)
		pi.unexpected[sp] = struct{}{}
	}
}

// flushErrors commits the pending error messages to the output stream
// and clears the expectations. Called at unambiguous commit points: the
// parser won't backtrack to the left of them, so the accumulated record
// can no longer change.
func (pi *parserImpl) flushErrors() {
	clear(pi.expected)
	pi.expectedOrder = pi.expectedOrder[:0]
	for _, pe := range pi.pending {
		pi.output.PushError(pe.msg, pe.span)
	}
	pi.pending = pi.pending[:0]
	clear(pi.pendingSpans)
}

// handleErrors synthesizes an error message from the accumulated
// expectations. The record with the largest start offset wins: the
// furthest-reaching attempt is the one that best explains what the
// parser was trying to do. Ties go to the latest inserted record. A
// message is kept pending rather than emitted so that later errors for
// the same span are ignored (first writer wins).
func (pi *parserImpl) handleErrors() {
	if pi.optDepth > 0 {
		return
	}
	if len(pi.expectedOrder) == 0 && len(pi.unexpectedOrder) == 0 {
		return
	}

	var expSpan span.Span
	var expDescs []string
	haveExpected := false
	for _, sp := range pi.expectedOrder {
		if !haveExpected || sp.Start() >= expSpan.Start() {
			expSpan = sp
			expDescs = pi.expected[sp]
			haveExpected = true
		}
	}

	var unexpSpan span.Span
	haveUnexpected := false
	for _, sp := range pi.unexpectedOrder {
		if !haveUnexpected || sp.Start() >= unexpSpan.Start() {
			unexpSpan = sp
			haveUnexpected = true
		}
	}

	clear(pi.expected)
	pi.expectedOrder = pi.expectedOrder[:0]
	clear(pi.unexpected)
	pi.unexpectedOrder = pi.unexpectedOrder[:0]

	var sp span.Span
	var descs []string
	switch {
	case haveExpected && haveUnexpected && unexpSpan.Start() > expSpan.Start():
		sp = unexpSpan
	case !haveExpected:
		sp = unexpSpan
	default:
		sp = expSpan
		descs = expDescs
	}

	// A previous error for the same span wins.
	if _, dup := pi.pendingSpans[sp]; dup {
		return
	}

	actual := string(sp.Bytes(pi.tokens.Source()))

	var msg string
	if descs != nil {
		last := descs[len(descs)-1]
		rest := descs[:len(descs)-1]
		if len(rest) == 0 {
			msg = fmt.Sprintf("expecting %s, found `%s`", last, actual)
		} else {
			msg = fmt.Sprintf("expecting %s or %s, found `%s`", joinDescriptions(rest), last, actual)
		}
	} else {
		msg = fmt.Sprintf("unexpected `%s`", actual)
	}

	pi.pending = append(pi.pending, pendingError{span: sp, msg: msg})
	pi.pendingSpans[sp] = struct{}{}
}

func joinDescriptions(descs []string) string {
	out := ""
	for i, d := range descs {
		if i > 0 {
			out += ", "
		}
		out += d
	}
	return out
}

func (pi *parserImpl) recordDebugEvent(event, context string) {
	if pi.debug == DebugOff || pi.debugEvents == nil {
		return
	}
	pi.debugEvents = append(pi.debugEvents, DebugEvent{
		Event:    event,
		TokenPos: pi.tokens.Index(),
		Context:  context,
	})
}

// tokenSet is the set of tokens passed to expect.
type tokenSet []tok.TokenKind

// t builds a token set. The name keeps grammar rules compact:
// p.expect(t(tok.RULE_KW)).
func t(kinds ...tok.TokenKind) tokenSet { return kinds }

func (s tokenSet) contains(k tok.TokenKind) bool {
	for _, kind := range s {
		if kind == k {
			return true
		}
	}
	return false
}
