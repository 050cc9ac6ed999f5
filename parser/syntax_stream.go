package parser

import (
	"github.com/jrcribb/yara-x/internal/invariant"
	"github.com/jrcribb/yara-x/internal/span"
)

// SyntaxStream is the append-only buffer of events the parser writes its
// output to.
//
// Events are appended at the back and popped from the front. Positions in
// the stream are absolute: the number of events ever pushed, regardless
// of how many have been popped. A bookmark is such an absolute position,
// and Truncate discards everything pushed after it, which is how
// backtracking rewinds the output.
type SyntaxStream struct {
	events []Event // pending events, events[0] is the next to pop
	base   int     // number of events popped so far
	open   []int   // absolute positions of unmatched Begin events
}

// SyntaxBookmark is a savepoint into the syntax stream.
type SyntaxBookmark struct {
	pos int
}

// Begin opens a non-terminal node of the given kind. Must be matched by
// End or EndWithError.
func (s *SyntaxStream) Begin(kind SyntaxKind) {
	s.open = append(s.open, s.base+len(s.events))
	s.events = append(s.events, Event{Kind: EventBegin, Node: kind})
}

// End closes the most recently opened node.
func (s *SyntaxStream) End() {
	n := len(s.open)
	invariant.Precondition(n > 0, "End without matching Begin")
	s.open = s.open[:n-1]
	s.events = append(s.events, Event{Kind: EventEnd})
}

// EndWithError closes the most recently opened node and re-tags it as an
// Error node. The node's children are preserved; this is used when a
// non-terminal failed but its partial children are worth keeping in the
// tree.
func (s *SyntaxStream) EndWithError() {
	n := len(s.open)
	invariant.Precondition(n > 0, "EndWithError without matching Begin")
	openAt := s.open[n-1]
	s.open = s.open[:n-1]
	invariant.Invariant(openAt >= s.base, "open Begin already popped")
	s.events[openAt-s.base].Node = Error
	s.events = append(s.events, Event{Kind: EventEndWithError, Node: Error})
}

// PushToken appends a leaf token event.
func (s *SyntaxStream) PushToken(kind SyntaxKind, sp span.Span) {
	s.events = append(s.events, Event{Kind: EventToken, Node: kind, Span: sp})
}

// PushError appends an error message event anchored at the given span.
func (s *SyntaxStream) PushError(msg string, sp span.Span) {
	s.events = append(s.events, Event{Kind: EventError, Span: sp, Message: msg})
}

// Bookmark returns the current absolute position.
func (s *SyntaxStream) Bookmark() SyntaxBookmark {
	return SyntaxBookmark{pos: s.base + len(s.events)}
}

// Truncate discards every event pushed after the bookmark.
func (s *SyntaxStream) Truncate(b SyntaxBookmark) {
	rel := b.pos - s.base
	invariant.Precondition(rel >= 0 && rel <= len(s.events), "truncating past popped events")
	s.events = s.events[:rel]
	for len(s.open) > 0 && s.open[len(s.open)-1] >= b.pos {
		s.open = s.open[:len(s.open)-1]
	}
}

// Remove releases a bookmark. The bookmark must not be used afterwards.
func (s *SyntaxStream) Remove(b SyntaxBookmark) {}

// Pop removes and returns the event at the front of the stream. It
// refuses to pop an unmatched Begin, because the node it opens may still
// be re-tagged by EndWithError.
func (s *SyntaxStream) Pop() (Event, bool) {
	if len(s.events) == 0 {
		return Event{}, false
	}
	if len(s.open) > 0 && s.open[0] == s.base {
		return Event{}, false
	}
	ev := s.events[0]
	s.events = s.events[1:]
	s.base++
	return ev, true
}
