package parser

import "github.com/jrcribb/yara-x/internal/span"

// EventKind identifies the shape of a parse event.
type EventKind uint8

const (
	// EventBegin opens a non-terminal node of kind Event.Node.
	EventBegin EventKind = iota
	// EventEnd closes the most recently opened node.
	EventEnd
	// EventEndWithError closes the most recently opened node, which has
	// been re-tagged as an Error node. Its children are preserved.
	EventEndWithError
	// EventToken is a leaf covering Event.Span with kind Event.Node.
	EventToken
	// EventError carries an error message anchored at Event.Span.
	EventError
)

// Event is the parser's output unit. The stream of events is a flat
// linearization of the CST: every EventBegin has a matching EventEnd or
// EventEndWithError, and token events appear only between them.
//
// Concatenating the spans of all EventToken events reproduces the source
// byte-exactly.
type Event struct {
	Kind    EventKind
	Node    SyntaxKind // Begin/End/Token
	Span    span.Span  // Token/Error
	Message string     // Error
}

func (k EventKind) String() string {
	switch k {
	case EventBegin:
		return "Begin"
	case EventEnd:
		return "End"
	case EventEndWithError:
		return "EndWithError"
	case EventToken:
		return "Token"
	case EventError:
		return "Error"
	}
	return "Unknown"
}
