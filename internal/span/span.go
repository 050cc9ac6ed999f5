// Package span provides byte ranges into rule source code.
package span

import "fmt"

// Span is a half-open byte range [Start, End) into the source that was
// given to the parser. Spans are comparable and can be used as map keys.
type Span struct {
	start uint32
	end   uint32
}

// New creates a span covering [start, end).
func New(start, end int) Span {
	return Span{start: uint32(start), end: uint32(end)}
}

// Start returns the offset of the first byte in the span.
func (s Span) Start() int { return int(s.start) }

// End returns the offset right past the last byte in the span.
func (s Span) End() int { return int(s.end) }

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return int(s.end - s.start) }

// Bytes returns the portion of source covered by the span. The span must
// lie within the source, otherwise nil is returned.
func (s Span) Bytes(source []byte) []byte {
	if int(s.end) > len(source) || s.start > s.end {
		return nil
	}
	return source[s.start:s.end]
}

// Combine returns the smallest span that covers both s and other.
func (s Span) Combine(other Span) Span {
	r := s
	if other.start < r.start {
		r.start = other.start
	}
	if other.end > r.end {
		r.end = other.end
	}
	return r
}

// String returns the span in `[start..end)` form.
func (s Span) String() string {
	return fmt.Sprintf("[%d..%d)", s.start, s.end)
}

// LineCol resolves the span's start offset to a 1-based line and column
// within source. Columns are counted in bytes, following the Go scanner
// convention.
func (s Span) LineCol(source []byte) (line, col int) {
	line, col = 1, 1
	limit := int(s.start)
	if limit > len(source) {
		limit = len(source)
	}
	for _, b := range source[:limit] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
