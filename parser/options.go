package parser

import "time"

// Option configures a Parser.
type Option func(*config)

// TelemetryMode controls telemetry collection (production-safe).
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Counts only
	TelemetryTiming                      // Counts + timing
)

// DebugLevel controls debug tracing (development only).
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // Grammar rule entry/exit tracing
	DebugDetailed                   // Entry/exit plus token-level tracing
)

type config struct {
	whitespaces bool
	cache       bool
	telemetry   TelemetryMode
	debug       DebugLevel
}

// WithWhitespaces enables or disables whitespace events in the returned
// CST. When disabled, WHITESPACE token events are stripped from the
// event stream and the resulting tree is no longer lossless.
//
// Default is true.
func WithWhitespaces(yes bool) Option {
	return func(c *config) { c.whitespaces = yes }
}

// WithoutCache disables the packrat failure cache. Parse results are
// identical with and without the cache; this option exists so that the
// equivalence can be verified and the cache bypassed when profiling.
func WithoutCache() Option {
	return func(c *config) { c.cache = false }
}

// WithTelemetryBasic enables basic telemetry (token and event counts).
func WithTelemetryBasic() Option {
	return func(c *config) { c.telemetry = TelemetryBasic }
}

// WithTelemetryTiming enables timing telemetry (counts + parse time).
func WithTelemetryTiming() Option {
	return func(c *config) { c.telemetry = TelemetryTiming }
}

// WithDebugPaths enables debug tracing of grammar rule entry/exit.
func WithDebugPaths() Option {
	return func(c *config) { c.debug = DebugPaths }
}

// WithDebugDetailed enables detailed debug tracing.
func WithDebugDetailed() Option {
	return func(c *config) { c.debug = DebugDetailed }
}

// ParseTelemetry holds parser metrics (production-safe).
type ParseTelemetry struct {
	ParseTime  time.Duration // Total time spent producing events
	TokenCount int           // Number of tokens consumed
	EventCount int           // Number of events produced
	ErrorCount int           // Number of error events
}

// DebugEvent holds debug tracing information (development only).
type DebugEvent struct {
	Event    string // "enter_RULE_DECL", "exit", "consume_IDENT", ...
	TokenPos int    // Absolute token index at the time of the event
	Context  string // Additional context
}
