// Package invariant provides contract assertions for the rule front end.
//
// Assertion failures indicate programming errors inside this repository,
// never user errors: parsing malformed rule source must not trip any of
// these checks. All functions panic on violation.
package invariant

import (
	"fmt"
	"runtime"
)

// Precondition checks an input contract at function entry.
// Panics with PRECONDITION VIOLATION if condition is false.
func Precondition(condition bool, format string, args ...any) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
// Panics with POSTCONDITION VIOLATION if condition is false.
func Postcondition(condition bool, format string, args ...any) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during function execution.
// Panics with INVARIANT VIOLATION if condition is false.
//
// Typical uses are loop progress checks (the parser must consume at least
// one token per iteration) and stream balance checks (every open node is
// eventually closed).
func Invariant(condition bool, format string, args ...any) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

func fail(kind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if _, file, line, ok := runtime.Caller(2); ok {
		panic(fmt.Sprintf("%s VIOLATION at %s:%d: %s", kind, file, line, msg))
	}
	panic(fmt.Sprintf("%s VIOLATION: %s", kind, msg))
}
