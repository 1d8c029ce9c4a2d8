package codegen

import (
	"fmt"

	"github.com/raphamorim/jam/internal/diagnostics"
)

// Error is a code generation failure: a semantic error found while
// lowering, or a structural verification failure. Line is 0 when no
// source line is known.
type Error struct {
	Code string // a diagnostics code
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func errf(code string, line int, format string, args ...any) *Error {
	return &Error{Code: code, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func verifyErrf(format string, args ...any) *Error {
	return &Error{Code: diagnostics.ErrVerification, Msg: fmt.Sprintf(format, args...)}
}
