package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the single error value exchanged across the engine boundary. Every
// rejection carries a stable upper-case code suitable for UI mapping plus a
// human-readable message. Errors are values; the engine never panics on a
// rejected transaction.
type Error struct {
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches two engine errors by code, so errors.Is(err, New(code, "")) holds
// for any engine error carrying that code.
func (e *Error) Is(target error) bool {
	var other *Error
	if stderrors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// New constructs an engine error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs an engine error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to an engine error, preserving the code for CodeOf
// while keeping the underlying error reachable via errors.Unwrap.
func Wrap(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the stable code from any error produced by the engine.
// Unknown errors map to INVALID_TRANSACTION's sibling catch-all, CodeInternal.
func CodeOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
