// Package apperr provides coded errors shared by the engine and the tool layer.
//
// Codes are stable strings so tool handlers can map an error to a user-facing
// hint without string matching on messages.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies an error category.
type Code string

const (
	ErrUnknown      Code = "UNKNOWN"
	ErrInvalidInput Code = "INVALID_INPUT"
	// ErrProtocol marks malformed operation results: a missing key or a
	// value of the wrong shape coming back from an executor.
	ErrProtocol   Code = "PROTOCOL"
	// ErrExecutor marks a failure the executor reported as data, such as
	// an unreadable file that does exist.
	ErrExecutor   Code = "EXECUTOR"
	ErrGeneration Code = "GENERATION"
	ErrStorage    Code = "STORAGE"
	ErrNotFound   Code = "NOT_FOUND"
)

// Error is a coded error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

// Unwrap implements errors.Unwrap.
func (e *Error) Unwrap() error { return e.Wrapped }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with the given code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and message. Returns nil when err is nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Wrapped: err}
}

// Wrapf wraps err with a code and formatted message. Returns nil when err is nil.
func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// CodeOf returns the code of the outermost *Error in err's chain,
// or ErrUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrUnknown
}

// Has reports whether err carries the given code.
func Has(err error, code Code) bool {
	return CodeOf(err) == code
}
