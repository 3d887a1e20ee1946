// Package errors provides structured error types for the cadseer core.
//
// This package defines error codes and types that enable:
//   - Consistent handling of the core's error taxonomy across libraries and CLI
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes group the four error families of the recompute core:
//   - Structural: INVALID_INPUT, NOT_FOUND, STALE_VERTEX, DEAD_VERTEX, CYCLE.
//     Rejected synchronously, no graph mutation occurs.
//   - Recompute: UPDATE_FAILED, INPUT_FAILED. Captured into a vertex's Failure
//     state, never abort a pass.
//   - Identity integrity: IDENTITY_INTEGRITY. Nil or duplicate stable ids that
//     survived correlation. Repaired automatically, reported.
//   - Precondition: PRECONDITION. An API was called at the wrong time, for
//     example pick resolution in the middle of a pass.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeCycle, "connect %s -> %s would close a cycle", p, c)
//	if errors.Is(err, errors.ErrCodeCycle) {
//	    // reject the edit
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeUpdateFailed, cause, "feature %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Structural errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeStaleVertex  Code = "STALE_VERTEX"
	ErrCodeDeadVertex   Code = "DEAD_VERTEX"
	ErrCodeCycle        Code = "CYCLE"

	// Recompute errors
	ErrCodeUpdateFailed Code = "UPDATE_FAILED"
	ErrCodeInputFailed  Code = "INPUT_FAILED"

	// Identity errors
	ErrCodeIdentityIntegrity Code = "IDENTITY_INTEGRITY"

	// Usage errors
	ErrCodePrecondition Code = "PRECONDITION"
	ErrCodeInvalidModel Code = "INVALID_MODEL"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsStructural reports whether err belongs to the structural family: the call
// was rejected and no state changed.
func IsStructural(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeNotFound, ErrCodeStaleVertex, ErrCodeDeadVertex, ErrCodeCycle:
		return true
	}
	return false
}
