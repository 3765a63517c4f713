// Package errors provides structured error types for the alluvial application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The chart engine fails fast: every input, schema, and configuration check
// runs before any layout computation, and a failure there produces zero
// primitives. The codes mirror that taxonomy:
//   - INVALID_CONFIG: bad option values, inconsistent population denominator,
//     palette exhaustion
//   - INPUT_MISSING: a required input table is absent
//   - SCHEMA_ERROR: a required column is absent from an input table
//   - COMPUTATION_ERROR: arithmetic failures (zero denominator) or malformed
//     time ordering
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfig, "bar width %v outside (0,1]", w)
//	if errors.Is(err, errors.ErrCodeConfig) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInputMissing, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors: invalid option values, inconsistent or missing
	// population denominator, palette exhaustion.
	ErrCodeConfig Code = "INVALID_CONFIG"

	// Input errors
	ErrCodeInputMissing Code = "INPUT_MISSING"
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeSchema       Code = "SCHEMA_ERROR"

	// Computation errors: zero denominator, malformed time ordering.
	ErrCodeComputation Code = "COMPUTATION_ERROR"

	// Output errors
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
