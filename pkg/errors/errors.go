// Package errors provides structured error types for pathstep.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, TUI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Graph input errors carry the offending token or edge in [Error.Subject]:
//   - EMPTY_NODE_LIST: no usable node tokens
//   - DUPLICATE_NODE: a node id repeated
//   - MALFORMED_EDGE: an edge token does not have the from-to:weight shape
//   - UNKNOWN_NODE_REFERENCE: an edge names a node absent from the node list
//   - INVALID_WEIGHT: weight missing, non-numeric, zero, negative or too large
//
// The remaining codes follow the INVALID_* / *_NOT_FOUND / INTERNAL_*
// convention.
//
// # Usage
//
//	err := errors.Invalid(errors.ErrCodeMalformedEdge, token, "invalid edge format: %s", token)
//	if errors.Is(err, errors.ErrCodeMalformedEdge) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "failed to render step %d", i)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph input errors
	ErrCodeEmptyNodeList  Code = "EMPTY_NODE_LIST"
	ErrCodeDuplicateNode  Code = "DUPLICATE_NODE"
	ErrCodeMalformedEdge  Code = "MALFORMED_EDGE"
	ErrCodeUnknownNodeRef Code = "UNKNOWN_NODE_REFERENCE"
	ErrCodeInvalidWeight  Code = "INVALID_WEIGHT"

	// Request validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidStartNode Code = "INVALID_START_NODE"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidSessionID Code = "INVALID_SESSION_ID"
	ErrCodeStepOutOfRange   Code = "STEP_OUT_OF_RANGE"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Subject string // Offending token, edge or identifier (optional)
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

// Invalid creates a new Error that records the offending subject.
func Invalid(code Code, subject string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Subject: subject,
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

// GetSubject extracts the offending subject from an error, if available.
func GetSubject(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Subject
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

// IsValidation reports whether err carries one of the input validation codes.
// The HTTP API maps these to client errors.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeEmptyNodeList, ErrCodeDuplicateNode, ErrCodeMalformedEdge,
		ErrCodeUnknownNodeRef, ErrCodeInvalidWeight, ErrCodeInvalidInput,
		ErrCodeInvalidStartNode, ErrCodeInvalidFormat, ErrCodeInvalidSessionID,
		ErrCodeStepOutOfRange:
		return true
	}
	return false
}

// IsNotFound reports whether err carries one of the not-found codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeFileNotFound, ErrCodeSessionNotFound:
		return true
	}
	return false
}
