// Package errors provides structured error types for mtlxport.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the translator, validator and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (malformed graphs, names, paths)
//   - UNSUPPORTED_CATEGORY, CYCLIC_DEPENDENCY: translation failures that
//     abort a material
//   - COERCION_FAILED, DEFINITION_CONFLICT: recoverable conditions that
//     surface as warnings
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnsupportedCategory, "no mapper for %q", category)
//	if errors.Is(err, errors.ErrCodeUnsupportedCategory) {
//	    // fall back to a placeholder
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidGraph  Code = "INVALID_GRAPH"
	ErrCodeInvalidName   Code = "INVALID_NAME"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Translation errors
	ErrCodeUnsupportedCategory Code = "UNSUPPORTED_CATEGORY"
	ErrCodeCyclicDependency    Code = "CYCLIC_DEPENDENCY"
	ErrCodeCoercionFailed      Code = "COERCION_FAILED"
	ErrCodeDefinitionConflict  Code = "DEFINITION_CONFLICT"
	ErrCodeValidationFailed    Code = "VALIDATION_FAILED"

	// Backend errors
	ErrCodeCache   Code = "CACHE_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

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

// NodeError attaches the offending source node to a translation failure.
// It is what the translator returns when a material cannot be produced.
type NodeError struct {
	Node     string // Source node name
	Category string // Source node category
	Err      error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("node %q (%s): %v", e.Node, e.Category, e.Err)
	}
	return fmt.Sprintf("node %q: %v", e.Node, e.Err)
}

// Unwrap returns the wrapped error so Is and GetCode see through it.
func (e *NodeError) Unwrap() error {
	return e.Err
}
