// Package errors provides structured error types for dotlive.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the live server and the terminal editor
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages for toasts and inline placeholders
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes map onto the four recoverable failure kinds of an editor session:
//   - DIAGRAM_SYNTAX: the diagram source could not be rendered
//   - INVALID_CONFIG: the configuration text is not acceptable JSON
//   - INVALID_SHARE_LINK: a share-link token could not be decoded
//   - NO_DIAGRAM / EXPORT_FAILED: the export pipeline could not produce a PNG
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "unknown theme %q", theme)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // keep the previous configuration
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeSyntax, origErr, "render %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidShareLink Code = "INVALID_SHARE_LINK"
	ErrCodeInvalidColor     Code = "INVALID_COLOR"
	ErrCodeInvalidSettings  Code = "INVALID_SETTINGS"

	// Rendering errors
	ErrCodeSyntax   Code = "DIAGRAM_SYNTAX"
	ErrCodeCanceled Code = "RENDER_CANCELED"

	// Export errors
	ErrCodeNoDiagram    Code = "NO_DIAGRAM"
	ErrCodeExportFailed Code = "EXPORT_FAILED"

	// Environment errors
	ErrCodeClipboard   Code = "CLIPBOARD"
	ErrCodeUnsupported Code = "UNSUPPORTED"

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
