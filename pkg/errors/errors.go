// Package errors provides structured error types for mmdrender.
//
// Error codes let the CLI decide what is fatal (a missing source directory,
// a missing renderer in watch mode) and what is tallied per diagram (a
// renderer failure), without string matching.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSourceDirNotFound, "%s directory not found", dir)
//	if errors.Is(err, errors.ErrCodeSourceDirNotFound) {
//	    // abort the run
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRenderFailed, cause, "render %s", name)
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
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidVariant Code = "INVALID_VARIANT"

	// Resource not found errors
	ErrCodeConfigNotFound    Code = "CONFIG_NOT_FOUND"
	ErrCodeSourceNotFound    Code = "SOURCE_NOT_FOUND"
	ErrCodeSourceDirNotFound Code = "SOURCE_DIR_NOT_FOUND"

	// Rendering and filesystem errors
	ErrCodeRenderFailed      Code = "RENDER_FAILED"
	ErrCodeDependencyMissing Code = "DEPENDENCY_MISSING"
	ErrCodeArtifactIO        Code = "ARTIFACT_IO"

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

// RenderError carries the diagnostic output of a failed renderer invocation.
type RenderError struct {
	Output string // artifact the invocation was producing
	Stderr string // diagnostic text printed by the renderer
	Err    error  // process or context error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("render %s: %v: %s", e.Output, e.Err, e.Stderr)
	}
	return fmt.Sprintf("render %s: %v", e.Output, e.Err)
}

// Unwrap returns the process or context error.
func (e *RenderError) Unwrap() error { return e.Err }
