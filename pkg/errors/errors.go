// Package errors provides structured error types for tierpack.
//
// Error codes are machine-readable so the CLI and the pipeline can tell
// configuration mistakes apart from bundler failures and ledger I/O problems.
//
// # Error Codes
//
// Codes follow a hierarchical naming convention:
//   - INVALID_*: Input or configuration validation failures
//   - *_NOT_FOUND: A configured file or build instance does not exist
//   - LEDGER_IO, BUNDLE_FAILED: Runtime failures during a build
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPlatform, "unknown platform: %s", p)
//	if errors.Is(err, errors.ErrCodeInvalidPlatform) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeLedgerIO, origErr, "append %s", path)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPlatform Code = "INVALID_PLATFORM"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidPrefix   Code = "INVALID_PREFIX"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeConfigNotFound   Code = "CONFIG_NOT_FOUND"
	ErrCodeInstanceNotFound Code = "INSTANCE_NOT_FOUND"

	// Build errors
	ErrCodeLedgerIO     Code = "LEDGER_IO"
	ErrCodeBundleFailed Code = "BUNDLE_FAILED"

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

// BundleError carries the output of a failed bundler process.
type BundleError struct {
	Entry    string // Entry file the bundler was building
	ExitCode int    // Process exit code, -1 if the process never started
	Stderr   string // Captured standard error
}

// Error implements the error interface.
func (e *BundleError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("bundle %s: exit status %d", e.Entry, e.ExitCode)
	}
	return fmt.Sprintf("bundle %s: process did not start", e.Entry)
}

// Code returns the error code for this error type.
func (e *BundleError) Code() Code {
	return ErrCodeBundleFailed
}
