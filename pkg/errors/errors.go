// Package errors provides structured error types for the quadmap engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Categories
//
// The engine distinguishes three failure classes:
//   - Configuration errors (INVALID_PRESET, INVALID_NORMALIZATION, ...):
//     fail fast, reject the request, leave the current layout unchanged.
//   - Data errors (DATA_DEGRADED): degrade locally, never abort a batch.
//   - Numerical errors (NONFINITE): clip or substitute a safe value and
//     continue; non-finite coordinates never propagate downstream.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPreset, "unknown preset: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidPreset) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidDataset, origErr, "load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors (fail fast, nothing partially applied)
	ErrCodeInvalidPreset        Code = "INVALID_PRESET"
	ErrCodeInvalidNormalization Code = "INVALID_NORMALIZATION"
	ErrCodeInvalidDataset       Code = "INVALID_DATASET"
	ErrCodeInvalidConfig        Code = "INVALID_CONFIG"
	ErrCodeInvalidInput         Code = "INVALID_INPUT"

	// Data errors (local degrade)
	ErrCodeDataDegraded Code = "DATA_DEGRADED"

	// Numerical errors (clip and continue)
	ErrCodeNonFinite Code = "NONFINITE"

	// Resource errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeItemNotFound Code = "ITEM_NOT_FOUND"

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

// IsConfiguration reports whether err is any of the fail-fast configuration
// codes. Callers use this to decide between a 400-style rejection and an
// internal failure.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidPreset, ErrCodeInvalidNormalization, ErrCodeInvalidDataset, ErrCodeInvalidConfig, ErrCodeInvalidInput:
		return true
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
