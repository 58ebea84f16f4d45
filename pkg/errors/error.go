// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Malformed instructions and parameters
//   - Amount errors (200-299): Size resolution failures, never retried
//   - Position errors (300-399): Missing positions for close orders
//   - Order errors (400-499): Placement failures after retry exhaustion
//   - Session errors (500-599): Brokerage credential failures
//   - Transport errors (600-699): Connectivity and timeout failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeMinAmount, "quantity rounds to zero")
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeOrderFailed, "long entry order failed", cause)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeFreeAmountNone) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsAmountError reports whether the error belongs to the amount-resolution
// family. Amount errors are preconditions the caller must fix and are never
// retried.
func IsAmountError(err error) bool {
	code := GetCode(err)

	return code >= ErrCodeAmountPercentBoth && code < ErrCodePositionNone
}

// IsPositionError reports whether the error belongs to the missing-position
// family.
func IsPositionError(err error) bool {
	code := GetCode(err)

	return code >= ErrCodePositionNone && code < ErrCodeOrderFailed
}

// ValidationError reports a set of field-level failures discovered while
// normalizing a raw order request. All offending fields are collected, not
// just the first.
type ValidationError struct {
	Fields []FieldError
}

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError from field failures.
func NewValidationError(fields []FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	msg := "validation failed:"
	for _, f := range e.Fields {
		msg += fmt.Sprintf(" %s: %s;", f.Field, f.Message)
	}

	return msg
}

// IsValidationError checks if an error is a ValidationError.
// It uses errors.As to check the error chain.
func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr)
}
