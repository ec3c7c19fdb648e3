// Package domainerrors defines the coded error taxonomy shared by services
// and the HTTP layer. Services return these; stores return sentinel errors
// (pkg/platform/sentinel) which services translate here.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping.
type Code string

const (
	// CodeValidation covers malformed or out-of-range input: identification
	// number format, minimum opening balance, non-positive amounts, missing
	// required fields.
	CodeValidation Code = "validation_error"
	// CodeBusinessRule covers rule violations on well-formed input: inactive
	// account, insufficient balance, same-account transfer.
	CodeBusinessRule Code = "business_rule_violation"
	// CodeNotFound means a referenced id does not exist.
	CodeNotFound Code = "not_found"
	// CodeTimeout means the operation's context expired before commit.
	CodeTimeout Code = "timeout"
	// CodeInternal covers storage and other infrastructure failures. Never
	// exposes details to callers.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Fields carries per-field validation
// messages for CodeValidation errors.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error while keeping it
// reachable through errors.Is / errors.Unwrap.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NewValidation creates a CodeValidation error carrying per-field messages.
func NewValidation(message string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// outside the taxonomy (opaque storage failures surface as 500-equivalents).
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
