// Package dErrors defines the domain error taxonomy shared by services,
// stores and the HTTP boundary. Every expected failure carries a Code so
// callers can branch on it without string matching; transport maps codes to
// status codes exactly once.
package dErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of expected, recoverable-by-caller failures.
type Code string

const (
	// CodeUnauthorized means the request carries no valid actor identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the actor is known but not allowed to perform
	// the action. Policy checks fail closed into this code.
	CodeForbidden Code = "forbidden"
	// CodeNotFound means the entity does not exist or is soft-deleted.
	CodeNotFound Code = "not_found"
	// CodeInvalidState means a state-machine guard rejected the transition.
	CodeInvalidState Code = "invalid_state"
	// CodeInsufficientIndicios means a submit was attempted with zero
	// active indicios.
	CodeInsufficientIndicios Code = "insufficient_indicios"
	// CodeDuplicate means a uniqueness constraint was violated.
	CodeDuplicate Code = "duplicate_identifier"
	// CodeValidation means a field constraint was violated.
	CodeValidation Code = "validation_error"
	// CodeInvalidInput means external input failed parsing at a trust
	// boundary (malformed IDs, unknown enum values).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest means the request shape itself is unusable.
	CodeBadRequest Code = "bad_request"
	// CodeInternal wraps unexpected failures; callers cannot recover.
	CodeInternal Code = "internal"
)

// Error is the concrete domain error. It wraps an optional cause so
// errors.Is/As keep working through the chain.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// Is is a legacy alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to its HTTP status. Lives here so the
// mapping exists in exactly one place.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState, CodeInsufficientIndicios, CodeDuplicate:
		return http.StatusConflict
	case CodeValidation, CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
