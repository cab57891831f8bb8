// Package domainerrors defines the coded error type every module surfaces to
// callers. Codes are stable identifiers the transport layer maps to HTTP
// statuses; messages are human-readable detail. Infra layers return sentinel
// errors (pkg/platform/sentinel) and services translate them into these.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code is a stable, machine-readable error kind.
type Code string

const (
	CodeValidation           Code = "validation_error"
	CodeBadRequest           Code = "bad_request"
	CodeInvalidInput         Code = "invalid_input"
	CodeNotFound             Code = "not_found"
	CodeConflict             Code = "conflict"
	CodeDuplicateApplication Code = "duplicate_application"
	CodeNotEligible          Code = "not_eligible"
	CodeInvalidTransition    Code = "invalid_transition"
	CodeDeadlinePassed       Code = "deadline_passed"
	CodeUnauthorized         Code = "unauthorized"
	CodeForbidden            Code = "forbidden"
	CodeInvariantViolation   Code = "invariant_violation"
	CodeTimeout              Code = "timeout"
	CodeInternal             Code = "internal_error"
)

// Error carries a code, a message, and optionally the ids of the rules that
// failed (eligibility rejections enumerate every failed rule so the caller
// can render a precise message).
type Error struct {
	Code    Code
	Message string
	Rules   []string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithRules creates a coded error carrying the failed rule ids.
func WithRules(code Code, message string, rules []string) *Error {
	return &Error{Code: code, Message: message, Rules: rules}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Unwrap()
		if err == nil {
			return false
		}
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability:
// dErrors.Is(err, dErrors.CodeBadRequest).
func Is(err error, code Code) bool { return HasCode(err, code) }

// RulesOf extracts the failed rule ids from an error chain, or nil.
func RulesOf(err error) []string {
	var de *Error
	for errors.As(err, &de) {
		if len(de.Rules) > 0 {
			return de.Rules
		}
		err = de.Unwrap()
		if err == nil {
			return nil
		}
	}
	return nil
}

// ToHTTPStatus maps a code to the HTTP status the transport layer writes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeDuplicateApplication, CodeInvalidTransition:
		return http.StatusConflict
	case CodeDeadlinePassed:
		return http.StatusGone
	case CodeNotEligible, CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
