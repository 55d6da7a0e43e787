// Package apperr defines the error taxonomy shared by services and handlers.
//
// Services return *Error values for business-rule violations; anything else reaching a
// handler is treated as an unexpected failure and reported without its internals.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindUnauthenticated
	KindAuthorization
	KindNotFound
	KindConflict
	KindCapacity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindCapacity:
		return "capacity"
	default:
		return "unexpected"
	}
}

// Error is a classified failure with a message safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated means the caller could not be identified.
func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

// Authorization means the caller is known but not permitted.
func Authorization(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Capacity(msg string) *Error {
	return &Error{Kind: KindCapacity, Message: msg}
}

// Unexpected wraps an infrastructure failure. The message is what callers see.
func Unexpected(msg string, err error) *Error {
	return &Error{Kind: KindUnexpected, Message: msg, Err: err}
}

// KindOf reports the kind of the first *Error in the chain, or KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// MessageOf returns the caller-safe message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}

func IsValidation(err error) bool      { return KindOf(err) == KindValidation }
func IsUnauthenticated(err error) bool { return KindOf(err) == KindUnauthenticated }
func IsAuthorization(err error) bool   { return KindOf(err) == KindAuthorization }
func IsNotFound(err error) bool        { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool        { return KindOf(err) == KindConflict }
func IsCapacity(err error) bool        { return KindOf(err) == KindCapacity }

// HTTPStatus maps err to the response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindCapacity:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
