// Package apperr defines the error kinds the HTTP layer knows how to render.
// Services wrap failures in *Error so handlers never inspect storage errors.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kinds.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
	ErrUnavailable     = errors.New("service unavailable")
)

// Error is a client-facing failure. Message is safe to return to the
// caller; Cause is logged and never serialized.
type Error struct {
	Kind    error
	Message string
	Details []string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation builds a 400 error listing every violation.
func Validation(details []string) *Error {
	return &Error{Kind: ErrValidation, Message: strings.Join(details, "; "), Details: details}
}

func BadRequest(message string) *Error {
	return &Error{Kind: ErrValidation, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: ErrConflict, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: ErrUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: ErrForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func TooManyRequests(message string) *Error {
	return &Error{Kind: ErrTooManyRequests, Message: message}
}

// Internal hides cause behind a generic message.
func Internal(message string, cause error) *Error {
	return &Error{Kind: ErrInternal, Message: message, Cause: cause}
}

// Unavailable reports a dependency that cannot serve right now.
func Unavailable(message string, cause error) *Error {
	return &Error{Kind: ErrUnavailable, Message: message, Cause: cause}
}

// Status maps an error to its HTTP status code. Anything that is not an
// *Error is treated as internal.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// As extracts the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
