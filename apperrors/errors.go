// Package apperrors holds the error taxonomy shared by services and handlers.
package apperrors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

var (
	// ErrValidation marks malformed, missing or duplicate input.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized marks a missing, invalid or expired token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound marks a referenced post or user that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPostExpired marks engagement attempted on an expired post.
	ErrPostExpired = errors.New("post expired")
	// ErrTimeout marks a store operation that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrInternal marks an unexpected store or infrastructure failure.
	ErrInternal = errors.New("internal error")
)

// Error carries a kind sentinel, a client-safe message and the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New builds an error of the given kind.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation is shorthand for New(ErrValidation, message).
func Validation(message string) *Error {
	return New(ErrValidation, message)
}

// Classify turns a store error into a taxonomy error. Errors that already carry a kind pass through.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(ErrNotFound, message, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return Wrap(ErrTimeout, message, err)
	default:
		return Wrap(ErrInternal, message, err)
	}
}

// KindOf reports the taxonomy kind of err, defaulting to ErrInternal.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrUnauthorized, ErrNotFound, ErrPostExpired, ErrTimeout} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}

// HTTPStatus maps an error to the HTTP status, envelope code and client-visible message.
// Internal detail is never part of the message.
func HTTPStatus(err error) (status int, code int, message string) {
	kind := KindOf(err)
	message = kind.Error()
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" && kind != ErrInternal {
		message = appErr.Message
	}
	switch kind {
	case ErrValidation:
		return http.StatusBadRequest, 40000, message
	case ErrPostExpired:
		return http.StatusBadRequest, 40010, message
	case ErrUnauthorized:
		return http.StatusUnauthorized, 40100, message
	case ErrNotFound:
		return http.StatusNotFound, 40400, message
	case ErrTimeout:
		return http.StatusGatewayTimeout, 50400, "request timed out"
	default:
		return http.StatusInternalServerError, 50000, "internal server error"
	}
}
