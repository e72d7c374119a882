package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation          Kind = "VALIDATION_ERROR"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindNotFoundOrForbidden Kind = "NOT_FOUND_OR_FORBIDDEN"
	KindConflict            Kind = "CONFLICT"
	KindInvalidCode         Kind = "INVALID_OR_EXPIRED_CODE"
	KindRateLimited         Kind = "RATE_LIMITED"
	KindInternal            Kind = "INTERNAL_ERROR"
)

var (
	ErrInvalidCredentials   = New(KindUnauthorized, "invalid email or password")
	ErrUnauthorized         = New(KindUnauthorized, "unauthorized")
	ErrInvalidOrExpiredCode = New(KindInvalidCode, "invalid or expired verification code")
	ErrEmailTaken           = New(KindConflict, "email already registered")
	ErrEmailNotRegistered   = New(KindValidation, "email not registered")
	ErrUserNotFound         = New(KindNotFoundOrForbidden, "user not found")
	ErrAddressNotFound      = New(KindNotFoundOrForbidden, "address not found or not authorized")
	ErrOrderNotFound        = New(KindNotFoundOrForbidden, "order not found")
	ErrProductNotFound      = New(KindNotFoundOrForbidden, "product not found")
	ErrCategoryNotFound     = New(KindNotFoundOrForbidden, "category not found")
)

// Error is a user-facing failure. Message is safe to return to clients; Err
// holds the internal cause and is never serialized.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindInvalidCode:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFoundOrForbidden:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation builds a 400 error with the given message.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Internal hides the cause behind a generic message.
func Internal(err error) *Error {
	return Wrap(KindInternal, "internal server error", err)
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
