// Package apperr defines the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation    Kind = "VALIDATION_ERROR"
	KindNotFound      Kind = "NOT_FOUND"
	KindForbidden     Kind = "FORBIDDEN"
	KindAlreadyPaid   Kind = "ALREADY_PAID"
	KindVerification  Kind = "VERIFICATION_FAILED"
	KindConfiguration Kind = "CONFIGURATION_ERROR"
	KindUnauthorized  Kind = "UNAUTHORIZED"
	KindGateway       Kind = "PAYMENT_GATEWAY_ERROR"
	KindInternal      Kind = "INTERNAL_ERROR"
)

// Error is an application error carrying a kind, a client-safe message and the original cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the original error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrNotFound) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindAlreadyPaid, KindVerification:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// New creates an application error.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrAlreadyPaid   = &Error{Kind: KindAlreadyPaid}
	ErrVerification  = &Error{Kind: KindVerification}
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrGateway       = &Error{Kind: KindGateway}
)

func Validation(msg string) *Error              { return New(KindValidation, msg, nil) }
func NotFound(msg string) *Error                { return New(KindNotFound, msg, nil) }
func Forbidden(msg string) *Error               { return New(KindForbidden, msg, nil) }
func AlreadyPaid(msg string) *Error             { return New(KindAlreadyPaid, msg, nil) }
func Verification(msg string) *Error            { return New(KindVerification, msg, nil) }
func Configuration(msg string) *Error           { return New(KindConfiguration, msg, nil) }
func Unauthorized(msg string, err error) *Error { return New(KindUnauthorized, msg, err) }
func Gateway(msg string, err error) *Error      { return New(KindGateway, msg, err) }

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
