// Package apperr defines the error taxonomy shared by the store, service and
// handler layers. Every failure that reaches a caller carries a Kind with a
// stable machine-readable name.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindEmptyCart
	KindAlreadyPaid
	KindRenderError
	KindRateLimited
)

// String returns the machine-readable name sent to clients.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindEmptyCart:
		return "empty_cart"
	case KindAlreadyPaid:
		return "already_paid"
	case KindRenderError:
		return "render_error"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal_error"
	}
}

// Error is a classified failure. Message is safe to show to the caller; Err
// (if any) is the underlying cause and is only logged.
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

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so errors.Is(err, apperr.ErrEmptyCart) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is checks against a kind.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrEmptyCart    = &Error{Kind: KindEmptyCart}
	ErrAlreadyPaid  = &Error{Kind: KindAlreadyPaid}
	ErrRenderError  = &Error{Kind: KindRenderError}
	ErrRateLimited  = &Error{Kind: KindRateLimited}
	ErrInternal     = &Error{Kind: KindInternal}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error { return New(KindValidation, message) }

func Validationf(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func Conflict(message string) *Error { return New(KindConflict, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func NotFoundf(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

func Forbidden(message string) *Error { return New(KindForbidden, message) }

func EmptyCart() *Error { return New(KindEmptyCart, "cart is empty") }

func AlreadyPaid() *Error { return New(KindAlreadyPaid, "order already paid") }

func Render(err error) *Error { return Wrap(KindRenderError, "failed to render payment QR code", err) }

func RateLimited() *Error { return New(KindRateLimited, "too many requests, slow down") }

// Internal hides the cause behind a generic message.
func Internal(err error) *Error { return Wrap(KindInternal, "internal server error", err) }

// KindOf classifies any error. Unclassified errors are Internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// From returns err as an *Error, wrapping unclassified errors as Internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
