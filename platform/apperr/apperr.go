// Package apperr defines the typed errors services return. The HTTP layer
// maps the Kind to a status code; anything untyped is reported as a 500.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindBadRequest
	KindUnauthorized
	KindInternal
	// KindUnavailable marks a failing upstream: the model provider, the
	// queue or a request deadline.
	KindUnavailable
)

var statusByKind = map[Kind]int{
	KindNotFound:     http.StatusNotFound,
	KindValidation:   http.StatusBadRequest,
	KindBadRequest:   http.StatusBadRequest,
	KindUnauthorized: http.StatusUnauthorized,
	KindInternal:     http.StatusInternalServerError,
	KindUnavailable:  http.StatusServiceUnavailable,
}

// Error is a service error. Message is safe to return to clients; Err is
// kept for logs and errors.Is/As.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Details interface{}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind to a status code; unknown kinds are a 500.
func (e *Error) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithDetails attaches a payload rendered next to the message, such as
// per-field validation failures.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error    { return New(KindNotFound, message) }
func Validation(message string) *Error  { return New(KindValidation, message) }
func BadRequest(message string) *Error  { return New(KindBadRequest, message) }
func Internal(message string) *Error    { return New(KindInternal, message) }
func Unavailable(message string) *Error { return New(KindUnavailable, message) }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
