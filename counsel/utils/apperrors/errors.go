// Package apperrors defines the error taxonomy every handler reports:
// a stable kind tag plus a caller-safe message. Raw causes stay wrapped
// for logging and never reach the HTTP response.
package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"
)

type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindExternalService Kind = "external_service_failure"
	KindPartialFailure  Kind = "partial_failure"
	KindUnavailable     Kind = "service_unavailable"
	KindInternal        Kind = "internal_error"
)

type Error struct {
	Kind    Kind
	Message string
	// Retry carries guidance for partial failures, e.g. which half of a
	// coupled write is safe to repeat.
	Retry string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Partial reports a coupled write that landed only halfway.
func Partial(message, retry string, err error) *Error {
	return &Error{Kind: KindPartialFailure, Message: message, Retry: retry, Err: err}
}

// KindOf extracts the kind tag, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindExternalService:
		return http.StatusBadGateway
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Retry   string `json:"retry,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// WriteHTTP renders err as the structured error body. Untagged errors are
// masked as internal_error so external-service or SQL text never leaks.
func WriteHTTP(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: KindInternal, Message: "internal error"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Kind.HTTPStatus())
	_ = json.NewEncoder(w).Encode(errorResponse{Error: errorBody{
		Kind:    e.Kind,
		Message: e.Message,
		Retry:   e.Retry,
	}})
}
