// Package apperr defines the typed errors returned by the core services.
// Every error carries a kind, a human readable message and a machine
// readable reason code, and travels unchanged up to the request layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindConflict
	KindPermissionDenied
	KindFailedPrecondition
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPermissionDenied:
		return "permission_denied"
	case KindFailedPrecondition:
		return "failed_precondition"
	case KindUnavailable:
		return "unavailable"
	}
	return "unknown"
}

type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return e.Reason + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same kind and reason, so callers can
// compare against values built with New.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Reason == t.Reason
}

func New(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

func InvalidArgument(reason, message string) *Error {
	return New(KindInvalidArgument, reason, message)
}

func NotFound(reason, message string) *Error {
	return New(KindNotFound, reason, message)
}

func Conflict(reason, message string) *Error {
	return New(KindConflict, reason, message)
}

func PermissionDenied(reason, message string) *Error {
	return New(KindPermissionDenied, reason, message)
}

func FailedPrecondition(reason, message string) *Error {
	return New(KindFailedPrecondition, reason, message)
}

// Storage wraps a failure of the storage collaborator. Errors that are
// already typed pass through untouched.
func Storage(err error) error {
	return wrapUnavailable("storage", "storage unavailable", err)
}

// Delivery wraps a failure of a push or SMS gateway.
func Delivery(err error) error {
	return wrapUnavailable("delivery", "delivery gateway unavailable", err)
}

func wrapUnavailable(reason, message string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: KindUnavailable, Reason: reason, Message: message, Err: err}
}

func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindUnknown
}

func ReasonOf(err error) string {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Reason
	}
	return ""
}

// HTTPStatus maps an error to the status code the request layer responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindFailedPrecondition:
		return http.StatusPreconditionFailed
	case KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
