// Package apperr defines the error kinds shared by the club services.
//
// Services return *Error values so that boundaries (HTTP handlers, tests) can
// branch on the kind instead of matching strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindForbidden  Kind = "forbidden"
	KindIntegrity  Kind = "integrity"
	KindInternal   Kind = "internal"
)

// Error is the domain error type.
type Error struct {
	Kind     Kind              // Machine-readable kind
	Message  string            // Human readable message
	Metadata map[string]string // Extra context, e.g. the offending player_id
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// With attaches a metadata entry and returns the same error.
func (e *Error) With(key, value string) *Error {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed or missing input.
func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }

// NotFound reports a missing referenced entity.
func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

// Conflict reports a transition attempted on a record that is no longer pending,
// or a duplicate that must not be created.
func Conflict(format string, args ...any) *Error { return newf(KindConflict, format, args...) }

// Forbidden reports a missing role or ownership relation.
func Forbidden(format string, args ...any) *Error { return newf(KindForbidden, format, args...) }

// Integrity reports a violated domain invariant.
func Integrity(format string, args ...any) *Error { return newf(KindIntegrity, format, args...) }

// Internal wraps an unexpected failure, usually from the database.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// Wrap returns err unchanged when it already carries a kind, otherwise it is
// wrapped as an internal error with message.
func Wrap(message string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internal(message, err)
}

// KindOf extracts the kind of err. Errors without a kind are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to the response status used by the API.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindIntegrity:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
