// Package apperr defines the typed error kinds used at every boundary
// (tool protocol and HTTP API).
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer so it can be mapped to
// an HTTP status or a tool-call isError without string sniffing.
type Kind int

const (
	// KindInternal covers anything not classified below.
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindDegraded
)

// Error wraps an underlying cause with a Kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, format string, args...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a ValidationError: empty query, out-of-range
// limit, bad type, missing required field.
func Validation(format string, args...any) *Error { return newErr(KindValidation, format, args...) }

// NotFound builds a NotFound error: thread, decision, trace, or file by
// id/path not present.
func NotFound(format string, args...any) *Error { return newErr(KindNotFound, format, args...) }

// Conflict builds a Conflict error: learn file already exists; illegal
// status transition.
func Conflict(format string, args...any) *Error { return newErr(KindConflict, format, args...) }

// Degraded marks a backend as degraded without failing the request; the
// caller is expected to attach a warning rather than propagate this as a
// hard error.
func Degraded(format string, args...any) *Error { return newErr(KindDegraded, format, args...) }

// Wrap attaches a Kind to an existing error, preserving it via Unwrap.
func Wrap(kind Kind, cause error, format string, args...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// As extracts an *Error from err, if any is present in its chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, defaulting to KindInternal when err is
// not an *Error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
