package domain

import (
	"errors"
	"strings"
)

// Kind classifies a failure so that transports and tests can tell causes apart.
type Kind string

const (
	KindValidation   Kind = "validation_failed"
	KindUnauthorized Kind = "unauthorized"
	KindUpstream     Kind = "upstream_failed"
	KindStorage      Kind = "storage_failed"
)

// ErrNotFound is returned by lookups that match no record.
var ErrNotFound = errors.New("not found")

// Error is the error type returned by the service layer.
//
// Kind is meant for automated handling (status codes, metrics).
// Msg is safe to show to the caller. Op and Err describe where and why
// the failure happened and are meant for logs only.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(string(e.Kind))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

// ValidationError reports bad input rejected before any side effect.
func ValidationError(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// UnauthorizedError reports a call made without an authenticated user.
func UnauthorizedError(op string) *Error {
	return &Error{Kind: KindUnauthorized, Op: op, Msg: "authentication required"}
}

// UpstreamError reports any failure of the external image model.
// The caller-facing message never carries the cause.
func UpstreamError(op string, err error) *Error {
	return &Error{Kind: KindUpstream, Op: op, Msg: "prediction failed", Err: err}
}

// StorageError reports a failure of the object store or the database.
func StorageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Msg: "storage failed", Err: err}
}
