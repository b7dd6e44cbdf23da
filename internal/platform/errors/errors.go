// Package errors is the project error type: a code for machines, a message
// for people, and optionally the offending field, the operation and a cause.
// Import it as perr
package errors

import (
	"context"
	stderrs "errors"
	"fmt"
)

// ErrNotFound is returned by store helpers when a row is missing
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is the structured error. Values are treated as immutable; the With*
// helpers copy
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the cause, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending input field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// New returns an error with code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns an error with code and a formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns an error with code and message caused by orig
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// As returns the outermost *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns err's code, Unknown for foreign errors
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// Public returns what may be shown to a client: the code and the message
// without the cause chain. Foreign errors show their text as Unknown
func Public(err error) (ErrorCode, string) {
	if e, ok := As(err); ok {
		return e.code, e.msg
	}
	return ErrorCodeUnknown, err.Error()
}

// Root returns the deepest cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// WithField copies err with field set. Foreign errors are returned unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp copies err with op set. Foreign errors are returned unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// FromContext turns context cancellation and deadlines into Timeout errors;
// other errors pass through
func FromContext(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case stderrs.Is(err, context.DeadlineExceeded):
		return WithOp(Wrap(err, ErrorCodeTimeout, "deadline exceeded"), op)
	case stderrs.Is(err, context.Canceled):
		return WithOp(Wrap(err, ErrorCodeTimeout, "canceled"), op)
	}
	return err
}

// Retryable reports whether running the same work again may succeed: Timeout
// and Unavailable errors, and transient Postgres conflicts
func Retryable(err error) bool {
	switch CodeOf(err) {
	case ErrorCodeTimeout, ErrorCodeUnavailable:
		return true
	}
	return IsRetryable(err)
}
