package result

import (
	"context"
	"errors"
	"fmt"
)

// Error is a classified failure with an optional underlying cause.
type Error struct {
	code    Code
	message string
	cause   error
}

// NewError creates an Error without a cause.
func NewError(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Errorf creates an Error with a formatted message.
func Errorf(code Code, format string, args ...interface{}) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error carrying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{code: code, message: message, cause: cause}
}

// Code returns the error classification.
func (e *Error) Code() Code {
	return e.code
}

// Message returns the human readable message without the code prefix.
func (e *Error) Message() string {
	return e.message
}

// Cause returns the underlying error, if any.
func (e *Error) Cause() error {
	return e.cause
}

// WithCause returns a copy of e carrying cause.
func (e *Error) WithCause(cause error) *Error {
	return &Error{code: e.code, message: e.message, cause: cause}
}

// Error renders "code: message" followed by the cause in parentheses when present.
func (e *Error) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.code, e.message, e.cause)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.code == e.code
}

// Err converts e into the error a caller should see: the cause when there is
// one, otherwise e itself.
func (e *Error) Err() error {
	if e == nil {
		return nil
	}
	if e.cause != nil {
		return e.cause
	}
	return e
}

// FromError classifies err as an *Error.
//
// An *Error anywhere in the chain is returned as is. Errors implementing Coder
// keep their code. Context cancellation and deadline errors map to
// CodeCanceled. Everything else becomes CodeUnexpected. A nil err yields nil.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var coder Coder
	if errors.As(err, &coder) {
		return Wrap(coder.Code(), err.Error(), err)
	}

	if IsCancellation(err) {
		return Wrap(CodeCanceled, "operation was canceled", err)
	}

	return Wrap(CodeUnexpected, err.Error(), err)
}

// IsCancellation reports whether err signals cooperative cancellation.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// HasCode reports whether err classifies as code.
func HasCode(err error, code Code) bool {
	e := FromError(err)
	return e != nil && e.code == code
}
