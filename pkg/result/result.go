package result

import "fmt"

// Result is the outcome of an operation without a value.
type Result struct {
	err *Error
}

// Ok returns a successful Result.
func Ok() Result {
	return Result{}
}

// Fail returns a failed Result. It panics when e is nil.
func Fail(e *Error) Result {
	if e == nil {
		panic("result: Fail called with nil error")
	}
	return Result{err: e}
}

// FromErr returns Ok for a nil err and a failure classified by FromError otherwise.
func FromErr(err error) Result {
	if err == nil {
		return Ok()
	}
	return Result{err: FromError(err)}
}

// Success reports whether the operation succeeded.
func (r Result) Success() bool {
	return r.err == nil
}

// Error returns the failure, or nil on success.
func (r Result) Error() *Error {
	return r.err
}

// Err returns nil on success, otherwise the failure's cause (or the failure
// itself when it has no cause).
func (r Result) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err.Err()
}

func (r Result) String() string {
	if r.err == nil {
		return "Success"
	}
	return fmt.Sprintf("Failure(%s)", r.err.Error())
}

// Of is the outcome of an operation producing a T.
type Of[T any] struct {
	value T
	err   *Error
}

// OkValue returns a successful Of carrying v. It panics when v is a nil interface.
func OkValue[T any](v T) Of[T] {
	if any(v) == nil {
		panic("result: OkValue called with nil value")
	}
	return Of[T]{value: v}
}

// FailValue returns a failed Of. It panics when e is nil.
func FailValue[T any](e *Error) Of[T] {
	if e == nil {
		panic("result: FailValue called with nil error")
	}
	return Of[T]{err: e}
}

// Success reports whether a value is present.
func (r Of[T]) Success() bool {
	return r.err == nil
}

// Error returns the failure, or nil on success.
func (r Of[T]) Error() *Error {
	return r.err
}

// Value returns the value and whether it is present.
func (r Of[T]) Value() (T, bool) {
	return r.value, r.err == nil
}

// Unwrap returns the value, or the failure's cause (the failure itself when
// it has none) with the zero T.
func (r Of[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err.Err()
	}
	return r.value, nil
}

// Must returns the value or panics with the failure.
func (r Of[T]) Must() T {
	if r.err != nil {
		panic(r.err)
	}
	return r.value
}

// Or returns the value on success, fallback otherwise.
func (r Of[T]) Or(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// OrElse returns the value on success, fn(failure) otherwise.
func (r Of[T]) OrElse(fn func(*Error) T) T {
	if r.err != nil {
		return fn(r.err)
	}
	return r.value
}

// Discard drops the value, keeping only the outcome.
func (r Of[T]) Discard() Result {
	return Result{err: r.err}
}

func (r Of[T]) String() string {
	if r.err == nil {
		return fmt.Sprintf("Success(%v)", r.value)
	}
	return fmt.Sprintf("Failure(%s)", r.err.Error())
}
