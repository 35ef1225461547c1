package result

import (
	"fmt"
	"runtime/debug"
)

// PanicError records a recovered panic.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// Guard runs fn and converts a panic into an Unexpected *Error wrapping a *PanicError.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Wrap(CodeUnexpected, "recovered from panic", &PanicError{Value: r, Stack: debug.Stack()})
		}
	}()
	return fn()
}
