package lifecycle

import (
	"errors"
	"fmt"

	"keel/pkg/result"
)

// HandlerError reports which handler failed in which phase.
type HandlerError struct {
	Handler string
	Phase   Phase
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("lifecycle handler %s failed during %s: %v", e.Handler, e.Phase, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Code classifies the error for result.FromError.
func (e *HandlerError) Code() result.Code {
	return result.CodeLifecycleHandler
}

// IsHandlerError checks if an error is or wraps a HandlerError.
func IsHandlerError(err error) bool {
	var handlerErr *HandlerError
	return errors.As(err, &handlerErr)
}
