package services

import (
	"errors"
	"fmt"
	"strings"

	"keel/pkg/result"
)

// NotFoundError is returned when no service is registered under a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("service %s not found", e.Name)
}

// Code classifies the error for result.FromError.
func (e *NotFoundError) Code() result.Code {
	return result.CodeServiceResolution
}

// IsNotFound checks if an error is a NotFoundError using error unwrapping.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// ResolutionError is returned when a registered service cannot be produced.
type ResolutionError struct {
	// Name of the service being resolved.
	Name string

	// Chain is the resolution path that led to the failure, outermost first.
	Chain []string

	Err error
}

func (e *ResolutionError) Error() string {
	if len(e.Chain) > 1 {
		return fmt.Sprintf("failed to resolve service %s (via %s): %v", e.Name, strings.Join(e.Chain, " -> "), e.Err)
	}
	return fmt.Sprintf("failed to resolve service %s: %v", e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Code classifies the error for result.FromError.
func (e *ResolutionError) Code() result.Code {
	return result.CodeServiceResolution
}

// ErrCircularDependency is wrapped by a ResolutionError when a factory
// transitively resolves itself.
var ErrCircularDependency = errors.New("circular dependency")
