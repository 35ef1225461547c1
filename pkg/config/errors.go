package config

import (
	"fmt"

	"keel/pkg/result"
)

// ConfigurationError represents a failure while loading or binding configuration.
type ConfigurationError struct {
	// Source is the file path, environment prefix or key involved.
	Source string

	// ErrorType is one of "io", "parse" or "bind".
	ErrorType string

	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s error in %s: %v", e.ErrorType, e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Code classifies the error for result.FromError.
func (e *ConfigurationError) Code() result.Code {
	return result.CodeConfiguration
}
