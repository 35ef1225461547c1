package host

import (
	"fmt"
	"os"
	"strings"
	"time"

	"keel/pkg/result"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultApplicationName = "keel application"
	DefaultEnvironmentName = EnvironmentProduction
	DefaultShutdownTimeout = 5 * time.Second

	// OptionsSection is the configuration section bound onto Options.
	OptionsSection = "Host"
)

// Options controls how the host starts and stops.
type Options struct {
	ApplicationName string `mapstructure:"applicationName" yaml:"applicationName" validate:"required"`
	EnvironmentName string `mapstructure:"environmentName" yaml:"environmentName" validate:"required"`
	ContentRootPath string `mapstructure:"contentRootPath" yaml:"contentRootPath" validate:"required"`

	// ShutdownTimeout bounds the wait for background tasks during Stop, and
	// the whole Stop when driven by Run.
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout" validate:"gt=0"`

	// ValidateOnBuild resolves every registered service during Build.
	ValidateOnBuild bool `mapstructure:"validateOnBuild" yaml:"validateOnBuild"`

	// CaptureStartupErrors makes Run record a startup failure instead of
	// returning it.
	CaptureStartupErrors bool `mapstructure:"captureStartupErrors" yaml:"captureStartupErrors"`

	InitializeModules    bool `mapstructure:"initializeModules" yaml:"initializeModules"`
	StartBackgroundTasks bool `mapstructure:"startBackgroundTasks" yaml:"startBackgroundTasks"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	return Options{
		ApplicationName:      DefaultApplicationName,
		EnvironmentName:      DefaultEnvironmentName,
		ContentRootPath:      root,
		ShutdownTimeout:      DefaultShutdownTimeout,
		InitializeModules:    true,
		StartBackgroundTasks: true,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the options and reports every violation.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return result.Wrap(result.CodeValidation, "invalid host options", err)
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		problems = append(problems, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return result.Wrap(result.CodeValidation, "invalid host options: "+strings.Join(problems, ", "), err)
}
