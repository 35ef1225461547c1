// Package modules initializes the host's modules in registration order.
package modules

import (
	"context"
	"fmt"

	"keel/pkg/core"
	"keel/pkg/logging"
	"keel/pkg/result"
	"keel/pkg/services"
)

// InitializationError reports the module whose Initialize failed.
type InitializationError struct {
	Module  string
	Version string
	Err     error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("module %s (%s) failed to initialize: %v", e.Module, e.Version, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// Code classifies the error for result.FromError.
func (e *InitializationError) Code() result.Code {
	return result.CodeModuleInitialization
}

// Info describes a registered module.
type Info struct {
	Name    string
	Version string
}

// Loader runs each module's Initialize exactly once per host start.
type Loader struct {
	modules   []core.Module
	registrar services.Registrar
	logger    logging.Logger
}

// NewLoader creates a Loader over modules, in the given order.
func NewLoader(modules []core.Module, registrar services.Registrar, loggers logging.Factory) *Loader {
	return &Loader{
		modules:   append([]core.Module(nil), modules...),
		registrar: registrar,
		logger:    loggers.CreateLogger("ModuleLoader"),
	}
}

// Modules lists the registered modules in initialization order.
func (l *Loader) Modules() []Info {
	infos := make([]Info, 0, len(l.modules))
	for _, m := range l.modules {
		infos = append(infos, Info{Name: m.Name(), Version: m.Version()})
	}
	return infos
}

// InitializeAll initializes every module sequentially and stops at the first
// failure. Cancellation is checked before each module and returned unchanged.
func (l *Loader) InitializeAll(ctx context.Context, app *core.Context) error {
	if len(l.modules) == 0 {
		l.logger.Debug("No modules registered")
		return nil
	}

	l.logger.Info("Initializing %d module(s)", len(l.modules))

	for _, m := range l.modules {
		if err := ctx.Err(); err != nil {
			return err
		}

		name, version := m.Name(), m.Version()
		l.logger.Info("Initializing module %s (%s)", name, version)

		mc := core.NewModuleContext(app, l.registrar, m)
		err := result.Guard(func() error {
			return m.Initialize(ctx, mc)
		})
		if err != nil {
			if result.IsCancellation(err) {
				return err
			}
			l.logger.Error(err, "Module %s failed to initialize", name)
			return &InitializationError{Module: name, Version: version, Err: err}
		}

		l.logger.Info("Module %s initialized", name)
	}

	l.logger.Info("All modules initialized successfully")
	return nil
}
