package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"keel/internal/formatting"
	"keel/pkg/logging"
)

// Run starts the host and blocks until ctx is cancelled, SIGINT or SIGTERM
// arrives, or the host is asked to stop. Shutdown is bounded by
// Host:ShutdownTimeout.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := a.host.Environment()
	logging.Info("CLI", "Starting %s (%s, instance %s)", env.ApplicationName, env.EnvironmentName, env.InstanceID)
	if a.settings.Diagnostics.Enabled {
		logging.Info("CLI", "Diagnostics available on http://%s", a.settings.Diagnostics.Address)
	}

	defer func() {
		if err := a.host.Close(); err != nil {
			logging.Debug("CLI", "Host close: %v", err)
		}
	}()

	if err := a.host.Run(ctx); err != nil {
		logging.Error("CLI", err, "Host stopped with errors")
		return err
	}

	if err := a.host.StartupError(); err != nil {
		logging.Warn("CLI", "Startup failed and was captured: %v", err)
	}
	for _, fault := range a.host.TaskFaults() {
		logging.Warn("CLI", "Background task %s faulted: %v", fault.Task, fault)
	}
	logging.Info("CLI", "Shut down cleanly")
	return nil
}

// Describe writes what the host is made of without starting it.
func (a *Application) Describe(w io.Writer, options formatting.Options) error {
	f, err := formatting.New(options)
	if err != nil {
		return err
	}
	return f.FormatDescription(w, a.host.Describe())
}
