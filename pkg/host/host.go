// Package host runs an application: it initializes modules, executes the
// startup pipeline, broadcasts lifecycle phases, supervises background
// tasks, and tears everything down on shutdown.
//
// A Host is assembled by a Builder and can be started at most once:
//
//	h, err := host.NewBuilder().
//	    UseConfiguration(cfg).
//	    AddModule(cacheModule).
//	    AddLifecycleHandler(readiness).
//	    AddBackgroundTask(poller).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//	return h.Run(ctx)
//
// Start runs, in order: the "starting" broadcast, module initialization,
// the startup pipeline, the "started" broadcast, and background task launch.
// Any failure aborts Start; nothing is undone automatically. Stop cancels
// the shutdown signal, then runs the "stopping" broadcast, waits for
// background tasks and runs the "stopped" broadcast.
package host

import (
	"context"
	"errors"
	"sync"
	"time"

	"keel/internal/background"
	"keel/internal/lifecycle"
	"keel/internal/modules"
	"keel/pkg/cancellation"
	"keel/pkg/core"
	"keel/pkg/logging"
	"keel/pkg/result"
	"keel/pkg/services"

	"golang.org/x/sync/semaphore"
)

// State is the host's position in its lifecycle.
type State string

const (
	StateCreated  State = "created"
	StateStarting State = "starting"
	StateStarted  State = "started"
	StateFailed   State = "failed"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
)

// Host owns one application context and drives its participants.
type Host struct {
	opts     Options
	env      Environment
	app      *core.Context
	hub      *cancellation.Hub
	registry *services.Registry
	pipeline core.StartupAction
	filters  int
	loader   *modules.Loader
	handlers *lifecycle.Manager
	runner   *background.Runner
	logger   logging.Logger

	// lock serializes Start and Stop.
	lock *semaphore.Weighted

	mu       sync.RWMutex
	state    State
	startErr error
}

func (h *Host) acquire(ctx context.Context) error {
	return h.lock.Acquire(ctx, 1)
}

func (h *Host) release() {
	h.lock.Release(1)
}

// State returns the current lifecycle state.
func (h *Host) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *Host) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Context returns the application context shared with all participants.
func (h *Host) Context() *core.Context {
	return h.app
}

// Environment returns the environment the host was built for.
func (h *Host) Environment() Environment {
	return h.env
}

// Options returns the resolved host options.
func (h *Host) Options() Options {
	return h.opts
}

// Done is closed once shutdown has been requested.
func (h *Host) Done() <-chan struct{} {
	return h.hub.Done()
}

// TaskFaults returns the background task faults recorded so far.
func (h *Host) TaskFaults() []TaskFault {
	return h.runner.Faults()
}

// StartupError returns the error of a failed Start, if any.
func (h *Host) StartupError() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.startErr
}

// Start brings the host up. It fails with an invalid-state error unless the
// host has never been started. Every phase observes both ctx and the
// shutdown signal, so a concurrent Stop aborts a Start in progress.
func (h *Host) Start(ctx context.Context) error {
	if err := h.acquire(ctx); err != nil {
		return err
	}
	defer h.release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer context.AfterFunc(h.hub.Root(), cancel)()

	if st := h.State(); st != StateCreated {
		return result.Errorf(result.CodeInvalidState, "host cannot start from state %s", st)
	}
	h.setState(StateStarting)

	h.logger.Info("Host starting: %s (environment %s, instance %s)", h.env.ApplicationName, h.env.EnvironmentName, h.env.InstanceID)
	began := time.Now()

	if err := h.start(ctx); err != nil {
		h.mu.Lock()
		h.state = StateFailed
		h.startErr = err
		h.mu.Unlock()

		h.logger.Error(err, "Host failed to start [%s]", result.FromError(err).Code())
		return err
	}

	h.setState(StateStarted)
	h.logger.Info("Host started in %s", time.Since(began).Round(time.Millisecond))
	return nil
}

func (h *Host) start(ctx context.Context) error {
	if err := h.handlers.OnStarting(ctx); err != nil {
		return err
	}

	if h.opts.InitializeModules {
		if err := h.loader.InitializeAll(ctx, h.app); err != nil {
			return err
		}
	} else {
		h.logger.Debug("Module initialization disabled")
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := h.pipeline(ctx, h.app); err != nil {
		if result.IsCancellation(err) {
			return err
		}
		return result.Wrap(result.CodeStartupPipeline, "startup pipeline failed", err)
	}

	if err := h.handlers.OnStarted(ctx); err != nil {
		return err
	}

	if h.opts.StartBackgroundTasks {
		return h.runner.Start(ctx, h.app)
	}
	h.logger.Debug("Background task start disabled")
	return nil
}

// Stop signals shutdown and tears the host down. Failures in the stopping
// broadcast do not skip the remaining steps; all teardown errors are joined.
// Stopping a host that never started only cancels the shutdown signal.
// When ctx ends before a Start in progress has given up, Stop returns the
// context error and leaves the host as it is.
func (h *Host) Stop(ctx context.Context) error {
	// Cancel before taking the lock so that a Start in progress observes shutdown.
	if err := h.hub.Cancel(); err != nil && !errors.Is(err, cancellation.ErrClosed) {
		return err
	}

	if err := h.acquire(ctx); err != nil {
		return result.Wrap(result.CodeCanceled, "stop gave up waiting for start to finish", err)
	}
	defer h.release()

	switch h.State() {
	case StateStopped:
		return nil
	case StateCreated:
		h.setState(StateStopped)
		h.logger.Debug("Host stopped before it was started")
		return nil
	}

	h.setState(StateStopping)
	h.logger.Info("Host stopping")

	var errs []error
	if err := h.handlers.OnStopping(ctx); err != nil {
		errs = append(errs, err)
	}
	h.runner.Stop()
	if err := h.handlers.OnStopped(ctx); err != nil {
		errs = append(errs, err)
	}

	h.setState(StateStopped)

	if err := errors.Join(errs...); err != nil {
		h.logger.Error(err, "Host stopped with errors")
		return err
	}
	h.logger.Info("Host stopped")
	return nil
}

// RequestStop signals shutdown without waiting. Run returns once it notices.
func (h *Host) RequestStop() error {
	return h.hub.Cancel()
}

// Run starts the host, waits until ctx is done or RequestStop is called,
// then stops it within the shutdown timeout.
//
// When Start fails the host is stopped on a best-effort basis and the start
// error is returned, or recorded in StartupError when CaptureStartupErrors is set.
func (h *Host) Run(ctx context.Context) error {
	if err := h.Start(ctx); err != nil {
		if stopErr := h.stopWithTimeout(ctx); stopErr != nil {
			h.logger.Error(stopErr, "Cleanup after failed start reported errors")
		}
		if h.opts.CaptureStartupErrors {
			h.logger.Warn("Startup error captured, host is not running")
			return nil
		}
		return err
	}

	select {
	case <-ctx.Done():
		h.logger.Info("Shutdown requested by caller")
	case <-h.hub.Done():
		h.logger.Info("Shutdown requested")
	}

	return h.stopWithTimeout(ctx)
}

func (h *Host) stopWithTimeout(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.opts.ShutdownTimeout)
	defer cancel()
	return h.Stop(stopCtx)
}

// Close releases the cancellation hub. Linked contexts are cancelled.
func (h *Host) Close() error {
	return h.hub.Close()
}
