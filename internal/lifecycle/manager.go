// Package lifecycle broadcasts the host's phase transitions to the
// registered lifecycle handlers.
package lifecycle

import (
	"context"
	"sync"

	"keel/pkg/core"
	"keel/pkg/logging"
	"keel/pkg/result"
)

// Phase is one of the four lifecycle notifications.
type Phase string

const (
	PhaseNone     Phase = ""
	PhaseStarting Phase = "starting"
	PhaseStarted  Phase = "started"
	PhaseStopping Phase = "stopping"
	PhaseStopped  Phase = "stopped"
)

// Manager invokes handlers sequentially, in registration order, for every phase.
type Manager struct {
	handlers []core.LifecycleHandler
	logger   logging.Logger

	mu    sync.RWMutex
	phase Phase
}

// NewManager creates a Manager over handlers.
func NewManager(handlers []core.LifecycleHandler, logger logging.Logger) *Manager {
	return &Manager{
		handlers: append([]core.LifecycleHandler(nil), handlers...),
		logger:   logger,
	}
}

// Phase returns the phase most recently broadcast.
func (m *Manager) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Handlers returns the handler identities in invocation order.
func (m *Manager) Handlers() []string {
	names := make([]string, 0, len(m.handlers))
	for _, h := range m.handlers {
		names = append(names, core.NameOf(h))
	}
	return names
}

// OnStarting notifies handlers that the host is starting.
func (m *Manager) OnStarting(ctx context.Context) error {
	return m.broadcastStartup(ctx, PhaseStarting, core.LifecycleHandler.OnStarting)
}

// OnStarted notifies handlers that startup completed.
func (m *Manager) OnStarted(ctx context.Context) error {
	return m.broadcastStartup(ctx, PhaseStarted, core.LifecycleHandler.OnStarted)
}

// OnStopping notifies handlers that shutdown began.
func (m *Manager) OnStopping(ctx context.Context) error {
	return m.broadcastShutdown(ctx, PhaseStopping, core.LifecycleHandler.OnStopping)
}

// OnStopped notifies handlers that shutdown completed.
func (m *Manager) OnStopped(ctx context.Context) error {
	return m.broadcastShutdown(ctx, PhaseStopped, core.LifecycleHandler.OnStopped)
}

type callback func(core.LifecycleHandler, context.Context) error

// broadcastStartup aborts on the first failure. Cancellation, whether observed
// before a handler or returned by one, propagates unchanged.
func (m *Manager) broadcastStartup(ctx context.Context, phase Phase, fn callback) error {
	m.enter(phase)

	for _, h := range m.handlers {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := core.NameOf(h)
		err := invoke(ctx, h, fn)
		if err == nil {
			continue
		}
		if result.IsCancellation(err) {
			return err
		}

		m.logger.Error(err, "Lifecycle handler %s failed during %s", name, phase)
		return &HandlerError{Handler: name, Phase: phase, Err: err}
	}
	return nil
}

// broadcastShutdown swallows cancellation: handlers are expected to observe
// an already-cancelled shutdown context. Other failures abort the remaining
// handlers of this phase only.
//
// Handlers run in registration order here too, not reversed.
func (m *Manager) broadcastShutdown(ctx context.Context, phase Phase, fn callback) error {
	m.enter(phase)

	for _, h := range m.handlers {
		name := core.NameOf(h)
		err := invoke(ctx, h, fn)
		if err == nil {
			continue
		}
		if result.IsCancellation(err) {
			m.logger.Debug("Lifecycle handler %s observed cancellation during %s", name, phase)
			continue
		}

		m.logger.Error(err, "Lifecycle handler %s failed during %s", name, phase)
		return &HandlerError{Handler: name, Phase: phase, Err: err}
	}
	return nil
}

func (m *Manager) enter(phase Phase) {
	m.mu.Lock()
	m.phase = phase
	m.mu.Unlock()
	m.logger.Debug("Broadcasting %s to %d handler(s)", phase, len(m.handlers))
}

func invoke(ctx context.Context, h core.LifecycleHandler, fn callback) error {
	return result.Guard(func() error {
		return fn(h, ctx)
	})
}
