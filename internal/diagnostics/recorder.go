package diagnostics

import (
	"context"
	"sync"
	"time"

	"keel/internal/lifecycle"
)

// PhaseRecorder is a lifecycle handler feeding phase timings and readiness into Metrics.
type PhaseRecorder struct {
	metrics *Metrics

	mu            sync.Mutex
	startBegan    time.Time
	shutdownBegan time.Time
}

func NewPhaseRecorder(metrics *Metrics) *PhaseRecorder {
	return &PhaseRecorder{metrics: metrics}
}

func (r *PhaseRecorder) Name() string {
	return "diagnostics.phases"
}

func (r *PhaseRecorder) OnStarting(context.Context) error {
	r.mu.Lock()
	r.startBegan = time.Now()
	r.mu.Unlock()
	r.metrics.ObservePhase(string(lifecycle.PhaseStarting), 0, nil)
	return nil
}

func (r *PhaseRecorder) OnStarted(context.Context) error {
	r.mu.Lock()
	elapsed := time.Since(r.startBegan)
	r.mu.Unlock()
	r.metrics.ObservePhase(string(lifecycle.PhaseStarted), elapsed, nil)
	r.metrics.SetReady(true)
	return nil
}

func (r *PhaseRecorder) OnStopping(context.Context) error {
	r.metrics.SetReady(false)
	r.mu.Lock()
	r.shutdownBegan = time.Now()
	r.mu.Unlock()
	r.metrics.ObservePhase(string(lifecycle.PhaseStopping), 0, nil)
	return nil
}

func (r *PhaseRecorder) OnStopped(context.Context) error {
	r.mu.Lock()
	elapsed := time.Since(r.shutdownBegan)
	r.mu.Unlock()
	r.metrics.ObservePhase(string(lifecycle.PhaseStopped), elapsed, nil)
	return nil
}
