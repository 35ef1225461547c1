// Package diagnostics exposes the host's health and Prometheus metrics.
//
// The package contributes one participant of each kind: a Module that
// publishes the shared Metrics, a PhaseRecorder lifecycle handler, a
// TimingFilter startup filter, and a Server background task serving
// /healthz, /readyz, /metrics and /features.
package diagnostics

import (
	"sync/atomic"
	"time"

	"keel/pkg/features"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "keel"

// MetricsFeature exposes the Metrics through the feature collection.
var MetricsFeature = features.NewKey[*Metrics]("diagnostics.metrics")

// Metrics holds the host's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	ready    atomic.Bool

	phaseDuration    *prometheus.HistogramVec
	phaseTotal       *prometheus.CounterVec
	readyGauge       prometheus.Gauge
	pipelineDuration prometheus.Histogram
	taskFaults       *prometheus.CounterVec
	jobRuns          *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors, including Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "host",
				Name:      "phase_duration_seconds",
				Help:      "Time spent in each lifecycle phase",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"phase"},
		),
		phaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "host",
				Name:      "phase_total",
				Help:      "Lifecycle phase transitions by outcome",
			},
			[]string{"phase", "outcome"},
		),
		readyGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "host",
				Name:      "ready",
				Help:      "1 while the host is started and not stopping",
			},
		),
		pipelineDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "startup",
				Name:      "pipeline_duration_seconds",
				Help:      "Time spent running the startup pipeline",
				Buckets:   prometheus.DefBuckets,
			},
		),
		taskFaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "background",
				Name:      "task_faults_total",
				Help:      "Background tasks that finished before shutdown",
			},
			[]string{"task"},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "schedule",
				Name:      "job_runs_total",
				Help:      "Scheduled job runs by outcome",
			},
			[]string{"job", "outcome"},
		),
	}

	m.registry.MustRegister(
		m.phaseDuration,
		m.phaseTotal,
		m.readyGauge,
		m.pipelineDuration,
		m.taskFaults,
		m.jobRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry to scrape.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePhase records a phase transition and how long it took.
func (m *Metrics) ObservePhase(phase string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
	m.phaseTotal.WithLabelValues(phase, outcome).Inc()
}

// ObservePipeline records one startup pipeline run.
func (m *Metrics) ObservePipeline(d time.Duration) {
	m.pipelineDuration.Observe(d.Seconds())
}

// ObserveTaskFault counts a background task fault.
func (m *Metrics) ObserveTaskFault(task string) {
	m.taskFaults.WithLabelValues(task).Inc()
}

// ObserveJobRun counts a scheduled job run.
func (m *Metrics) ObserveJobRun(job string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}

// SetReady flips readiness.
func (m *Metrics) SetReady(ready bool) {
	m.ready.Store(ready)
	if ready {
		m.readyGauge.Set(1)
	} else {
		m.readyGauge.Set(0)
	}
}

// Ready reports readiness.
func (m *Metrics) Ready() bool {
	return m.ready.Load()
}
