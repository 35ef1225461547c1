package diagnostics

import (
	"context"
	"time"

	"keel/pkg/core"
)

// TimingFilter measures the startup pipeline it wraps. Register it first to
// time the whole pipeline.
type TimingFilter struct {
	metrics *Metrics
}

func NewTimingFilter(metrics *Metrics) *TimingFilter {
	return &TimingFilter{metrics: metrics}
}

func (f *TimingFilter) Name() string {
	return "diagnostics.timing"
}

func (f *TimingFilter) Configure(next core.StartupAction) core.StartupAction {
	return func(ctx context.Context, app *core.Context) error {
		began := time.Now()
		err := next(ctx, app)
		f.metrics.ObservePipeline(time.Since(began))
		app.Logger("Startup").Debug("Startup pipeline finished in %s", time.Since(began).Round(time.Microsecond))
		return err
	}
}
