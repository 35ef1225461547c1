package diagnostics

import (
	"context"

	"keel/pkg/core"
	"keel/pkg/features"
)

// ServiceName is the service under which the Module registers the Metrics.
const ServiceName = "diagnostics.metrics"

// Module publishes the shared Metrics to the other participants.
type Module struct {
	metrics *Metrics
	version string
}

// NewModule creates the module around metrics.
func NewModule(metrics *Metrics, version string) *Module {
	return &Module{metrics: metrics, version: version}
}

func (m *Module) Name() string {
	return "Diagnostics"
}

func (m *Module) Version() string {
	return m.version
}

func (m *Module) Initialize(_ context.Context, mc *core.ModuleContext) error {
	if err := features.Set(mc.App().Features(), MetricsFeature, m.metrics); err != nil {
		return err
	}
	if err := mc.Services().RegisterInstance(ServiceName, m.metrics); err != nil {
		return err
	}
	mc.Logger().Debug("Metrics published as feature %s and service %s", MetricsFeature.Name(), ServiceName)
	return nil
}
