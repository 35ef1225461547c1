package formatting

import "keel/pkg/host"

// document is the serialized shape of a host.Description.
type document struct {
	State       string              `json:"state" yaml:"state"`
	Options     optionsDocument     `json:"options" yaml:"options"`
	Environment environmentDocument `json:"environment" yaml:"environment"`
	Modules     []moduleDocument    `json:"modules" yaml:"modules"`

	StartupFilters    int      `json:"startupFilters" yaml:"startupFilters"`
	LifecycleHandlers []string `json:"lifecycleHandlers" yaml:"lifecycleHandlers"`
	BackgroundTasks   []string `json:"backgroundTasks" yaml:"backgroundTasks"`
	Services          []string `json:"services" yaml:"services"`
	Features          []string `json:"features" yaml:"features"`
}

type optionsDocument struct {
	ShutdownTimeout      string `json:"shutdownTimeout" yaml:"shutdownTimeout"`
	ValidateOnBuild      bool   `json:"validateOnBuild" yaml:"validateOnBuild"`
	CaptureStartupErrors bool   `json:"captureStartupErrors" yaml:"captureStartupErrors"`
	InitializeModules    bool   `json:"initializeModules" yaml:"initializeModules"`
	StartBackgroundTasks bool   `json:"startBackgroundTasks" yaml:"startBackgroundTasks"`
}

type environmentDocument struct {
	ApplicationName string `json:"applicationName" yaml:"applicationName"`
	EnvironmentName string `json:"environmentName" yaml:"environmentName"`
	ContentRootPath string `json:"contentRootPath" yaml:"contentRootPath"`
	InstanceID      string `json:"instanceId" yaml:"instanceId"`
}

type moduleDocument struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

func newDocument(d host.Description) document {
	modules := make([]moduleDocument, len(d.Modules))
	for i, m := range d.Modules {
		modules[i] = moduleDocument{Name: m.Name, Version: m.Version}
	}
	return document{
		State: string(d.State),
		Options: optionsDocument{
			ShutdownTimeout:      d.Options.ShutdownTimeout.String(),
			ValidateOnBuild:      d.Options.ValidateOnBuild,
			CaptureStartupErrors: d.Options.CaptureStartupErrors,
			InitializeModules:    d.Options.InitializeModules,
			StartBackgroundTasks: d.Options.StartBackgroundTasks,
		},
		Environment: environmentDocument{
			ApplicationName: d.Environment.ApplicationName,
			EnvironmentName: d.Environment.EnvironmentName,
			ContentRootPath: d.Environment.ContentRootPath,
			InstanceID:      d.Environment.InstanceID,
		},
		Modules:           modules,
		StartupFilters:    d.StartupFilters,
		LifecycleHandlers: nonNil(d.LifecycleHandlers),
		BackgroundTasks:   nonNil(d.BackgroundTasks),
		Services:          nonNil(d.Services),
		Features:          nonNil(d.Features),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
