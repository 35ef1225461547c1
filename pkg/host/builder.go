package host

import (
	"fmt"
	"slices"
	"time"

	"keel/internal/background"
	"keel/internal/lifecycle"
	"keel/internal/modules"
	"keel/internal/startup"
	"keel/pkg/cancellation"
	"keel/pkg/config"
	"keel/pkg/core"
	"keel/pkg/features"
	"keel/pkg/logging"
	"keel/pkg/result"
	"keel/pkg/services"

	"golang.org/x/sync/semaphore"
)

// Names under which the host registers its own collaborators.
const (
	ServiceConfiguration = "keel.configuration"
	ServiceLoggers       = "keel.loggers"
	ServiceFeatures      = "keel.features"
	ServiceCancellation  = "keel.cancellation"
	ServiceEnvironment   = "keel.environment"
)

// TaskFault is a background task that finished before shutdown was requested.
type TaskFault = background.Fault

// Builder collects participants and produces a Host.
type Builder struct {
	cfg              *config.Configuration
	loggers          logging.Factory
	optionConfigs    []func(*Options)
	serviceConfigs   []func(*services.Registry) error
	modules          []core.Module
	filters          []core.StartupFilter
	handlers         []core.LifecycleHandler
	tasks            []core.BackgroundTask
	faultSubscribers []func(TaskFault)
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// UseConfiguration sets the configuration. It is required.
func (b *Builder) UseConfiguration(cfg *config.Configuration) *Builder {
	b.cfg = cfg
	return b
}

// UseLoggerFactory replaces the default logger factory.
func (b *Builder) UseLoggerFactory(loggers logging.Factory) *Builder {
	b.loggers = loggers
	return b
}

// ConfigureOptions registers a callback applied after the "Host" configuration section.
func (b *Builder) ConfigureOptions(fn func(*Options)) *Builder {
	b.optionConfigs = append(b.optionConfigs, fn)
	return b
}

// UseApplicationName overrides Host:ApplicationName.
func (b *Builder) UseApplicationName(name string) *Builder {
	return b.ConfigureOptions(func(o *Options) { o.ApplicationName = name })
}

// UseEnvironment overrides Host:EnvironmentName.
func (b *Builder) UseEnvironment(name string) *Builder {
	return b.ConfigureOptions(func(o *Options) { o.EnvironmentName = name })
}

// UseContentRoot overrides Host:ContentRootPath.
func (b *Builder) UseContentRoot(path string) *Builder {
	return b.ConfigureOptions(func(o *Options) { o.ContentRootPath = path })
}

// UseShutdownTimeout overrides Host:ShutdownTimeout.
func (b *Builder) UseShutdownTimeout(timeout time.Duration) *Builder {
	return b.ConfigureOptions(func(o *Options) { o.ShutdownTimeout = timeout })
}

// ConfigureServices registers a callback run against the service registry during Build.
func (b *Builder) ConfigureServices(fn func(*services.Registry) error) *Builder {
	b.serviceConfigs = append(b.serviceConfigs, fn)
	return b
}

// AddModule registers a module. Modules initialize in registration order.
func (b *Builder) AddModule(m core.Module) *Builder {
	b.modules = append(b.modules, m)
	return b
}

// AddStartupFilter registers a filter. The first filter registered is outermost.
func (b *Builder) AddStartupFilter(f core.StartupFilter) *Builder {
	b.filters = append(b.filters, f)
	return b
}

// AddLifecycleHandler registers a handler notified of every phase.
func (b *Builder) AddLifecycleHandler(h core.LifecycleHandler) *Builder {
	b.handlers = append(b.handlers, h)
	return b
}

// AddBackgroundTask registers a task launched once the host has started.
func (b *Builder) AddBackgroundTask(t core.BackgroundTask) *Builder {
	b.tasks = append(b.tasks, t)
	return b
}

// OnTaskFault subscribes to background task faults.
func (b *Builder) OnTaskFault(fn func(TaskFault)) *Builder {
	b.faultSubscribers = append(b.faultSubscribers, fn)
	return b
}

// Build validates the registrations and assembles the Host. The startup
// pipeline is composed here, once.
func (b *Builder) Build() (*Host, error) {
	if b.cfg == nil {
		return nil, result.NewError(result.CodeValidation, "configuration must be provided before building the host")
	}

	opts, err := b.resolveOptions()
	if err != nil {
		return nil, err
	}
	if err := b.validateParticipants(); err != nil {
		return nil, err
	}

	loggers := b.loggers
	if loggers == nil {
		loggers = logging.DefaultFactory()
	}

	hub := cancellation.NewHub()
	feats := features.NewCollection()
	env := NewEnvironment(opts.ApplicationName, opts.EnvironmentName, opts.ContentRootPath)
	if err := features.Set(feats, EnvironmentFeature, env); err != nil {
		return nil, err
	}

	registry := services.NewRegistry()
	wellKnown := map[string]interface{}{
		ServiceConfiguration: b.cfg,
		ServiceLoggers:       loggers,
		ServiceFeatures:      feats,
		ServiceCancellation:  hub,
		ServiceEnvironment:   env,
	}
	for name, svc := range wellKnown {
		if err := registry.RegisterInstance(name, svc); err != nil {
			return nil, result.Wrap(result.CodeValidation, "failed to register host services", err)
		}
	}
	for _, configure := range b.serviceConfigs {
		if err := configure(registry); err != nil {
			return nil, result.Wrap(result.CodeValidation, "failed to configure services", err)
		}
	}
	if opts.ValidateOnBuild {
		if err := registry.Validate(); err != nil {
			return nil, result.Wrap(result.CodeValidation, "service validation failed", err)
		}
	}

	app, err := core.NewContext(registry, b.cfg, loggers, feats, hub, env.InstanceID)
	if err != nil {
		return nil, err
	}

	pipeline, err := startup.Build(b.filters)
	if err != nil {
		return nil, err
	}

	h := &Host{
		opts:     opts,
		env:      env,
		app:      app,
		hub:      hub,
		registry: registry,
		pipeline: pipeline,
		filters:  len(b.filters),
		loader:   modules.NewLoader(b.modules, registry, loggers),
		handlers: lifecycle.NewManager(b.handlers, loggers.CreateLogger("Lifecycle")),
		logger:   loggers.CreateLogger("Host"),
		lock:     semaphore.NewWeighted(1),
		state:    StateCreated,
	}
	subscribers := slices.Clone(b.faultSubscribers)
	h.runner = background.NewRunner(b.tasks, hub, background.Options{
		ShutdownTimeout: opts.ShutdownTimeout,
		OnFault: func(f TaskFault) {
			for _, fn := range subscribers {
				fn(f)
			}
		},
	}, loggers.CreateLogger("BackgroundTasks"))

	return h, nil
}

func (b *Builder) resolveOptions() (Options, error) {
	opts := DefaultOptions()
	if err := b.cfg.Bind(OptionsSection, &opts); err != nil {
		return Options{}, result.Wrap(result.CodeValidation, "invalid host configuration section", err)
	}
	for _, configure := range b.optionConfigs {
		configure(&opts)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func (b *Builder) validateParticipants() error {
	seen := make(map[string]bool, len(b.modules))
	for i, m := range b.modules {
		if m == nil {
			return result.Errorf(result.CodeValidation, "module %d is nil", i)
		}
		name := m.Name()
		if name == "" {
			return result.Errorf(result.CodeValidation, "module %d (%T) has an empty name", i, m)
		}
		if seen[name] {
			return result.Errorf(result.CodeValidation, "module %s registered more than once", name)
		}
		seen[name] = true
	}
	for i, h := range b.handlers {
		if h == nil {
			return result.Errorf(result.CodeValidation, "lifecycle handler %d is nil", i)
		}
	}
	for i, t := range b.tasks {
		if t == nil {
			return result.Errorf(result.CodeValidation, "background task %d is nil", i)
		}
	}
	for i, fn := range b.faultSubscribers {
		if fn == nil {
			return result.Errorf(result.CodeValidation, "fault subscriber %d is nil", i)
		}
	}
	return nil
}

// String summarizes the registrations, for debugging.
func (b *Builder) String() string {
	return fmt.Sprintf("host.Builder{modules: %d, filters: %d, handlers: %d, tasks: %d}",
		len(b.modules), len(b.filters), len(b.handlers), len(b.tasks))
}
