package core

import "context"

// StartupAction is one step of the startup pipeline.
type StartupAction func(ctx context.Context, app *Context) error

// StartupFilter wraps the rest of the startup pipeline. Code before calling
// next runs on the way in, code after runs on the way out.
type StartupFilter interface {
	Configure(next StartupAction) StartupAction
}

// StartupFilterFunc adapts a function to StartupFilter.
type StartupFilterFunc func(next StartupAction) StartupAction

func (f StartupFilterFunc) Configure(next StartupAction) StartupAction {
	return f(next)
}

// LifecycleHandler observes the host's phase transitions.
type LifecycleHandler interface {
	OnStarting(ctx context.Context) error
	OnStarted(ctx context.Context) error
	OnStopping(ctx context.Context) error
	OnStopped(ctx context.Context) error
}

// LifecycleHooks is a LifecycleHandler built from optional callbacks.
type LifecycleHooks struct {
	HandlerName string
	Starting    func(ctx context.Context) error
	Started     func(ctx context.Context) error
	Stopping    func(ctx context.Context) error
	Stopped     func(ctx context.Context) error
}

func (h *LifecycleHooks) Name() string {
	return h.HandlerName
}

func (h *LifecycleHooks) OnStarting(ctx context.Context) error {
	return call(h.Starting, ctx)
}

func (h *LifecycleHooks) OnStarted(ctx context.Context) error {
	return call(h.Started, ctx)
}

func (h *LifecycleHooks) OnStopping(ctx context.Context) error {
	return call(h.Stopping, ctx)
}

func (h *LifecycleHooks) OnStopped(ctx context.Context) error {
	return call(h.Stopped, ctx)
}

func call(fn func(context.Context) error, ctx context.Context) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// BackgroundTask runs for the lifetime of the host. Execute must return
// once ctx is cancelled; returning earlier is treated as a fault.
type BackgroundTask interface {
	Execute(ctx context.Context, app *Context) error
}

// BackgroundTaskFunc adapts a function to BackgroundTask.
type BackgroundTaskFunc func(ctx context.Context, app *Context) error

func (f BackgroundTaskFunc) Execute(ctx context.Context, app *Context) error {
	return f(ctx, app)
}

// NamedTask gives a BackgroundTask an identity for logs and fault records.
func NamedTask(name string, task BackgroundTask) BackgroundTask {
	return &namedTask{name: name, BackgroundTask: task}
}

type namedTask struct {
	name string
	BackgroundTask
}

func (t *namedTask) Name() string {
	return t.name
}

// NamedFilter gives a StartupFilter an identity.
func NamedFilter(name string, filter StartupFilter) StartupFilter {
	return &namedFilter{name: name, StartupFilter: filter}
}

type namedFilter struct {
	name string
	StartupFilter
}

func (f *namedFilter) Name() string {
	return f.name
}
