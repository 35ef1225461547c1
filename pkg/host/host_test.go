package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"keel/internal/lifecycle"
	"keel/internal/modules"
	"keel/pkg/config"
	"keel/pkg/core"
	"keel/pkg/features"
	"keel/pkg/logging"
	"keel/pkg/result"
	"keel/pkg/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventLog is a concurrency-safe ordered record of callbacks.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type testModule struct {
	name string
	log  *eventLog
	err  error
}

func (m *testModule) Name() string    { return m.name }
func (m *testModule) Version() string { return "0.1.0" }

func (m *testModule) Initialize(context.Context, *core.ModuleContext) error {
	m.log.add(m.name + ".init")
	return m.err
}

func recordingHandler(name string, log *eventLog) *core.LifecycleHooks {
	return &core.LifecycleHooks{
		HandlerName: name,
		Starting:    func(context.Context) error { log.add(name + ".starting"); return nil },
		Started:     func(context.Context) error { log.add(name + ".started"); return nil },
		Stopping:    func(context.Context) error { log.add(name + ".stopping"); return nil },
		Stopped:     func(context.Context) error { log.add(name + ".stopped"); return nil },
	}
}

func recordingFilter(name string, log *eventLog) core.StartupFilter {
	return core.StartupFilterFunc(func(next core.StartupAction) core.StartupAction {
		return func(ctx context.Context, app *core.Context) error {
			log.add(name + ".pre")
			err := next(ctx, app)
			log.add(name + ".post")
			return err
		}
	})
}

func recordingTask(name string, log *eventLog, started chan<- struct{}) core.BackgroundTask {
	return core.NamedTask(name, core.BackgroundTaskFunc(func(ctx context.Context, _ *core.Context) error {
		log.add(name + ".started")
		close(started)
		<-ctx.Done()
		log.add(name + ".exits")
		return ctx.Err()
	}))
}

func newBuilder() *Builder {
	return NewBuilder().
		UseConfiguration(config.New()).
		UseLoggerFactory(logging.NopFactory())
}

func TestBuild_RequiresConfiguration(t *testing.T) {
	_, err := NewBuilder().Build()
	require.Error(t, err)
	assert.True(t, result.HasCode(err, result.CodeValidation))
	assert.Contains(t, err.Error(), "configuration must be provided")
}

func TestBuild_Defaults(t *testing.T) {
	h, err := newBuilder().Build()
	require.NoError(t, err)

	opts := h.Options()
	assert.Equal(t, DefaultApplicationName, opts.ApplicationName)
	assert.Equal(t, EnvironmentProduction, opts.EnvironmentName)
	assert.Equal(t, DefaultShutdownTimeout, opts.ShutdownTimeout)
	assert.True(t, opts.InitializeModules)
	assert.True(t, opts.StartBackgroundTasks)
	assert.NotEmpty(t, opts.ContentRootPath)

	assert.Len(t, h.Environment().InstanceID, 32)
	assert.NotContains(t, h.Environment().InstanceID, "-")
	assert.Equal(t, h.Environment().InstanceID, h.Context().InstanceID())
	assert.Equal(t, StateCreated, h.State())

	env, ok := features.Get(h.Context().Features(), EnvironmentFeature)
	require.True(t, ok)
	assert.True(t, env.IsProduction())

	for _, name := range []string{ServiceConfiguration, ServiceLoggers, ServiceFeatures, ServiceCancellation, ServiceEnvironment} {
		_, err := h.Context().Services().Resolve(name)
		assert.NoError(t, err, name)
	}
}

func TestBuild_OptionsPrecedence(t *testing.T) {
	cfg := config.FromMap(map[string]interface{}{
		"Host": map[string]interface{}{
			"ApplicationName": "from-config",
			"EnvironmentName": "Staging",
			"ShutdownTimeout": "250ms",
		},
	})

	h, err := NewBuilder().
		UseConfiguration(cfg).
		UseLoggerFactory(logging.NopFactory()).
		UseEnvironment("Development").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "from-config", h.Options().ApplicationName)
	assert.Equal(t, "Development", h.Options().EnvironmentName)
	assert.Equal(t, 250*time.Millisecond, h.Options().ShutdownTimeout)
	assert.True(t, h.Environment().IsDevelopment())
}

func TestBuild_Validation(t *testing.T) {
	log := &eventLog{}
	tests := []struct {
		name    string
		builder *Builder
	}{
		{name: "invalid options", builder: newBuilder().UseApplicationName("")},
		{name: "zero shutdown timeout", builder: newBuilder().UseShutdownTimeout(0)},
		{name: "nil module", builder: newBuilder().AddModule(nil)},
		{name: "empty module name", builder: newBuilder().AddModule(&testModule{log: log})},
		{name: "duplicate module", builder: newBuilder().AddModule(&testModule{name: "A", log: log}).AddModule(&testModule{name: "A", log: log})},
		{name: "nil handler", builder: newBuilder().AddLifecycleHandler(nil)},
		{name: "nil task", builder: newBuilder().AddBackgroundTask(nil)},
		{name: "nil filter", builder: newBuilder().AddStartupFilter(nil)},
		{name: "failing service configuration", builder: newBuilder().ConfigureServices(func(*services.Registry) error {
			return errors.New("bad wiring")
		})},
		{name: "duplicate well-known service", builder: newBuilder().ConfigureServices(func(r *services.Registry) error {
			return r.RegisterInstance(ServiceFeatures, "again")
		})},
		{name: "service validation", builder: newBuilder().
			ConfigureOptions(func(o *Options) { o.ValidateOnBuild = true }).
			ConfigureServices(func(r *services.Registry) error {
				return r.RegisterFactory("db", func(services.Resolver) (interface{}, error) {
					return nil, errors.New("unreachable")
				})
			})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.Error(t, err)
			assert.True(t, result.HasCode(err, result.CodeValidation), err.Error())
		})
	}
}

func TestHost_ZeroParticipants(t *testing.T) {
	h, err := newBuilder().Build()
	require.NoError(t, err)

	require.NoError(t, h.Start(context.Background()))
	assert.Equal(t, StateStarted, h.State())

	require.NoError(t, h.Stop(context.Background()))
	assert.Equal(t, StateStopped, h.State())

	select {
	case <-h.Done():
	default:
		t.Fatal("shutdown signal should be cancelled after Stop")
	}
}

func TestHost_EndToEndOrdering(t *testing.T) {
	log := &eventLog{}
	stopLog := &eventLog{}
	taskStarted := make(chan struct{})

	var h *Host
	observer := &core.LifecycleHooks{
		HandlerName: "observer",
		Stopping: func(context.Context) error {
			if h.Context().ShutdownContext().Err() != nil {
				stopLog.add("cancel")
			}
			stopLog.add("lifecycle.stopping")
			return nil
		},
		Stopped: func(context.Context) error {
			if contains(log.snapshot(), "task.exits") {
				stopLog.add("task exits")
			}
			stopLog.add("lifecycle.stopped")
			return nil
		},
	}

	h, err := newBuilder().
		AddModule(&testModule{name: "A", log: log}).
		AddModule(&testModule{name: "B", log: log}).
		AddStartupFilter(recordingFilter("filter", log)).
		AddLifecycleHandler(recordingHandler("lifecycle", log)).
		AddLifecycleHandler(observer).
		AddBackgroundTask(recordingTask("task", log, taskStarted)).
		Build()
	require.NoError(t, err)

	require.NoError(t, h.Start(context.Background()))
	<-taskStarted

	assert.Equal(t, []string{
		"lifecycle.starting",
		"A.init", "B.init",
		"filter.pre", "filter.post",
		"lifecycle.started",
		"task.started",
	}, log.snapshot())

	require.NoError(t, h.Stop(context.Background()))
	assert.Equal(t, []string{"cancel", "lifecycle.stopping", "task exits", "lifecycle.stopped"}, stopLog.snapshot())
	assert.Empty(t, h.TaskFaults())
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

func TestHost_StartFailureAbortsWithoutUnwind(t *testing.T) {
	log := &eventLog{}
	cause := errors.New("schema mismatch")

	h, err := newBuilder().
		AddModule(&testModule{name: "A", log: log}).
		AddModule(&testModule{name: "B", log: log, err: cause}).
		AddModule(&testModule{name: "C", log: log}).
		AddStartupFilter(recordingFilter("filter", log)).
		AddLifecycleHandler(recordingHandler("lifecycle", log)).
		Build()
	require.NoError(t, err)

	err = h.Start(context.Background())
	require.Error(t, err)

	var initErr *modules.InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "B", initErr.Module)
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, []string{"lifecycle.starting", "A.init", "B.init"}, log.snapshot())
	assert.Equal(t, StateFailed, h.State())
	assert.Same(t, err, h.StartupError())

	t.Run("cannot start twice", func(t *testing.T) {
		err := h.Start(context.Background())
		assert.True(t, result.HasCode(err, result.CodeInvalidState))
	})

	t.Run("explicit stop unwinds", func(t *testing.T) {
		require.NoError(t, h.Stop(context.Background()))
		assert.Equal(t, []string{"lifecycle.starting", "A.init", "B.init", "lifecycle.stopping", "lifecycle.stopped"}, log.snapshot())
	})
}

func TestHost_PipelineFailure(t *testing.T) {
	log := &eventLog{}
	failing := core.StartupFilterFunc(func(core.StartupAction) core.StartupAction {
		return func(context.Context, *core.Context) error { return errors.New("migration failed") }
	})

	h, err := newBuilder().
		AddStartupFilter(failing).
		AddLifecycleHandler(recordingHandler("lifecycle", log)).
		Build()
	require.NoError(t, err)

	err = h.Start(context.Background())
	assert.True(t, result.HasCode(err, result.CodeStartupPipeline))
	assert.Equal(t, []string{"lifecycle.starting"}, log.snapshot())
}

func TestHost_StartCancelled(t *testing.T) {
	log := &eventLog{}
	h, err := newBuilder().AddModule(&testModule{name: "A", log: log}).Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = h.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, log.snapshot())
}

func TestHost_StopBeforeStart(t *testing.T) {
	log := &eventLog{}
	h, err := newBuilder().AddLifecycleHandler(recordingHandler("lifecycle", log)).Build()
	require.NoError(t, err)

	require.NoError(t, h.Stop(context.Background()))
	assert.Equal(t, StateStopped, h.State())
	assert.Empty(t, log.snapshot())

	// stopping again is a no-op
	require.NoError(t, h.Stop(context.Background()))
}

// blockingModule waits in Initialize until ctx ends, or until release is
// closed when ignoreCtx is set.
type blockingModule struct {
	entered   chan struct{}
	release   chan struct{}
	ignoreCtx bool
}

func (m *blockingModule) Name() string    { return "Blocking" }
func (m *blockingModule) Version() string { return "0.1.0" }

func (m *blockingModule) Initialize(ctx context.Context, _ *core.ModuleContext) error {
	close(m.entered)
	if m.ignoreCtx {
		<-m.release
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestHost_StopAbortsBlockedStart(t *testing.T) {
	log := &eventLog{}
	m := &blockingModule{entered: make(chan struct{})}
	h, err := newBuilder().
		AddLifecycleHandler(recordingHandler("lifecycle", log)).
		AddModule(m).
		Build()
	require.NoError(t, err)

	startErr := make(chan error, 1)
	go func() { startErr <- h.Start(context.Background()) }()
	<-m.entered

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Stop(ctx))

	select {
	case err := <-startErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
	assert.Equal(t, StateStopped, h.State())
	assert.Equal(t, []string{"lifecycle.starting", "lifecycle.stopping", "lifecycle.stopped"}, log.snapshot())
}

func TestHost_StopHonoursDeadlineWhileStartIsStuck(t *testing.T) {
	m := &blockingModule{entered: make(chan struct{}), release: make(chan struct{}), ignoreCtx: true}
	h, err := newBuilder().AddModule(m).Build()
	require.NoError(t, err)

	startErr := make(chan error, 1)
	go func() { startErr <- h.Start(context.Background()) }()
	<-m.entered

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	began := time.Now()
	err = h.Stop(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, result.HasCode(err, result.CodeCanceled))
	assert.Less(t, time.Since(began), time.Second)
	assert.Equal(t, StateStarting, h.State())

	// once the module gives up, Start notices the shutdown signal
	close(m.release)
	assert.ErrorIs(t, <-startErr, context.Canceled)
	assert.Equal(t, StateFailed, h.State())

	require.NoError(t, h.Stop(context.Background()))
	assert.Equal(t, StateStopped, h.State())
}

func TestHost_StoppingFailureDoesNotSkipTeardown(t *testing.T) {
	log := &eventLog{}
	taskStarted := make(chan struct{})
	h, err := newBuilder().
		AddLifecycleHandler(&core.LifecycleHooks{
			HandlerName: "flaky",
			Stopping:    func(context.Context) error { return errors.New("flush failed") },
		}).
		AddLifecycleHandler(recordingHandler("lifecycle", log)).
		AddBackgroundTask(recordingTask("task", log, taskStarted)).
		Build()
	require.NoError(t, err)

	require.NoError(t, h.Start(context.Background()))
	<-taskStarted

	err = h.Stop(context.Background())
	require.Error(t, err)
	assert.True(t, lifecycle.IsHandlerError(err))

	events := log.snapshot()
	assert.NotContains(t, events, "lifecycle.stopping")
	assert.Contains(t, events, "task.exits")
	assert.Contains(t, events, "lifecycle.stopped")
	assert.Equal(t, StateStopped, h.State())
}

func TestHost_TaskFaultsAreReported(t *testing.T) {
	faults := make(chan TaskFault, 1)
	counted := make(chan string, 1)
	b := newBuilder().
		AddBackgroundTask(core.NamedTask("crasher", core.BackgroundTaskFunc(func(context.Context, *core.Context) error {
			return errors.New("crashed")
		}))).
		OnTaskFault(func(f TaskFault) { faults <- f }).
		OnTaskFault(func(f TaskFault) { counted <- f.Task })
	h, err := b.Build()
	require.NoError(t, err)

	// subscribers added after Build do not reach the built host
	b.OnTaskFault(func(TaskFault) { t.Error("late subscriber was called") })

	require.NoError(t, h.Start(context.Background()))

	select {
	case f := <-faults:
		assert.Equal(t, "crasher", f.Task)
	case <-time.After(time.Second):
		t.Fatal("fault was not reported")
	}
	select {
	case name := <-counted:
		assert.Equal(t, "crasher", name)
	case <-time.After(time.Second):
		t.Fatal("second subscriber was not called")
	}
	assert.Len(t, h.TaskFaults(), 1)
	assert.Equal(t, StateStarted, h.State())
	require.NoError(t, h.Stop(context.Background()))
}

func TestHost_DisabledPhases(t *testing.T) {
	log := &eventLog{}
	h, err := newBuilder().
		ConfigureOptions(func(o *Options) {
			o.InitializeModules = false
			o.StartBackgroundTasks = false
		}).
		AddModule(&testModule{name: "A", log: log}).
		AddBackgroundTask(recordingTask("task", log, make(chan struct{}))).
		Build()
	require.NoError(t, err)

	require.NoError(t, h.Start(context.Background()))
	require.NoError(t, h.Stop(context.Background()))
	assert.Empty(t, log.snapshot())
}

func TestHost_Run(t *testing.T) {
	t.Run("returns after RequestStop", func(t *testing.T) {
		log := &eventLog{}
		taskStarted := make(chan struct{})
		h, err := newBuilder().
			AddLifecycleHandler(recordingHandler("lifecycle", log)).
			AddBackgroundTask(recordingTask("task", log, taskStarted)).
			Build()
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() { done <- h.Run(context.Background()) }()

		<-taskStarted
		require.NoError(t, h.RequestStop())

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return")
		}
		assert.Equal(t, StateStopped, h.State())
		assert.Contains(t, log.snapshot(), "lifecycle.stopped")
	})

	t.Run("returns after caller cancellation", func(t *testing.T) {
		h, err := newBuilder().Build()
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- h.Run(ctx) }()

		require.Eventually(t, func() bool { return h.State() == StateStarted }, time.Second, 5*time.Millisecond)
		cancel()
		require.NoError(t, <-done)
		assert.Equal(t, StateStopped, h.State())
	})

	t.Run("start failure is unwound and returned", func(t *testing.T) {
		log := &eventLog{}
		h, err := newBuilder().
			AddLifecycleHandler(recordingHandler("lifecycle", log)).
			AddModule(&testModule{name: "A", log: log, err: errors.New("nope")}).
			Build()
		require.NoError(t, err)

		err = h.Run(context.Background())
		assert.True(t, result.HasCode(err, result.CodeModuleInitialization))
		assert.Equal(t, []string{"lifecycle.starting", "A.init", "lifecycle.stopping", "lifecycle.stopped"}, log.snapshot())
		assert.Equal(t, StateStopped, h.State())
	})

	t.Run("captured start failure", func(t *testing.T) {
		log := &eventLog{}
		h, err := newBuilder().
			ConfigureOptions(func(o *Options) { o.CaptureStartupErrors = true }).
			AddModule(&testModule{name: "A", log: log, err: errors.New("nope")}).
			Build()
		require.NoError(t, err)

		require.NoError(t, h.Run(context.Background()))
		assert.True(t, result.HasCode(h.StartupError(), result.CodeModuleInitialization))
	})
}

func TestHost_Close(t *testing.T) {
	h, err := newBuilder().Build()
	require.NoError(t, err)
	require.NoError(t, h.Start(context.Background()))

	require.NoError(t, h.Close())
	assert.Error(t, h.Context().ShutdownContext().Err())

	// Stop still completes after Close
	require.NoError(t, h.Stop(context.Background()))
	assert.Equal(t, StateStopped, h.State())
}

func TestHost_Describe(t *testing.T) {
	log := &eventLog{}
	h, err := newBuilder().
		AddModule(&testModule{name: "A", log: log}).
		AddStartupFilter(recordingFilter("filter", log)).
		AddLifecycleHandler(recordingHandler("lifecycle", log)).
		AddBackgroundTask(recordingTask("task", log, make(chan struct{}))).
		Build()
	require.NoError(t, err)

	d := h.Describe()
	assert.Equal(t, StateCreated, d.State)
	assert.Equal(t, []ModuleInfo{{Name: "A", Version: "0.1.0"}}, d.Modules)
	assert.Equal(t, 1, d.StartupFilters)
	assert.Equal(t, []string{"lifecycle"}, d.LifecycleHandlers)
	assert.Equal(t, []string{"task"}, d.BackgroundTasks)
	assert.Contains(t, d.Services, ServiceEnvironment)
	assert.Equal(t, []string{"host.environment"}, d.Features)
}
