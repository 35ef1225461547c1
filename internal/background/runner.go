// Package background supervises the host's long-running tasks.
package background

import (
	"context"
	"sync"
	"time"

	"keel/pkg/cancellation"
	"keel/pkg/core"
	"keel/pkg/logging"
	"keel/pkg/result"

	"golang.org/x/sync/errgroup"
)

// DefaultShutdownTimeout bounds Stop when Options leave it unset.
const DefaultShutdownTimeout = 5 * time.Second

// Options configures a Runner.
type Options struct {
	// ShutdownTimeout bounds how long Stop waits for tasks to return.
	ShutdownTimeout time.Duration

	// OnFault is called once per recorded fault, from the faulting task's goroutine.
	OnFault func(Fault)
}

type runningTask struct {
	name   string
	source *cancellation.Source
	done   chan struct{}
}

// Runner starts every task in its own goroutine with its own cancellation
// scope linked to the host's hub.
type Runner struct {
	tasks  []core.BackgroundTask
	hub    *cancellation.Hub
	opts   Options
	logger logging.Logger

	group errgroup.Group

	mu      sync.Mutex
	running []*runningTask
	faults  []Fault
	started bool
	stopped bool
}

// NewRunner creates a Runner over tasks.
func NewRunner(tasks []core.BackgroundTask, hub *cancellation.Hub, opts Options, logger logging.Logger) *Runner {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Runner{
		tasks:  append([]core.BackgroundTask(nil), tasks...),
		hub:    hub,
		opts:   opts,
		logger: logger,
	}
}

// Tasks returns the task identities in registration order.
func (r *Runner) Tasks() []string {
	names := make([]string, 0, len(r.tasks))
	for _, t := range r.tasks {
		names = append(names, core.NameOf(t))
	}
	return names
}

// Start launches every task. It does not wait for them.
func (r *Runner) Start(ctx context.Context, app *core.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return result.NewError(result.CodeInvalidState, "background tasks already started")
	}
	r.started = true

	if len(r.tasks) == 0 {
		r.logger.Debug("No background tasks registered")
		return nil
	}

	running := make([]*runningTask, 0, len(r.tasks))
	for _, task := range r.tasks {
		source, err := r.hub.NewLinkedSource()
		if err != nil {
			for _, rt := range running {
				rt.source.Release()
			}
			return err
		}
		running = append(running, &runningTask{name: core.NameOf(task), source: source, done: make(chan struct{})})
	}

	for i, task := range r.tasks {
		rt, task := running[i], task
		r.group.Go(func() error {
			r.run(rt, task, app)
			return nil
		})
	}
	r.running = running

	r.logger.Info("Started %d background task(s)", len(running))
	return nil
}

func (r *Runner) run(rt *runningTask, task core.BackgroundTask, app *core.Context) {
	defer close(rt.done)
	defer rt.source.Release()

	ctx := rt.source.Context()
	r.logger.Debug("Background task %s started", rt.name)

	err := result.Guard(func() error {
		return task.Execute(ctx, app)
	})

	if ctx.Err() == nil {
		r.recordFault(Fault{Task: rt.name, Err: err, At: time.Now()})
		return
	}

	if err != nil && !result.IsCancellation(err) {
		r.logger.Debug("Background task %s returned after shutdown was requested: %v", rt.name, err)
		return
	}
	r.logger.Debug("Background task %s stopped", rt.name)
}

func (r *Runner) recordFault(f Fault) {
	r.mu.Lock()
	r.faults = append(r.faults, f)
	r.mu.Unlock()

	r.logger.Error(f.Err, "Background task %s faulted", f.Task)

	if r.opts.OnFault != nil {
		if err := result.Guard(func() error {
			r.opts.OnFault(f)
			return nil
		}); err != nil {
			r.logger.Error(err, "Fault callback for background task %s panicked", f.Task)
		}
	}
}

// Stop cancels every task and waits for them, at most ShutdownTimeout.
// Tasks still running after the timeout are logged and abandoned.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	running := r.running
	r.mu.Unlock()

	for _, rt := range running {
		rt.source.Cancel()
	}

	done := make(chan struct{})
	go func() {
		_ = r.group.Wait()
		close(done)
	}()

	timer := time.NewTimer(r.opts.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		r.logger.Debug("All background tasks stopped")
	case <-timer.C:
		r.logger.Warn("Timed out after %s waiting for background tasks: %v", r.opts.ShutdownTimeout, r.Pending())
	}
}

// Pending returns the tasks that have not returned yet.
func (r *Runner) Pending() []string {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()

	var pending []string
	for _, rt := range running {
		select {
		case <-rt.done:
		default:
			pending = append(pending, rt.name)
		}
	}
	return pending
}

// Faults returns the faults recorded so far.
func (r *Runner) Faults() []Fault {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Fault(nil), r.faults...)
}
