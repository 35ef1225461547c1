// Package schedule runs cron jobs for the lifetime of the host.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"keel/pkg/core"
	"keel/pkg/logging"
	"keel/pkg/result"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work. Spec uses the standard five-field cron
// syntax plus descriptors such as @every 30s.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// RunObserver is told about every finished job run.
type RunObserver func(job string, err error)

// Task is a background task driving a cron scheduler.
type Task struct {
	name  string
	jobs  []Job
	onRun RunObserver
}

// NewTask validates the jobs and returns the task. onRun may be nil.
func NewTask(name string, jobs []Job, onRun RunObserver) (*Task, error) {
	var errs []error
	seen := make(map[string]bool, len(jobs))
	for i, job := range jobs {
		switch {
		case job.Name == "":
			errs = append(errs, fmt.Errorf("job %d has no name", i))
		case seen[job.Name]:
			errs = append(errs, fmt.Errorf("job %s is registered twice", job.Name))
		}
		seen[job.Name] = true

		if job.Run == nil {
			errs = append(errs, fmt.Errorf("job %s has no run function", job.Name))
		}
		if _, err := cron.ParseStandard(job.Spec); err != nil {
			errs = append(errs, fmt.Errorf("job %s has invalid schedule %q: %w", job.Name, job.Spec, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, result.Wrap(result.CodeValidation, "invalid scheduled jobs", err)
	}

	return &Task{name: name, jobs: jobs, onRun: onRun}, nil
}

func (t *Task) Name() string {
	return t.name
}

// Jobs returns the job names in registration order.
func (t *Task) Jobs() []string {
	names := make([]string, len(t.jobs))
	for i, job := range t.jobs {
		names[i] = job.Name
	}
	return names
}

// Execute runs the scheduler until ctx is cancelled and then waits for
// running jobs to return. Job failures are logged and never end the task.
func (t *Task) Execute(ctx context.Context, app *core.Context) error {
	logger := app.Logger("Schedule")
	adapter := cronLogger{logger: logger}

	c := cron.New(
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter)),
	)

	for _, job := range t.jobs {
		if _, err := c.AddFunc(job.Spec, func() { t.run(ctx, logger, job) }); err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.Name, err)
		}
	}

	c.Start()
	logger.Info("Scheduler started with %d job(s)", len(t.jobs))

	<-ctx.Done()

	logger.Debug("Scheduler stopping, waiting for running jobs")
	<-c.Stop().Done()
	logger.Debug("Scheduler stopped")
	return ctx.Err()
}

func (t *Task) run(ctx context.Context, logger logging.Logger, job Job) {
	if ctx.Err() != nil {
		return
	}

	err := result.Guard(func() error { return job.Run(ctx) })
	if err != nil && !result.IsCancellation(err) {
		logger.Error(err, "Scheduled job %s failed", job.Name)
	}
	if t.onRun != nil {
		t.onRun(job.Name, err)
	}
}

// cronLogger adapts a category logger to cron.Logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("%s%s", msg, formatPairs(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(err, "%s%s", msg, formatPairs(keysAndValues))
}

func formatPairs(kv []interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(kv); i += 2 {
		b.WriteString(" ")
		if i+1 < len(kv) {
			fmt.Fprintf(&b, "%v=%v", kv[i], kv[i+1])
		} else {
			fmt.Fprintf(&b, "%v", kv[i])
		}
	}
	return b.String()
}
