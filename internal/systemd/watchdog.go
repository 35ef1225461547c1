package systemd

import (
	"context"
	"time"

	"keel/pkg/core"

	"github.com/coreos/go-systemd/v22/daemon"
)

// IntervalFunc reports the configured watchdog interval, or zero when the
// watchdog is disabled.
type IntervalFunc func() (time.Duration, error)

func sdWatchdogInterval() (time.Duration, error) {
	return daemon.SdWatchdogEnabled(false)
}

// Watchdog is a background task pinging WATCHDOG=1 at half the interval
// systemd expects.
type Watchdog struct {
	interval IntervalFunc
	notify   NotifyFunc
}

// NewWatchdog creates a Watchdog. Nil arguments use the real systemd environment.
func NewWatchdog(interval IntervalFunc, notify NotifyFunc) *Watchdog {
	if interval == nil {
		interval = sdWatchdogInterval
	}
	if notify == nil {
		notify = sdNotify
	}
	return &Watchdog{interval: interval, notify: notify}
}

func (w *Watchdog) Name() string {
	return "systemd.watchdog"
}

func (w *Watchdog) Execute(ctx context.Context, app *core.Context) error {
	logger := app.Logger("Systemd")

	interval, err := w.interval()
	if err != nil {
		logger.Warn("Could not read watchdog settings: %v", err)
	}
	if err != nil || interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	period := interval / 2
	logger.Info("Systemd watchdog enabled, pinging every %s", period)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.notify(daemon.SdNotifyWatchdog); err != nil {
				logger.Warn("Watchdog ping failed: %v", err)
			}
		}
	}
}
