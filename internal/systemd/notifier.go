// Package systemd reports host readiness and liveness to systemd.
//
// Outside a systemd unit (no NOTIFY_SOCKET, no WATCHDOG_USEC) every
// participant here degrades to a no-op.
package systemd

import (
	"context"
	"fmt"

	"keel/pkg/logging"

	"github.com/coreos/go-systemd/v22/daemon"
)

// NotifyFunc sends one sd_notify state. It reports false when no
// notification socket is configured.
type NotifyFunc func(state string) (bool, error)

func sdNotify(state string) (bool, error) {
	return daemon.SdNotify(false, state)
}

// Notifier is a lifecycle handler announcing READY=1 and STOPPING=1.
type Notifier struct {
	notify NotifyFunc
	logger logging.Logger
}

// NewNotifier creates a Notifier. A nil notify uses the real sd_notify socket.
func NewNotifier(notify NotifyFunc, logger logging.Logger) *Notifier {
	if notify == nil {
		notify = sdNotify
	}
	return &Notifier{notify: notify, logger: logger}
}

func (n *Notifier) Name() string {
	return "systemd.notifier"
}

func (n *Notifier) OnStarting(context.Context) error {
	n.send(status("starting"))
	return nil
}

func (n *Notifier) OnStarted(context.Context) error {
	n.send(daemon.SdNotifyReady + "\n" + status("running"))
	return nil
}

func (n *Notifier) OnStopping(context.Context) error {
	n.send(daemon.SdNotifyStopping + "\n" + status("stopping"))
	return nil
}

func (n *Notifier) OnStopped(context.Context) error {
	n.send(status("stopped"))
	return nil
}

// send never fails the lifecycle phase; systemd notification is best effort.
func (n *Notifier) send(state string) {
	sent, err := n.notify(state)
	switch {
	case err != nil:
		n.logger.Warn("Failed to notify systemd: %v", err)
	case !sent:
		n.logger.Debug("Not running under systemd, skipped notification")
	}
}

func status(text string) string {
	return fmt.Sprintf("STATUS=%s", text)
}
