// Package hostenv adapts the device agent to a Linux desktop session:
// notifications via notify-send, windows via the default browser, and a
// token feed driven by platform callbacks.
package hostenv

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/tinywideclouds/go-push-dispatch/pkg/deliverer"
)

// CommandRunner executes a host command and returns its stdout. Split out
// so tests can capture arguments instead of spawning processes.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

func execRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	return strings.TrimSpace(string(out)), err
}

// NotifySendNotifier displays notifications through notify-send. It keeps
// a tag to notification-id map so a repeated tag replaces the notification
// already on screen rather than stacking a new one.
type NotifySendNotifier struct {
	runner CommandRunner
	logger *slog.Logger

	mu  sync.Mutex
	ids map[string]string
}

func NewNotifySendNotifier(logger *slog.Logger) *NotifySendNotifier {
	return NewNotifySendNotifierWithRunner(execRunner, logger)
}

func NewNotifySendNotifierWithRunner(runner CommandRunner, logger *slog.Logger) *NotifySendNotifier {
	return &NotifySendNotifier{
		runner: runner,
		logger: logger.With("component", "NotifySendNotifier"),
		ids:    make(map[string]string),
	}
}

func (n *NotifySendNotifier) Show(ctx context.Context, notif deliverer.Notification) error {
	args := []string{"--print-id"}
	if notif.Icon != "" {
		args = append(args, "--icon", notif.Icon)
	}
	if notif.RequireInteraction {
		// Critical urgency keeps the notification on screen until dismissed.
		args = append(args, "--urgency=critical")
	}

	n.mu.Lock()
	if prevID, ok := n.ids[notif.Tag]; ok {
		args = append(args, "--replace-id", prevID)
	}
	n.mu.Unlock()

	args = append(args, notif.Title, notif.Body)

	id, err := n.runner(ctx, "notify-send", args...)
	if err != nil {
		return fmt.Errorf("notify-send failed: %w", err)
	}

	n.mu.Lock()
	n.ids[notif.Tag] = id
	n.mu.Unlock()
	return nil
}

// Close drops the tracked id for a tag. notify-send offers no programmatic
// dismissal, so the next Show with the same tag simply stops replacing.
func (n *NotifySendNotifier) Close(_ context.Context, tag string) error {
	n.mu.Lock()
	delete(n.ids, tag)
	n.mu.Unlock()
	return nil
}
