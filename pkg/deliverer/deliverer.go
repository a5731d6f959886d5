// Package deliverer turns incoming push payloads into visible notifications
// and routes notification clicks back into the application.
package deliverer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
)

// fallbackTag groups notifications that carry no tag of their own, so an
// unattended device accumulates at most one of them.
const fallbackTag = "app-notification"

// Payload is the wire shape a push message arrives in.
type Payload struct {
	Notification notification.Content `json:"notification"`
	Data         map[string]string    `json:"data"`
}

// Notification is what the host environment is asked to display.
type Notification struct {
	Title              string
	Body               string
	Icon               string
	Tag                string
	RequireInteraction bool
	Data               map[string]string
}

// Notifier shows and retracts notifications in the host environment.
// Showing a notification with a tag already on screen replaces it.
type Notifier interface {
	Show(ctx context.Context, n Notification) error
	Close(ctx context.Context, tag string) error
}

// Window is an application window the deliverer can focus.
type Window interface {
	URL() string
	Focus(ctx context.Context) error
}

// Windows enumerates and opens application windows.
type Windows interface {
	List(ctx context.Context) ([]Window, error)
	Open(ctx context.Context, target string) error
}

type Deliverer struct {
	notifier Notifier
	windows  Windows
	logger   *slog.Logger
}

func New(notifier Notifier, windows Windows, logger *slog.Logger) *Deliverer {
	return &Deliverer{
		notifier: notifier,
		windows:  windows,
		logger:   logger.With("component", "Deliverer"),
	}
}

// HandlePush parses a raw push payload and displays it. Display failures
// are logged, not returned: the push is already acknowledged upstream and
// there is nobody left to retry for.
func (d *Deliverer) HandlePush(ctx context.Context, raw []byte) error {
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("failed to parse push payload: %w", err)
	}

	n := Notification{
		Title:              payload.Notification.Title,
		Body:               payload.Notification.Body,
		Icon:               payload.Notification.Icon,
		Tag:                fallbackTag,
		RequireInteraction: true,
		Data:               payload.Data,
	}
	if n.Icon == "" {
		n.Icon = notification.DefaultIcon
	}
	if tag, ok := payload.Data["tag"]; ok && tag != "" {
		n.Tag = tag
	}

	if err := d.notifier.Show(ctx, n); err != nil {
		d.logger.Warn("Failed to display notification", "tag", n.Tag, "err", err)
	}
	return nil
}

// HandleClick dismisses the clicked notification and brings the user to
// the click target: an existing window showing the target is focused,
// otherwise a new one opens.
func (d *Deliverer) HandleClick(ctx context.Context, tag string) error {
	if err := d.notifier.Close(ctx, tag); err != nil {
		d.logger.Warn("Failed to dismiss notification", "tag", tag, "err", err)
	}

	windows, err := d.windows.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list application windows: %w", err)
	}

	for _, w := range windows {
		if targetsDashboard(w.URL()) {
			return w.Focus(ctx)
		}
	}

	return d.windows.Open(ctx, notification.DefaultClickTarget)
}

func targetsDashboard(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Path == notification.DefaultClickTarget
}
