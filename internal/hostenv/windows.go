package hostenv

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tinywideclouds/go-push-dispatch/pkg/deliverer"
)

// BrowserWindows tracks the application pages this agent has opened in the
// default browser. The browser gives us no window enumeration, so the list
// is the agent's own record of what it opened.
type BrowserWindows struct {
	runner  CommandRunner
	baseURL string
	logger  *slog.Logger

	mu     sync.Mutex
	opened []string
}

func NewBrowserWindows(baseURL string, logger *slog.Logger) *BrowserWindows {
	return NewBrowserWindowsWithRunner(execRunner, baseURL, logger)
}

func NewBrowserWindowsWithRunner(runner CommandRunner, baseURL string, logger *slog.Logger) *BrowserWindows {
	return &BrowserWindows{
		runner:  runner,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.With("component", "BrowserWindows"),
	}
}

type browserWindow struct {
	url    string
	parent *BrowserWindows
}

func (w *browserWindow) URL() string { return w.url }

// Focus re-opens the URL; the browser raises the existing tab for it.
func (w *browserWindow) Focus(ctx context.Context) error {
	_, err := w.parent.runner(ctx, "xdg-open", w.url)
	if err != nil {
		return fmt.Errorf("failed to focus %s: %w", w.url, err)
	}
	return nil
}

func (b *BrowserWindows) List(_ context.Context) ([]deliverer.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	windows := make([]deliverer.Window, 0, len(b.opened))
	for _, u := range b.opened {
		windows = append(windows, &browserWindow{url: u, parent: b})
	}
	return windows, nil
}

func (b *BrowserWindows) Open(ctx context.Context, target string) error {
	fullURL := b.baseURL + target
	if _, err := b.runner(ctx, "xdg-open", fullURL); err != nil {
		return fmt.Errorf("failed to open %s: %w", fullURL, err)
	}

	b.mu.Lock()
	b.opened = append(b.opened, fullURL)
	b.mu.Unlock()

	b.logger.Info("Opened application window", "url", fullURL)
	return nil
}
