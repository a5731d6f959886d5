package hostenv_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-push-dispatch/internal/hostenv"
	"github.com/tinywideclouds/go-push-dispatch/pkg/deliverer"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// capturingRunner records invocations and returns canned stdout per call.
type capturingRunner struct {
	calls   [][]string
	outputs []string
}

func (r *capturingRunner) run(_ context.Context, name string, args ...string) (string, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if len(r.outputs) > 0 {
		out := r.outputs[0]
		r.outputs = r.outputs[1:]
		return out, nil
	}
	return "", nil
}

func TestNotifySendNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("First Show Prints Id", func(t *testing.T) {
		runner := &capturingRunner{outputs: []string{"41"}}
		n := hostenv.NewNotifySendNotifierWithRunner(runner.run, testLogger())

		err := n.Show(ctx, deliverer.Notification{
			Title: "Reward", Body: "50 points", Icon: "/icons/icon-192x192.png",
			Tag: "rewards", RequireInteraction: true,
		})
		require.NoError(t, err)

		require.Len(t, runner.calls, 1)
		call := runner.calls[0]
		assert.Equal(t, "notify-send", call[0])
		assert.Contains(t, call, "--print-id")
		assert.Contains(t, call, "--urgency=critical")
		assert.NotContains(t, call, "--replace-id")
		assert.Equal(t, "50 points", call[len(call)-1])
	})

	t.Run("Repeated Tag Replaces", func(t *testing.T) {
		runner := &capturingRunner{outputs: []string{"41", "42"}}
		n := hostenv.NewNotifySendNotifierWithRunner(runner.run, testLogger())

		require.NoError(t, n.Show(ctx, deliverer.Notification{Title: "A", Body: "b", Tag: "rewards"}))
		require.NoError(t, n.Show(ctx, deliverer.Notification{Title: "B", Body: "b", Tag: "rewards"}))

		require.Len(t, runner.calls, 2)
		second := runner.calls[1]
		require.Contains(t, second, "--replace-id")
		for i, arg := range second {
			if arg == "--replace-id" {
				assert.Equal(t, "41", second[i+1])
			}
		}
	})

	t.Run("Close Forgets The Tag", func(t *testing.T) {
		runner := &capturingRunner{outputs: []string{"41", "42"}}
		n := hostenv.NewNotifySendNotifierWithRunner(runner.run, testLogger())

		require.NoError(t, n.Show(ctx, deliverer.Notification{Title: "A", Body: "b", Tag: "rewards"}))
		require.NoError(t, n.Close(ctx, "rewards"))
		require.NoError(t, n.Show(ctx, deliverer.Notification{Title: "B", Body: "b", Tag: "rewards"}))

		assert.NotContains(t, runner.calls[1], "--replace-id")
	})

	t.Run("Runner Failure Surfaces", func(t *testing.T) {
		failing := func(_ context.Context, _ string, _ ...string) (string, error) {
			return "", fmt.Errorf("notify-send not found")
		}
		n := hostenv.NewNotifySendNotifierWithRunner(failing, testLogger())

		err := n.Show(ctx, deliverer.Notification{Title: "A", Body: "b", Tag: "rewards"})
		require.Error(t, err)
	})
}

func TestBrowserWindows(t *testing.T) {
	ctx := context.Background()

	t.Run("Open Tracks The Window", func(t *testing.T) {
		runner := &capturingRunner{}
		w := hostenv.NewBrowserWindowsWithRunner(runner.run, "https://app.example.com/", testLogger())

		require.NoError(t, w.Open(ctx, "/dashboard"))

		windows, err := w.List(ctx)
		require.NoError(t, err)
		require.Len(t, windows, 1)
		assert.Equal(t, "https://app.example.com/dashboard", windows[0].URL())
		assert.Equal(t, []string{"xdg-open", "https://app.example.com/dashboard"}, runner.calls[0])
	})

	t.Run("Focus Reopens The Url", func(t *testing.T) {
		runner := &capturingRunner{}
		w := hostenv.NewBrowserWindowsWithRunner(runner.run, "https://app.example.com", testLogger())

		require.NoError(t, w.Open(ctx, "/dashboard"))
		windows, err := w.List(ctx)
		require.NoError(t, err)
		require.NoError(t, windows[0].Focus(ctx))

		require.Len(t, runner.calls, 2)
		assert.Equal(t, runner.calls[0], runner.calls[1])
	})
}

func TestTokenFeed(t *testing.T) {
	ctx := context.Background()

	t.Run("Hands Out Configured Token", func(t *testing.T) {
		feed := hostenv.NewTokenFeed("token-1", testLogger())
		token, err := feed.Token(ctx, "app-key")
		require.NoError(t, err)
		assert.Equal(t, "token-1", token)
	})

	t.Run("Empty Token Is An Error", func(t *testing.T) {
		feed := hostenv.NewTokenFeed("", testLogger())
		_, err := feed.Token(ctx, "app-key")
		require.Error(t, err)
	})

	t.Run("Rotate Notifies Subscriber And Updates Token", func(t *testing.T) {
		feed := hostenv.NewTokenFeed("token-1", testLogger())
		rotations, err := feed.Rotations(ctx)
		require.NoError(t, err)

		feed.Rotate("token-2")

		assert.Equal(t, "token-2", <-rotations)
		token, err := feed.Token(ctx, "app-key")
		require.NoError(t, err)
		assert.Equal(t, "token-2", token)
	})

	t.Run("Rotate Does Not Block Without Subscriber", func(t *testing.T) {
		feed := hostenv.NewTokenFeed("token-1", testLogger())
		for i := 0; i < 10; i++ {
			feed.Rotate(fmt.Sprintf("token-%d", i))
		}
		token, err := feed.Token(ctx, "app-key")
		require.NoError(t, err)
		assert.Equal(t, "token-9", token)
	})

	// Rotate comes in on the agent's HTTP handler goroutine while the
	// registrar reads Token from its own; run with -race.
	t.Run("Concurrent Token And Rotate", func(t *testing.T) {
		feed := hostenv.NewTokenFeed("token-0", testLogger())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				feed.Rotate(fmt.Sprintf("token-%d", i))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				token, err := feed.Token(ctx, "app-key")
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
			}
		}()
		wg.Wait()

		token, err := feed.Token(ctx, "app-key")
		require.NoError(t, err)
		assert.Equal(t, "token-999", token)
	})
}

func TestStaticPrompter(t *testing.T) {
	granted, err := hostenv.StaticPrompter{Allowed: true}.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = hostenv.StaticPrompter{Allowed: false}.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.False(t, granted)
}
