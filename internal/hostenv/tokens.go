package hostenv

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// TokenFeed hands out the delivery token configured for this device and
// relays rotation callbacks from the push platform to subscribers.
// Rotate arrives on an HTTP handler goroutine while the registrar reads
// Token from its own, so the token is mutex-guarded.
type TokenFeed struct {
	mu        sync.Mutex
	token     string
	rotations chan string
	logger    *slog.Logger
}

func NewTokenFeed(token string, logger *slog.Logger) *TokenFeed {
	return &TokenFeed{
		token:     token,
		rotations: make(chan string, 4),
		logger:    logger.With("component", "TokenFeed"),
	}
}

func (f *TokenFeed) Token(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	token := f.token
	f.mu.Unlock()
	if token == "" {
		return "", fmt.Errorf("no delivery token configured for this device")
	}
	return token, nil
}

func (f *TokenFeed) Rotations(_ context.Context) (<-chan string, error) {
	return f.rotations, nil
}

// Rotate records a platform-issued replacement token and notifies the
// subscriber. Non-blocking: if nobody is draining the channel the newest
// token still wins on the next Token call.
func (f *TokenFeed) Rotate(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
	select {
	case f.rotations <- token:
	default:
		f.logger.Warn("Rotation channel full; dropping rotation event")
	}
}

// StaticPrompter answers permission prompts from configuration. A desktop
// agent has no runtime prompt; the user opts in by enabling notifications
// in the agent config.
type StaticPrompter struct {
	Allowed bool
}

func (p StaticPrompter) RequestPermission(_ context.Context) (bool, error) {
	return p.Allowed, nil
}
