// Package registrar keeps a device's delivery token registered with the
// dispatch service for the lifetime of the agent process.
package registrar

import (
	"context"
	"fmt"
	"log/slog"
)

// PermissionPrompter answers whether the user allows notifications on this
// device. A denial is a normal outcome, not an error.
type PermissionPrompter interface {
	RequestPermission(ctx context.Context) (bool, error)
}

// TokenSource produces the device's current delivery token and announces
// rotations pushed by the platform.
type TokenSource interface {
	Token(ctx context.Context, applicationKey string) (string, error)
	Rotations(ctx context.Context) (<-chan string, error)
}

// Registry is the server-side token registry, reached over HTTP in
// production.
type Registry interface {
	Register(ctx context.Context, token string) error
}

type Registrar struct {
	prompter       PermissionPrompter
	source         TokenSource
	registry       Registry
	applicationKey string
	logger         *slog.Logger
}

func New(
	prompter PermissionPrompter,
	source TokenSource,
	registry Registry,
	applicationKey string,
	logger *slog.Logger,
) *Registrar {
	return &Registrar{
		prompter:       prompter,
		source:         source,
		registry:       registry,
		applicationKey: applicationKey,
		logger:         logger.With("component", "Registrar"),
	}
}

// EnsureRegistered runs the permission-then-token-then-register sequence
// once. Permission denial returns nil: the user said no and the device
// simply stays unregistered. Acquisition and registry failures are returned
// so the caller decides whether the session continues without push.
func (r *Registrar) EnsureRegistered(ctx context.Context) error {
	granted, err := r.prompter.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("permission prompt failed: %w", err)
	}
	if !granted {
		r.logger.Info("Notification permission denied; device stays unregistered")
		return nil
	}

	token, err := r.source.Token(ctx, r.applicationKey)
	if err != nil {
		return fmt.Errorf("failed to acquire delivery token: %w", err)
	}

	if err := r.registry.Register(ctx, token); err != nil {
		return fmt.Errorf("failed to register delivery token: %w", err)
	}

	r.logger.Info("Delivery token registered")
	return nil
}

// Run performs the initial registration and then re-registers on every
// token rotation until the context is cancelled. Failures are logged and
// do not stop the loop; the next rotation gets another chance.
func (r *Registrar) Run(ctx context.Context) error {
	if err := r.EnsureRegistered(ctx); err != nil {
		r.logger.Warn("Initial registration failed; continuing without push", "err", err)
	}

	rotations, err := r.source.Rotations(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to token rotations: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case token, ok := <-rotations:
			if !ok {
				return nil
			}
			r.logger.Info("Delivery token rotated; re-registering")
			if err := r.registry.Register(ctx, token); err != nil {
				r.logger.Warn("Failed to re-register rotated token", "err", err)
			}
		}
	}
}
