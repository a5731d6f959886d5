// Package dispatch contains the public contracts of the push dispatch
// subsystem and the service that turns a notification request into exactly
// one send attempt.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
)

// ErrUserNotFound is returned by a TokenStore lookup when no record exists
// for the user at all. It is an expected steady-state condition, not a
// defect.
var ErrUserNotFound = errors.New("user record not found")

// ErrGatewayNotConfigured is returned by a Gateway whose server-held
// credential is absent. This is a deployment defect; no network call is
// attempted.
var ErrGatewayNotConfigured = errors.New("push gateway credentials not configured")

// ErrTokenNotRegistered marks a gateway rejection caused by a dead delivery
// token. The token must be discarded, not retried.
var ErrTokenNotRegistered = errors.New("delivery token no longer registered")

// TokenStore is the persistent mapping from user identity to current
// delivery token. Writers are registrars, readers are dispatch calls;
// last-write-wins with no locking.
type TokenStore interface {
	// Upsert overwrites the user's current token. It never merges.
	Upsert(ctx context.Context, userID string, token string) error

	// Lookup returns the user's current token. A missing user record yields
	// ErrUserNotFound; a present record with no token yields a DeviceToken
	// with an empty Value.
	Lookup(ctx context.Context, userID string) (notification.DeviceToken, error)

	// Clear removes the user's token, leaving the rest of the record alone.
	// Clearing an unknown user is a no-op.
	Clear(ctx context.Context, userID string) error
}

// Gateway is the external push service. Implementations always send at
// elevated priority and classify failures into ErrGatewayNotConfigured,
// ErrTokenNotRegistered and GatewayError.
type Gateway interface {
	Send(ctx context.Context, token string, content notification.Content, data map[string]string) error
}

// GatewayError carries the upstream gateway's status code and response
// detail verbatim. The caller decides whether to re-attempt.
type GatewayError struct {
	Status int
	Detail string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway rejected send: status %d: %s", e.Status, e.Detail)
}
