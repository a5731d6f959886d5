// Package apns provides the Apple Push Notification service implementation
// of the push gateway.
package apns

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"

	"github.com/tinywideclouds/go-push-dispatch/pkg/dispatch"
	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
)

// APNSClient defines the subset of the apns2.Client methods we use.
// This allows mocking for unit tests.
type APNSClient interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// Config holds the credentials required to sign APNs tokens.
type Config struct {
	KeyID    string
	TeamID   string
	BundleID string
	// P8KeyContent is the raw string content of the .p8 file.
	P8KeyContent string
}

func (c Config) complete() bool {
	return c.KeyID != "" && c.TeamID != "" && c.BundleID != "" && c.P8KeyContent != ""
}

type Gateway struct {
	client APNSClient
	topic  string
	logger *slog.Logger
}

// NewGateway creates a configured APNs gateway. The P8 key is parsed
// immediately so a corrupt credential fails at startup; an entirely absent
// credential instead yields an unconfigured gateway whose sends resolve to
// dispatch.ErrGatewayNotConfigured.
func NewGateway(cfg Config, logger *slog.Logger) (*Gateway, error) {
	log := logger.With("component", "APNSGateway")

	if !cfg.complete() {
		return &Gateway{logger: log}, nil
	}

	authKey, err := token.AuthKeyFromBytes([]byte(cfg.P8KeyContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse APNs P8 key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})

	return &Gateway{
		client: client,
		topic:  cfg.BundleID,
		logger: log,
	}, nil
}

// NewGatewayWithClient wires a pre-built client. Used by tests and by
// callers that manage the HTTP/2 client themselves.
func NewGatewayWithClient(client APNSClient, bundleID string, logger *slog.Logger) *Gateway {
	return &Gateway{
		client: client,
		topic:  bundleID,
		logger: logger.With("component", "APNSGateway"),
	}
}

// Send pushes one notification to one device token at high priority.
func (g *Gateway) Send(ctx context.Context, deviceToken string, content notification.Content, data map[string]string) error {
	if g.client == nil {
		return dispatch.ErrGatewayNotConfigured
	}

	builder := payload.NewPayload().
		AlertTitle(content.Title).
		AlertBody(content.Body).
		Sound("default")
	for k, v := range data {
		builder.Custom(k, v)
	}

	res, err := g.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       g.topic,
		Priority:    apns2.PriorityHigh,
		Payload:     builder,
	})
	if err != nil {
		return fmt.Errorf("apns transport: %w", err)
	}

	if res.Sent() {
		g.logger.Debug("apns accepted notification", "apns_id", res.ApnsID)
		return nil
	}

	switch res.Reason {
	case apns2.ReasonBadDeviceToken, apns2.ReasonUnregistered, apns2.ReasonDeviceTokenNotForTopic:
		return fmt.Errorf("%w: %w", dispatch.ErrTokenNotRegistered,
			&dispatch.GatewayError{Status: res.StatusCode, Detail: res.Reason})
	default:
		return &dispatch.GatewayError{Status: res.StatusCode, Detail: res.Reason}
	}
}
