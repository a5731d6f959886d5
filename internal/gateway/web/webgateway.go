// Package web provides the Web Push (VAPID) implementation of the push
// gateway. The stored delivery token for a web user is the serialized
// PushSubscription JSON the browser handed out at registration time.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/tinywideclouds/go-push-dispatch/pkg/dispatch"
	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
	"github.com/tinywideclouds/go-push-dispatch/pushdispatch/config"
)

const maxDetailBytes = 2048

type Gateway struct {
	subscriber string
	privateKey string
	publicKey  string
	logger     *slog.Logger
	httpClient *http.Client
}

func NewGateway(cfg config.VapidConfig, logger *slog.Logger) *Gateway {
	return &Gateway{
		privateKey: cfg.PrivateKey,
		publicKey:  cfg.PublicKey,
		subscriber: cfg.SubscriberEmail,
		logger:     logger.With("component", "WebPushGateway"),
		httpClient: &http.Client{},
	}
}

// Send pushes one payload to one subscription at high urgency. 404 and 410
// from the push endpoint mean the subscription is gone for good, so those
// are surfaced as a dead token.
func (g *Gateway) Send(ctx context.Context, token string, content notification.Content, data map[string]string) error {
	if g.privateKey == "" || g.publicKey == "" {
		return dispatch.ErrGatewayNotConfigured
	}

	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(token), &sub); err != nil || sub.Endpoint == "" {
		// The stored credential is not a subscription at all; treat it the
		// same as an expired one so it gets discarded.
		return fmt.Errorf("%w: %w", dispatch.ErrTokenNotRegistered,
			&dispatch.GatewayError{Status: http.StatusNotFound, Detail: "stored delivery token is not a web push subscription"})
	}

	payload, err := json.Marshal(map[string]interface{}{
		"notification": content,
		"data":         data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &sub, &webpush.Options{
		Subscriber:      g.subscriber,
		VAPIDPublicKey:  g.publicKey,
		VAPIDPrivateKey: g.privateKey,
		TTL:             60,
		Urgency:         webpush.UrgencyHigh,
		HTTPClient:      g.httpClient,
	})
	if err != nil {
		return fmt.Errorf("web push transport: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusCreated:
		g.logger.Debug("web push accepted", "endpoint", sub.Endpoint)
		return nil
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("%w: %w", dispatch.ErrTokenNotRegistered,
			&dispatch.GatewayError{Status: resp.StatusCode, Detail: readDetail(resp.Body)})
	default:
		return &dispatch.GatewayError{Status: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
}

func readDetail(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxDetailBytes))
	return string(body)
}
