// Package fcm provides the Firebase Cloud Messaging implementation of the
// push gateway.
package fcm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"

	"github.com/tinywideclouds/go-push-dispatch/pkg/dispatch"
	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// This interface allows us to mock the client for unit testing.
type MessagingClient interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

type Gateway struct {
	client MessagingClient
	logger *slog.Logger
}

// NewGateway accepts the concrete client but stores it as the interface.
// A nil client marks the gateway as unconfigured: every Send resolves to
// dispatch.ErrGatewayNotConfigured without touching the network.
func NewGateway(client MessagingClient, logger *slog.Logger) *Gateway {
	return &Gateway{
		client: client,
		logger: logger.With("component", "FCMGateway"),
	}
}

// Send submits one message for one delivery token at high priority, with the
// fixed icon and click target attached for web deliverers.
func (g *Gateway) Send(ctx context.Context, token string, content notification.Content, data map[string]string) error {
	if g.client == nil {
		return dispatch.ErrGatewayNotConfigured
	}

	requireInteraction := true
	msg := &messaging.Message{
		Token: token,
		Data:  data,
		Notification: &messaging.Notification{
			Title: content.Title,
			Body:  content.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title:              content.Title,
				Body:               content.Body,
				Icon:               content.Icon,
				RequireInteraction: requireInteraction,
			},
			FCMOptions: &messaging.WebpushFCMOptions{
				Link: notification.DefaultClickTarget,
			},
		},
	}

	id, err := g.client.Send(ctx, msg)
	if err != nil {
		return classify(err)
	}
	g.logger.Debug("fcm accepted message", "message_id", id)
	return nil
}

// classify maps the SDK's error taxonomy onto ours. FCM does not hand back
// the raw HTTP response, so the status is reconstructed from the platform
// error category.
func classify(err error) error {
	if messaging.IsRegistrationTokenNotRegistered(err) {
		return fmt.Errorf("%w: %w", dispatch.ErrTokenNotRegistered,
			&dispatch.GatewayError{Status: http.StatusNotFound, Detail: err.Error()})
	}

	status := http.StatusBadGateway
	switch {
	case errorutils.IsInvalidArgument(err):
		status = http.StatusBadRequest
	case errorutils.IsUnauthenticated(err), errorutils.IsPermissionDenied(err):
		status = http.StatusForbidden
	case errorutils.IsResourceExhausted(err):
		status = http.StatusTooManyRequests
	case errorutils.IsUnavailable(err):
		status = http.StatusServiceUnavailable
	case errorutils.IsInternal(err):
		status = http.StatusInternalServerError
	}
	return &dispatch.GatewayError{Status: status, Detail: err.Error()}
}
