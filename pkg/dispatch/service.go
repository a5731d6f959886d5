package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
)

// Service resolves a notification request to a delivery token and submits
// exactly one send attempt to the gateway. Every code path resolves to an
// Outcome; the only errors returned are malformed input (ErrMissingField)
// and token-store failures.
type Service struct {
	store   TokenStore
	gateway Gateway
	logger  *slog.Logger
}

func NewService(store TokenStore, gateway Gateway, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		gateway: gateway,
		logger:  logger.With("component", "DispatchService"),
	}
}

// Dispatch performs the attempt. At-most-once per call: there is no retry
// loop and no deduplication across calls, so invoking twice with an
// identical request produces two independent sends.
func (s *Service) Dispatch(ctx context.Context, req notification.Request) (Outcome, error) {
	// Validation happens before any store read.
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}

	log := s.logger.With("dispatch_id", uuid.NewString(), "user_id", req.UserID)

	token, err := s.store.Lookup(ctx, req.UserID)
	if errors.Is(err, ErrUserNotFound) {
		log.Info("dispatch target has no user record")
		return Outcome{Result: UserNotFound}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("token lookup for %s: %w", req.UserID, err)
	}
	if token.Value == "" {
		log.Info("dispatch target has no delivery token")
		return Outcome{Result: TokenMissing}, nil
	}

	err = s.gateway.Send(ctx, token.Value, req.Content(), req.Payload())
	if err == nil {
		log.Info("notification dispatched", "type", req.Category())
		return Outcome{Result: Sent}, nil
	}

	if errors.Is(err, ErrGatewayNotConfigured) {
		log.Error("push gateway is not configured; send dropped")
		return Outcome{Result: NotConfigured}, nil
	}

	if errors.Is(err, ErrTokenNotRegistered) {
		// The token is dead upstream. Discard it so the next dispatch is a
		// benign miss instead of a repeated gateway rejection.
		if clearErr := s.store.Clear(ctx, req.UserID); clearErr != nil {
			log.Warn("failed to clear dead delivery token", "err", clearErr)
		} else {
			log.Info("cleared dead delivery token")
		}
	}

	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		log.Warn("gateway rejected dispatch", "status", gwErr.Status, "detail", gwErr.Detail)
		return Outcome{Result: GatewayRejected, GatewayStatus: gwErr.Status, GatewayDetail: gwErr.Detail}, nil
	}

	// Transport-level failure with no upstream status to surface.
	log.Warn("gateway transport failed", "err", err)
	return Outcome{Result: GatewayRejected, GatewayStatus: http.StatusBadGateway, GatewayDetail: err.Error()}, nil
}
