package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-push-dispatch/pkg/dispatch"
	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
)

// NewProcessor wraps the dispatch service for the streaming pipeline.
//
// The return value decides message fate: nil acks, an error nacks for retry.
// Outcomes that will not improve on retry (missing user, missing token) ack;
// transient gateway and infrastructure failures nack.
func NewProcessor(
	dispatcher *dispatch.Service,
	logger *slog.Logger,
) messagepipeline.StreamProcessor[notification.Request] {

	return func(ctx context.Context, original messagepipeline.Message, request *notification.Request) error {
		procLogger := logger.With(
			"user_id", request.UserID,
			"pubsub_msg_id", original.ID,
		)

		outcome, err := dispatcher.Dispatch(ctx, *request)
		if err != nil {
			procLogger.Error("Dispatch failed", "err", err)
			return err
		}

		switch outcome.Result {
		case dispatch.Sent:
			procLogger.Info("Notification dispatched")
			return nil
		case dispatch.UserNotFound, dispatch.TokenMissing:
			procLogger.Info("No deliverable device for user; dropping notification.", "reason", outcome.Result)
			return nil
		case dispatch.NotConfigured:
			procLogger.Error("Push gateway is not configured")
			return fmt.Errorf("push gateway is not configured")
		case dispatch.GatewayRejected:
			procLogger.Warn("Gateway rejected send",
				"status", outcome.GatewayStatus,
				"detail", outcome.GatewayDetail,
			)
			return fmt.Errorf("gateway rejected send: status %d", outcome.GatewayStatus)
		default:
			return fmt.Errorf("unknown dispatch outcome %q", outcome.Result)
		}
	}
}
