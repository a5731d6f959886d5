// Package pipeline contains the message processing components for the
// asynchronous dispatch path.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
)

// RequestTransformer unmarshals and validates a raw message payload into a
// structured notification.Request.
//
// A payload that cannot be parsed or is missing mandatory fields will never
// become valid on retry, so we return skip=true and let the StreamingService
// handle the Nack/DLQ logic.
func RequestTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*notification.Request, bool, error) {
	var req notification.Request

	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal notification request from message %s: %w", msg.ID, err)
	}

	if err := req.Validate(); err != nil {
		return nil, true, fmt.Errorf("invalid notification request in message %s: %w", msg.ID, err)
	}

	return &req, false, nil
}
