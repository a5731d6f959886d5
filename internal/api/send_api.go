package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	"github.com/tinywideclouds/go-push-dispatch/pkg/dispatch"
	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
)

// SendAPI exposes synchronous dispatch for trusted server-side callers.
// A request that reaches the gateway and fails gets the gateway's status;
// a request for a user with nothing to send to succeeds with a reason.
type SendAPI struct {
	Dispatcher *dispatch.Service
	Logger     *slog.Logger
}

func NewSendAPI(dispatcher *dispatch.Service, logger *slog.Logger) *SendAPI {
	return &SendAPI{
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

type SendResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

func (api *SendAPI) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req notification.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	outcome, err := api.Dispatcher.Dispatch(ctx, req)
	if err != nil {
		if errors.Is(err, notification.ErrMissingField) {
			response.WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		api.Logger.Error("dispatch failed", "user_id", req.UserID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	switch outcome.Result {
	case dispatch.Sent:
		api.writeJSON(w, http.StatusOK, SendResponse{Success: true})
	case dispatch.UserNotFound, dispatch.TokenMissing:
		// Missing recipients are expected churn, not caller errors.
		api.writeJSON(w, http.StatusOK, SendResponse{Success: false, Reason: string(outcome.Result)})
	case dispatch.NotConfigured:
		response.WriteJSONError(w, http.StatusInternalServerError, "push gateway is not configured")
	case dispatch.GatewayRejected:
		status := outcome.GatewayStatus
		if status == 0 {
			status = http.StatusBadGateway
		}
		response.WriteJSONError(w, status, outcome.GatewayDetail)
	default:
		api.Logger.Error("unknown dispatch outcome", "result", outcome.Result)
		response.WriteJSONError(w, http.StatusInternalServerError, "dispatch failed")
	}
}

func (api *SendAPI) writeJSON(w http.ResponseWriter, status int, body SendResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		api.Logger.Error("failed to encode response", "err", err)
	}
}
