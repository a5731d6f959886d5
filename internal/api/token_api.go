package api

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	"github.com/tinywideclouds/go-push-dispatch/pkg/dispatch"
)

// TokenAPI owns the authenticated endpoints a device uses to keep its
// delivery token current. The user identity always comes from the auth
// middleware, never from the request body.
type TokenAPI struct {
	Store  dispatch.TokenStore
	Logger *slog.Logger
}

func NewTokenAPI(store dispatch.TokenStore, logger *slog.Logger) *TokenAPI {
	return &TokenAPI{
		Store:  store,
		Logger: logger,
	}
}

type RegisterTokenRequest struct {
	Token string `json:"token"`
}

func (api *TokenAPI) RegisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing token")
		return
	}

	// Last write wins: a rotated token simply replaces the previous one.
	if err := api.Store.Upsert(ctx, userID, req.Token); err != nil {
		api.Logger.Error("failed to register token", "user_id", userID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *TokenAPI) UnregisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := api.Store.Clear(ctx, userID); err != nil {
		// Log but don't fail hard; idempotency is preferred for unregister
		api.Logger.Warn("failed to unregister token", "user_id", userID, "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
