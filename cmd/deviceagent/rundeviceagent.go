// The device agent runs alongside a user session. It keeps the device's
// delivery token registered with the dispatch service, turns incoming push
// events into desktop notifications, and routes notification clicks back
// into the application.
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/tinywideclouds/go-push-dispatch/internal/hostenv"
	"github.com/tinywideclouds/go-push-dispatch/internal/registry"
	"github.com/tinywideclouds/go-push-dispatch/pkg/deliverer"
	"github.com/tinywideclouds/go-push-dispatch/pkg/registrar"
)

//go:embed local.yaml
var configFile []byte

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With("service", "go-push-device-agent")
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadAgentConfig(configFile, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Host environment adapters ---
	tokenFeed := hostenv.NewTokenFeed(cfg.DeliveryToken, logger)
	notifier := hostenv.NewNotifySendNotifier(logger)
	windows := hostenv.NewBrowserWindows(cfg.AppBaseURL, logger)
	prompter := hostenv.StaticPrompter{Allowed: cfg.NotificationsEnabled}

	// --- Registration ---
	registryClient := registry.NewClient(cfg.ServerURL, cfg.AuthToken, nil)
	reg := registrar.New(prompter, tokenFeed, registryClient, cfg.ApplicationKey, logger)
	go func() {
		if err := reg.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Registrar stopped", "err", err)
		}
	}()

	// --- Delivery ---
	del := deliverer.New(notifier, windows, logger)

	// --- Event endpoints ---
	// The push transport and the notification tray call back into the agent
	// over loopback HTTP.
	server := microservice.NewBaseServer(logger, cfg.ListenAddr)
	mux := server.Mux()

	mux.HandleFunc("POST /events/push", func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
		if err != nil {
			response.WriteJSONError(w, http.StatusBadRequest, "unreadable body")
			return
		}
		if err := del.HandlePush(r.Context(), raw); err != nil {
			response.WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /events/notification-click", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Tag string `json:"tag"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := del.HandleClick(r.Context(), req.Tag); err != nil {
			logger.Warn("Click routing failed", "tag", req.Tag, "err", err)
			response.WriteJSONError(w, http.StatusInternalServerError, "click routing failed")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /events/token-rotated", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			response.WriteJSONError(w, http.StatusBadRequest, "missing token")
			return
		}
		tokenFeed.Rotate(req.Token)
		w.WriteHeader(http.StatusNoContent)
	})

	server.SetReady(true)
	logger.Info("Device agent started", "addr", cfg.ListenAddr)
	if err := server.Start(); err != nil {
		logger.Error("Agent shutdown with error", "err", err)
		os.Exit(1)
	}
}
