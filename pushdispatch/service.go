// Package pushdispatch assembles the dispatch service: HTTP API, streaming
// pipeline, and their shared dispatch core.
package pushdispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-push-dispatch/internal/api"
	"github.com/tinywideclouds/go-push-dispatch/internal/pipeline"
	"github.com/tinywideclouds/go-push-dispatch/pkg/dispatch"
	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
	"github.com/tinywideclouds/go-push-dispatch/pushdispatch/config"
)

type Wrapper struct {
	*microservice.BaseServer
	pipelineService *messagepipeline.StreamingService[notification.Request]
	logger          *slog.Logger
}

// New assembles the service. Every collaborator arrives pre-built so the
// wiring here is pure composition.
func New(
	cfg *config.Config,
	consumer messagepipeline.MessageConsumer,
	gateway dispatch.Gateway,
	tokenStore dispatch.TokenStore,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) (*Wrapper, error) {

	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	dispatcher := dispatch.NewService(tokenStore, gateway, logger)

	streamingService, err := messagepipeline.NewStreamingService(
		messagepipeline.StreamingServiceConfig{NumWorkers: cfg.NumPipelineWorkers},
		consumer,
		pipeline.RequestTransformer,
		pipeline.NewProcessor(dispatcher, logger),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create streaming service: %w", err)
	}

	tokenAPI := api.NewTokenAPI(tokenStore, logger)
	sendAPI := api.NewSendAPI(dispatcher, logger)

	mux := baseServer.Mux()
	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)

	handle := func(pattern string, handlerFunc http.HandlerFunc) {
		mux.Handle(pattern, corsMiddleware(authMiddleware(handlerFunc)))
	}

	// Device-facing registration paths; identity comes from the JWT.
	handle("POST /api/v1/tokens/register", tokenAPI.RegisterToken)
	handle("POST /api/v1/tokens/unregister", tokenAPI.UnregisterToken)

	// Server-to-server synchronous dispatch.
	handle("POST /api/v1/notifications/send", sendAPI.Send)

	// Global OPTIONS for the API namespace (CORS preflight)
	mux.Handle("OPTIONS /api/v1/", corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 OK with CORS headers handled by middleware
	})))

	return &Wrapper{
		BaseServer:      baseServer,
		pipelineService: streamingService,
		logger:          logger,
	}, nil
}

func (w *Wrapper) Start(ctx context.Context) error {
	w.logger.Info("Core processing pipeline starting...")
	if err := w.pipelineService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start processing service: %w", err)
	}
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	var finalErr error
	if err := w.pipelineService.Stop(ctx); err != nil {
		w.logger.Error("Processing pipeline shutdown failed.", "err", err)
		finalErr = err
	}
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		finalErr = err
	}
	w.logger.Info("Service shutdown complete.")
	return finalErr
}
