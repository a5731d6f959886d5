package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"

	firebase "firebase.google.com/go/v4"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-push-dispatch/internal/gateway/apns"
	"github.com/tinywideclouds/go-push-dispatch/internal/gateway/fcm"
	"github.com/tinywideclouds/go-push-dispatch/internal/gateway/web"

	"github.com/tinywideclouds/go-push-dispatch/internal/storage/cache"
	fsStore "github.com/tinywideclouds/go-push-dispatch/internal/storage/firestore"
	"github.com/tinywideclouds/go-push-dispatch/pkg/dispatch"

	"github.com/tinywideclouds/go-push-dispatch/pushdispatch"
	"github.com/tinywideclouds/go-push-dispatch/pushdispatch/config"

	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

//go:embed local.yaml
var configFile []byte

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "info", "INFO":
		logLevel = slog.LevelInfo
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "go-push-dispatch")
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Config Loading ---
	yamlCfg, err := config.LoadYamlConfig(configFile)
	if err != nil {
		logger.Error("Failed to unmarshal embedded yaml config", "err", err)
		os.Exit(1)
	}
	baseCfg, err := config.NewConfigFromYaml(yamlCfg, logger)
	if err != nil {
		logger.Error("Config mapping failed", "err", err)
		os.Exit(1)
	}
	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Infrastructure Clients ---
	var clientOpts []option.ClientOption
	if credsFile := os.Getenv("GOOGLE_CREDENTIALS_FILE"); credsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credsFile))
	}

	psClient, err := pubsub.NewClient(ctx, cfg.ProjectID, clientOpts...)
	if err != nil {
		logger.Error("PubSub client failed", "err", err)
		os.Exit(1)
	}
	defer psClient.Close()

	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID, clientOpts...)
	if err != nil {
		logger.Error("Firestore client failed", "err", err)
		os.Exit(1)
	}
	defer fsClient.Close()

	// --- Token Store (Decorated) ---
	var tokenStore dispatch.TokenStore = fsStore.NewTokenStore(fsClient)
	logger.Info("TokenStore initialized", "type", "firestore")

	if cfg.Redis.Enabled {
		logger.Info("Initializing Redis Cache layer...", "addr", cfg.Redis.Addr)
		redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		tokenStore = cache.NewCachedTokenStore(tokenStore, redisClient, 24*time.Hour)
		logger.Info("TokenStore upgraded", "type", "redis_cached_firestore")
	}

	// --- Auth ---
	identityURL := os.Getenv("IDENTITY_SERVICE_URL")
	if identityURL == "" {
		identityURL = "http://localhost:3000"
	}
	jwksURL, err := middleware.DiscoverAndValidateJWTConfig(identityURL, middleware.RSA256, logger)
	if err != nil {
		logger.Error("JWT discovery failed", "err", err)
		os.Exit(1)
	}
	authMiddleware, err := middleware.NewJWKSAuthMiddleware(jwksURL, logger)
	if err != nil {
		logger.Error("Auth middleware creation failed", "err", err)
		os.Exit(1)
	}

	// --- Gateway ---
	gateway, err := newGateway(ctx, cfg, logger)
	if err != nil {
		logger.Error("Gateway creation failed", "kind", cfg.Gateway.Kind, "err", err)
		os.Exit(1)
	}

	// --- Consumer & Service ---
	consumer, err := newIngestionConsumer(ctx, cfg, psClient, logger)
	if err != nil {
		logger.Error("Consumer creation failed", "err", err)
		os.Exit(1)
	}

	service, err := pushdispatch.New(
		cfg,
		consumer,
		gateway,
		tokenStore,
		authMiddleware,
		logger,
	)
	if err != nil {
		logger.Error("Service creation failed", "err", err)
		os.Exit(1)
	}

	logger.Info("Starting service...", "gateway_kind", cfg.Gateway.Kind)
	if err := service.Start(ctx); err != nil {
		logger.Error("Service shutdown with error", "err", err)
		os.Exit(1)
	}
}

// newGateway builds the configured push gateway. A deployment selects exactly
// one; unset credentials yield a gateway that reports itself unconfigured on
// every send rather than a startup failure, so mobile-only or API-only
// deployments still come up.
func newGateway(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dispatch.Gateway, error) {
	switch cfg.Gateway.Kind {
	case config.GatewayFCM:
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firebase App: %w", err)
		}
		fcmMessaging, err := fbApp.Messaging(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create FCM messaging client: %w", err)
		}
		return fcm.NewGateway(fcmMessaging, logger), nil

	case config.GatewayWebPush:
		if cfg.Gateway.Vapid.PrivateKey == "" || cfg.Gateway.Vapid.PublicKey == "" {
			logger.Warn("VAPID keys missing in configuration. Web Push sends will fail.")
		}
		return web.NewGateway(cfg.Gateway.Vapid, logger), nil

	case config.GatewayAPNS:
		return apns.NewGateway(apns.Config{
			KeyID:        cfg.Gateway.APNS.KeyID,
			TeamID:       cfg.Gateway.APNS.TeamID,
			BundleID:     cfg.Gateway.APNS.BundleID,
			P8KeyContent: cfg.Gateway.APNS.P8KeyContent,
		}, logger)

	default:
		return nil, fmt.Errorf("unknown gateway kind %q", cfg.Gateway.Kind)
	}
}

func newIngestionConsumer(ctx context.Context, cfg *config.Config, psClient *pubsub.Client, logger *slog.Logger) (messagepipeline.MessageConsumer, error) {
	sub := convertPubsub(cfg.ProjectID, cfg.PubsubConsumerConfig.SubscriptionID, "subscriptions")
	topicID := convertPubsub(cfg.ProjectID, cfg.TopicID, "topics")
	dlt := convertPubsub(cfg.ProjectID, cfg.SubscriptionDLQTopicID, "topics")

	subConfig := &pubsubpb.Subscription{
		Name:               sub,
		Topic:              topicID,
		AckDeadlineSeconds: 10,
		DeadLetterPolicy: &pubsubpb.DeadLetterPolicy{
			DeadLetterTopic:     dlt,
			MaxDeliveryAttempts: 5,
		},
		EnableMessageOrdering: false,
	}
	logger.Debug("Ensuring subscription exists", "sub", subConfig.Name, "topic", subConfig.Topic)
	_, err := psClient.SubscriptionAdminClient.CreateSubscription(ctx, subConfig)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			logger.Debug("Subscription already exists, skipping creation", "sub", subConfig.Name)
		} else {
			logger.Error("Failed to create subscription", "sub", subConfig.Name, "err", err)
			return nil, fmt.Errorf("could not create sub: %s", sub)
		}
	}

	return messagepipeline.NewGooglePubsubConsumer(
		messagepipeline.NewGooglePubsubConsumerDefaults(subConfig.Name), psClient, logger,
	)
}

type PS string

func convertPubsub(project, id string, ps PS) string {
	return fmt.Sprintf("projects/%s/%s/%s", project, ps, id)
}
