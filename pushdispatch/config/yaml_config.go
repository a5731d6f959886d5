package config

import (
	"fmt"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"gopkg.in/yaml.v3"
)

// YamlConfig mirrors the structure of the service's YAML configuration file.
type YamlConfig struct {
	ProjectID              string `yaml:"project_id"`
	ListenAddr             string `yaml:"listen_addr"`
	TopicID                string `yaml:"topic_id"`
	SubscriptionID         string `yaml:"subscription_id"`
	SubscriptionDLQTopicID string `yaml:"subscription_dlq_topic_id"`
	NumPipelineWorkers     int    `yaml:"num_pipeline_workers"`

	Cors struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
		Role           string   `yaml:"role"`
	} `yaml:"cors"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Gateway struct {
		Kind  string `yaml:"kind"`
		Vapid struct {
			PublicKey       string `yaml:"public_key"`
			PrivateKey      string `yaml:"private_key"`
			SubscriberEmail string `yaml:"subscriber_email"`
		} `yaml:"vapid"`
		APNS struct {
			KeyID        string `yaml:"key_id"`
			TeamID       string `yaml:"team_id"`
			BundleID     string `yaml:"bundle_id"`
			P8KeyContent string `yaml:"p8_key"`
		} `yaml:"apns"`
	} `yaml:"gateway"`
}

// LoadYamlConfig parses raw YAML bytes into the intermediate structure.
func LoadYamlConfig(data []byte) (*YamlConfig, error) {
	var cfg YamlConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return &cfg, nil
}

// NewConfigFromYaml converts the YAML structure into the runtime Config.
// Environment overrides and validation happen in a separate step so tests
// can exercise each stage independently.
func NewConfigFromYaml(yamlCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	if yamlCfg == nil {
		return nil, fmt.Errorf("yaml config is nil")
	}

	cfg := &Config{
		ProjectID:              yamlCfg.ProjectID,
		ListenAddr:             yamlCfg.ListenAddr,
		TopicID:                yamlCfg.TopicID,
		SubscriptionID:         yamlCfg.SubscriptionID,
		SubscriptionDLQTopicID: yamlCfg.SubscriptionDLQTopicID,
		NumPipelineWorkers:     yamlCfg.NumPipelineWorkers,
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: yamlCfg.Cors.AllowedOrigins,
			Role:           middleware.CorsRole(yamlCfg.Cors.Role),
		},
		Redis: RedisConfig{
			Enabled:  yamlCfg.Redis.Enabled,
			Addr:     yamlCfg.Redis.Addr,
			Password: yamlCfg.Redis.Password,
			DB:       yamlCfg.Redis.DB,
		},
		Gateway: GatewayConfig{
			Kind: yamlCfg.Gateway.Kind,
			Vapid: VapidConfig{
				PublicKey:       yamlCfg.Gateway.Vapid.PublicKey,
				PrivateKey:      yamlCfg.Gateway.Vapid.PrivateKey,
				SubscriberEmail: yamlCfg.Gateway.Vapid.SubscriberEmail,
			},
			APNS: APNSConfig{
				KeyID:        yamlCfg.Gateway.APNS.KeyID,
				TeamID:       yamlCfg.Gateway.APNS.TeamID,
				BundleID:     yamlCfg.Gateway.APNS.BundleID,
				P8KeyContent: yamlCfg.Gateway.APNS.P8KeyContent,
			},
		},
	}

	if cfg.CorsConfig.Role == "" {
		cfg.CorsConfig.Role = middleware.CorsRoleEditor
	}
	if cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("Mapped YAML configuration", "project_id", cfg.ProjectID, "gateway_kind", cfg.Gateway.Kind)
	return cfg, nil
}
