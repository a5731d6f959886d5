package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AgentConfig configures a single device agent. One agent serves one user
// session on one machine.
type AgentConfig struct {
	ListenAddr           string `yaml:"listen_addr"`
	ServerURL            string `yaml:"server_url"`
	AuthToken            string `yaml:"auth_token"`
	ApplicationKey       string `yaml:"application_key"`
	AppBaseURL           string `yaml:"app_base_url"`
	NotificationsEnabled bool   `yaml:"notifications_enabled"`
	DeliveryToken        string `yaml:"delivery_token"`
}

func loadAgentConfig(data []byte, logger *slog.Logger) (*AgentConfig, error) {
	var cfg AgentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if val := os.Getenv("AGENT_PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "AGENT_PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	if val := os.Getenv("SERVER_URL"); val != "" {
		cfg.ServerURL = val
	}
	if val := os.Getenv("AUTH_TOKEN"); val != "" {
		cfg.AuthToken = val
	}
	if val := os.Getenv("APPLICATION_KEY"); val != "" {
		cfg.ApplicationKey = val
	}
	if val := os.Getenv("APP_BASE_URL"); val != "" {
		cfg.AppBaseURL = val
	}
	if val := os.Getenv("NOTIFICATIONS_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.NotificationsEnabled = enabled
	}
	if val := os.Getenv("DELIVERY_TOKEN"); val != "" {
		cfg.DeliveryToken = val
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8091"
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server_url is required (set via YAML or SERVER_URL env var)")
	}
	if cfg.AppBaseURL == "" {
		return nil, fmt.Errorf("app_base_url is required (set via YAML or APP_BASE_URL env var)")
	}
	return &cfg, nil
}
