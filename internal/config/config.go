// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

// Package config loads and validates application configuration.
//
// Configuration is layered: struct defaults, then an optional YAML file,
// then NETSENTRY_* environment variables. See Load.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Model   ModelConfig   `koanf:"model"`
	Alerts  AlertsConfig  `koanf:"alerts"`
	Feed    FeedConfig    `koanf:"feed"`
	Logging LoggingConfig `koanf:"logging"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed origins for HTTP and WebSocket requests.
	// "*" allows any origin.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is the per-IP request budget per minute for API endpoints.
	RateLimit int `koanf:"rate_limit"`
}

// ModelConfig configures the bundled classifier model.
type ModelConfig struct {
	// Path to the JSON model file. When empty or missing the server runs
	// without a model and every record is classified benign (fail-safe).
	Path string `koanf:"path"`
}

// AlertsConfig configures the in-memory alert store.
type AlertsConfig struct {
	// Capacity bounds the store; the oldest alert is evicted when full.
	Capacity int `koanf:"capacity"`

	// RecentDefault is the default limit for GET /alerts/recent.
	RecentDefault int `koanf:"recent_default"`
}

// FeedConfig configures the optional broker feed bridge. The bridge is
// inert when URL is empty and Embedded is false.
type FeedConfig struct {
	// URL of the NATS server, e.g. nats://localhost:4222.
	URL string `koanf:"url"`

	// Subject carrying raw traffic records. Default: ids.traffic
	Subject string `koanf:"subject"`

	// QueueGroup for load-balanced consumption across instances.
	QueueGroup string `koanf:"queue_group"`

	// DurableName prefixes the JetStream durable consumer.
	DurableName string `koanf:"durable_name"`

	// Embedded starts an in-process NATS server and connects the bridge
	// to it. Useful for single-binary deployments.
	Embedded     bool   `koanf:"embedded"`
	EmbeddedPort int    `koanf:"embedded_port"`
	StoreDir     string `koanf:"store_dir"`

	// PublishAlerts republishes confirmed-malicious alerts to AlertSubject.
	PublishAlerts bool   `koanf:"publish_alerts"`
	AlertSubject  string `koanf:"alert_subject"`

	// RateLimit caps feed ingestion in records per second. Zero disables.
	RateLimit float64 `koanf:"rate_limit"`

	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       300,
		},
		Model: ModelConfig{
			Path: "model.json",
		},
		Alerts: AlertsConfig{
			Capacity:      200,
			RecentDefault: 50,
		},
		Feed: FeedConfig{
			Subject:       "ids.traffic",
			QueueGroup:    "netsentry",
			DurableName:   "netsentry",
			EmbeddedPort:  4222,
			AlertSubject:  "ids.alerts",
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// FeedEnabled reports whether the feed bridge should start.
func (c *Config) FeedEnabled() bool {
	return c.Feed.URL != "" || c.Feed.Embedded
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Alerts.Capacity < 1 {
		return fmt.Errorf("alerts.capacity must be positive, got %d", c.Alerts.Capacity)
	}
	if c.Alerts.RecentDefault < 1 {
		return fmt.Errorf("alerts.recent_default must be positive, got %d", c.Alerts.RecentDefault)
	}
	if c.Feed.RateLimit < 0 {
		return fmt.Errorf("feed.rate_limit must not be negative, got %f", c.Feed.RateLimit)
	}
	if c.FeedEnabled() && c.Feed.Subject == "" {
		return fmt.Errorf("feed.subject must be set when the feed is enabled")
	}
	if c.Feed.PublishAlerts && c.Feed.AlertSubject == "" {
		return fmt.Errorf("feed.alert_subject must be set when publish_alerts is enabled")
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
