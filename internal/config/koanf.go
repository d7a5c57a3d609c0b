// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envKeyMap translates environment variables to config paths. Unmapped
// variables are ignored so unrelated NETSENTRY_* values cannot corrupt
// nested keys.
var envKeyMap = map[string]string{
	"NETSENTRY_SERVER_HOST":         "server.host",
	"NETSENTRY_SERVER_PORT":         "server.port",
	"NETSENTRY_SERVER_CORS_ORIGINS": "server.cors_origins",
	"NETSENTRY_SERVER_RATE_LIMIT":   "server.rate_limit",
	"NETSENTRY_MODEL_PATH":          "model.path",
	"NETSENTRY_ALERTS_CAPACITY":     "alerts.capacity",
	"NETSENTRY_ALERTS_RECENT":       "alerts.recent_default",
	"NETSENTRY_FEED_URL":            "feed.url",
	"NETSENTRY_FEED_SUBJECT":        "feed.subject",
	"NETSENTRY_FEED_QUEUE_GROUP":    "feed.queue_group",
	"NETSENTRY_FEED_EMBEDDED":       "feed.embedded",
	"NETSENTRY_FEED_EMBEDDED_PORT":  "feed.embedded_port",
	"NETSENTRY_FEED_PUBLISH_ALERTS": "feed.publish_alerts",
	"NETSENTRY_FEED_ALERT_SUBJECT":  "feed.alert_subject",
	"NETSENTRY_FEED_RATE_LIMIT":     "feed.rate_limit",
	"NETSENTRY_LOG_LEVEL":           "logging.level",
	"NETSENTRY_LOG_FORMAT":          "logging.format",
	"NETSENTRY_METRICS_ENABLED":     "metrics.enabled",

	// Accepted for compatibility with the Python deployment scripts.
	"MODEL_PATH": "model.path",
	"FEED_URL":   "feed.url",
	"FEED_TOPIC": "feed.subject",
}

// Load builds the configuration by layering defaults, an optional YAML
// file, and environment variables, then validating the result.
//
// The config file is looked up at CONFIG_PATH, then ./config.yaml. A
// missing file is not an error; a malformed one is.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", func(key string) string {
		return envKeyMap[key]
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}
