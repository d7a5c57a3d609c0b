// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

// Command server runs the NetSentry backend: HTTP/WebSocket API, the
// classification pipeline, and the optional broker feed bridge, all under
// a suture supervision tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/netsentry/netsentry/internal/alertstore"
	"github.com/netsentry/netsentry/internal/api"
	"github.com/netsentry/netsentry/internal/classifier"
	"github.com/netsentry/netsentry/internal/config"
	"github.com/netsentry/netsentry/internal/feedbridge"
	"github.com/netsentry/netsentry/internal/logging"
	"github.com/netsentry/netsentry/internal/pipeline"
	"github.com/netsentry/netsentry/internal/supervisor"
	"github.com/netsentry/netsentry/internal/supervisor/services"
	ws "github.com/netsentry/netsentry/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	gateway := loadGateway(cfg)
	store := alertstore.New(cfg.Alerts.Capacity)
	hub := ws.NewHub()
	pipe := pipeline.New(gateway, store, hub)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewRunnerService("websocket-hub", hub))

	if cfg.FeedEnabled() {
		bridge, err := feedbridge.New(cfg.Feed, pipe)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to start feed bridge")
		}
		defer func() { _ = bridge.Close() }()
		tree.AddMessagingService(services.NewRunnerService("feed-bridge", bridge))

		if cfg.Feed.PublishAlerts {
			publisher, err := feedbridge.NewAlertPublisher(cfg.Feed, bridge.EmbeddedURL())
			if err != nil {
				logging.Fatal().Err(err).Msg("failed to start alert publisher")
			}
			defer func() { _ = publisher.Close() }()
			pipe.SetAlertPublisher(publisher)
		}
	} else {
		logging.Info().Msg("feed bridge disabled, HTTP ingest only")
	}

	handler := api.NewHandler(cfg, pipe, store, hub)
	router := api.NewRouter(cfg, handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPService(srv, addr, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("addr", addr).
		Bool("model_loaded", gateway.ModelLoaded()).
		Bool("feed_enabled", cfg.FeedEnabled()).
		Msg("netsentry starting")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
			for _, svc := range report {
				logging.Warn().Str("service", svc.Name).Msg("service did not stop in time")
			}
		}
		logging.Error().Err(err).Msg("supervisor exited with error")
		os.Exit(1)
	}

	logging.Info().Msg("netsentry stopped")
}

// loadGateway loads the configured model. A missing or invalid model is
// not fatal: the gateway runs in fail-safe mode classifying everything
// benign, and /health reports model_loaded=false.
func loadGateway(cfg *config.Config) *classifier.Gateway {
	if cfg.Model.Path == "" {
		logging.Warn().Msg("no model path configured, running without a model")
		return classifier.NewGateway(nil)
	}

	model, err := classifier.LoadLinearModel(cfg.Model.Path)
	if err != nil {
		logging.Warn().Err(err).Str("path", cfg.Model.Path).
			Msg("model unavailable, running without a model")
		return classifier.NewGateway(nil)
	}

	logging.Info().Str("model", model.Name()).Str("path", cfg.Model.Path).Msg("model loaded")
	return classifier.NewGateway(model)
}
