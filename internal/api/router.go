// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netsentry/netsentry/internal/config"
	"github.com/netsentry/netsentry/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler *Handler
	cfg     *config.Config
}

// NewRouter creates a router around the given handler.
func NewRouter(cfg *config.Config, handler *Handler) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler shape.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup configures all routes and global middleware.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints: permissive rate limit so monitors can poll freely.
	r.Route("/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Core endpoints.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(router.cfg.Server.RateLimit, time.Minute))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Post("/predict", router.handler.Predict)
		r.Post("/ingest", router.handler.Ingest)
		r.Get("/alerts/recent", router.handler.RecentAlerts)
		r.Get("/ws/alerts", router.handler.WebSocket)
	})

	if router.cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}
