// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

// Package api implements the HTTP and WebSocket surface: classification,
// ingestion, recent alerts, the live alert stream, and health probes.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/netsentry/netsentry/internal/alertstore"
	"github.com/netsentry/netsentry/internal/config"
	"github.com/netsentry/netsentry/internal/pipeline"
	ws "github.com/netsentry/netsentry/internal/websocket"
)

// Handler carries the dependencies shared by all endpoints.
type Handler struct {
	cfg       *config.Config
	pipe      *pipeline.Pipeline
	store     *alertstore.Store
	hub       *ws.Hub
	startTime time.Time
}

// NewHandler creates the endpoint handler.
func NewHandler(cfg *config.Config, pipe *pipeline.Pipeline, store *alertstore.Store, hub *ws.Hub) *Handler {
	return &Handler{
		cfg:       cfg,
		pipe:      pipe,
		store:     store,
		hub:       hub,
		startTime: time.Now(),
	}
}

// getUpgrader builds the WebSocket upgrader with origin checking bound to
// the configured CORS origins.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkWebSocketOrigin,
	}
}

// checkWebSocketOrigin validates the Origin header against the configured
// allow list. Requests without an Origin header (CLI clients, sensors)
// are allowed; browsers always send one.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range h.cfg.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
