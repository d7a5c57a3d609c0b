// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package api

import (
	"net/http"
	"time"

	"github.com/netsentry/netsentry/internal/models"
)

// Health reports service status and whether a model is loaded. The
// service is healthy without a model; it classifies everything benign.
//
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, models.HealthResponse{
		Status:      "ok",
		ModelLoaded: h.pipe.ModelLoaded(),
	})
}

// HealthLive is the liveness probe.
//
// GET /health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe, including the subscriber gauge
// useful when debugging a wedged deployment.
//
// GET /health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":       "ready",
		"model_loaded": h.pipe.ModelLoaded(),
		"subscribers":  h.hub.SubscriberCount(),
		"uptime_s":     int64(time.Since(h.startTime).Seconds()),
	})
}
