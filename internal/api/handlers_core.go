// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package api

import (
	"net/http"

	"github.com/netsentry/netsentry/internal/logging"
	"github.com/netsentry/netsentry/internal/metrics"
	"github.com/netsentry/netsentry/internal/models"
	"github.com/netsentry/netsentry/internal/validation"
	ws "github.com/netsentry/netsentry/internal/websocket"
)

// Predict classifies a record without touching the alert store or the
// broadcast stream.
//
// POST /predict
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}

	result := h.pipe.Predict(r.Context(), rec)

	respondJSON(w, r, http.StatusOK, models.PredictResponse{
		Malicious: result.Malicious,
		Score:     result.Score,
		Timestamp: result.Timestamp,
	})
}

// Ingest runs the full pipeline and returns the verdict to the caller.
// Malicious records additionally surface on /alerts/recent and the
// WebSocket stream before the response is written.
//
// POST /ingest
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}

	result := h.pipe.Ingest(r.Context(), metrics.SourceHTTP, rec)

	respondJSON(w, r, http.StatusOK, models.IngestResponse{
		Ingested:  true,
		Malicious: result.Malicious,
		Score:     result.Score,
		Timestamp: result.Timestamp,
	})
}

// RecentAlerts returns the newest alerts, oldest of the selection first.
//
// GET /alerts/recent?limit=N
func (h *Handler) RecentAlerts(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", h.cfg.Alerts.RecentDefault)
	if limit <= 0 {
		limit = h.cfg.Alerts.RecentDefault
	}

	alerts := h.store.Recent(limit)
	if alerts == nil {
		alerts = []models.Alert{}
	}
	respondJSON(w, r, http.StatusOK, alerts)
}

// WebSocket upgrades the connection and registers it with the hub. The
// hub greets the subscriber with a hello frame; history is not replayed.
//
// GET /ws/alerts
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, "WEBSOCKET_UNAVAILABLE",
			"alert stream is not available", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}

// decodeRecord parses and validates the request body shared by /predict
// and /ingest. On failure it writes the error response and returns false.
func (h *Handler) decodeRecord(w http.ResponseWriter, r *http.Request) (models.FeatureRecord, bool) {
	var rec models.FeatureRecord
	if err := decodeBody(r, &rec); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error(), nil)
		return rec, false
	}

	if verr := validation.ValidateStruct(&rec); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, r, http.StatusUnprocessableEntity, apiErr.Code, apiErr.Message, apiErr.Details)
		return rec, false
	}

	return rec, true
}
