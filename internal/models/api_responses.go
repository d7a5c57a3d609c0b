// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package models

// APIError is the structured error payload returned by the HTTP API.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// APIResponse is the envelope used for error responses. Success responses
// return their payload directly to stay wire-compatible with existing
// dashboard clients.
type APIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *APIError   `json:"error,omitempty"`
}

// PredictResponse is the body of POST /predict. Score is null when no
// model could score the record.
type PredictResponse struct {
	Malicious bool     `json:"malicious"`
	Score     *float64 `json:"score"`
	Timestamp string   `json:"timestamp"`
}

// IngestResponse is the body of POST /ingest: the classification verdict
// returned to the caller whether or not an alert was raised.
type IngestResponse struct {
	Ingested  bool     `json:"ingested"`
	Malicious bool     `json:"malicious"`
	Score     *float64 `json:"score"`
	Timestamp string   `json:"timestamp"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}
