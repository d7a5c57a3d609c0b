// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package api

import (
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/netsentry/netsentry/internal/logging"
	"github.com/netsentry/netsentry/internal/models"
)

// maxBodySize caps request bodies; feature records are small JSON objects.
const maxBodySize = 1 << 20

// respondJSON writes data as JSON with an FNV-1a ETag so polling clients
// can short-circuit unchanged responses.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal response")
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to encode response", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet && status == http.StatusOK {
		hash := fnv.New64a()
		_, _ = hash.Write(body)
		etag := fmt.Sprintf("%q", strconv.FormatUint(hash.Sum64(), 16))
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// respondError writes the structured error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	resp := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to write error response")
	}
}

// decodeBody unmarshals the request body into dst, rejecting oversized
// payloads and trailing garbage.
func decodeBody(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodySize {
		return fmt.Errorf("body exceeds %d bytes", maxBodySize)
	}
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// getIntParam reads an integer query parameter, falling back to def when
// absent or unparseable.
func getIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
