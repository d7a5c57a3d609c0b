// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/netsentry/netsentry/internal/logging"
)

func init() {
	logging.SetLogger(logging.NewTestLogger(io.Discard))
}

func TestRequestIDPreservesUpstreamHeader(t *testing.T) {
	var seen string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-42")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if seen != "upstream-42" {
		t.Errorf("expected upstream id in context, got %q", seen)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "upstream-42" {
		t.Errorf("expected upstream id echoed, got %q", got)
	}
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	var seen string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == "" {
		t.Error("expected generated request id in context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("header %q does not match context id %q", got, seen)
	}
}

func TestRequestIDsAreUnique(t *testing.T) {
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {})

	ids := make(map[string]bool)
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rec.Header().Get("X-Request-ID")
		if ids[id] {
			t.Fatalf("duplicate request id %q", id)
		}
		ids[id] = true
	}
}

func TestGetRequestIDEmptyContext(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("expected empty id from bare context, got %q", id)
	}
}
