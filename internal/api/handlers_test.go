// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorilla "github.com/gorilla/websocket"

	"github.com/netsentry/netsentry/internal/alertstore"
	"github.com/netsentry/netsentry/internal/classifier"
	"github.com/netsentry/netsentry/internal/config"
	"github.com/netsentry/netsentry/internal/logging"
	"github.com/netsentry/netsentry/internal/models"
	"github.com/netsentry/netsentry/internal/pipeline"
	ws "github.com/netsentry/netsentry/internal/websocket"
)

func init() {
	logging.SetLogger(logging.NewTestLogger(io.Discard))
}

// flagClassifier scores a record malicious when its "mal" feature is set.
type flagClassifier struct{}

func (flagClassifier) Classify(_ context.Context, rec models.FeatureRecord) (models.Verdict, error) {
	if rec.Features["mal"] == 1 {
		return models.VerdictFromScore(0.9), nil
	}
	return models.VerdictFromScore(0.1), nil
}

func (flagClassifier) Name() string { return "flag" }

type testEnv struct {
	server *httptest.Server
	store  *alertstore.Store
	hub    *ws.Hub
	pipe   *pipeline.Pipeline
}

// setupEnv starts hub, pipeline, and HTTP server wired like production.
func setupEnv(t *testing.T, c classifier.Classifier) *testEnv {
	t.Helper()

	cfg := config.Default()
	store := alertstore.New(cfg.Alerts.Capacity)
	hub := ws.NewHub()
	pipe := pipeline.New(classifier.NewGateway(c), store, hub)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()
	time.Sleep(10 * time.Millisecond)

	handler := NewHandler(cfg, pipe, store, hub)
	server := httptest.NewServer(NewRouter(cfg, handler).Setup())

	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return &testEnv{server: server, store: store, hub: hub, pipe: pipe}
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthReportsModelState(t *testing.T) {
	env := setupEnv(t, flagClassifier{})

	resp, err := http.Get(env.server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var health models.HealthResponse
	decodeResponse(t, resp, &health)
	if health.Status != "ok" {
		t.Errorf("expected status ok, got %s", health.Status)
	}
	if !health.ModelLoaded {
		t.Error("expected model_loaded true")
	}
}

func TestHealthWithoutModel(t *testing.T) {
	env := setupEnv(t, nil)

	resp, err := http.Get(env.server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	var health models.HealthResponse
	decodeResponse(t, resp, &health)
	if health.ModelLoaded {
		t.Error("expected model_loaded false without a model")
	}
}

func TestPredictVerdicts(t *testing.T) {
	env := setupEnv(t, flagClassifier{})

	tests := []struct {
		name          string
		body          string
		wantMalicious bool
		wantScore     float64
	}{
		{"malicious", `{"features":{"mal":1}}`, true, 0.9},
		{"benign", `{"features":{"mal":0}}`, false, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, env.server.URL+"/predict", tt.body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}

			var pred models.PredictResponse
			decodeResponse(t, resp, &pred)
			if pred.Malicious != tt.wantMalicious {
				t.Errorf("expected malicious=%v, got %+v", tt.wantMalicious, pred)
			}
			if pred.Score == nil || *pred.Score != tt.wantScore {
				t.Errorf("expected score %v, got %+v", tt.wantScore, pred.Score)
			}
			if pred.Timestamp == "" {
				t.Error("expected timestamp in response")
			}
		})
	}

	// Predict never touches the store.
	if env.store.Len() != 0 {
		t.Errorf("predict stored %d alerts", env.store.Len())
	}
}

func TestPredictWithoutModelFailsSafe(t *testing.T) {
	env := setupEnv(t, nil)

	resp := postJSON(t, env.server.URL+"/predict", `{"features":{"mal":1}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(raw["malicious"]) != "false" {
		t.Errorf("expected benign fail-safe verdict, got %s", body)
	}
	// The score carries no meaning without a model, so it must be null.
	if score, ok := raw["score"]; ok && string(score) != "null" {
		t.Errorf("expected null score without a model, got %s", score)
	}
}

func TestPredictRejectsBadInput(t *testing.T) {
	env := setupEnv(t, flagClassifier{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"malformed json", `{"features":`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"missing features", `{"src_ip":"10.0.0.1"}`, http.StatusUnprocessableEntity},
		{"empty features", `{"features":{}}`, http.StatusUnprocessableEntity},
		{"bad ip", `{"features":{"dur":1},"src_ip":"not-an-ip"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, env.server.URL+"/predict", tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestIngestReturnsVerdict(t *testing.T) {
	env := setupEnv(t, flagClassifier{})

	tests := []struct {
		name          string
		body          string
		wantMalicious bool
		wantScore     float64
	}{
		{"malicious", `{"features":{"mal":1}}`, true, 0.9},
		{"benign", `{"features":{"mal":0}}`, false, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, env.server.URL+"/ingest", tt.body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}

			var ing models.IngestResponse
			decodeResponse(t, resp, &ing)
			if !ing.Ingested {
				t.Errorf("expected ingested=true, got %+v", ing)
			}
			if ing.Malicious != tt.wantMalicious {
				t.Errorf("expected malicious=%v, got %+v", tt.wantMalicious, ing)
			}
			if ing.Score == nil || *ing.Score != tt.wantScore {
				t.Errorf("expected score %v, got %+v", tt.wantScore, ing.Score)
			}
			if ing.Timestamp == "" {
				t.Error("expected timestamp in response")
			}
		})
	}
}

func TestIngestToRecentAlerts(t *testing.T) {
	env := setupEnv(t, flagClassifier{})

	// Benign records get a verdict but are never stored.
	resp := postJSON(t, env.server.URL+"/ingest", `{"features":{"mal":0}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	if env.store.Len() != 0 {
		t.Fatalf("benign record stored: %d alerts", env.store.Len())
	}

	for i := 0; i < 3; i++ {
		resp := postJSON(t, env.server.URL+"/ingest", `{"features":{"mal":1},"src_ip":"10.0.0.7"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("ingest %d: expected 200, got %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}

	// The alert is stored before the ingest response is written.
	get, err := http.Get(env.server.URL + "/alerts/recent?limit=2")
	if err != nil {
		t.Fatalf("GET /alerts/recent: %v", err)
	}
	var alerts []models.Alert
	decodeResponse(t, get, &alerts)

	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].ID >= alerts[1].ID {
		t.Errorf("expected oldest-first ordering, got ids %d, %d", alerts[0].ID, alerts[1].ID)
	}
	if alerts[0].SrcIP != "10.0.0.7" {
		t.Errorf("expected src_ip carried into alert, got %q", alerts[0].SrcIP)
	}
}

func TestRecentAlertsSerializeIDAsString(t *testing.T) {
	env := setupEnv(t, flagClassifier{})

	resp := postJSON(t, env.server.URL+"/ingest", `{"features":{"mal":1}}`)
	resp.Body.Close()

	get, err := http.Get(env.server.URL + "/alerts/recent")
	if err != nil {
		t.Fatalf("GET /alerts/recent: %v", err)
	}
	var raw []map[string]json.RawMessage
	decodeResponse(t, get, &raw)

	if len(raw) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(raw))
	}
	id := string(raw[0]["id"])
	if !strings.HasPrefix(id, `"`) || !strings.HasSuffix(id, `"`) {
		t.Errorf("expected alert id serialized as a JSON string, got %s", id)
	}
}

func TestRecentAlertsDefaultsAndEmpty(t *testing.T) {
	env := setupEnv(t, flagClassifier{})

	resp, err := http.Get(env.server.URL + "/alerts/recent")
	if err != nil {
		t.Fatalf("GET /alerts/recent: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("expected empty JSON array, got %s", body)
	}

	// A nonsense limit falls back to the default.
	resp2, err := http.Get(env.server.URL + "/alerts/recent?limit=-3")
	if err != nil {
		t.Fatalf("GET with negative limit: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for negative limit, got %d", resp2.StatusCode)
	}
}

func TestWebSocketHelloThenAlertStream(t *testing.T) {
	env := setupEnv(t, flagClassifier{})

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/alerts"
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	// The greeting is a flat object, not an envelope.
	var hello map[string]string
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello["type"] != "hello" || hello["message"] != "connected" {
		t.Fatalf("expected {type: hello, message: connected}, got %v", hello)
	}

	resp := postJSON(t, env.server.URL+"/ingest", `{"features":{"mal":1}}`)
	resp.Body.Close()

	// Alerts arrive as bare Alert objects.
	var alert models.Alert
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&alert); err != nil {
		t.Fatalf("read alert: %v", err)
	}
	if !alert.Malicious || alert.ID == 0 {
		t.Errorf("unexpected alert payload: %+v", alert)
	}
	if alert.Score == nil || *alert.Score != 0.9 {
		t.Errorf("expected score 0.9 on alert, got %+v", alert.Score)
	}
}

func TestWebSocketBenignProducesNoFrame(t *testing.T) {
	env := setupEnv(t, flagClassifier{})

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/alerts"
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	var hello map[string]string
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&hello); err != nil || hello["type"] != "hello" {
		t.Fatalf("expected hello, got %v (err %v)", hello, err)
	}

	resp := postJSON(t, env.server.URL+"/ingest", `{"features":{"mal":0}}`)
	resp.Body.Close()

	var frame json.RawMessage
	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if err := conn.ReadJSON(&frame); err == nil {
		t.Errorf("expected no frame for benign record, got %s", frame)
	}
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	env := setupEnv(t, flagClassifier{})

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "test-id-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "test-id-123" {
		t.Errorf("expected request id echoed, got %q", got)
	}
}
