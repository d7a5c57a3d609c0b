// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

// Package metrics defines Prometheus instrumentation for the ingestion
// pipeline, classifier, WebSocket hub, and HTTP surface. Metrics are
// registered on the default registry via promauto and exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest sources, used as the "source" label value.
const (
	SourceHTTP = "http"
	SourceFeed = "feed"
)

var (
	eventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netsentry_events_ingested_total",
		Help: "Flow records processed by the pipeline, by source and verdict.",
	}, []string{"source", "verdict"})

	classifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "netsentry_classify_duration_seconds",
		Help:    "Model classification latency.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	classifierFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netsentry_classifier_failures_total",
		Help: "Classifier errors that fell back to the benign verdict.",
	})

	wsSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netsentry_websocket_subscribers",
		Help: "Currently connected WebSocket alert subscribers.",
	})

	wsSubscribersDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netsentry_websocket_subscribers_dropped_total",
		Help: "Subscribers removed because their send buffer overflowed.",
	})

	alertsBroadcast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netsentry_alerts_broadcast_total",
		Help: "Malicious alerts fanned out to WebSocket subscribers.",
	})

	feedDecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netsentry_feed_decode_failures_total",
		Help: "Feed messages discarded because they could not be decoded.",
	})

	feedAlertsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netsentry_feed_alerts_published_total",
		Help: "Alerts republished to the broker alert subject.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netsentry_http_requests_total",
		Help: "HTTP requests by method, path, and status code.",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netsentry_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// RecordEvent counts one processed record.
func RecordEvent(source, verdict string) {
	eventsIngested.WithLabelValues(source, verdict).Inc()
}

// ObserveClassify records one classification latency sample.
func ObserveClassify(d time.Duration) {
	classifyDuration.Observe(d.Seconds())
}

// RecordClassifierFailure counts one fail-safe fallback.
func RecordClassifierFailure() {
	classifierFailures.Inc()
}

// SetSubscriberCount updates the connected subscriber gauge.
func SetSubscriberCount(n int) {
	wsSubscribers.Set(float64(n))
}

// RecordSubscriberDropped counts one evicted slow subscriber.
func RecordSubscriberDropped() {
	wsSubscribersDropped.Inc()
}

// RecordAlertBroadcast counts one alert fan-out.
func RecordAlertBroadcast() {
	alertsBroadcast.Inc()
}

// RecordFeedDecodeFailure counts one discarded feed message.
func RecordFeedDecodeFailure() {
	feedDecodeFailures.Inc()
}

// RecordFeedAlertPublished counts one republished alert.
func RecordFeedAlertPublished() {
	feedAlertsPublished.Inc()
}

// RecordHTTPRequest counts one completed HTTP request.
func RecordHTTPRequest(method, path, status string) {
	httpRequests.WithLabelValues(method, path, status).Inc()
}

// ObserveHTTPRequest records one HTTP request latency sample.
func ObserveHTTPRequest(method, path string, d time.Duration) {
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
