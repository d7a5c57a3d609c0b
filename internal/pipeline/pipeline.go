// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

// Package pipeline is the single ingestion entry point. HTTP ingest and
// the feed bridge call Ingest, which classifies synchronously and returns
// the verdict to the caller; confirmed-malicious records pass through one
// mutex-serialized commit step (id assignment, store append, broadcast)
// so ids are strictly increasing and every subscriber observes alerts in
// append order.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/netsentry/netsentry/internal/alertstore"
	"github.com/netsentry/netsentry/internal/classifier"
	"github.com/netsentry/netsentry/internal/logging"
	"github.com/netsentry/netsentry/internal/metrics"
	"github.com/netsentry/netsentry/internal/models"
)

// publishTimeout bounds the background republish of one alert.
const publishTimeout = 10 * time.Second

// Broadcaster fans a confirmed alert out to live subscribers.
type Broadcaster interface {
	BroadcastAlert(alert models.Alert)
}

// AlertPublisher republishes a confirmed alert to the broker. Optional.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert models.Alert) error
}

// Pipeline orchestrates classification, storage, and broadcast.
type Pipeline struct {
	gateway     *classifier.Gateway
	store       *alertstore.Store
	broadcaster Broadcaster
	publisher   AlertPublisher

	// mu serializes the commit step: id assignment, store append, and
	// broadcast happen atomically with respect to concurrent ingests.
	mu     sync.Mutex
	lastID int64
}

// New creates a pipeline. broadcaster may not be nil; a publisher is
// wired separately with SetAlertPublisher.
func New(gateway *classifier.Gateway, store *alertstore.Store, broadcaster Broadcaster) *Pipeline {
	return &Pipeline{
		gateway:     gateway,
		store:       store,
		broadcaster: broadcaster,
	}
}

// SetAlertPublisher wires an optional broker republisher. Must be called
// before the first Ingest.
func (p *Pipeline) SetAlertPublisher(pub AlertPublisher) {
	p.publisher = pub
}

// Ingest classifies a record and returns the verdict to the caller. A
// malicious verdict additionally raises an alert: it is stored and
// broadcast before Ingest returns. Classification failures yield the
// fail-safe benign result, never an error.
func (p *Pipeline) Ingest(ctx context.Context, source string, rec models.FeatureRecord) models.ClassificationResult {
	verdict := p.gateway.Classify(ctx, rec)
	now := time.Now()
	metrics.RecordEvent(source, verdict.Label)

	if verdict.Malicious() {
		p.commit(now, rec, verdict)
	}

	return models.ClassificationResult{
		Malicious: verdict.Malicious(),
		Score:     verdict.Score,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}

// Predict classifies a record without storing or broadcasting. Used by
// POST /predict; it shares the Gateway with the ingest path so both see
// the same model and fail-safe behavior.
func (p *Pipeline) Predict(ctx context.Context, rec models.FeatureRecord) models.ClassificationResult {
	verdict := p.gateway.Classify(ctx, rec)
	return models.ClassificationResult{
		Malicious: verdict.Malicious(),
		Score:     verdict.Score,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// ModelLoaded reports whether the classification gateway has a model.
func (p *Pipeline) ModelLoaded() bool {
	return p.gateway.ModelLoaded()
}

// commit assigns the alert id, appends to the store, and broadcasts,
// all under one lock. The broker republish runs in the background: a
// slow broker must not delay the ingest response.
func (p *Pipeline) commit(now time.Time, rec models.FeatureRecord, verdict models.Verdict) {
	p.mu.Lock()
	alert := models.NewAlert(p.nextAlertIDLocked(now), now, rec, verdict)
	p.store.Add(alert)
	p.broadcaster.BroadcastAlert(alert)
	p.mu.Unlock()

	logging.Debug().
		Int64("alert_id", alert.ID).
		Str("label", alert.Label).
		Msg("malicious flow detected")

	if p.publisher != nil {
		go p.republish(alert)
	}
}

func (p *Pipeline) republish(alert models.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.publisher.PublishAlert(ctx, alert); err != nil {
		logging.Warn().Err(err).Int64("alert_id", alert.ID).Msg("alert republish failed")
	}
}

// nextAlertIDLocked derives a unique, strictly increasing id from the
// ingest time: microsecond-scale timestamp, bumped past the previous id
// whenever the clock has not advanced. Callers hold p.mu.
func (p *Pipeline) nextAlertIDLocked(now time.Time) int64 {
	candidate := now.UnixMilli() * 1000
	if candidate <= p.lastID {
		candidate = p.lastID + 1
	}
	p.lastID = candidate
	return candidate
}
