// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package classifier

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/netsentry/netsentry/internal/logging"
	"github.com/netsentry/netsentry/internal/metrics"
	"github.com/netsentry/netsentry/internal/models"
)

// Gateway is the single entry point for classification. It guards the
// underlying model with a circuit breaker and panic recovery, and maps
// every failure to the benign default so ingestion never blocks on a
// broken model.
type Gateway struct {
	classifier Classifier
	breaker    *gobreaker.CircuitBreaker[models.Verdict]
}

// NewGateway wraps the given classifier. A nil classifier is valid and
// models the "no model loaded" state: every record scores benign.
func NewGateway(c Classifier) *Gateway {
	settings := gobreaker.Settings{
		Name:    "classifier",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("classifier circuit breaker state change")
		},
	}

	return &Gateway{
		classifier: c,
		breaker:    gobreaker.NewCircuitBreaker[models.Verdict](settings),
	}
}

// ModelLoaded reports whether a model is available, as surfaced by /health.
func (g *Gateway) ModelLoaded() bool {
	return g.classifier != nil
}

// ModelName returns the loaded model's identifier, or "" without a model.
func (g *Gateway) ModelName() string {
	if g.classifier == nil {
		return ""
	}
	return g.classifier.Name()
}

// Classify scores the record. It never returns an error: classifier
// failures, panics, and an open breaker all yield the benign default.
func (g *Gateway) Classify(ctx context.Context, rec models.FeatureRecord) models.Verdict {
	if g.classifier == nil {
		return models.BenignVerdict()
	}

	start := time.Now()
	verdict, err := g.breaker.Execute(func() (v models.Verdict, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("classifier panic: %v", r)
			}
		}()
		return g.classifier.Classify(ctx, rec)
	})
	metrics.ObserveClassify(time.Since(start))

	if err != nil {
		metrics.RecordClassifierFailure()
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("model", g.classifier.Name()).
			Msg("classification failed, defaulting to benign")
		return models.BenignVerdict()
	}

	return verdict
}
