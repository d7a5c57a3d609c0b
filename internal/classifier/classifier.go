// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

// Package classifier scores network flow records. The Gateway wraps any
// Classifier implementation with a circuit breaker and a fail-safe benign
// default, so a broken or missing model degrades detection coverage but
// never availability.
package classifier

import (
	"context"

	"github.com/netsentry/netsentry/internal/models"
)

// Classifier scores a single flow record. Implementations must be safe
// for concurrent use.
type Classifier interface {
	// Classify returns the verdict for the record, or an error when the
	// record cannot be scored. Callers go through the Gateway, which maps
	// errors to the benign default.
	Classify(ctx context.Context, rec models.FeatureRecord) (models.Verdict, error)

	// Name identifies the model for logs and /health.
	Name() string
}
