// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

// Package models defines the wire-level data types shared across the
// ingestion pipeline, alert store, and HTTP/WebSocket surfaces.
package models

import (
	"time"
)

// Verdict labels. A flow is malicious when its score reaches
// MaliciousThreshold, benign otherwise.
const (
	LabelBenign    = "benign"
	LabelMalicious = "malicious"

	// MaliciousThreshold is the fixed decision boundary on the model score.
	MaliciousThreshold = 0.5
)

// Canonical flow feature keys, in model input order.
var FeatureNames = []string{"dur", "proto", "sbytes", "dbytes", "sttl", "dttl", "rate"}

// FeatureRecord is a single network flow observation submitted for
// classification, either via POST /ingest, POST /predict, or the feed bridge.
type FeatureRecord struct {
	// Features maps feature name to numeric value. Unknown keys are
	// tolerated; the classifier selects the columns it was trained on.
	Features map[string]float64 `json:"features" validate:"required,min=1"`

	// Optional flow endpoints, carried through to the alert for display.
	SrcIP string `json:"src_ip,omitempty" validate:"omitempty,ip"`
	DstIP string `json:"dst_ip,omitempty" validate:"omitempty,ip"`
}

// Verdict is the classification outcome for one FeatureRecord. Score is
// nil when the record could not be scored (no model, model failure); a
// fail-safe benign verdict is distinguishable from a confident zero.
type Verdict struct {
	Label string   `json:"label"`
	Score *float64 `json:"score"`
}

// Malicious reports whether the verdict crossed the decision boundary.
func (v Verdict) Malicious() bool {
	return v.Label == LabelMalicious
}

// BenignVerdict is the fail-safe default returned when no model is loaded
// or classification fails. The score is absent, not zero.
func BenignVerdict() Verdict {
	return Verdict{Label: LabelBenign}
}

// VerdictFromScore maps a raw model score to a Verdict.
func VerdictFromScore(score float64) Verdict {
	label := LabelBenign
	if score >= MaliciousThreshold {
		label = LabelMalicious
	}
	return Verdict{Label: label, Score: &score}
}

// ClassificationResult is the tuple returned to predict and ingest
// callers: the verdict plus the timestamp stamped at classification time.
type ClassificationResult struct {
	Malicious bool     `json:"malicious"`
	Score     *float64 `json:"score"`
	Timestamp string   `json:"timestamp"`
}

// Alert is a confirmed-malicious flow, as stored and broadcast.
type Alert struct {
	// ID is unique and monotonically increasing, derived from the ingest
	// timestamp. Serialized as a string on the wire.
	ID        int64              `json:"id,string"`
	Timestamp string             `json:"timestamp"`
	Label     string             `json:"label"`
	Malicious bool               `json:"malicious"`
	Score     *float64           `json:"score"`
	Features  map[string]float64 `json:"features"`
	SrcIP     string             `json:"src_ip,omitempty"`
	DstIP     string             `json:"dst_ip,omitempty"`
}

// NewAlert builds an Alert from a record and its verdict.
func NewAlert(id int64, ts time.Time, rec FeatureRecord, v Verdict) Alert {
	return Alert{
		ID:        id,
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
		Label:     v.Label,
		Malicious: v.Malicious(),
		Score:     v.Score,
		Features:  rec.Features,
		SrcIP:     rec.SrcIP,
		DstIP:     rec.DstIP,
	}
}
