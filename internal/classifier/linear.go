// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package classifier

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-json"

	"github.com/netsentry/netsentry/internal/models"
)

// LinearModel is a logistic-regression classifier loaded from a JSON file.
// The file carries the feature order, per-feature weights, optional
// standardization parameters, and the bias:
//
//	{
//	  "name": "ids-logreg-v1",
//	  "features": ["dur", "proto", "sbytes", "dbytes", "sttl", "dttl", "rate"],
//	  "weights":  [0.12, -0.03, 0.0004, 0.0002, -0.01, -0.01, 0.8],
//	  "means":    [...],
//	  "stddevs":  [...],
//	  "bias": -1.5
//	}
//
// Missing features score as zero after standardization, so partial records
// are still classifiable.
type LinearModel struct {
	name     string
	features []string
	weights  []float64
	means    []float64
	stddevs  []float64
	bias     float64
}

type modelFile struct {
	Name     string    `json:"name"`
	Features []string  `json:"features"`
	Weights  []float64 `json:"weights"`
	Means    []float64 `json:"means,omitempty"`
	Stddevs  []float64 `json:"stddevs,omitempty"`
	Bias     float64   `json:"bias"`
}

// LoadLinearModel reads and validates a model file.
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return ParseLinearModel(data)
}

// ParseLinearModel builds a model from raw JSON.
func ParseLinearModel(data []byte) (*LinearModel, error) {
	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}

	if len(mf.Features) == 0 {
		return nil, fmt.Errorf("model has no features")
	}
	if len(mf.Weights) != len(mf.Features) {
		return nil, fmt.Errorf("model has %d weights for %d features", len(mf.Weights), len(mf.Features))
	}
	if len(mf.Means) > 0 && len(mf.Means) != len(mf.Features) {
		return nil, fmt.Errorf("model has %d means for %d features", len(mf.Means), len(mf.Features))
	}
	if len(mf.Stddevs) > 0 && len(mf.Stddevs) != len(mf.Features) {
		return nil, fmt.Errorf("model has %d stddevs for %d features", len(mf.Stddevs), len(mf.Features))
	}

	name := mf.Name
	if name == "" {
		name = "linear"
	}

	return &LinearModel{
		name:     name,
		features: mf.Features,
		weights:  mf.Weights,
		means:    mf.Means,
		stddevs:  mf.Stddevs,
		bias:     mf.Bias,
	}, nil
}

// Name returns the model identifier from the file.
func (m *LinearModel) Name() string {
	return m.name
}

// Features returns the feature order the model was trained on.
func (m *LinearModel) Features() []string {
	return m.features
}

// Classify computes the logistic score for the record.
func (m *LinearModel) Classify(_ context.Context, rec models.FeatureRecord) (models.Verdict, error) {
	if len(rec.Features) == 0 {
		return models.Verdict{}, fmt.Errorf("record has no features")
	}

	z := m.bias
	for i, name := range m.features {
		x := rec.Features[name]
		if len(m.means) > 0 {
			x -= m.means[i]
		}
		if len(m.stddevs) > 0 && m.stddevs[i] != 0 {
			x /= m.stddevs[i]
		}
		z += m.weights[i] * x
	}

	score := sigmoid(z)
	if math.IsNaN(score) {
		return models.Verdict{}, fmt.Errorf("model produced NaN score")
	}

	return models.VerdictFromScore(score), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
