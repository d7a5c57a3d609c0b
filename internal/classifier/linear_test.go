// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package classifier

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/netsentry/netsentry/internal/models"
)

func TestParseLinearModelValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{
			name:    "valid",
			data:    `{"name":"m","features":["dur","rate"],"weights":[1,2],"bias":0}`,
			wantErr: false,
		},
		{
			name:    "weight count mismatch",
			data:    `{"features":["dur","rate"],"weights":[1],"bias":0}`,
			wantErr: true,
		},
		{
			name:    "no features",
			data:    `{"features":[],"weights":[],"bias":0}`,
			wantErr: true,
		},
		{
			name:    "means mismatch",
			data:    `{"features":["dur"],"weights":[1],"means":[0,0],"bias":0}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `{{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLinearModel([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLinearModel: err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestLinearModelClassify(t *testing.T) {
	// Large positive weight on rate: high rate scores malicious.
	model, err := ParseLinearModel([]byte(
		`{"name":"test","features":["dur","rate"],"weights":[0,2],"bias":-5}`))
	if err != nil {
		t.Fatalf("parse model: %v", err)
	}

	benign, err := model.Classify(context.Background(), models.FeatureRecord{
		Features: map[string]float64{"dur": 1, "rate": 0},
	})
	if err != nil {
		t.Fatalf("classify benign: %v", err)
	}
	if benign.Label != models.LabelBenign {
		t.Errorf("expected benign for low rate, got %s (score %v)", benign.Label, benign.Score)
	}
	if benign.Score == nil {
		t.Fatal("expected a score on a successful classification")
	}

	malicious, err := model.Classify(context.Background(), models.FeatureRecord{
		Features: map[string]float64{"dur": 1, "rate": 10},
	})
	if err != nil {
		t.Fatalf("classify malicious: %v", err)
	}
	if malicious.Label != models.LabelMalicious {
		t.Errorf("expected malicious for high rate, got %s (score %v)", malicious.Label, malicious.Score)
	}
	if malicious.Score == nil || *malicious.Score < models.MaliciousThreshold {
		t.Errorf("malicious score %v below threshold", malicious.Score)
	}
}

func TestLinearModelMissingFeaturesScoreAsZero(t *testing.T) {
	model, err := ParseLinearModel([]byte(
		`{"features":["dur","rate"],"weights":[1,1],"bias":0}`))
	if err != nil {
		t.Fatalf("parse model: %v", err)
	}

	// Only dur present; rate contributes nothing.
	v, err := model.Classify(context.Background(), models.FeatureRecord{
		Features: map[string]float64{"dur": 0},
	})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	// sigmoid(0) = 0.5, exactly on the boundary.
	if v.Label != models.LabelMalicious {
		t.Errorf("expected threshold score to classify malicious, got %s", v.Label)
	}
}

func TestLinearModelEmptyRecord(t *testing.T) {
	model, err := ParseLinearModel([]byte(
		`{"features":["dur"],"weights":[1],"bias":0}`))
	if err != nil {
		t.Fatalf("parse model: %v", err)
	}

	if _, err := model.Classify(context.Background(), models.FeatureRecord{}); err == nil {
		t.Error("expected error for record without features")
	}
}

func TestLoadLinearModelFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	content := `{"name":"file-model","features":["dur"],"weights":[1],"bias":0}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write model file: %v", err)
	}

	model, err := LoadLinearModel(path)
	if err != nil {
		t.Fatalf("load model: %v", err)
	}
	if model.Name() != "file-model" {
		t.Errorf("expected name file-model, got %s", model.Name())
	}

	if _, err := LoadLinearModel(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
