// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package alertstore

import (
	"sync"
	"testing"

	"github.com/netsentry/netsentry/internal/models"
)

func makeAlert(id int64) models.Alert {
	score := 0.9
	return models.Alert{
		ID:        id,
		Label:     models.LabelMalicious,
		Malicious: true,
		Score:     &score,
		Features:  map[string]float64{"rate": float64(id)},
	}
}

func TestStoreEvictsOldestWhenFull(t *testing.T) {
	s := New(3)

	for id := int64(1); id <= 4; id++ {
		s.Add(makeAlert(id))
	}

	if s.Len() != 3 {
		t.Fatalf("expected 3 alerts, got %d", s.Len())
	}

	got := s.Recent(0)
	want := []int64{2, 3, 4}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected id %d, got %d", i, id, got[i].ID)
		}
	}
}

func TestStoreRecentReturnsTailOldestFirst(t *testing.T) {
	s := New(3)
	for id := int64(1); id <= 4; id++ {
		s.Add(makeAlert(id))
	}

	got := s.Recent(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(got))
	}
	if got[0].ID != 3 || got[1].ID != 4 {
		t.Errorf("expected [3 4], got [%d %d]", got[0].ID, got[1].ID)
	}
}

func TestStoreRecentClampsLimit(t *testing.T) {
	s := New(5)
	s.Add(makeAlert(1))
	s.Add(makeAlert(2))

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero returns all", 0, 2},
		{"negative returns all", -1, 2},
		{"over size returns all", 10, 2},
		{"exact", 2, 2},
		{"partial", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Recent(tt.limit)
			if len(got) != tt.want {
				t.Errorf("Recent(%d): expected %d alerts, got %d", tt.limit, tt.want, len(got))
			}
		})
	}
}

func TestStoreRecentEmpty(t *testing.T) {
	s := New(3)
	if got := s.Recent(5); len(got) != 0 {
		t.Errorf("expected empty result, got %d alerts", len(got))
	}
}

func TestStoreDefaultCapacity(t *testing.T) {
	s := New(0)
	if s.Capacity() != DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultCapacity, s.Capacity())
	}
}

func TestStoreWrapAroundKeepsOrder(t *testing.T) {
	s := New(3)
	for id := int64(1); id <= 10; id++ {
		s.Add(makeAlert(id))
	}

	got := s.Recent(0)
	want := []int64{8, 9, 10}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected id %d, got %d", i, id, got[i].ID)
		}
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := New(100)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for i := int64(0); i < 50; i++ {
				s.Add(makeAlert(base*100 + i))
				s.Recent(10)
			}
		}(int64(g))
	}
	wg.Wait()

	if s.Len() != 100 {
		t.Errorf("expected store full at 100, got %d", s.Len())
	}
}
