// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

// Package alertstore keeps the most recent malicious alerts in a bounded
// in-memory ring. Alerts older than the capacity are evicted FIFO; there
// is no persistence.
package alertstore

import (
	"sync"

	"github.com/netsentry/netsentry/internal/models"
)

// DefaultCapacity bounds the store when no capacity is configured.
const DefaultCapacity = 200

// Store is a bounded FIFO alert buffer, safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	buf      []models.Alert
	head     int // index of the oldest alert
	size     int
	capacity int
}

// New creates a store holding at most capacity alerts. A non-positive
// capacity falls back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		buf:      make([]models.Alert, capacity),
		capacity: capacity,
	}
}

// Add appends an alert, evicting the oldest one when the store is full.
func (s *Store) Add(alert models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tail := (s.head + s.size) % s.capacity
	s.buf[tail] = alert
	if s.size < s.capacity {
		s.size++
		return
	}
	// Full: the slot just written replaced the oldest entry.
	s.head = (s.head + 1) % s.capacity
}

// Recent returns the newest limit alerts in insertion order, oldest of the
// selection first. A non-positive limit, or one exceeding the stored count,
// returns everything held.
func (s *Store) Recent(limit int) []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > s.size {
		limit = s.size
	}

	out := make([]models.Alert, limit)
	start := s.size - limit
	for i := 0; i < limit; i++ {
		out[i] = s.buf[(s.head+start+i)%s.capacity]
	}
	return out
}

// Len returns the number of alerts currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Capacity returns the configured bound.
func (s *Store) Capacity() int {
	return s.capacity
}
