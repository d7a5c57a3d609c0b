// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

// Package websocket fans malicious alerts out to connected dashboard
// subscribers over /ws/alerts.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/netsentry/netsentry/internal/logging"
	"github.com/netsentry/netsentry/internal/metrics"
	"github.com/netsentry/netsentry/internal/models"
)

// MessageTypeHello identifies the connection acknowledgement frame.
const MessageTypeHello = "hello"

// HelloMessage greets each new subscriber. It is the only framed message
// on the stream; alerts are pushed as bare Alert JSON.
type HelloMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func helloMessage() HelloMessage {
	return HelloMessage{Type: MessageTypeHello, Message: "connected"}
}

// Hub maintains the set of subscribers and broadcasts alerts to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan models.Alert
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub with a buffered broadcast channel.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan models.Alert, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub loop until the context is canceled, then
// closes all subscribers and returns ctx.Err(). Designed for suture
// supervision: a restart reinitializes cleanly because clients re-register.
//
// Selection is priority ordered so behavior is deterministic when several
// channels are ready: shutdown first, then subscriber lifecycle, then
// broadcasts. Go's select picks randomly among ready cases, which would
// otherwise let a broadcast slip past a pending unregister.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.registerClient(client)
			continue
		case client := <-h.Unregister:
			h.unregisterClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case alert := <-h.broadcast:
			h.broadcastToClients(alert)
		}
	}
}

// registerClient adds the subscriber and greets it. The hello goes only to
// the new subscriber, never to the broadcast channel.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	// A full send buffer on a fresh client means the connection is
	// unusable; the write pump will tear it down.
	_ = client.trySend(helloMessage())

	metrics.SetSubscriberCount(total)
	logging.Info().Int("subscribers", total).Msg("alert subscriber connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.closeSend()
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.SetSubscriberCount(total)
	logging.Info().Int("subscribers", total).Msg("alert subscriber disconnected")
}

// broadcastToClients delivers an alert to every subscriber. The
// subscriber set is snapshotted and sorted by client ID so delivery order
// is deterministic; subscribers whose send buffer is full are collected
// during the pass and removed afterwards, never mid-iteration.
func (h *Hub) broadcastToClients(alert models.Alert) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		if !client.trySend(alert) {
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		client.closeSend()
		delete(h.clients, client)
		metrics.RecordSubscriberDropped()
	}
	if len(toRemove) > 0 {
		metrics.SetSubscriberCount(len(h.clients))
		logging.Warn().Int("dropped", len(toRemove)).Msg("removed slow alert subscribers")
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		client.closeSend()
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.SetSubscriberCount(0)
	logging.Info().
		Str("component", "websocket-hub").
		AnErr("reason", ctx.Err()).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// BroadcastAlert queues a malicious alert for fan-out. Non-blocking: when
// the broadcast buffer is full the alert is dropped with a warning rather
// than stalling the ingest path.
func (h *Hub) BroadcastAlert(alert models.Alert) {
	select {
	case h.broadcast <- alert:
		metrics.RecordAlertBroadcast()
	default:
		logging.Warn().Int64("alert_id", alert.ID).Msg("broadcast channel full, dropping alert")
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
