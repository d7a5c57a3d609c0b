// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package feedbridge

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServer runs an in-process NATS JetStream server for
// single-binary deployments where no external broker exists. Sensors
// publish traffic records straight to this instance.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// StartEmbeddedServer creates and starts an embedded NATS server on the
// given port. Fails if the server is not ready within 30 seconds.
func StartEmbeddedServer(host string, port int, storeDir string) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName: "netsentry-feed",
		Host:       host,
		Port:       port,
		JetStream:  true,
		StoreDir:   storeDir,
		MaxPayload: 1024 * 1024, // traffic records are small JSON objects
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	ns.ConfigureLogger()
	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready within timeout")
	}

	return &EmbeddedServer{
		server:    ns,
		clientURL: ns.ClientURL(),
	}, nil
}

// ClientURL returns the connection URL for the bridge and for sensors.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Running reports server health.
func (s *EmbeddedServer) Running() bool {
	return s.server.Running()
}

// Shutdown stops the server, waiting for completion or ctx expiry.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
