// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

// Package feedbridge consumes raw traffic records from a NATS subject and
// feeds them into the ingestion pipeline. The bridge is optional: when no
// broker URL is configured and the embedded server is disabled, it is
// never constructed and the rest of the system runs unaffected.
package feedbridge

import (
	"context"
	"fmt"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/goccy/go-json"

	"github.com/netsentry/netsentry/internal/config"
	"github.com/netsentry/netsentry/internal/logging"
	"github.com/netsentry/netsentry/internal/metrics"
	"github.com/netsentry/netsentry/internal/models"
)

// Ingestor is the pipeline-facing side of the bridge. The result is
// meaningful to HTTP callers; the bridge is fire-and-forget and ignores it.
type Ingestor interface {
	Ingest(ctx context.Context, source string, rec models.FeatureRecord) models.ClassificationResult
}

// Bridge subscribes to the traffic subject and forwards decoded records
// to the pipeline. Malformed messages are logged, counted, and acked so
// poison payloads cannot wedge the durable consumer.
type Bridge struct {
	cfg        config.FeedConfig
	ingestor   Ingestor
	subscriber message.Subscriber
	limiter    *rate.Limiter
	embedded   *EmbeddedServer
}

// New creates the bridge, starting the embedded broker first when
// configured. The returned bridge owns the embedded server and the
// subscription; Close releases both.
func New(cfg config.FeedConfig, ingestor Ingestor) (*Bridge, error) {
	b := &Bridge{cfg: cfg, ingestor: ingestor}

	url := cfg.URL
	if cfg.Embedded {
		es, err := StartEmbeddedServer("127.0.0.1", cfg.EmbeddedPort, cfg.StoreDir)
		if err != nil {
			return nil, fmt.Errorf("start embedded broker: %w", err)
		}
		b.embedded = es
		url = es.ClientURL()
	}

	logger := newWatermillLogger()

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("feed disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("feed reconnected")
		}),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			AckAsync:      false,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.DeliverNew(),
			},
			DurablePrefix: cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		if b.embedded != nil {
			_ = b.embedded.Shutdown(context.Background())
		}
		return nil, fmt.Errorf("create feed subscriber: %w", err)
	}
	b.subscriber = sub

	if cfg.RateLimit > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateLimit)+1)
	}

	return b, nil
}

// RunWithContext consumes the traffic subject until ctx is canceled.
// Designed for suture supervision: a returned error triggers a restart
// with a fresh subscription.
func (b *Bridge) RunWithContext(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, b.cfg.Subject)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.cfg.Subject, err)
	}

	logging.Info().
		Str("component", "feed-bridge").
		Str("subject", b.cfg.Subject).
		Bool("embedded", b.embedded != nil).
		Msg("feed bridge started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("component", "feed-bridge").Msg("feed bridge stopped")
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("feed subscription closed")
			}
			b.handleMessage(ctx, msg)
		}
	}
}

// handleMessage decodes and ingests one feed message. Every outcome acks:
// a payload that cannot be decoded is dropped, never redelivered.
func (b *Bridge) handleMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return
		}
	}

	rec, err := DecodeRecord(msg.Payload)
	if err != nil {
		metrics.RecordFeedDecodeFailure()
		logging.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Msg("discarding undecodable feed message")
		return
	}

	b.ingestor.Ingest(ctx, metrics.SourceFeed, rec)
}

// Close shuts down the subscription and the embedded broker, if any.
func (b *Bridge) Close() error {
	err := b.subscriber.Close()
	if b.embedded != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := b.embedded.Shutdown(ctx); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

// EmbeddedURL returns the embedded broker's client URL, or "".
func (b *Bridge) EmbeddedURL() string {
	if b.embedded == nil {
		return ""
	}
	return b.embedded.ClientURL()
}

// DecodeRecord parses a feed payload into a FeatureRecord. Two shapes are
// accepted: the HTTP request form {"features": {...}, "src_ip": ...} and
// the bare sensor form where the payload is the feature object itself.
func DecodeRecord(payload []byte) (models.FeatureRecord, error) {
	var rec models.FeatureRecord
	if err := json.Unmarshal(payload, &rec); err == nil && len(rec.Features) > 0 {
		return rec, nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return models.FeatureRecord{}, fmt.Errorf("payload is not a JSON object: %w", err)
	}

	flat := models.FeatureRecord{Features: make(map[string]float64)}
	for k, v := range raw {
		switch val := v.(type) {
		case float64:
			flat.Features[k] = val
		case string:
			switch k {
			case "src_ip":
				flat.SrcIP = val
			case "dst_ip":
				flat.DstIP = val
			}
		}
	}

	if len(flat.Features) == 0 {
		return models.FeatureRecord{}, fmt.Errorf("payload carries no numeric features")
	}
	return flat, nil
}
