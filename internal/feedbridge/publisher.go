// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

package feedbridge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/goccy/go-json"

	"github.com/netsentry/netsentry/internal/config"
	"github.com/netsentry/netsentry/internal/logging"
	"github.com/netsentry/netsentry/internal/metrics"
	"github.com/netsentry/netsentry/internal/models"
)

const shutdownTimeout = 10 * time.Second

// AlertPublisher republishes confirmed-malicious alerts to the broker so
// downstream consumers (SIEM collectors, responders) see the same stream
// as the WebSocket dashboard. Publishes are circuit-breaker protected: a
// dead broker must not slow down the pipeline goroutine.
type AlertPublisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[interface{}]
	subject   string
}

// NewAlertPublisher connects a publisher for the configured alert subject.
// url overrides cfg.URL, so the publisher can share an embedded broker.
func NewAlertPublisher(cfg config.FeedConfig, url string) (*AlertPublisher, error) {
	if url == "" {
		url = cfg.URL
	}

	logger := newWatermillLogger()

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true, // alert IDs are unique, dedupe on redelivery
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create alert publisher: %w", err)
	}

	settings := gobreaker.Settings{
		Name:    "alert-publisher",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("alert publisher circuit breaker state change")
		},
	}

	return &AlertPublisher{
		publisher: pub,
		breaker:   gobreaker.NewCircuitBreaker[interface{}](settings),
		subject:   cfg.AlertSubject,
	}, nil
}

// PublishAlert serializes and publishes one alert.
func (p *AlertPublisher) PublishAlert(ctx context.Context, alert models.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	id := strconv.FormatInt(alert.ID, 10)
	msg := message.NewMessage(id, data)
	msg.Metadata.Set(natsgo.MsgIdHdr, id)
	msg.Metadata.Set("label", alert.Label)

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(p.subject, msg)
	})
	if err != nil {
		return fmt.Errorf("publish alert %s: %w", id, err)
	}

	metrics.RecordFeedAlertPublished()
	return nil
}

// Close shuts down the underlying publisher.
func (p *AlertPublisher) Close() error {
	return p.publisher.Close()
}
