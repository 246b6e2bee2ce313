// Package kafka publishes audit events to a Kafka topic for downstream
// compliance and SIEM consumers.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"opsconsole/internal/audit"
	"opsconsole/internal/platform/config"
)

// Sink produces audit events to a single topic, keyed by actor so one
// actor's events stay ordered within a partition.
type Sink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the configured brokers and ensures the topic exists.
// Returns nil if no seeds are configured (sink disabled).
func New(ctx context.Context, cfg config.KafkaConfig, logger *slog.Logger) (*Sink, error) {
	if len(cfg.Seeds) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Seeds...),
		kgo.DefaultProduceTopic(cfg.Topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	if err := ensureTopic(ctx, client, cfg.Topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Sink{client: client, topic: cfg.Topic, logger: logger}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	_, err := adm.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("ensure audit topic: %w", err)
	}
	return nil
}

// Publish produces one event. Delivery is asynchronous; failures are logged
// by the produce callback rather than failing the caller, matching the
// best-effort contract of the audit worker.
func (s *Sink) Publish(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.ActorID),
		Value: value,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && s.logger != nil {
			s.logger.Warn("kafka produce failed",
				"action", string(event.Action),
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes pending records and closes the client.
func (s *Sink) Close() {
	if s == nil {
		return
	}
	_ = s.client.Flush(context.Background())
	s.client.Close()
}
