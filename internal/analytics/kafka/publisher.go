package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"prepgate/internal/analytics"
)

// Publisher delivers analytics events to a Kafka topic. Publishes are
// fire-and-forget: the denial path must not block on broker round-trips, so
// records are produced asynchronously and delivery failures are logged.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New creates a Kafka-backed analytics publisher.
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Publisher{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// Publish serializes the event and hands it to the producer. The record key
// is the user ID when known so one user's events land on one partition.
func (p *Publisher) Publish(ctx context.Context, event analytics.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal analytics event: %w", err)
	}

	var key []byte
	if event.UserID != nil {
		key = []byte(*event.UserID)
	}

	rec := &kgo.Record{Topic: p.topic, Key: key, Value: payload}
	p.client.Produce(ctx, rec, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("failed to deliver analytics event",
				"error", err,
				"event", event.Name,
				"topic", p.topic,
			)
		}
	})
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
