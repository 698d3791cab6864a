package notification

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink mirrors notifications to a Kafka topic for downstream consumers
// (mail digests, push gateways). Produces are fire and forget: delivery
// failures are logged, never surfaced to the user operation.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaSink connects a producer-only client to the given brokers.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{client: client, topic: topic, logger: logger}, nil
}

// Publish produces the notification keyed by recipient so per-user ordering
// is preserved within a partition.
func (s *KafkaSink) Publish(ctx context.Context, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("failed to encode notification event", "error", err)
		return
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(n.UserID.String()),
		Value: payload,
	}
	s.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("failed to produce notification event",
				"error", err,
				"topic", s.topic,
			)
		}
	})
}

// Close flushes outstanding produces and releases the client.
func (s *KafkaSink) Close() {
	s.client.Close()
}
