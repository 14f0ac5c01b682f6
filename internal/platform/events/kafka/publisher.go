package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/officehub/backend/internal/platform/events"
)

// Publisher writes mutation events to a Kafka topic.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger,
	}
}

// Publish emits one event keyed by resource so a partition sees a
// resource's mutations in order.
func (p *Publisher) Publish(ctx context.Context, event events.MutationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Resource),
		Value: data,
	})
	if err != nil {
		p.logger.Error("failed to publish mutation event",
			"resource", event.Resource,
			"action", event.Action,
			"error", err)
		return err
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ events.Publisher = (*Publisher)(nil)
