package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/event"
)

// Events are routed to a channel by the aggregate type they describe,
// not by fine-grained event subtype.
const (
	TopicCartEvents    = "cart-events"
	TopicProductEvents = "product-events"
	TopicOrderEvents   = "order-events"
)

// TopicFor maps an aggregate type to its event channel.
func TopicFor(aggregateType string) (string, bool) {
	switch aggregateType {
	case "Cart":
		return TopicCartEvents, true
	case "Product":
		return TopicProductEvents, true
	case "Order":
		return TopicOrderEvents, true
	}
	return "", false
}

// Producer publishes envelopes keyed by aggregate id so that events
// sharing an aggregate are delivered in order within a consumer group.
type Producer struct {
	writers map[string]*kafka.Writer
	logger  *zap.Logger
}

func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	writers := make(map[string]*kafka.Writer)
	for _, topic := range []string{TopicCartEvents, TopicProductEvents, TopicOrderEvents} {
		writers[topic] = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireAll,
		}
	}
	return &Producer{writers: writers, logger: logger}
}

// Publish sends an envelope to the topic for its aggregate type.
func (p *Producer) Publish(ctx context.Context, env event.Envelope) error {
	topic, ok := TopicFor(env.AggregateType)
	if !ok {
		return fmt.Errorf("no topic for aggregate type %q", env.AggregateType)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	if err := p.writers[topic].WriteMessages(ctx, kafka.Message{
		Key:   []byte(env.AggregateID),
		Value: data,
		Time:  env.Timestamp,
	}); err != nil {
		return fmt.Errorf("publish %s to %s: %w", env.EventType, topic, err)
	}

	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("event_type", env.EventType),
		zap.String("event_id", env.EventID),
		zap.String("correlation_id", env.CorrelationID))
	return nil
}

func (p *Producer) Close() error {
	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
