package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"ecomart/pkg/logger"
)

// Keyed is implemented by messages that carry their own partition key
type Keyed interface {
	Key() string
}

// Publisher writes JSON messages to a single Kafka topic. The routing key is
// carried in the event-type header so consumers can filter like a topic exchange.
type Publisher struct {
	writer  *kafkago.Writer
	timeout time.Duration
	log     *logger.Logger
}

// NewPublisher creates a publisher for topic on brokers
func NewPublisher(brokers []string, topic string, log *logger.Logger) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireAll,
			AllowAutoTopicCreation: true,
		},
		timeout: 5 * time.Second,
		log:     log,
	}
}

// Publish writes message keyed by its Key() when available
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := kafkago.Message{
		Value: body,
		Time:  time.Now(),
		Headers: []kafkago.Header{
			{Key: "x-event-type", Value: []byte(routingKey)},
			{Key: "x-trace-id", Value: []byte(logger.GetTraceID(ctx))},
		},
	}
	if k, ok := message.(Keyed); ok {
		msg.Key = []byte(k.Key())
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	p.log.WithContext(ctx).Debug("message published",
		zap.String("topic", p.writer.Topic),
		zap.String("routing_key", routingKey),
	)
	return nil
}

// Close flushes pending writes and closes the writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
