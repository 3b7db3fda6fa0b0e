package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ecomart/pkg/logger"
)

const (
	headerTraceID   = "x-trace-id"
	headerEventType = "x-event-type"
	headerRetries   = "x-retries"
)

// Connection owns one AMQP connection and channel
type Connection struct {
	url     string
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *logger.Logger
	mu      sync.RWMutex
}

// NewConnection dials RabbitMQ and opens a channel
func NewConnection(url string, log *logger.Logger) (*Connection, error) {
	c := &Connection{url: url, log: log}

	if err := c.connect(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	c.conn = conn
	c.channel = ch

	c.log.Info("connected to RabbitMQ")
	return nil
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Close closes the channel and the connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func declareTopic(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(name, "topic", true, false, false, false, nil)
}

// Publisher publishes JSON messages to a topic exchange
type Publisher struct {
	conn     *Connection
	exchange string
	log      *logger.Logger
}

// NewPublisher declares the exchange and returns a publisher for it
func NewPublisher(conn *Connection, exchange string, log *logger.Logger) (*Publisher, error) {
	if err := declareTopic(conn.Channel(), exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		exchange: exchange,
		log:      log,
	}, nil
}

// Publish sends message as a persistent JSON delivery under routingKey
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	traceID := logger.GetTraceID(ctx)

	err = p.conn.Channel().PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			Body:          body,
			DeliveryMode:  amqp.Persistent,
			Timestamp:     time.Now(),
			CorrelationId: traceID,
			Type:          routingKey,
			Headers: amqp.Table{
				headerTraceID:   traceID,
				headerEventType: routingKey,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.log.WithContext(ctx).Debug("message published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", routingKey),
	)

	return nil
}

// Close is a no-op; the Connection owns the channel
func (p *Publisher) Close() error {
	return nil
}

// Consumer reads from a durable queue bound to a topic exchange. Messages
// whose handler keeps failing are dead-lettered after MaxRetries attempts.
type Consumer struct {
	conn        *Connection
	queue       string
	exchange    string
	routingKeys []string
	MaxRetries  int
	log         *logger.Logger
}

// NewConsumer declares the exchange, its dead-letter exchange and the queue,
// then binds the queue for each routing key.
func NewConsumer(conn *Connection, queue, exchange string, routingKeys []string, log *logger.Logger) (*Consumer, error) {
	ch := conn.Channel()

	if err := declareTopic(ch, exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	dlx := exchange + ".dlx"
	if err := declareTopic(ch, dlx); err != nil {
		return nil, fmt.Errorf("failed to declare dead-letter exchange: %w", err)
	}

	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange": dlx,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, key := range routingKeys {
		if err := ch.QueueBind(queue, key, exchange, false, nil); err != nil {
			return nil, fmt.Errorf("failed to bind queue: %w", err)
		}
	}

	return &Consumer{
		conn:        conn,
		queue:       queue,
		exchange:    exchange,
		routingKeys: routingKeys,
		MaxRetries:  3,
		log:         log,
	}, nil
}

// MessageHandler handles one message body
type MessageHandler func(ctx context.Context, body []byte) error

// Consume starts a goroutine delivering messages to handler until ctx is done
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	msgs, err := c.conn.Channel().Consume(
		c.queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.handle(ctx, msg, handler)
			}
		}
	}()

	c.log.Info("consumer started",
		zap.String("queue", c.queue),
		zap.Strings("routing_keys", c.routingKeys),
	)

	return nil
}

func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery, handler MessageHandler) {
	traceID, _ := msg.Headers[headerTraceID].(string)
	msgCtx := logger.WithTraceIDContext(ctx, traceID)
	log := c.log.WithContext(msgCtx)

	log.Debug("message received",
		zap.String("queue", c.queue),
		zap.String("routing_key", msg.RoutingKey),
	)

	err := handler(msgCtx, msg.Body)
	if err == nil {
		msg.Ack(false)
		return
	}

	retries := retryCount(msg.Headers)
	if retries >= c.MaxRetries {
		log.Error("dropping message to dead-letter exchange",
			zap.Error(err),
			zap.String("queue", c.queue),
			zap.Int("retries", retries),
		)
		msg.Nack(false, false)
		return
	}

	log.Warn("failed to handle message, retrying",
		zap.Error(err),
		zap.String("queue", c.queue),
		zap.Int("retries", retries),
	)

	// Requeue through the default exchange so only this queue sees the retry.
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[headerRetries] = int32(retries + 1)

	pubErr := c.conn.Channel().PublishWithContext(msgCtx, "", c.queue, false, false, amqp.Publishing{
		ContentType:   msg.ContentType,
		Body:          msg.Body,
		DeliveryMode:  amqp.Persistent,
		CorrelationId: msg.CorrelationId,
		Type:          msg.Type,
		Headers:       headers,
	})
	if pubErr != nil {
		time.Sleep(time.Second)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}

func retryCount(headers amqp.Table) int {
	switch v := headers[headerRetries].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
