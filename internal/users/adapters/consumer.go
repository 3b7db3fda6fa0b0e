package adapters

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"ecomart/internal/users/application"
	"ecomart/pkg/errors"
	"ecomart/pkg/events"
	"ecomart/pkg/logger"
	"ecomart/pkg/rabbitmq"
)

// QueueUserRegistered is the queue provisioning reward accounts
const QueueUserRegistered = "ecomart.users.user-registered"

// Provisioner creates reward accounts
type Provisioner interface {
	Provision(ctx context.Context, input application.ProvisionInput) (*application.ProvisionOutput, error)
}

// UserRegisteredConsumer provisions a reward account for every account the
// auth service registers
type UserRegisteredConsumer struct {
	consumer    *rabbitmq.Consumer
	provisioner Provisioner
	log         *logger.Logger
}

// NewUserRegisteredConsumer creates a new consumer for user.registered events
func NewUserRegisteredConsumer(conn *rabbitmq.Connection, provisioner Provisioner, log *logger.Logger) (*UserRegisteredConsumer, error) {
	consumer, err := rabbitmq.NewConsumer(
		conn,
		QueueUserRegistered,
		events.ExchangeAuth,
		[]string{events.RoutingKeyUserRegistered},
		log,
	)
	if err != nil {
		return nil, err
	}

	return &UserRegisteredConsumer{
		consumer:    consumer,
		provisioner: provisioner,
		log:         log,
	}, nil
}

// Start starts consuming user.registered events
func (c *UserRegisteredConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// handleMessage returns an error only for failures worth retrying. Malformed
// or invalid events are logged and acknowledged.
func (c *UserRegisteredConsumer) handleMessage(ctx context.Context, body []byte) error {
	var event events.Event[events.UserRegisteredPayload]
	if err := json.Unmarshal(body, &event); err != nil {
		c.log.WithContext(ctx).Error("failed to unmarshal user.registered event",
			zap.Error(err),
		)
		return nil
	}

	output, err := c.provisioner.Provision(ctx, application.ProvisionInput{
		ID:       event.Payload.ID,
		Username: event.Payload.Username,
		Email:    event.Payload.Email,
		Role:     event.Payload.Role,
	})
	if err != nil {
		if errors.Is(err, errors.CodeValidation) || errors.Is(err, errors.CodeConflict) {
			c.log.WithContext(ctx).Warn("discarding user.registered event",
				zap.Error(err),
				zap.Uint("user_id", event.Payload.ID),
			)
			return nil
		}
		return err
	}

	c.log.WithContext(ctx).Info("received user.registered event",
		zap.Uint("user_id", output.User.ID),
		zap.Bool("created", output.Created),
		zap.String("trace_id", event.TraceID),
	)

	return nil
}
