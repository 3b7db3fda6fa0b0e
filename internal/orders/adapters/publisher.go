package adapters

import (
	"context"
	"errors"

	"ecomart/internal/orders/domain"
	"ecomart/pkg/events"
	"ecomart/pkg/logger"
)

// Sink is a broker publisher. Both rabbitmq.Publisher and kafka.Publisher
// satisfy it.
type Sink interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// EventPublisher implements ports.EventPublisher on top of a broker Sink
type EventPublisher struct {
	sink Sink
	log  *logger.Logger
}

// NewEventPublisher creates a new domain event publisher
func NewEventPublisher(sink Sink, log *logger.Logger) *EventPublisher {
	return &EventPublisher{
		sink: sink,
		log:  log,
	}
}

// PublishOrderPlaced publishes an order.placed event
func (p *EventPublisher) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	event := events.NewOrderPlacedEvent(orderPayload(order), logger.GetTraceID(ctx))
	return p.sink.Publish(ctx, events.RoutingKeyOrderPlaced, event)
}

// PublishOrderCancelled publishes order.cancelled followed by
// green_product.listed for the rescue listing.
func (p *EventPublisher) PublishOrderCancelled(ctx context.Context, order *domain.Order, listing *domain.GreenProduct) error {
	traceID := logger.GetTraceID(ctx)

	cancelled := events.NewOrderCancelledEvent(events.OrderCancelledPayload{
		OrderID:        order.ID,
		ProductID:      order.ProductID,
		GreenProductID: listing.ID,
		CancelledAt:    order.UpdatedAt,
	}, traceID)

	listed := events.NewGreenProductListedEvent(events.GreenProductPayload{
		GreenProductID:  listing.ID,
		ProductID:       listing.ProductID,
		Warehouse:       listing.Warehouse.Name,
		Latitude:        listing.Warehouse.Latitude,
		Longitude:       listing.Warehouse.Longitude,
		CarbonFootprint: listing.CarbonFootprint,
		GreenCoins:      listing.GreenCoins,
	}, traceID)

	return errors.Join(
		p.sink.Publish(ctx, events.RoutingKeyOrderCancelled, cancelled),
		p.sink.Publish(ctx, events.RoutingKeyGreenProductListed, listed),
	)
}

// PublishGreenOrderPlaced publishes a green_order.placed event
func (p *EventPublisher) PublishGreenOrderPlaced(ctx context.Context, order *domain.Order, listing *domain.GreenProduct) error {
	event := events.NewGreenOrderPlacedEvent(events.GreenOrderPayload{
		OrderPayload:    orderPayload(order),
		GreenProductID:  listing.ID,
		GreenCoins:      listing.GreenCoins,
		CarbonFootprint: listing.CarbonFootprint,
	}, logger.GetTraceID(ctx))

	return p.sink.Publish(ctx, events.RoutingKeyGreenOrderPlaced, event)
}

func orderPayload(o *domain.Order) events.OrderPayload {
	return events.OrderPayload{
		OrderID:         o.ID,
		CustomerID:      o.CustomerID,
		ProductID:       o.ProductID,
		IsGreenProduct:  o.IsGreenProduct,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
	}
}
