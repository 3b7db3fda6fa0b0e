package events

import (
	"strconv"
	"time"
)

// Exchange (RabbitMQ) and topic (Kafka) names
const (
	ExchangeOrders = "ecomart.orders"
	ExchangeAuth   = "ecomart.auth"
)

// Routing keys
const (
	RoutingKeyOrderPlaced        = "order.placed"
	RoutingKeyOrderCancelled     = "order.cancelled"
	RoutingKeyGreenProductListed = "green_product.listed"
	RoutingKeyGreenOrderPlaced   = "green_order.placed"
	RoutingKeyUserRegistered     = "user.registered"
)

// Version is the schema version stamped on every event
const Version = "1.0"

// Event is the envelope shared by all domain events
type Event[T any] struct {
	Version   string    `json:"version"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id"`
	Payload   T         `json:"payload"`
	key       string
}

// Key is the partition key used by brokers that support one
func (e *Event[T]) Key() string {
	return e.key
}

func newEvent[T any](eventType string, key uint, traceID string, payload T) *Event[T] {
	return &Event[T]{
		Version:   Version,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
		Payload:   payload,
		key:       strconv.FormatUint(uint64(key), 10),
	}
}

// OrderPayload describes an order placed through either path
type OrderPayload struct {
	OrderID         uint      `json:"order_id"`
	CustomerID      uint      `json:"customer_id"`
	ProductID       uint      `json:"product_id"`
	IsGreenProduct  bool      `json:"is_green_product"`
	ShippingAddress string    `json:"shipping_address"`
	CreatedAt       time.Time `json:"created_at"`
}

// OrderCancelledPayload describes a cancellation and the rescue listing it produced
type OrderCancelledPayload struct {
	OrderID        uint      `json:"order_id"`
	ProductID      uint      `json:"product_id"`
	GreenProductID uint      `json:"green_product_id"`
	CancelledAt    time.Time `json:"cancelled_at"`
}

// GreenProductPayload describes a rescue listing
type GreenProductPayload struct {
	GreenProductID  uint    `json:"green_product_id"`
	ProductID       uint    `json:"product_id"`
	Warehouse       string  `json:"warehouse"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	CarbonFootprint float64 `json:"carbon_footprint"`
	GreenCoins      int     `json:"green_coins"`
}

// GreenOrderPayload describes a purchase of a rescue listing
type GreenOrderPayload struct {
	OrderPayload
	GreenProductID  uint    `json:"green_product_id"`
	GreenCoins      int     `json:"green_coins"`
	CarbonFootprint float64 `json:"carbon_footprint"`
}

// UserRegisteredPayload is emitted by the auth service when an account signs up
type UserRegisteredPayload struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// NewOrderPlacedEvent creates an order.placed event
func NewOrderPlacedEvent(p OrderPayload, traceID string) *Event[OrderPayload] {
	return newEvent(RoutingKeyOrderPlaced, p.OrderID, traceID, p)
}

// NewOrderCancelledEvent creates an order.cancelled event
func NewOrderCancelledEvent(p OrderCancelledPayload, traceID string) *Event[OrderCancelledPayload] {
	return newEvent(RoutingKeyOrderCancelled, p.OrderID, traceID, p)
}

// NewGreenProductListedEvent creates a green_product.listed event
func NewGreenProductListedEvent(p GreenProductPayload, traceID string) *Event[GreenProductPayload] {
	return newEvent(RoutingKeyGreenProductListed, p.ProductID, traceID, p)
}

// NewGreenOrderPlacedEvent creates a green_order.placed event
func NewGreenOrderPlacedEvent(p GreenOrderPayload, traceID string) *Event[GreenOrderPayload] {
	return newEvent(RoutingKeyGreenOrderPlaced, p.OrderID, traceID, p)
}

// NewUserRegisteredEvent creates a user.registered event
func NewUserRegisteredEvent(p UserRegisteredPayload, traceID string) *Event[UserRegisteredPayload] {
	return newEvent(RoutingKeyUserRegistered, p.ID, traceID, p)
}
