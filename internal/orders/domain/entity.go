package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ecomart/pkg/geo"
)

// DefaultOrigin is the origin label of products created without one
const DefaultOrigin = "USA"

// Product is a catalog item. Only the sold flag is mutated here.
type Product struct {
	ID        uint
	Name      string
	Price     decimal.Decimal
	Category  string
	ImageURL  string
	Origin    string
	Sold      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderStatus is derived from the cancellation flag
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a purchase of a single product. IsGreenProduct is fixed at creation.
type Order struct {
	ID              uint
	CustomerID      uint
	ProductID       uint
	ShippingAddress string
	IsGreenProduct  bool
	IsCancelled     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate validates the order entity
func (o *Order) Validate() error {
	if o.ProductID == 0 {
		return ErrProductIDRequired
	}
	if o.CustomerID == 0 {
		return ErrCustomerIDRequired
	}
	if strings.TrimSpace(o.ShippingAddress) == "" {
		return ErrShippingAddressRequired
	}
	return nil
}

// NewOrder creates a placed order with validation
func NewOrder(customerID, productID uint, shippingAddress string, green bool) (*Order, error) {
	now := time.Now()
	order := &Order{
		CustomerID:      customerID,
		ProductID:       productID,
		ShippingAddress: strings.TrimSpace(shippingAddress),
		IsGreenProduct:  green,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	return order, nil
}

// Status returns the lifecycle state
func (o *Order) Status() OrderStatus {
	if o.IsCancelled {
		return OrderStatusCancelled
	}
	return OrderStatusPlaced
}

// Cancel moves a placed order to cancelled. Cancelled is terminal.
func (o *Order) Cancel() error {
	if o.IsCancelled {
		return NewAlreadyCancelled(o.ID)
	}
	o.IsCancelled = true
	o.UpdatedAt = time.Now()
	return nil
}

// Warehouse is a regional hub where rescued items wait for a nearby buyer
type Warehouse struct {
	Name string
	geo.Point
}

// GreenProduct is a discounted re-listing of a cancelled order's product
type GreenProduct struct {
	ID              uint
	ProductID       uint
	Warehouse       Warehouse
	CarbonFootprint float64
	GreenCoins      int
	IsSold          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MarkSold flips the listing to sold. Sold is terminal.
func (g *GreenProduct) MarkSold() error {
	if g.IsSold {
		return NewGreenProductUnavailable(g.ProductID)
	}
	g.IsSold = true
	g.UpdatedAt = time.Now()
	return nil
}
