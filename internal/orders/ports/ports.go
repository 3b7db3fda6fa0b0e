package ports

import (
	"context"

	"ecomart/internal/impact"
	"ecomart/internal/location"
	"ecomart/internal/orders/domain"
)

// ProductFilter narrows product listings. Nil fields match everything.
type ProductFilter struct {
	Sold *bool
}

// OrderFilter narrows order listings. Nil fields match everything.
type OrderFilter struct {
	CustomerID *uint
	Green      *bool
	Cancelled  *bool
}

// GreenProductFilter narrows green product listings
type GreenProductFilter struct {
	Sold *bool
}

// ProductRepository defines product persistence
type ProductRepository interface {
	GetByID(ctx context.Context, id uint) (*domain.Product, error)

	// GetByIDs returns the products found, keyed by id. Missing ids are skipped.
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*domain.Product, error)

	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)

	// MarkSold sets sold=true. With onlyIfUnsold the update is conditional
	// on sold=false. Reports whether a row was updated.
	MarkSold(ctx context.Context, id uint, onlyIfUnsold bool) (bool, error)
}

// OrderRepository defines order persistence
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error

	GetByID(ctx context.Context, id uint) (*domain.Order, error)

	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)

	// MarkCancelled sets is_cancelled=true where is_cancelled=false.
	// Reports whether a row was updated.
	MarkCancelled(ctx context.Context, id uint) (bool, error)
}

// GreenProductRepository defines green product persistence
type GreenProductRepository interface {
	Create(ctx context.Context, gp *domain.GreenProduct) error

	GetByID(ctx context.Context, id uint) (*domain.GreenProduct, error)

	List(ctx context.Context, filter GreenProductFilter) ([]*domain.GreenProduct, error)

	// FindUnsoldByProduct returns the oldest unsold listing for a product
	FindUnsoldByProduct(ctx context.Context, productID uint) (*domain.GreenProduct, error)

	// MarkSold sets is_sold=true where is_sold=false. Reports whether a row was updated.
	MarkSold(ctx context.Context, id uint) (bool, error)

	// ListedProductIDs returns every product id referenced by any listing
	ListedProductIDs(ctx context.Context) ([]uint, error)
}

// RewardLedger credits reward counters on user accounts
type RewardLedger interface {
	// Credit atomically increments both counters. A missing user is NotFound.
	Credit(ctx context.Context, userID uint, greenCoins int, carbonKg float64) error
}

// Store is a unit of work over all repositories
type Store interface {
	Products() ProductRepository
	Orders() OrderRepository
	GreenProducts() GreenProductRepository
	Rewards() RewardLedger

	// Atomic runs fn in a transaction. The Store handed to fn is bound to it;
	// any error returned by fn rolls everything back.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

// RescuePolicy builds the listing created when an order is cancelled
type RescuePolicy interface {
	Rescue(productID uint) *domain.GreenProduct
}

// LocationResolver resolves labels to places without failing
type LocationResolver interface {
	Resolve(ctx context.Context, label string) location.Place
	ResolveOrigin(ctx context.Context, label string) location.Place
}

// ImpactNarrator describes an impact summary without failing
type ImpactNarrator interface {
	Narrate(ctx context.Context, s impact.Summary) (string, impact.Source)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *domain.Order) error
	PublishOrderCancelled(ctx context.Context, order *domain.Order, listing *domain.GreenProduct) error
	PublishGreenOrderPlaced(ctx context.Context, order *domain.Order, listing *domain.GreenProduct) error
}
