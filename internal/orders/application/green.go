package application

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"ecomart/internal/location"
	"ecomart/internal/orders/domain"
	"ecomart/internal/orders/ports"
	"ecomart/pkg/errors"
	"ecomart/pkg/geo"
	"ecomart/pkg/logger"
)

// DefaultNearbyRadiusKm is the proximity radius for green product search
const DefaultNearbyRadiusKm = 350.0

// GreenUseCase handles rescue listings and their purchase
type GreenUseCase struct {
	store     ports.Store
	resolver  ports.LocationResolver
	publisher ports.EventPublisher
	radiusKm  float64
	log       *logger.Logger
}

// NewGreenUseCase creates a new green use case. A non-positive radius uses
// DefaultNearbyRadiusKm.
func NewGreenUseCase(
	store ports.Store,
	resolver ports.LocationResolver,
	publisher ports.EventPublisher,
	radiusKm float64,
	log *logger.Logger,
) *GreenUseCase {
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	return &GreenUseCase{
		store:     store,
		resolver:  resolver,
		publisher: publisher,
		radiusKm:  radiusKm,
		log:       log,
	}
}

// CreateGreenOrderInput represents the input for buying a rescued product
type CreateGreenOrderInput struct {
	CustomerID      uint
	ProductID       uint
	ShippingAddress string
}

// CreateGreenOrderOutput is the placed order and the listing it consumed
type CreateGreenOrderOutput struct {
	Order        *domain.Order
	GreenProduct *domain.GreenProduct
}

// CreateGreenOrder buys the unsold listing of a product. Claiming the
// listing, marking the product sold, crediting the buyer and placing the
// order commit together; a concurrent buyer that loses the claim gets
// GreenProductUnavailable.
func (uc *GreenUseCase) CreateGreenOrder(ctx context.Context, input CreateGreenOrderInput) (*CreateGreenOrderOutput, error) {
	order, err := domain.NewOrder(input.CustomerID, input.ProductID, input.ShippingAddress, true)
	if err != nil {
		return nil, err
	}

	var listing *domain.GreenProduct

	err = uc.store.Atomic(ctx, func(tx ports.Store) error {
		gp, err := tx.GreenProducts().FindUnsoldByProduct(ctx, order.ProductID)
		if err != nil {
			return err
		}

		claimed, err := tx.GreenProducts().MarkSold(ctx, gp.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return domain.NewGreenProductUnavailable(order.ProductID)
		}
		if err := gp.MarkSold(); err != nil {
			return err
		}

		found, err := tx.Products().MarkSold(ctx, order.ProductID, false)
		if err != nil {
			return err
		}
		if !found {
			return domain.NewProductNotFound(order.ProductID)
		}

		if err := tx.Rewards().Credit(ctx, order.CustomerID, gp.GreenCoins, gp.CarbonFootprint); err != nil {
			return err
		}

		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		listing = gp
		return nil
	})
	if err != nil {
		return nil, errors.Internal(err, "failed to create green order")
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishGreenOrderPlaced(ctx, order, listing); err != nil {
			uc.log.WithContext(ctx).Error("failed to publish green order placed event",
				zap.Error(err),
				zap.Uint("order_id", order.ID),
			)
		}
	}

	uc.log.WithContext(ctx).Info("green order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("customer_id", order.CustomerID),
		zap.Uint("green_product_id", listing.ID),
		zap.Int("green_coins", listing.GreenCoins),
		zap.Float64("carbon_kg", listing.CarbonFootprint),
	)

	return &CreateGreenOrderOutput{Order: order, GreenProduct: listing}, nil
}

// ListGreenOrders lists orders placed through the green path
func (uc *GreenUseCase) ListGreenOrders(ctx context.Context) ([]OrderView, error) {
	orders, err := uc.store.Orders().List(ctx, ports.OrderFilter{Green: ptr(true)})
	if err != nil {
		return nil, errors.Internal(err, "failed to list green orders")
	}
	return joinOrders(ctx, uc.store.Products(), orders)
}

// GetGreenOrder fetches a green order. Normal orders are reported as not found.
func (uc *GreenUseCase) GetGreenOrder(ctx context.Context, id uint) (*OrderView, error) {
	if id == 0 {
		return nil, domain.ErrOrderIDRequired
	}

	order, err := uc.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.IsGreenProduct {
		return nil, domain.NewOrderNotFound(id)
	}

	views, err := joinOrders(ctx, uc.store.Products(), []*domain.Order{order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListGreenProducts lists listings still available for purchase
func (uc *GreenUseCase) ListGreenProducts(ctx context.Context) ([]GreenProductView, error) {
	return uc.listGreen(ctx, ports.GreenProductFilter{Sold: ptr(false)})
}

// ListSoldGreenProducts lists listings that have been bought
func (uc *GreenUseCase) ListSoldGreenProducts(ctx context.Context) ([]GreenProductView, error) {
	return uc.listGreen(ctx, ports.GreenProductFilter{Sold: ptr(true)})
}

func (uc *GreenUseCase) listGreen(ctx context.Context, filter ports.GreenProductFilter) ([]GreenProductView, error) {
	listings, err := uc.store.GreenProducts().List(ctx, filter)
	if err != nil {
		return nil, errors.Internal(err, "failed to list green products")
	}
	return joinGreenProducts(ctx, uc.store.Products(), listings)
}

// GetGreenProduct fetches a listing with its product
func (uc *GreenUseCase) GetGreenProduct(ctx context.Context, id uint) (*GreenProductView, error) {
	if id == 0 {
		return nil, domain.ErrGreenProductIDRequired
	}

	gp, err := uc.store.GreenProducts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	views, err := joinGreenProducts(ctx, uc.store.Products(), []*domain.GreenProduct{gp})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// NearbyOutput is the result of a proximity search
type NearbyOutput struct {
	Location location.Place
	RadiusKm float64
	Products []GreenProductView
}

// NearbyGreenProducts lists unsold listings whose warehouse lies within the
// configured radius of the resolved user location, nearest first.
func (uc *GreenUseCase) NearbyGreenProducts(ctx context.Context, userLocation string) (*NearbyOutput, error) {
	if strings.TrimSpace(userLocation) == "" {
		return nil, domain.ErrUserLocationRequired
	}

	place := uc.resolver.Resolve(ctx, userLocation)

	listings, err := uc.store.GreenProducts().List(ctx, ports.GreenProductFilter{Sold: ptr(false)})
	if err != nil {
		return nil, errors.Internal(err, "failed to list green products")
	}

	type hit struct {
		gp   *domain.GreenProduct
		dist float64
	}
	var hits []hit
	for _, gp := range listings {
		d := geo.DistanceKm(place.Point, gp.Warehouse.Point)
		if d <= uc.radiusKm {
			hits = append(hits, hit{gp: gp, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	nearby := make([]*domain.GreenProduct, len(hits))
	for i, h := range hits {
		nearby[i] = h.gp
	}
	views, err := joinGreenProducts(ctx, uc.store.Products(), nearby)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].DistanceKm = ptr(hits[i].dist)
	}

	uc.log.WithContext(ctx).Debug("nearby green products",
		zap.String("location", place.DisplayName),
		zap.Int("available", len(listings)),
		zap.Int("nearby", len(views)),
	)

	return &NearbyOutput{Location: place, RadiusKm: uc.radiusKm, Products: views}, nil
}
