package application

import (
	"context"

	"ecomart/internal/orders/domain"
	"ecomart/internal/orders/ports"
	"ecomart/pkg/errors"
)

// OrderView is an order joined with its product. Product is nil when the
// referenced product no longer exists.
type OrderView struct {
	Order   *domain.Order
	Product *domain.Product
}

// GreenProductView is a listing joined with its product. DistanceKm is set
// by proximity queries only.
type GreenProductView struct {
	GreenProduct *domain.GreenProduct
	Product      *domain.Product
	DistanceKm   *float64
}

func joinOrders(ctx context.Context, products ports.ProductRepository, orders []*domain.Order) ([]OrderView, error) {
	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ProductID)
	}

	byID, err := products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Internal(err, "failed to load products")
	}

	views := make([]OrderView, len(orders))
	for i, o := range orders {
		views[i] = OrderView{Order: o, Product: byID[o.ProductID]}
	}
	return views, nil
}

func joinGreenProducts(ctx context.Context, products ports.ProductRepository, listings []*domain.GreenProduct) ([]GreenProductView, error) {
	ids := make([]uint, 0, len(listings))
	for _, gp := range listings {
		ids = append(ids, gp.ProductID)
	}

	byID, err := products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Internal(err, "failed to load products")
	}

	views := make([]GreenProductView, len(listings))
	for i, gp := range listings {
		views[i] = GreenProductView{GreenProduct: gp, Product: byID[gp.ProductID]}
	}
	return views, nil
}

func ptr[T any](v T) *T {
	return &v
}
