package application

import (
	"context"

	"ecomart/internal/orders/domain"
	"ecomart/internal/orders/ports"
	"ecomart/pkg/errors"
	"ecomart/pkg/logger"
)

// CatalogUseCase serves read-only product queries
type CatalogUseCase struct {
	store ports.Store
	log   *logger.Logger
}

// NewCatalogUseCase creates a new catalog use case
func NewCatalogUseCase(store ports.Store, log *logger.Logger) *CatalogUseCase {
	return &CatalogUseCase{store: store, log: log}
}

// ListProducts lists every product
func (uc *CatalogUseCase) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return uc.list(ctx, ports.ProductFilter{})
}

// ListUnsoldProducts lists products still available through the normal path
func (uc *CatalogUseCase) ListUnsoldProducts(ctx context.Context) ([]*domain.Product, error) {
	return uc.list(ctx, ports.ProductFilter{Sold: ptr(false)})
}

// ListSoldProducts lists sold products that never became a green listing
func (uc *CatalogUseCase) ListSoldProducts(ctx context.Context) ([]*domain.Product, error) {
	sold, err := uc.list(ctx, ports.ProductFilter{Sold: ptr(true)})
	if err != nil {
		return nil, err
	}

	listed, err := uc.store.GreenProducts().ListedProductIDs(ctx)
	if err != nil {
		return nil, errors.Internal(err, "failed to list green product ids")
	}

	exclude := make(map[uint]struct{}, len(listed))
	for _, id := range listed {
		exclude[id] = struct{}{}
	}

	out := make([]*domain.Product, 0, len(sold))
	for _, p := range sold {
		if _, ok := exclude[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetProduct fetches a single product
func (uc *CatalogUseCase) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	if id == 0 {
		return nil, domain.ErrProductIDRequired
	}
	return uc.store.Products().GetByID(ctx, id)
}

func (uc *CatalogUseCase) list(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	products, err := uc.store.Products().List(ctx, filter)
	if err != nil {
		return nil, errors.Internal(err, "failed to list products")
	}
	return products, nil
}
