package application

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"ecomart/internal/impact"
	"ecomart/internal/location"
	"ecomart/internal/orders/domain"
	"ecomart/internal/orders/ports"
	"ecomart/pkg/geo"
	"ecomart/pkg/logger"
)

// ImpactUseCase reports the environmental impact of buying a rescued product
type ImpactUseCase struct {
	store    ports.Store
	resolver ports.LocationResolver
	narrator ports.ImpactNarrator
	log      *logger.Logger
}

// NewImpactUseCase creates a new impact use case
func NewImpactUseCase(
	store ports.Store,
	resolver ports.LocationResolver,
	narrator ports.ImpactNarrator,
	log *logger.Logger,
) *ImpactUseCase {
	return &ImpactUseCase{
		store:    store,
		resolver: resolver,
		narrator: narrator,
		log:      log,
	}
}

// ComputeImpactInput represents the input for an impact report
type ComputeImpactInput struct {
	GreenProductID uint
	UserLocation   string
}

// Distances are the signed route lengths in km. DistanceSaved is negative
// when the buyer is farther from the warehouse than the origin is.
type Distances struct {
	Initial     float64
	New         float64
	Saved       float64
	Improvement float64
}

// ImpactOutput is the full impact report for one listing and buyer
type ImpactOutput struct {
	GreenProduct *domain.GreenProduct
	Product      *domain.Product
	Origin       location.Place
	UserLocation location.Place
	Distances    Distances
	Metrics      impact.Report
	Message      string
	Source       impact.Source
}

// ComputeImpact compares the return trip from the warehouse to the product
// origin with the delivery trip to the buyer. Metrics are computed from the
// distance saved floored at zero.
func (uc *ImpactUseCase) ComputeImpact(ctx context.Context, input ComputeImpactInput) (*ImpactOutput, error) {
	if input.GreenProductID == 0 {
		return nil, domain.ErrGreenProductIDRequired
	}
	if strings.TrimSpace(input.UserLocation) == "" {
		return nil, domain.ErrUserLocationRequired
	}

	gp, err := uc.store.GreenProducts().GetByID(ctx, input.GreenProductID)
	if err != nil {
		return nil, err
	}

	product, err := uc.store.Products().GetByID(ctx, gp.ProductID)
	if err != nil {
		return nil, err
	}

	origin := uc.resolver.ResolveOrigin(ctx, product.Origin)
	user := uc.resolver.Resolve(ctx, input.UserLocation)

	initial := geo.DistanceKm(origin.Point, gp.Warehouse.Point)
	next := geo.DistanceKm(gp.Warehouse.Point, user.Point)
	saved := initial - next

	var improvement float64
	if initial > 0 {
		improvement = saved / initial * 100
	}

	metrics := impact.Compute(math.Max(saved, 0), gp.CarbonFootprint)

	message, source := uc.narrator.Narrate(ctx, impact.Summary{
		ProductName:       product.Name,
		Origin:            origin.DisplayName,
		WarehouseLocation: gp.Warehouse.Name,
		UserLocation:      user.DisplayName,
		GreenCoins:        gp.GreenCoins,
		Report:            metrics,
	})

	uc.log.WithContext(ctx).Info("impact computed",
		zap.Uint("green_product_id", gp.ID),
		zap.String("origin", origin.DisplayName),
		zap.String("user_location", user.DisplayName),
		zap.Float64("distance_saved_km", saved),
		zap.String("message_source", string(source)),
	)

	return &ImpactOutput{
		GreenProduct: gp,
		Product:      product,
		Origin:       origin,
		UserLocation: user,
		Distances: Distances{
			Initial:     initial,
			New:         next,
			Saved:       saved,
			Improvement: improvement,
		},
		Metrics: metrics,
		Message: message,
		Source:  source,
	}, nil
}
