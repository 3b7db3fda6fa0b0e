// Package location resolves free-text place labels to coordinates.
package location

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"ecomart/pkg/geo"
	"ecomart/pkg/logger"
)

// Place is a resolved coordinate with a human-readable name
type Place struct {
	geo.Point
	DisplayName string `json:"displayName"`
}

// Candidate is one geocoding match
type Candidate struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	DisplayName string  `json:"displayName"`
}

// Geocoder looks up free-text addresses
type Geocoder interface {
	Geocode(ctx context.Context, query string) ([]Candidate, error)
}

// Resolver maps labels to places: static table first, then the geocoder,
// then a fixed default. It never returns an error.
type Resolver struct {
	geocoder Geocoder
	timeout  time.Duration
	log      *logger.Logger
}

// NewResolver creates a Resolver. geocoder may be nil.
func NewResolver(geocoder Geocoder, timeout time.Duration, log *logger.Logger) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		timeout:  timeout,
		log:      log,
	}
}

// Resolve resolves a delivery location label
func (r *Resolver) Resolve(ctx context.Context, label string) Place {
	return r.resolve(ctx, label, cityTable, defaultCity)
}

// ResolveOrigin resolves a product origin label, usually a country
func (r *Resolver) ResolveOrigin(ctx context.Context, label string) Place {
	return r.resolve(ctx, label, countryTable, defaultOrigin)
}

func (r *Resolver) resolve(ctx context.Context, label string, table []entry, fallback Place) Place {
	label = strings.TrimSpace(label)
	if label == "" {
		return fallback
	}

	if p, ok := lookup(table, label); ok {
		return p
	}

	if p, ok := r.geocode(ctx, label); ok {
		return p
	}

	fallback.DisplayName = label
	return fallback
}

func lookup(table []entry, label string) (Place, bool) {
	needle := strings.ToLower(label)
	for _, e := range table {
		if strings.Contains(needle, e.key) {
			return e.place, true
		}
	}
	return Place{}, false
}

func (r *Resolver) geocode(ctx context.Context, label string) (Place, bool) {
	if r.geocoder == nil {
		return Place{}, false
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	candidates, err := r.geocoder.Geocode(ctx, label)
	if err != nil {
		r.log.WithContext(ctx).Warn("geocoding failed, using fallback location",
			zap.String("label", label),
			zap.Error(err),
		)
		return Place{}, false
	}
	if len(candidates) == 0 {
		r.log.WithContext(ctx).Debug("geocoder returned no match", zap.String("label", label))
		return Place{}, false
	}

	c := candidates[0]
	name := c.DisplayName
	if name == "" {
		name = label
	}
	return Place{
		Point:       geo.Point{Latitude: c.Latitude, Longitude: c.Longitude},
		DisplayName: name,
	}, true
}
