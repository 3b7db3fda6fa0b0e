package location

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerGeocoder stops calling a failing geocoder for a cool-down period
type BreakerGeocoder struct {
	next    Geocoder
	breaker *gobreaker.CircuitBreaker[[]Candidate]
}

// NewBreakerGeocoder wraps next with a circuit breaker that opens after
// maxFailures consecutive errors and probes again after coolDown.
func NewBreakerGeocoder(next Geocoder, maxFailures uint32, coolDown time.Duration) *BreakerGeocoder {
	return &BreakerGeocoder{
		next: next,
		breaker: gobreaker.NewCircuitBreaker[[]Candidate](gobreaker.Settings{
			Name:        "geocoder",
			MaxRequests: 1,
			Timeout:     coolDown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
		}),
	}
}

// Geocode implements Geocoder
func (b *BreakerGeocoder) Geocode(ctx context.Context, query string) ([]Candidate, error) {
	return b.breaker.Execute(func() ([]Candidate, error) {
		return b.next.Geocode(ctx, query)
	})
}
