package impact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"ecomart/pkg/logger"
)

// Summary is everything a narrator needs to describe one rescued purchase
type Summary struct {
	ProductName       string
	Origin            string
	WarehouseLocation string
	UserLocation      string
	GreenCoins        int
	Report            Report
}

// Narrator produces a short human-readable message for a Summary
type Narrator interface {
	Narrate(ctx context.Context, s Summary) (string, error)
}

// Source identifies who wrote a message
type Source string

const (
	SourceModel    Source = "model"
	SourceTemplate Source = "template"
)

// TemplateMessage is the deterministic message used when no model is available.
func TemplateMessage(s Summary) string {
	r := s.Report.Rounded()

	var b strings.Builder
	b.WriteString("Thank you for choosing a Green Deal!\n")
	fmt.Fprintf(&b, "- Prevented %.1f km of unnecessary return shipping\n", r.DistanceSavedKm)
	fmt.Fprintf(&b, "- Saved %.1f L of fuel\n", r.FuelSavedLiters)
	fmt.Fprintf(&b, "- Cut %.1f kg of CO2 emissions\n", r.TotalCO2Kg)
	fmt.Fprintf(&b, "- Equal to the yearly work of %.1f trees\n", r.TreesEquivalent)
	fmt.Fprintf(&b, "- Worth about Rs %.0f in environmental value\n", r.MonetaryValue)
	fmt.Fprintf(&b, "- Earned %d green coins", s.GreenCoins)
	return b.String()
}

// Prompt builds the text-generation prompt for a Summary.
func Prompt(s Summary) string {
	r := s.Report.Rounded()
	return fmt.Sprintf(`Write an encouraging message of at most 80 words, as bullet points, for a shopper who bought a rescued product instead of letting it be shipped back.
Product: %s
Originally shipped from: %s
Rescued at warehouse: %s
Delivered to: %s
Return shipping avoided: %.1f km
Fuel saved: %.1f L
CO2 saved: %.1f kg
Trees equivalent: %.1f
Environmental value: Rs %.0f
Green coins earned: %d`,
		s.ProductName, s.Origin, s.WarehouseLocation, s.UserLocation,
		r.DistanceSavedKm, r.FuelSavedLiters, r.TotalCO2Kg, r.TreesEquivalent, r.MonetaryValue,
		s.GreenCoins,
	)
}

// FallbackNarrator wraps a Narrator with a timeout and a circuit breaker and
// falls back to TemplateMessage on any failure.
type FallbackNarrator struct {
	next    Narrator
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[string]
	log     *logger.Logger
}

// NewFallbackNarrator creates a FallbackNarrator. next may be nil, in which
// case every call returns the template message.
func NewFallbackNarrator(next Narrator, timeout time.Duration, log *logger.Logger) *FallbackNarrator {
	return &FallbackNarrator{
		next:    next,
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "impact-narrator",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		log: log,
	}
}

// Narrate never fails; the returned Source tells whether the model answered.
func (n *FallbackNarrator) Narrate(ctx context.Context, s Summary) (string, Source) {
	if n.next == nil {
		return TemplateMessage(s), SourceTemplate
	}

	msg, err := n.breaker.Execute(func() (string, error) {
		callCtx := ctx
		if n.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, n.timeout)
			defer cancel()
		}

		text, err := n.next.Narrate(callCtx, s)
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", fmt.Errorf("empty narration")
		}
		return text, nil
	})
	if err != nil {
		n.log.WithContext(ctx).Warn("impact narration unavailable, using template",
			zap.Error(err),
			zap.String("product", s.ProductName),
		)
		return TemplateMessage(s), SourceTemplate
	}

	return msg, SourceModel
}
