package application

import (
	"context"
	"math"
	"testing"

	"ecomart/internal/location"
	"ecomart/internal/orders/domain"
	"ecomart/pkg/errors"
	"ecomart/pkg/geo"
)

func TestComputeImpact_Success(t *testing.T) {
	// Arrange
	origin := geo.Point{Latitude: 20.0, Longitude: 70.0}
	warehouse := pointAtKm(origin, 1000)
	buyer := pointAtKm(origin, 1100)

	resolver := MockResolver{places: map[string]location.Place{
		"Japan": {Point: origin, DisplayName: "Tokyo, Japan"},
		"Noida": {Point: buyer, DisplayName: "Noida"},
	}}
	store := NewMockStore()
	productID := store.addProduct("Kettle", "Japan", true)
	listingID := store.addListing(productID, domain.Warehouse{Name: "Hub", Point: warehouse}, 9, false)
	narrator := &MockNarrator{}
	useCase := NewImpactUseCase(store, resolver, narrator, testLogger())

	// Act
	output, err := useCase.ComputeImpact(context.Background(), ComputeImpactInput{
		GreenProductID: listingID,
		UserLocation:   "Noida",
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	d := output.Distances
	if math.Abs(d.Initial-1000) > 0.01 || math.Abs(d.New-100) > 0.01 || math.Abs(d.Saved-900) > 0.01 {
		t.Errorf("unexpected distances %+v", d)
	}
	if math.Abs(d.Improvement-90) > 0.01 {
		t.Errorf("expected 90%% improvement, got %v", d.Improvement)
	}

	// 900 km -> 90 L -> 207 kg, plus 4 kg base
	if math.Abs(output.Metrics.TotalCO2Kg-211) > 0.01 {
		t.Errorf("expected 211 kg total, got %v", output.Metrics.TotalCO2Kg)
	}

	if output.Origin.DisplayName != "Tokyo, Japan" || output.UserLocation.DisplayName != "Noida" {
		t.Errorf("unexpected places %q / %q", output.Origin.DisplayName, output.UserLocation.DisplayName)
	}
	if output.Message != "well done" {
		t.Errorf("expected narrator message, got %q", output.Message)
	}
	if narrator.got.ProductName != "Kettle" || narrator.got.GreenCoins != 9 || narrator.got.WarehouseLocation != "Hub" {
		t.Errorf("unexpected summary %+v", narrator.got)
	}
}

func TestComputeImpact_NegativeSavingsClamped(t *testing.T) {
	// Arrange
	origin := geo.Point{Latitude: 20.0, Longitude: 70.0}
	warehouse := pointAtKm(origin, 100)
	buyer := pointAtKm(origin, 400)

	resolver := MockResolver{places: map[string]location.Place{
		"Origin": {Point: origin, DisplayName: "Origin"},
		"Buyer":  {Point: buyer, DisplayName: "Buyer"},
	}}
	store := NewMockStore()
	productID := store.addProduct("Kettle", "Origin", true)
	listingID := store.addListing(productID, domain.Warehouse{Name: "Hub", Point: warehouse}, 9, false)
	useCase := NewImpactUseCase(store, resolver, &MockNarrator{}, testLogger())

	// Act
	output, err := useCase.ComputeImpact(context.Background(), ComputeImpactInput{
		GreenProductID: listingID,
		UserLocation:   "Buyer",
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output.Distances.Saved >= 0 {
		t.Errorf("expected signed negative savings, got %v", output.Distances.Saved)
	}
	if output.Metrics.DistanceSavedKm != 0 || output.Metrics.FuelSavedLiters != 0 {
		t.Errorf("expected metrics from zero distance, got %+v", output.Metrics)
	}
	if output.Metrics.TotalCO2Kg != domain.RescueCarbonFootprintKg {
		t.Errorf("expected base carbon only, got %v", output.Metrics.TotalCO2Kg)
	}
}

func TestComputeImpact_ZeroInitialDistance(t *testing.T) {
	// Arrange
	spot := geo.Point{Latitude: 20.0, Longitude: 70.0}
	resolver := MockResolver{places: map[string]location.Place{
		"Here": {Point: spot, DisplayName: "Here"},
	}}
	store := NewMockStore()
	productID := store.addProduct("Kettle", "Here", true)
	listingID := store.addListing(productID, domain.Warehouse{Name: "Hub", Point: spot}, 9, false)
	useCase := NewImpactUseCase(store, resolver, &MockNarrator{}, testLogger())

	// Act
	output, err := useCase.ComputeImpact(context.Background(), ComputeImpactInput{
		GreenProductID: listingID,
		UserLocation:   "Here",
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output.Distances.Improvement != 0 {
		t.Errorf("expected 0 improvement, got %v", output.Distances.Improvement)
	}
}

func TestComputeImpact_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input ComputeImpactInput
		code  string
	}{
		{"missing listing id", ComputeImpactInput{UserLocation: "Delhi"}, errors.CodeValidation},
		{"missing location", ComputeImpactInput{GreenProductID: 1}, errors.CodeValidation},
		{"unknown listing", ComputeImpactInput{GreenProductID: 404, UserLocation: "Delhi"}, errors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			useCase := NewImpactUseCase(NewMockStore(), MockResolver{}, &MockNarrator{}, testLogger())

			// Act
			_, err := useCase.ComputeImpact(context.Background(), tt.input)

			// Assert
			if !errors.Is(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}
