package domain

import (
	"math/rand/v2"
	"testing"

	"ecomart/pkg/errors"
)

func TestNewOrder_Validation(t *testing.T) {
	tests := []struct {
		name       string
		customerID uint
		productID  uint
		address    string
		wantErr    error
	}{
		{"valid", 1, 2, "221B Baker Street", nil},
		{"missing product", 1, 0, "addr", ErrProductIDRequired},
		{"missing customer", 0, 2, "addr", ErrCustomerIDRequired},
		{"blank address", 1, 2, "   ", ErrShippingAddressRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewOrder(tt.customerID, tt.productID, tt.address, false)
			if err != tt.wantErr {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if err == nil && order.Status() != OrderStatusPlaced {
				t.Errorf("expected placed, got %s", order.Status())
			}
		})
	}
}

func TestOrder_CancelIsTerminal(t *testing.T) {
	order, _ := NewOrder(1, 2, "addr", false)
	order.ID = 10

	if err := order.Cancel(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if order.Status() != OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", order.Status())
	}

	err := order.Cancel()
	if !errors.Is(err, errors.CodeConflict) {
		t.Errorf("expected conflict on second cancel, got %v", err)
	}
}

func TestGreenProduct_MarkSoldOnce(t *testing.T) {
	gp := &GreenProduct{ProductID: 3}

	if err := gp.MarkSold(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := gp.MarkSold(); !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("expected unavailable, got %v", err)
	}
}

func TestRandomRescuePolicy_Ranges(t *testing.T) {
	policy := NewRandomRescuePolicy(rand.New(rand.NewPCG(1, 2)))

	seen := map[string]bool{}
	coinsSeen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		gp := policy.Rescue(42)

		if gp.ProductID != 42 {
			t.Fatalf("expected product 42, got %d", gp.ProductID)
		}
		if gp.IsSold {
			t.Fatal("new listing must be unsold")
		}
		if gp.CarbonFootprint != RescueCarbonFootprintKg {
			t.Fatalf("expected carbon %v, got %v", RescueCarbonFootprintKg, gp.CarbonFootprint)
		}
		if gp.GreenCoins < MinGreenCoins || gp.GreenCoins > MaxGreenCoins {
			t.Fatalf("coins out of range: %d", gp.GreenCoins)
		}
		seen[gp.Warehouse.Name] = true
		coinsSeen[gp.GreenCoins] = true
	}

	if len(seen) != len(Warehouses) {
		t.Errorf("expected every warehouse to be picked, got %v", seen)
	}
	if !coinsSeen[MinGreenCoins] || !coinsSeen[MaxGreenCoins] {
		t.Errorf("expected both reward bounds to be reachable")
	}
}

type fixedRandom struct{ values []int }

func (f *fixedRandom) IntN(n int) int {
	v := f.values[0] % n
	f.values = f.values[1:]
	return v
}

func TestRandomRescuePolicy_Deterministic(t *testing.T) {
	policy := NewRandomRescuePolicy(&fixedRandom{values: []int{2, 11}})

	gp := policy.Rescue(7)

	if gp.Warehouse.Name != "Chennai" {
		t.Errorf("expected Chennai, got %s", gp.Warehouse.Name)
	}
	if gp.GreenCoins != 12 {
		t.Errorf("expected 12 coins, got %d", gp.GreenCoins)
	}
}
