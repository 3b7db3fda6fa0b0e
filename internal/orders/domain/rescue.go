package domain

import (
	"math/rand/v2"
	"sync"
	"time"

	"ecomart/pkg/geo"
)

// Rescue defaults
const (
	RescueCarbonFootprintKg = 4.0
	MinGreenCoins           = 1
	MaxGreenCoins           = 50
)

// Warehouses are the candidate hubs for rescued items
var Warehouses = []Warehouse{
	{Name: "Delhi", Point: geo.Point{Latitude: 28.6139, Longitude: 77.2090}},
	{Name: "Mumbai", Point: geo.Point{Latitude: 19.0760, Longitude: 72.8777}},
	{Name: "Chennai", Point: geo.Point{Latitude: 13.0827, Longitude: 80.2707}},
	{Name: "Kolkata", Point: geo.Point{Latitude: 22.5726, Longitude: 88.3639}},
	{Name: "Bangalore", Point: geo.Point{Latitude: 12.9716, Longitude: 77.5946}},
	{Name: "Hyderabad", Point: geo.Point{Latitude: 17.3850, Longitude: 78.4867}},
	{Name: "Ahmedabad", Point: geo.Point{Latitude: 23.0225, Longitude: 72.5714}},
}

// Random is the part of math/rand/v2 the rescue policy needs
type Random interface {
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

// RandomRescuePolicy assigns a uniformly random warehouse and coin reward
type RandomRescuePolicy struct {
	mu         sync.Mutex
	rnd        Random
	warehouses []Warehouse
	carbonKg   float64
	minCoins   int
	maxCoins   int
}

// NewRandomRescuePolicy creates the default policy. A nil rnd uses the
// process-wide generator.
func NewRandomRescuePolicy(rnd Random) *RandomRescuePolicy {
	if rnd == nil {
		rnd = globalRandom{}
	}
	return &RandomRescuePolicy{
		rnd:        rnd,
		warehouses: Warehouses,
		carbonKg:   RescueCarbonFootprintKg,
		minCoins:   MinGreenCoins,
		maxCoins:   MaxGreenCoins,
	}
}

// Rescue builds an unsold GreenProduct for productID
func (p *RandomRescuePolicy) Rescue(productID uint) *GreenProduct {
	p.mu.Lock()
	wh := p.warehouses[p.rnd.IntN(len(p.warehouses))]
	coins := p.minCoins + p.rnd.IntN(p.maxCoins-p.minCoins+1)
	p.mu.Unlock()

	now := time.Now()
	return &GreenProduct{
		ProductID:       productID,
		Warehouse:       wh,
		CarbonFootprint: p.carbonKg,
		GreenCoins:      coins,
		IsSold:          false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
