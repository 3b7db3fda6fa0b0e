// Package impact turns a delivery distance saved into environmental metrics
// and a short message for the buyer.
package impact

import "math"

// Conversion constants
const (
	FuelLitersPerKm   = 0.1
	CO2KgPerFuelLiter = 2.3
	CO2KgPerTree      = 22.0
	ValuePerTonneCO2  = 4000.0
)

// Report holds full-precision impact metrics
type Report struct {
	DistanceSavedKm float64 `json:"distanceSavedKm"`
	BaseCarbonKg    float64 `json:"baseCarbonKg"`
	FuelSavedLiters float64 `json:"fuelSaved"`
	FuelCO2Kg       float64 `json:"fuelCO2"`
	TotalCO2Kg      float64 `json:"totalCO2Saved"`
	TreesEquivalent float64 `json:"treesEquivalent"`
	MonetaryValue   float64 `json:"monetaryValue"`
}

// Compute maps a distance saved and a base carbon value to a Report.
// Negative distances yield negative fuel figures; callers decide whether to clamp.
func Compute(distanceSavedKm, baseCarbonKg float64) Report {
	fuel := distanceSavedKm * FuelLitersPerKm
	fuelCO2 := fuel * CO2KgPerFuelLiter
	total := baseCarbonKg + fuelCO2

	return Report{
		DistanceSavedKm: distanceSavedKm,
		BaseCarbonKg:    baseCarbonKg,
		FuelSavedLiters: fuel,
		FuelCO2Kg:       fuelCO2,
		TotalCO2Kg:      total,
		TreesEquivalent: total / CO2KgPerTree,
		MonetaryValue:   total / 1000 * ValuePerTonneCO2,
	}
}

// Rounded returns a copy for display: one decimal place, money to whole units.
func (r Report) Rounded() Report {
	return Report{
		DistanceSavedKm: Round(r.DistanceSavedKm, 1),
		BaseCarbonKg:    Round(r.BaseCarbonKg, 1),
		FuelSavedLiters: Round(r.FuelSavedLiters, 1),
		FuelCO2Kg:       Round(r.FuelCO2Kg, 1),
		TotalCO2Kg:      Round(r.TotalCO2Kg, 1),
		TreesEquivalent: Round(r.TreesEquivalent, 1),
		MonetaryValue:   Round(r.MonetaryValue, 0),
	}
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
