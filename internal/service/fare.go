package service

import "math"

const (
	// taxRate is the fixed surcharge applied on top of distance * rate.
	taxRate = 0.05

	// carbonPerKm is the kg of CO2 saved per km for an eco ride.
	carbonPerKm = 0.10
)

// CalculateFare returns distance * ratePerKm plus the 5% surcharge.
// Missing inputs (NaN, negative rate) or a non-positive distance yield 0.
// The result is not rounded.
func CalculateFare(distance, ratePerKm float64) float64 {
	if math.IsNaN(distance) || math.IsNaN(ratePerKm) || distance <= 0 || ratePerKm < 0 {
		return 0
	}
	baseFare := distance * ratePerKm
	return baseFare + baseFare*taxRate
}

// CalculateCarbonSaved returns the kg of CO2 saved by an eco ride.
func CalculateCarbonSaved(distance float64, ecoRide bool) float64 {
	if !ecoRide || math.IsNaN(distance) || distance <= 0 {
		return 0
	}
	return distance * carbonPerKm
}
