package engine

import "math"

// Grams of CO2 per unit of each everyday activity.
const (
	MicrowaveGramsPerUse     = 400.0
	TVGramsPerHour           = 170.0
	HouseholdGramsPerDay     = 42000.0
	FlightGramsPerKm         = 160.0
	LEDBulbGramsPerHour      = 6.1
	WaterHeaterGramsPerLitre = 16.2
)

// Equivalents expresses a CO2 mass as everyday activities.
type Equivalents struct {
	MicrowaveUses     float64 `json:"microwaveUses"`
	TVHours           float64 `json:"tvHours"`
	HouseholdDays     float64 `json:"householdDays"`
	FlightKm          float64 `json:"flightKm"`
	BulbHours         float64 `json:"bulbHours"`
	WaterHeaterLitres float64 `json:"waterHeaterLitres"`
}

// ComparativeEquivalents converts co2Kg into relatable equivalents.
func ComparativeEquivalents(co2Kg float64) (Equivalents, error) {
	if math.IsNaN(co2Kg) || math.IsInf(co2Kg, 0) || co2Kg < 0 {
		return Equivalents{}, invalid("co2Kg must be a non-negative number")
	}

	grams := co2Kg * 1000
	return Equivalents{
		MicrowaveUses:     grams / MicrowaveGramsPerUse,
		TVHours:           grams / TVGramsPerHour,
		HouseholdDays:     grams / HouseholdGramsPerDay,
		FlightKm:          grams / FlightGramsPerKm,
		BulbHours:         grams / LEDBulbGramsPerHour,
		WaterHeaterLitres: grams / WaterHeaterGramsPerLitre,
	}, nil
}
