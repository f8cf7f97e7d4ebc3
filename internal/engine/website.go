package engine

import "math"

// Website model constants. CO2GasDensity is a display constant for the
// litre equivalence, not a physical conversion.
const (
	AdjustmentFactor     = 0.7554
	EnergyIntensityPerGB = 0.7545 // kWh/GB
	GridIntensity        = 351.0  // g/kWh
	RenewableIntensity   = 288.0  // g/kWh
	CO2GasDensity        = 1.8    // g/L

	KB = 1024
	MB = 1024 * KB

	// cleanerThanCeiling is the fixed page size scored as dirtier than every page.
	cleanerThanCeiling = 3 * MB
)

// AssetCategory is one of the fixed byte breakdown buckets.
type AssetCategory string

const (
	AssetHTML  AssetCategory = "html"
	AssetCSS   AssetCategory = "css"
	AssetJS    AssetCategory = "js"
	AssetImage AssetCategory = "image"
	AssetFont  AssetCategory = "font"
	AssetOther AssetCategory = "other"
)

// AssetCategories lists every category in display order.
var AssetCategories = []AssetCategory{AssetHTML, AssetCSS, AssetJS, AssetImage, AssetFont, AssetOther}

// ByteBreakdown is the page weight split by asset category.
type ByteBreakdown struct {
	HTML  int64 `json:"html"`
	CSS   int64 `json:"css"`
	JS    int64 `json:"js"`
	Image int64 `json:"image"`
	Font  int64 `json:"font"`
	Other int64 `json:"other"`
}

// Add accumulates n bytes under category; unknown categories count as other.
func (b *ByteBreakdown) Add(category AssetCategory, n int64) {
	switch category {
	case AssetHTML:
		b.HTML += n
	case AssetCSS:
		b.CSS += n
	case AssetJS:
		b.JS += n
	case AssetImage:
		b.Image += n
	case AssetFont:
		b.Font += n
	default:
		b.Other += n
	}
}

// Validate rejects negative counts and totals that do not fit in an int64.
func (b ByteBreakdown) Validate() error {
	var total int64
	for _, n := range []int64{b.HTML, b.CSS, b.JS, b.Image, b.Font, b.Other} {
		if n < 0 {
			return invalid("Byte counts must be non-negative.")
		}
		if n > math.MaxInt64-total {
			return invalid("Byte counts are too large.")
		}
		total += n
	}
	return nil
}

// Total returns the sum over all categories. Call Validate first for
// untrusted input.
func (b ByteBreakdown) Total() int64 {
	return b.HTML + b.CSS + b.JS + b.Image + b.Font + b.Other
}

// WebsiteEmissionResult is the per-visit footprint of a page.
type WebsiteEmissionResult struct {
	TotalBytes          int64   `json:"totalBytes"`
	AdjustedBytes       float64 `json:"adjustedBytes"`
	EnergyKWh           float64 `json:"energy"`
	CO2GridGrams        float64 `json:"co2GridGrams"`
	CO2GridLitres       float64 `json:"co2GridLitres"`
	CO2RenewableGrams   float64 `json:"co2RenewableGrams"`
	CO2RenewableLitres  float64 `json:"co2RenewableLitres"`
	Rating              string  `json:"rating"`
	CleanerThanFraction float64 `json:"cleanerThan"`
	GreenHosting        bool    `json:"greenHosting"`
}

// CalculateWebsiteEmissions converts a page weight into energy and CO2 per visit.
// It returns false when totalBytes <= 0: there is no result, not a zero result.
// Grid and renewable figures are both always reported; greenHosting is echoed.
func CalculateWebsiteEmissions(totalBytes int64, greenHosting bool) (WebsiteEmissionResult, bool) {
	if totalBytes <= 0 {
		return WebsiteEmissionResult{}, false
	}

	adjusted := float64(totalBytes) * AdjustmentFactor
	energy := adjusted / 1e9 * EnergyIntensityPerGB
	grid := energy * GridIntensity
	renewable := energy * RenewableIntensity

	return WebsiteEmissionResult{
		TotalBytes:          totalBytes,
		AdjustedBytes:       adjusted,
		EnergyKWh:           energy,
		CO2GridGrams:        grid,
		CO2GridLitres:       grid / CO2GasDensity,
		CO2RenewableGrams:   renewable,
		CO2RenewableLitres:  renewable / CO2GasDensity,
		Rating:              Rating(totalBytes),
		CleanerThanFraction: CleanerThan(totalBytes),
		GreenHosting:        greenHosting,
	}, true
}

// Rating grades the raw page size. Each band includes its lower bound.
func Rating(totalBytes int64) string {
	switch {
	case totalBytes < 100*KB:
		return "A+"
	case totalBytes < 250*KB:
		return "A"
	case totalBytes < 500*KB:
		return "A-"
	case totalBytes < 1*MB:
		return "B"
	case totalBytes < 2*MB:
		return "C"
	case totalBytes < 3*MB:
		return "D"
	default:
		return "F"
	}
}

// CleanerThan is a linear score against a fixed 3MB ceiling, clamped at 0.
// It is not a population percentile.
func CleanerThan(totalBytes int64) float64 {
	f := float64(cleanerThanCeiling-totalBytes) / cleanerThanCeiling
	return round2(math.Max(0, f))
}
