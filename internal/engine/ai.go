package engine

import (
	"errors"
	"math"

	"carboncue-backend/internal/refdata"
)

const (
	msgInvalidFields = "Missing or invalid required fields."
	msgGPUNotFound   = "GPU not found."
	msgInvalidCase   = "Invalid input: must provide either provider/region or customImpact/customOffset."
)

// CalculationInput is the AI workload calculator request. Exactly one of the
// provider/region pair and the customImpact/customOffset pair must be set.
type CalculationInput struct {
	GPU          string   `json:"gpu"`
	Hours        *float64 `json:"hours"`
	Provider     *string  `json:"provider"`
	Region       *string  `json:"region"`
	CustomImpact *float64 `json:"customImpact"`
	CustomOffset *float64 `json:"customOffset"`
}

// CalculationResult holds the rounded AI workload figures.
// Impact is in kg CO2eq/kWh, CO2 and Offset in kg.
type CalculationResult struct {
	Energy        float64 `json:"energy"`
	Impact        float64 `json:"impact"`
	CO2           float64 `json:"co2"`
	Offset        float64 `json:"offset"`
	OffsetPercent float64 `json:"offsetPercents"`
}

// AICalculator converts GPU hours into emissions using injected reference tables.
type AICalculator struct {
	tables *refdata.Tables
}

// NewAICalculator creates a calculator backed by tables.
func NewAICalculator(tables *refdata.Tables) *AICalculator {
	return &AICalculator{tables: tables}
}

// Tables exposes the reference data the calculator was built with.
func (c *AICalculator) Tables() *refdata.Tables {
	return c.tables
}

// Calculate runs the AI workload calculation. Every intermediate value is
// rounded to two decimals before it feeds the next step; results depend on it.
func (c *AICalculator) Calculate(in CalculationInput) (CalculationResult, error) {
	if in.GPU == "" || in.Hours == nil || math.IsNaN(*in.Hours) || math.IsInf(*in.Hours, 0) || *in.Hours < 0 {
		return CalculationResult{}, &ValidationError{Message: msgInvalidFields}
	}

	watts, err := c.tables.GPUWatts(in.GPU)
	if err != nil {
		return CalculationResult{}, &LookupError{Message: msgGPUNotFound, Err: err}
	}

	hasRegion := present(in.Provider) && present(in.Region)
	hasCustom := in.CustomImpact != nil && in.CustomOffset != nil
	partial := (present(in.Provider) || present(in.Region)) && !hasRegion ||
		(in.CustomImpact != nil || in.CustomOffset != nil) && !hasCustom
	if hasRegion == hasCustom || partial {
		return CalculationResult{}, &ValidationError{Message: msgInvalidCase}
	}

	energy := round2(watts * *in.Hours / 1000)

	if hasRegion {
		region, err := c.tables.Region(*in.Provider, *in.Region)
		if err != nil {
			return CalculationResult{}, lookupFailure(err)
		}
		impact := round2(region.Impact / 1000)
		co2 := round2(energy * impact)
		return CalculationResult{
			Energy:        energy,
			Impact:        impact,
			CO2:           co2,
			Offset:        round2(co2 * region.OffsetRatio / 100),
			OffsetPercent: round2(region.OffsetRatio),
		}, nil
	}

	impact, offset := *in.CustomImpact, *in.CustomOffset
	if !finiteNonNegative(impact) || !finiteNonNegative(offset) {
		return CalculationResult{}, invalid("customImpact and customOffset must be non-negative numbers.")
	}
	co2 := round2(energy * impact)
	return CalculationResult{
		Energy:        energy,
		Impact:        impact,
		CO2:           co2,
		Offset:        round2(co2 * offset / 100),
		OffsetPercent: round2(offset),
	}, nil
}

// InvalidFields is the error reported for a request body whose fields are
// missing or of the wrong type.
func InvalidFields() error {
	return &ValidationError{Message: msgInvalidFields}
}

func lookupFailure(err error) error {
	switch {
	case errors.Is(err, refdata.ErrUnknownProvider):
		return &LookupError{Message: "Provider not found.", Err: err}
	case errors.Is(err, refdata.ErrUnknownRegion):
		return &LookupError{Message: "Region not found.", Err: err}
	default:
		return &LookupError{Message: err.Error(), Err: err}
	}
}

func present(s *string) bool {
	return s != nil && *s != ""
}

func finiteNonNegative(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= 0
}
