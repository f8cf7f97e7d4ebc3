package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparativeEquivalents(t *testing.T) {
	eq, err := ComparativeEquivalents(1)
	require.NoError(t, err)

	assert.Equal(t, 2.5, eq.MicrowaveUses)
	assert.InDelta(t, 5.88, eq.TVHours, 0.005)
	assert.Equal(t, 6.25, eq.FlightKm)
	assert.InDelta(t, 1000.0/42000, eq.HouseholdDays, 1e-12)
	assert.InDelta(t, 163.93, eq.BulbHours, 0.005)
	assert.InDelta(t, 61.73, eq.WaterHeaterLitres, 0.005)
}

func TestComparativeEquivalents_Zero(t *testing.T) {
	eq, err := ComparativeEquivalents(0)
	require.NoError(t, err)
	assert.Equal(t, Equivalents{}, eq)
}

func TestComparativeEquivalents_Invalid(t *testing.T) {
	for _, v := range []float64{-0.01, math.NaN(), math.Inf(1)} {
		_, err := ComparativeEquivalents(v)
		var validationErr *ValidationError
		assert.True(t, errors.As(err, &validationErr), "value %v", v)
	}
}
