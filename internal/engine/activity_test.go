package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivityType(t *testing.T) {
	for _, at := range ActivityTypes {
		got, err := ParseActivityType(string(at))
		require.NoError(t, err)
		assert.Equal(t, at, got)
	}

	for _, bad := range []string{"commuting", "", "Transportation", "food diet"} {
		_, err := ParseActivityType(bad)
		var unsupported *UnsupportedCategoryError
		require.True(t, errors.As(err, &unsupported), "value %q", bad)
		assert.Equal(t, bad, unsupported.Value)
	}
}

func TestDecodeActivity(t *testing.T) {
	testCases := []struct {
		name     string
		typ      string
		raw      string
		expected Activity
	}{
		{
			name: "transportation",
			typ:  "transportation",
			raw:  `{"transport":"private","vehicleType":"diesel","vehicleMonthlyDistanceKm":1200,"airTravelFrequency":"rarely"}`,
			expected: TransportationInput{
				Transport: "private", VehicleType: "diesel", VehicleMonthlyDistanceKm: 1200, AirTravelFrequency: "rarely",
			},
		},
		{
			name:     "home energy",
			typ:      "home_energy",
			raw:      `{"heatingEnergySource":"wood","energyEfficiency":"Sometimes","tvPcDailyHours":4}`,
			expected: HomeEnergyInput{HeatingEnergySource: "wood", EnergyEfficiency: "Sometimes", TVPCDailyHours: 4},
		},
		{
			name:     "digital usage",
			typ:      "digital_usage",
			raw:      `{"internetDailyHours":6.5}`,
			expected: DigitalUsageInput{InternetDailyHours: 6.5},
		},
		{
			name: "shopping",
			typ:  "shopping",
			raw:  `{"newClothesMonthly":3,"wasteBagSize":"large","wasteBagWeeklyCount":2,"recycling":["Paper","Glass"]}`,
			expected: ShoppingInput{
				NewClothesMonthly: 3, WasteBagSize: "large", WasteBagWeeklyCount: 2, Recycling: []string{"Paper", "Glass"},
			},
		},
		{
			name:     "food diet",
			typ:      "food_diet",
			raw:      `{"diet":"vegan","monthlyGroceryBill":180}`,
			expected: FoodDietInput{Diet: "vegan", MonthlyGroceryBill: 180},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := DecodeActivity(tc.typ, json.RawMessage(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, a)
			assert.Equal(t, ActivityType(tc.typ), a.Type())
			assert.NoError(t, a.Validate())
		})
	}
}

func TestDecodeActivity_Errors(t *testing.T) {
	_, err := DecodeActivity("commuting", json.RawMessage(`{}`))
	var unsupported *UnsupportedCategoryError
	assert.True(t, errors.As(err, &unsupported))

	var validationErr *ValidationError
	_, err = DecodeActivity("food_diet", nil)
	assert.True(t, errors.As(err, &validationErr))

	_, err = DecodeActivity("food_diet", json.RawMessage(`null`))
	assert.True(t, errors.As(err, &validationErr))

	_, err = DecodeActivity("digital_usage", json.RawMessage(`{"diet":"vegan"}`))
	assert.True(t, errors.As(err, &validationErr), "fields of another category are rejected")

	_, err = DecodeActivity("digital_usage", json.RawMessage(`{"internetDailyHours":"lots"}`))
	assert.True(t, errors.As(err, &validationErr))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		input   Activity
		wantErr bool
	}{
		{"public transport needs no vehicle", TransportationInput{Transport: "public", AirTravelFrequency: "never"}, false},
		{"public transport with None vehicle", TransportationInput{Transport: "public", VehicleType: "None", AirTravelFrequency: "never"}, false},
		{"private transport needs a vehicle", TransportationInput{Transport: "private", AirTravelFrequency: "never"}, true},
		{"private transport with None vehicle", TransportationInput{Transport: "private", VehicleType: "None", AirTravelFrequency: "never"}, true},
		{"unknown vehicle", TransportationInput{Transport: "private", VehicleType: "rocket", AirTravelFrequency: "never"}, true},
		{"negative distance", TransportationInput{Transport: "walk/bicycle", VehicleMonthlyDistanceKm: -1, AirTravelFrequency: "never"}, true},
		{"missing air frequency", TransportationInput{Transport: "public"}, true},
		{"heating None", HomeEnergyInput{HeatingEnergySource: "None", EnergyEfficiency: "Yes"}, true},
		{"negative screen hours", HomeEnergyInput{HeatingEnergySource: "coal", EnergyEfficiency: "Yes", TVPCDailyHours: -2}, true},
		{"valid home energy", HomeEnergyInput{HeatingEnergySource: "natural gas", EnergyEfficiency: "No"}, false},
		{"negative internet hours", DigitalUsageInput{InternetDailyHours: -0.5}, true},
		{"zero internet hours", DigitalUsageInput{}, false},
		{"no recycling", ShoppingInput{WasteBagSize: "small"}, true},
		{"unknown recyclable", ShoppingInput{WasteBagSize: "small", Recycling: []string{"Wood"}}, true},
		{"missing bag size", ShoppingInput{Recycling: []string{"Metal"}}, true},
		{"negative bags", ShoppingInput{WasteBagSize: "small", WasteBagWeeklyCount: -1, Recycling: []string{"Metal"}}, true},
		{"valid shopping", ShoppingInput{WasteBagSize: "extra large", Recycling: []string{"Metal", "Plastic"}}, false},
		{"diet empty", FoodDietInput{}, true},
		{"diet None", FoodDietInput{Diet: "None"}, true},
		{"negative grocery bill", FoodDietInput{Diet: "vegan", MonthlyGroceryBill: -10}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.input.Validate()
			if tc.wantErr {
				var validationErr *ValidationError
				assert.True(t, errors.As(err, &validationErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFeatures(t *testing.T) {
	f := TransportationInput{Transport: "public", VehicleType: "petrol", VehicleMonthlyDistanceKm: 10, AirTravelFrequency: "never"}.Features()
	assert.Equal(t, "None", f["Vehicle Type"], "vehicle type only applies to private transport")
	assert.Equal(t, 10.0, f["Vehicle Monthly Distance Km"])

	s := ShoppingInput{WasteBagSize: "small", Recycling: []string{"Paper", "Paper", "Glass"}}.Features()
	assert.Equal(t, []string{"Paper", "Glass"}, s["Recycling"])

	d := FoodDietInput{Diet: "omnivore", MonthlyGroceryBill: 250}.Features()
	assert.Equal(t, map[string]any{"Diet": "omnivore", "Monthly Grocery Bill": 250.0}, d)
}
