package engine

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// ActivityType is the closed set of lifestyle categories.
type ActivityType string

const (
	Transportation ActivityType = "transportation"
	HomeEnergy     ActivityType = "home_energy"
	DigitalUsage   ActivityType = "digital_usage"
	Shopping       ActivityType = "shopping"
	FoodDiet       ActivityType = "food_diet"
)

// ActivityTypes lists every supported category.
var ActivityTypes = []ActivityType{Transportation, HomeEnergy, DigitalUsage, Shopping, FoodDiet}

// ParseActivityType maps a raw string onto the closed set.
func ParseActivityType(s string) (ActivityType, error) {
	for _, t := range ActivityTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", &UnsupportedCategoryError{Value: s}
}

// Activity is a validated-on-demand payload of one category.
type Activity interface {
	Type() ActivityType
	Validate() error
	// Features renders the payload with the prediction model's feature names.
	Features() map[string]any
}

// TransportationInput describes monthly travel.
type TransportationInput struct {
	Transport                string  `json:"transport"`
	VehicleType              string  `json:"vehicleType"`
	VehicleMonthlyDistanceKm float64 `json:"vehicleMonthlyDistanceKm"`
	AirTravelFrequency       string  `json:"airTravelFrequency"`
}

// HomeEnergyInput describes household energy use.
type HomeEnergyInput struct {
	HeatingEnergySource string  `json:"heatingEnergySource"`
	EnergyEfficiency    string  `json:"energyEfficiency"`
	TVPCDailyHours      float64 `json:"tvPcDailyHours"`
}

// DigitalUsageInput describes internet use.
type DigitalUsageInput struct {
	InternetDailyHours float64 `json:"internetDailyHours"`
}

// ShoppingInput describes consumption and waste.
type ShoppingInput struct {
	NewClothesMonthly   float64  `json:"newClothesMonthly"`
	WasteBagSize        string   `json:"wasteBagSize"`
	WasteBagWeeklyCount float64  `json:"wasteBagWeeklyCount"`
	Recycling           []string `json:"recycling"`
}

// FoodDietInput describes diet and grocery spend.
type FoodDietInput struct {
	Diet               string  `json:"diet"`
	MonthlyGroceryBill float64 `json:"monthlyGroceryBill"`
}

var (
	transportModes   = []string{"public", "private", "walk/bicycle"}
	vehicleTypes     = []string{"petrol", "diesel", "hybrid", "lpg", "electric"}
	airFrequencies   = []string{"never", "rarely", "frequently", "very frequently"}
	heatingSources   = []string{"coal", "natural gas", "wood", "electricity"}
	efficiencyLevels = []string{"Yes", "No", "Sometimes"}
	wasteBagSizes    = []string{"small", "medium", "large", "extra large"}
	recyclables      = []string{"Paper", "Plastic", "Glass", "Metal"}
	diets            = []string{"omnivore", "pescatarian", "vegetarian", "vegan"}
)

func (TransportationInput) Type() ActivityType { return Transportation }
func (HomeEnergyInput) Type() ActivityType     { return HomeEnergy }
func (DigitalUsageInput) Type() ActivityType   { return DigitalUsage }
func (ShoppingInput) Type() ActivityType       { return Shopping }
func (FoodDietInput) Type() ActivityType       { return FoodDiet }

func (in TransportationInput) Validate() error {
	if err := choice("transport", in.Transport, transportModes); err != nil {
		return err
	}
	if in.Transport == "private" {
		if err := choice("vehicleType", in.VehicleType, vehicleTypes); err != nil {
			return err
		}
	} else if in.VehicleType != "" && !isNone(in.VehicleType) {
		if err := choice("vehicleType", in.VehicleType, vehicleTypes); err != nil {
			return err
		}
	}
	if err := nonNegative("vehicleMonthlyDistanceKm", in.VehicleMonthlyDistanceKm); err != nil {
		return err
	}
	return choice("airTravelFrequency", in.AirTravelFrequency, airFrequencies)
}

func (in TransportationInput) Features() map[string]any {
	vehicle := in.VehicleType
	if in.Transport != "private" {
		vehicle = "None"
	}
	return map[string]any{
		"Transport":                     in.Transport,
		"Vehicle Type":                  vehicle,
		"Vehicle Monthly Distance Km":   in.VehicleMonthlyDistanceKm,
		"Frequency of Traveling by Air": in.AirTravelFrequency,
	}
}

func (in HomeEnergyInput) Validate() error {
	if err := choice("heatingEnergySource", in.HeatingEnergySource, heatingSources); err != nil {
		return err
	}
	if err := choice("energyEfficiency", in.EnergyEfficiency, efficiencyLevels); err != nil {
		return err
	}
	return nonNegative("tvPcDailyHours", in.TVPCDailyHours)
}

func (in HomeEnergyInput) Features() map[string]any {
	return map[string]any{
		"Heating Energy Source":     in.HeatingEnergySource,
		"Energy efficiency":         in.EnergyEfficiency,
		"How Long TV PC Daily Hour": in.TVPCDailyHours,
	}
}

func (in DigitalUsageInput) Validate() error {
	return nonNegative("internetDailyHours", in.InternetDailyHours)
}

func (in DigitalUsageInput) Features() map[string]any {
	return map[string]any{
		"How Long Internet Daily Hour": in.InternetDailyHours,
	}
}

func (in ShoppingInput) Validate() error {
	if err := nonNegative("newClothesMonthly", in.NewClothesMonthly); err != nil {
		return err
	}
	if err := choice("wasteBagSize", in.WasteBagSize, wasteBagSizes); err != nil {
		return err
	}
	if err := nonNegative("wasteBagWeeklyCount", in.WasteBagWeeklyCount); err != nil {
		return err
	}
	if len(in.Recycling) == 0 {
		return invalid("recycling: select at least one material")
	}
	for _, m := range in.Recycling {
		if err := choice("recycling", m, recyclables); err != nil {
			return err
		}
	}
	return nil
}

func (in ShoppingInput) Features() map[string]any {
	return map[string]any{
		"How Many New Clothes Monthly": in.NewClothesMonthly,
		"Waste Bag Size":               in.WasteBagSize,
		"Waste Bag Weekly Count":       in.WasteBagWeeklyCount,
		"Recycling":                    dedupe(in.Recycling),
	}
}

func (in FoodDietInput) Validate() error {
	if err := choice("diet", in.Diet, diets); err != nil {
		return err
	}
	return nonNegative("monthlyGroceryBill", in.MonthlyGroceryBill)
}

func (in FoodDietInput) Features() map[string]any {
	return map[string]any{
		"Diet":                 in.Diet,
		"Monthly Grocery Bill": in.MonthlyGroceryBill,
	}
}

// DecodeActivity parses raw into the typed payload of activityType. Unknown
// fields are rejected so a payload sent under the wrong category fails early.
func DecodeActivity(activityType string, raw json.RawMessage) (Activity, error) {
	t, err := ParseActivityType(activityType)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, invalid("input is required for %s", t)
	}

	switch t {
	case Transportation:
		return decodeAs[TransportationInput](t, raw)
	case HomeEnergy:
		return decodeAs[HomeEnergyInput](t, raw)
	case DigitalUsage:
		return decodeAs[DigitalUsageInput](t, raw)
	case Shopping:
		return decodeAs[ShoppingInput](t, raw)
	default:
		return decodeAs[FoodDietInput](t, raw)
	}
}

func decodeAs[T Activity](t ActivityType, raw json.RawMessage) (Activity, error) {
	var in T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return nil, invalid("invalid %s input: %v", t, err)
	}
	return in, nil
}

func choice(field, value string, allowed []string) error {
	if value == "" || isNone(value) {
		return invalid("%s: a valid choice is required", field)
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalid("%s: %q is not one of %s", field, value, strings.Join(allowed, ", "))
}

func isNone(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "none")
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalid("%s must be a non-negative number", field)
	}
	return nil
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}
