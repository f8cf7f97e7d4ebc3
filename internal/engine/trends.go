package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LoggedEmission is the part of an activity log entry the trend views need.
type LoggedEmission struct {
	ActivityType ActivityType
	PredictedKg  float64
	Timestamp    time.Time
}

// CategoryTotal is the summed emission of one category.
type CategoryTotal struct {
	ActivityType   ActivityType `json:"activityType"`
	TotalEmissions float64      `json:"totalEmissions"`
}

// MonthlyTotal is the summed emission of one calendar month (1-12).
type MonthlyTotal struct {
	Month          int     `json:"month"`
	TotalEmissions float64 `json:"totalEmissions"`
}

// DayWindow returns the UTC calendar day containing t as [start, end).
func DayWindow(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// YearWindow returns the UTC calendar year as [start, end).
func YearWindow(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// DailyCategoryTotals sums entries within the UTC day of day, grouped by
// category and sorted ascending by total.
func DailyCategoryTotals(entries []LoggedEmission, day time.Time) []CategoryTotal {
	start, end := DayWindow(day)
	sums := make(map[ActivityType]decimal.Decimal)
	for _, e := range entries {
		if !within(e.Timestamp, start, end) {
			continue
		}
		sums[e.ActivityType] = sums[e.ActivityType].Add(decimal.NewFromFloat(e.PredictedKg))
	}

	totals := make([]CategoryTotal, 0, len(sums))
	for t, sum := range sums {
		totals = append(totals, CategoryTotal{ActivityType: t, TotalEmissions: sum.InexactFloat64()})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].TotalEmissions != totals[j].TotalEmissions {
			return totals[i].TotalEmissions < totals[j].TotalEmissions
		}
		return totals[i].ActivityType < totals[j].ActivityType
	})
	return totals
}

// DailyTotal sums every entry within the UTC day of day.
func DailyTotal(entries []LoggedEmission, day time.Time) float64 {
	start, end := DayWindow(day)
	sum := decimal.Zero
	for _, e := range entries {
		if within(e.Timestamp, start, end) {
			sum = sum.Add(decimal.NewFromFloat(e.PredictedKg))
		}
	}
	return sum.InexactFloat64()
}

// YearlyMonthlyTotals sums entries of the UTC year by month. Months without
// entries are absent.
func YearlyMonthlyTotals(entries []LoggedEmission, year int) []MonthlyTotal {
	start, end := YearWindow(year)
	sums := make(map[int]decimal.Decimal)
	for _, e := range entries {
		if !within(e.Timestamp, start, end) {
			continue
		}
		m := int(e.Timestamp.UTC().Month())
		sums[m] = sums[m].Add(decimal.NewFromFloat(e.PredictedKg))
	}

	totals := make([]MonthlyTotal, 0, len(sums))
	for m, sum := range sums {
		totals = append(totals, MonthlyTotal{Month: m, TotalEmissions: sum.InexactFloat64()})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Month < totals[j].Month })
	return totals
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
