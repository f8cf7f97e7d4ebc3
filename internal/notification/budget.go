package notification

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Dispatcher accepts budget alert jobs.
type Dispatcher interface {
	Dispatch(job Job) bool
}

// BudgetAlerts dispatches at most one alert per user and UTC day, the first
// time the day's total goes over the budget.
type BudgetAlerts struct {
	dispatcher Dispatcher
	budgetKg   float64
	sent       *cache.Cache
}

// NewBudgetAlerts creates an alerter. A nil dispatcher or a non-positive
// budget disables alerts.
func NewBudgetAlerts(dispatcher Dispatcher, budgetKg float64) *BudgetAlerts {
	return &BudgetAlerts{
		dispatcher: dispatcher,
		budgetKg:   budgetKg,
		sent:       cache.New(48*time.Hour, time.Hour),
	}
}

// Observe is called with the user's total for day after each new entry. It
// reports whether an alert was dispatched.
func (b *BudgetAlerts) Observe(userID string, day time.Time, totalKg float64) bool {
	if b == nil || b.dispatcher == nil || b.budgetKg <= 0 || totalKg <= b.budgetKg {
		return false
	}
	key := userID + "|" + day.UTC().Format(time.DateOnly)
	if err := b.sent.Add(key, struct{}{}, cache.DefaultExpiration); err != nil {
		return false
	}
	if !b.dispatcher.Dispatch(Job{UserID: userID, Day: day, TotalKg: totalKg, BudgetKg: b.budgetKg}) {
		b.sent.Delete(key)
		return false
	}
	return true
}
