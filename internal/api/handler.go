package api

import (
	"context"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"carboncue-backend/internal/auth"
	"carboncue-backend/internal/engine"
	"carboncue-backend/internal/notification"
	"carboncue-backend/internal/scraper"
	"carboncue-backend/internal/store"
)

// WebsiteAnalyzer fetches a page and reports its weight and emissions.
type WebsiteAnalyzer interface {
	Analyze(ctx context.Context, url string) (*scraper.Analysis, error)
}

// Deps lists the collaborators of the API handlers.
type Deps struct {
	Store     store.Store
	AI        *engine.AICalculator
	Estimator *engine.Estimator
	Website   WebsiteAnalyzer
	Tokens    *auth.Tokens
	Alerts    *notification.BudgetAlerts
	WebPush   *webpush.Options
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	ai        *engine.AICalculator
	estimator *engine.Estimator
	website   WebsiteAnalyzer
	tokens    *auth.Tokens
	alerts    *notification.BudgetAlerts
	webpush   *webpush.Options
	now       func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:     d.Store,
		ai:        d.AI,
		estimator: d.Estimator,
		website:   d.Website,
		tokens:    d.Tokens,
		alerts:    d.Alerts,
		webpush:   d.WebPush,
		now:       time.Now,
	}
}
