package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"carboncue-backend/internal/engine"
	"carboncue-backend/internal/model"
	"carboncue-backend/internal/mw"
	"carboncue-backend/internal/store"
)

type submitActivityRequest struct {
	ActivityType string          `json:"activityType" binding:"required"`
	Input        json.RawMessage `json:"input"`
	Notes        string          `json:"notes" binding:"max=512"`
	Date         *time.Time      `json:"date" binding:"omitempty,notfuture"`
}

type activityResponse struct {
	ID           string          `json:"id"`
	ActivityType string          `json:"activityType"`
	Input        json.RawMessage `json:"input"`
	Prediction   float64         `json:"prediction"`
	Notes        string          `json:"notes,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

func newActivityResponse(l model.ActivityLog) activityResponse {
	return activityResponse{
		ID:           l.ID,
		ActivityType: l.ActivityType,
		Input:        json.RawMessage(l.Details),
		Prediction:   l.PredictedEmissionKg,
		Notes:        l.Notes,
		Timestamp:    l.Timestamp.UTC(),
	}
}

// SubmitActivity validates an activity, predicts its emission and logs it.
// Nothing is stored when validation or prediction fails.
func (h *Handler) SubmitActivity(c *gin.Context) {
	var req submitActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	activity, kg, err := h.estimator.PredictRaw(ctx, req.ActivityType, req.Input)
	if err != nil {
		respondError(c, err)
		return
	}

	details, err := json.Marshal(activity)
	if err != nil {
		respondError(c, err)
		return
	}

	now := h.now().UTC()
	ts := now
	if req.Date != nil {
		ts = req.Date.UTC()
	}

	userID := mw.UserID(c)
	entry := &model.ActivityLog{
		UserID:              userID,
		ActivityType:        string(activity.Type()),
		Details:             datatypes.JSON(details),
		PredictedEmissionKg: kg,
		Notes:               req.Notes,
		Timestamp:           ts,
	}
	if err := h.store.CreateActivityLog(ctx, entry); err != nil {
		respondError(c, err)
		return
	}

	if sameDay(ts, now) {
		h.checkBudget(c, userID, now)
	}
	c.JSON(http.StatusCreated, newActivityResponse(*entry))
}

// checkBudget raises a budget alert when today's total is over the limit.
// Failures are logged; the submission has already succeeded.
func (h *Handler) checkBudget(c *gin.Context, userID string, now time.Time) {
	if h.alerts == nil {
		return
	}
	start, end := engine.DayWindow(now)
	logs, err := h.store.ListActivityLogs(c.Request.Context(), userID, start, end)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("could not total today's emissions")
		return
	}
	h.alerts.Observe(userID, now, engine.DailyTotal(store.LoggedEmissions(logs), now))
}

// ListActivities returns the user's most recent entries, newest first.
func (h *Handler) ListActivities(c *gin.Context) {
	limit := store.DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			respondError(c, &engine.ValidationError{Message: "limit must be an integer between 1 and 500."})
			return
		}
		limit = n
	}

	logs, err := h.store.ListRecentActivityLogs(c.Request.Context(), mw.UserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]activityResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, newActivityResponse(l))
	}
	c.JSON(http.StatusOK, out)
}

// GetDailyCategories returns per-category totals for one UTC day,
// today unless ?date=YYYY-MM-DD is given.
func (h *Handler) GetDailyCategories(c *gin.Context) {
	day := h.now().UTC()
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			respondError(c, &engine.ValidationError{Message: "date must be formatted as YYYY-MM-DD."})
			return
		}
		day = d
	}

	start, end := engine.DayWindow(day)
	logs, err := h.store.ListActivityLogs(c.Request.Context(), mw.UserID(c), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, engine.DailyCategoryTotals(store.LoggedEmissions(logs), day))
}

// GetYearlyTrends returns monthly totals for one UTC year, this year unless
// ?year= is given. Months without entries are omitted.
func (h *Handler) GetYearlyTrends(c *gin.Context) {
	year := h.now().UTC().Year()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1970 || y > 9999 {
			respondError(c, &engine.ValidationError{Message: "year must be a four digit year."})
			return
		}
		year = y
	}

	start, end := engine.YearWindow(year)
	logs, err := h.store.ListActivityLogs(c.Request.Context(), mw.UserID(c), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, engine.YearlyMonthlyTotals(store.LoggedEmissions(logs), year))
}

func sameDay(a, b time.Time) bool {
	da, _ := engine.DayWindow(a)
	db, _ := engine.DayWindow(b)
	return da.Equal(db)
}
