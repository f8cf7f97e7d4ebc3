package store

import (
	"errors"

	"carboncue-backend/internal/engine"
	"carboncue-backend/internal/model"
)

// DefaultRecentLimit is the page size of ListRecentActivityLogs.
const DefaultRecentLimit = 50

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when signing up with a taken email.
	ErrDuplicateEmail = errors.New("email already registered")
)

// LoggedEmissions projects stored entries onto the fields trend views use.
func LoggedEmissions(logs []model.ActivityLog) []engine.LoggedEmission {
	out := make([]engine.LoggedEmission, 0, len(logs))
	for _, l := range logs {
		out = append(out, engine.LoggedEmission{
			ActivityType: engine.ActivityType(l.ActivityType),
			PredictedKg:  l.PredictedEmissionKg,
			Timestamp:    l.Timestamp,
		})
	}
	return out
}
