package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog is one submitted activity and its predicted emission.
// Rows are written once and never updated.
type ActivityLog struct {
	ID                  string         `gorm:"primaryKey;size:36" json:"id"`
	UserID              string         `gorm:"size:36;not null;index:idx_activity_logs_user_time,priority:1" json:"userId"`
	ActivityType        string         `gorm:"size:32;not null" json:"activityType"`
	Details             datatypes.JSON `gorm:"not null" json:"details"`
	PredictedEmissionKg float64        `gorm:"not null" json:"predictedEmission"`
	Notes               string         `gorm:"size:512" json:"notes,omitempty"`
	Timestamp           time.Time      `gorm:"column:logged_at;not null;index:idx_activity_logs_user_time,priority:2" json:"timestamp"`
	CreatedAt           time.Time      `gorm:"not null" json:"-"`
}

// BeforeCreate assigns a random id and normalises the timestamp to UTC.
func (a *ActivityLog) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Timestamp = a.Timestamp.UTC()
	return nil
}
