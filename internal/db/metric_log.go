package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Log type values accepted by MetricLog.
const (
	LogTypeManual    = "manual"
	LogTypeAutomatic = "automatic"
)

// MetricLog is one point-in-time observation of a metric's value.
// At most one log may exist per (MetricID, LoggedAt) instant; the service
// layer enforces this with a check before insert. No unique index backs the
// check, so concurrent writers racing on the same instant can both land.
type MetricLog struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	MetricID  string    `gorm:"type:uuid;not null;index"`
	LogValue  float64   `gorm:"not null"`
	Type      string    `gorm:"not null;default:'manual'"`
	LoggedAt  time.Time `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l *MetricLog) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
