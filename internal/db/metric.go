package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Metric is a named, user-owned measurable quantity (e.g. Weight).
// CategoryID is optional; OriginalMetricID records lineage when a metric is
// derived from another one. Metrics are soft deleted; their settings and logs
// are removed by the service layer when the metric goes away.
type Metric struct {
	ID               string  `gorm:"type:uuid;primaryKey"`
	UserID           string  `gorm:"type:uuid;not null;index"`
	CategoryID       *string `gorm:"type:uuid"`
	OriginalMetricID *string `gorm:"type:uuid"`
	Name             string  `gorm:"not null"`
	Description      string
	DefaultUnit      string
	IsPublic         bool `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (m *Metric) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
