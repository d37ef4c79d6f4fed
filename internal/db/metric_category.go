package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MetricCategory groups a user's metrics for display purposes.
// Name uniqueness per user is enforced by the service layer so the API can
// answer with a domain error instead of a raw constraint violation.
type MetricCategory struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	UserID    string `gorm:"type:uuid;not null;index"`
	Name      string `gorm:"not null"`
	Color     string `gorm:"not null;default:'#E897A3'"`
	Icon      string `gorm:"not null;default:'📊'"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (c *MetricCategory) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
