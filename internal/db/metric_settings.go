package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Goal type values accepted by MetricSettings.
const (
	GoalTypeCumulative  = "cumulative"
	GoalTypeIncremental = "incremental"
)

// DisplayOptions controls how a metric is rendered on the dashboard.
type DisplayOptions struct {
	ShowOnDashboard bool   `json:"showOnDashboard"`
	Priority        int    `json:"priority"`
	ChartType       string `json:"chartType"`
	Color           string `json:"color"`
}

// DefaultDisplayOptions returns the display defaults applied when a settings
// record is created without explicit options.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		ShowOnDashboard: true,
		Priority:        1,
		ChartType:       "line",
		Color:           "#E897A3",
	}
}

// MetricSettings is one goal/alert/display configuration record for a metric.
// The pointer fields are only meaningful while their master toggle is on;
// the service layer nils them out whenever the toggle is off. Settings are
// hard deleted, unlike metrics and categories.
type MetricSettings struct {
	ID               string `gorm:"type:uuid;primaryKey"`
	MetricID         string `gorm:"type:uuid;not null;index"`
	GoalEnabled      bool   `gorm:"not null;default:false"`
	GoalType         *string
	GoalValue        *float64
	TimeFrameEnabled bool `gorm:"not null;default:false"`
	StartDate        *time.Time
	DeadlineDate     *time.Time
	AlertEnabled     bool `gorm:"not null;default:false"`
	AlertThresholds  *int
	IsAchieved       bool `gorm:"not null;default:false"`
	IsActive         bool `gorm:"not null;default:true"`
	DisplayOptions   datatypes.JSONType[DisplayOptions]
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (s *MetricSettings) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
