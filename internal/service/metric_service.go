package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vitalog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrMetricNotFound is returned when the referenced metric does not exist (or is deleted)
	ErrMetricNotFound = errors.New("metric not found")
	// ErrMetricForbidden is returned when the metric exists but belongs to another user and is not public
	ErrMetricForbidden = errors.New("metric access forbidden")
	// ErrMetricNameTaken is returned when the user already has a metric with the same name
	ErrMetricNameTaken = errors.New("metric name already in use")
	// ErrMetricInvalid is returned on structurally invalid metric input
	ErrMetricInvalid = errors.New("invalid metric input")
)

// MetricService owns CRUD for user metrics, including the cross-entity
// reference checks the database constraints alone cannot report as domain
// errors.
type MetricService struct {
	db *gorm.DB
}

// MetricInput defines the configurable fields of a metric.
type MetricInput struct {
	CategoryID       *string
	OriginalMetricID *string
	Name             string
	Description      string
	DefaultUnit      string
	IsPublic         *bool
}

// MetricSummary is the list projection: the metric joined with its category
// and the goal type of its most recent settings record.
type MetricSummary struct {
	ID           string
	Name         string
	DefaultUnit  string
	IsPublic     bool
	CategoryName *string
	CategoryIcon *string
	GoalType     *string
}

// MetricDetail is the single-metric projection with all owned records.
type MetricDetail struct {
	Metric   db.Metric
	Category *db.MetricCategory
	Settings []db.MetricSettings
	Logs     []db.MetricLog
}

// NewMetricService constructs a MetricService.
func NewMetricService(gdb *gorm.DB) *MetricService {
	return &MetricService{db: gdb}
}

// Create adds a metric for the user after validating every reference it
// carries.
func (s *MetricService) Create(userID string, input MetricInput) (*db.Metric, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrMetricInvalid)
	}

	if err := s.ensureNameFree(userID, name, ""); err != nil {
		return nil, err
	}
	if err := s.validateReferences(userID, input); err != nil {
		return nil, err
	}

	metric := db.Metric{
		UserID:           userID,
		CategoryID:       input.CategoryID,
		OriginalMetricID: input.OriginalMetricID,
		Name:             name,
		Description:      strings.TrimSpace(input.Description),
		DefaultUnit:      strings.TrimSpace(input.DefaultUnit),
	}
	if input.IsPublic != nil {
		metric.IsPublic = *input.IsPublic
	}

	if err := s.db.Create(&metric).Error; err != nil {
		return nil, fmt.Errorf("create metric: %w", err)
	}
	return &metric, nil
}

// Get returns a metric scoped to its owner.
func (s *MetricService) Get(userID, id string) (*db.Metric, error) {
	var metric db.Metric
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&metric).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMetricNotFound
		}
		return nil, fmt.Errorf("get metric: %w", err)
	}
	return &metric, nil
}

// Find returns a metric by id regardless of owner, for the paths that
// distinguish "not found" from "forbidden".
func (s *MetricService) Find(id string) (*db.Metric, error) {
	var metric db.Metric
	if err := s.db.Where("id = ?", id).First(&metric).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMetricNotFound
		}
		return nil, fmt.Errorf("find metric: %w", err)
	}
	return &metric, nil
}

// List returns the user's metrics with category and goal information for the
// overview screen.
func (s *MetricService) List(userID string) ([]MetricSummary, error) {
	var metrics []db.Metric
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&metrics).Error; err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}

	summaries := make([]MetricSummary, 0, len(metrics))
	for _, metric := range metrics {
		summary := MetricSummary{
			ID:          metric.ID,
			Name:        metric.Name,
			DefaultUnit: metric.DefaultUnit,
			IsPublic:    metric.IsPublic,
		}

		if metric.CategoryID != nil {
			var category db.MetricCategory
			if err := s.db.Where("id = ?", *metric.CategoryID).First(&category).Error; err == nil {
				summary.CategoryName = &category.Name
				summary.CategoryIcon = &category.Icon
			}
		}

		var settings db.MetricSettings
		err := s.db.Where("metric_id = ?", metric.ID).
			Order("created_at DESC").
			First(&settings).Error
		if err == nil {
			summary.GoalType = settings.GoalType
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// GetDetail returns the metric with its category, settings records and logs
// (newest first).
func (s *MetricService) GetDetail(userID, id string) (*MetricDetail, error) {
	metric, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	detail := MetricDetail{Metric: *metric}

	if metric.CategoryID != nil {
		var category db.MetricCategory
		if err := s.db.Where("id = ?", *metric.CategoryID).First(&category).Error; err == nil {
			detail.Category = &category
		}
	}

	if err := s.db.Where("metric_id = ?", metric.ID).
		Order("created_at DESC").
		Find(&detail.Settings).Error; err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if err := s.db.Where("metric_id = ?", metric.ID).
		Order("logged_at DESC").
		Find(&detail.Logs).Error; err != nil {
		return nil, fmt.Errorf("load logs: %w", err)
	}

	return &detail, nil
}

// Update overwrites the metric's configurable fields.
func (s *MetricService) Update(userID, id string, input MetricInput) (*db.Metric, error) {
	metric, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrMetricInvalid)
	}
	if err := s.ensureNameFree(userID, name, metric.ID); err != nil {
		return nil, err
	}
	if err := s.validateReferences(userID, input); err != nil {
		return nil, err
	}

	metric.CategoryID = input.CategoryID
	metric.OriginalMetricID = input.OriginalMetricID
	metric.Name = name
	metric.Description = strings.TrimSpace(input.Description)
	metric.DefaultUnit = strings.TrimSpace(input.DefaultUnit)
	if input.IsPublic != nil {
		metric.IsPublic = *input.IsPublic
	}

	if err := s.db.Save(metric).Error; err != nil {
		return nil, fmt.Errorf("update metric: %w", err)
	}
	return metric, nil
}

// Delete tombstones the metric and removes its settings and logs. Settings
// and logs have no soft-delete marker, so they go away for good.
func (s *MetricService) Delete(userID, id string) error {
	metric, err := s.Get(userID, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("metric_id = ?", metric.ID).Delete(&db.MetricSettings{}).Error; err != nil {
			return fmt.Errorf("delete settings: %w", err)
		}
		if err := tx.Where("metric_id = ?", metric.ID).Delete(&db.MetricLog{}).Error; err != nil {
			return fmt.Errorf("delete logs: %w", err)
		}
		if err := tx.Delete(metric).Error; err != nil {
			return fmt.Errorf("delete metric: %w", err)
		}
		return nil
	})
}

func (s *MetricService) ensureNameFree(userID, name, excludeID string) error {
	query := s.db.Model(&db.Metric{}).Where("user_id = ? AND name = ?", userID, name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check metric name: %w", err)
	}
	if count > 0 {
		return ErrMetricNameTaken
	}
	return nil
}

func (s *MetricService) validateReferences(userID string, input MetricInput) error {
	if input.CategoryID != nil {
		var count int64
		if err := s.db.Model(&db.MetricCategory{}).
			Where("id = ? AND user_id = ?", *input.CategoryID, userID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if count == 0 {
			return ErrCategoryNotFound
		}
	}

	if input.OriginalMetricID != nil {
		var count int64
		if err := s.db.Model(&db.Metric{}).
			Where("id = ?", *input.OriginalMetricID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check original metric: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("%w: original metric does not exist", ErrMetricInvalid)
		}
	}

	return nil
}
