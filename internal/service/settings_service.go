package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vitalog/internal/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrSettingsNotFound is returned when no settings record matches the (id, metricId) pair
	ErrSettingsNotFound = errors.New("metric settings not found")
	// ErrSettingsInvalid is returned when a settings write violates a business rule
	ErrSettingsInvalid = errors.New("invalid metric settings")
)

const defaultAlertThreshold = 80

// MetricSettingsService owns the goal/time-frame/alert configuration of a
// metric. Every write path runs through the same normalize-then-validate
// sequence, so a record can never be persisted with a toggle off and its
// dependent fields still populated, or the other way around.
//
// A metric may carry any number of settings records; a second create adds a
// new record rather than replacing the first.
type MetricSettingsService struct {
	db *gorm.DB
}

// SettingsInput is the typed patch for create and update. Nil means "not
// supplied"; only supplied fields overwrite the existing record.
type SettingsInput struct {
	GoalEnabled      *bool
	GoalType         *string
	GoalValue        *float64
	TimeFrameEnabled *bool
	StartDate        *time.Time
	DeadlineDate     *time.Time
	AlertEnabled     *bool
	AlertThresholds  *int
	IsActive         *bool
	DisplayOptions   *db.DisplayOptions
}

// NewMetricSettingsService constructs a MetricSettingsService.
func NewMetricSettingsService(gdb *gorm.DB) *MetricSettingsService {
	return &MetricSettingsService{db: gdb}
}

// Create adds a settings record under the metric, filling server defaults for
// everything the input leaves out.
func (s *MetricSettingsService) Create(metricID string, input SettingsInput) (*db.MetricSettings, error) {
	if err := s.requireMetric(metricID); err != nil {
		return nil, err
	}

	threshold := defaultAlertThreshold
	settings := db.MetricSettings{
		MetricID:        metricID,
		AlertThresholds: &threshold,
		IsAchieved:      false,
		IsActive:        true,
		DisplayOptions:  datatypes.NewJSONType(db.DefaultDisplayOptions()),
	}

	applySettingsInput(&settings, input)
	normalizeSettings(&settings)
	if err := validateSettings(&settings); err != nil {
		return nil, err
	}

	if err := s.db.Create(&settings).Error; err != nil {
		return nil, fmt.Errorf("create settings: %w", err)
	}
	return &settings, nil
}

// List returns all settings records under the metric, newest first. An
// unknown or empty metric yields an empty slice, not an error.
func (s *MetricSettingsService) List(metricID string) ([]db.MetricSettings, error) {
	var settings []db.MetricSettings
	if err := s.db.Where("metric_id = ?", metricID).
		Order("created_at DESC").
		Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// Get returns the settings record matching the (id, metricId) pair.
func (s *MetricSettingsService) Get(metricID, settingsID string) (*db.MetricSettings, error) {
	var settings db.MetricSettings
	if err := s.db.Where("id = ? AND metric_id = ?", settingsID, metricID).
		First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

// Update merges the supplied fields onto the record, then re-runs
// normalization and validation before persisting.
func (s *MetricSettingsService) Update(metricID, settingsID string, input SettingsInput) (*db.MetricSettings, error) {
	settings, err := s.Get(metricID, settingsID)
	if err != nil {
		return nil, err
	}

	applySettingsInput(settings, input)
	normalizeSettings(settings)
	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	if err := s.save(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Achieve marks the goal as reached. The call is idempotent and does not
// evaluate logged values against the goal; that computation belongs to the
// caller.
func (s *MetricSettingsService) Achieve(metricID, settingsID string) (*db.MetricSettings, error) {
	settings, err := s.Get(metricID, settingsID)
	if err != nil {
		return nil, err
	}

	settings.IsAchieved = true
	normalizeSettings(settings)

	if err := s.save(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateDisplay replaces the display options wholesale; partial structs are
// rejected at the handler, so every field arrives populated.
func (s *MetricSettingsService) UpdateDisplay(metricID, settingsID string, options db.DisplayOptions) (*db.MetricSettings, error) {
	settings, err := s.Get(metricID, settingsID)
	if err != nil {
		return nil, err
	}

	settings.DisplayOptions = datatypes.NewJSONType(options)
	normalizeSettings(settings)
	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	if err := s.save(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Delete removes the settings record for good and returns it.
func (s *MetricSettingsService) Delete(metricID, settingsID string) (*db.MetricSettings, error) {
	settings, err := s.Get(metricID, settingsID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Delete(settings).Error; err != nil {
		return nil, fmt.Errorf("delete settings: %w", err)
	}
	return settings, nil
}

func (s *MetricSettingsService) save(settings *db.MetricSettings) error {
	// Save writes every column, so fields cleared to nil by normalization
	// actually reach the database as NULL.
	if err := s.db.Save(settings).Error; err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *MetricSettingsService) requireMetric(metricID string) error {
	var count int64
	if err := s.db.Model(&db.Metric{}).Where("id = ?", metricID).Count(&count).Error; err != nil {
		return fmt.Errorf("check metric: %w", err)
	}
	if count == 0 {
		return ErrMetricNotFound
	}
	return nil
}

func applySettingsInput(settings *db.MetricSettings, input SettingsInput) {
	if input.GoalEnabled != nil {
		settings.GoalEnabled = *input.GoalEnabled
	}
	if input.GoalType != nil {
		goalType := strings.ToLower(strings.TrimSpace(*input.GoalType))
		settings.GoalType = &goalType
	}
	if input.GoalValue != nil {
		value := *input.GoalValue
		settings.GoalValue = &value
	}
	if input.TimeFrameEnabled != nil {
		settings.TimeFrameEnabled = *input.TimeFrameEnabled
	}
	if input.StartDate != nil {
		start := *input.StartDate
		settings.StartDate = &start
	}
	if input.DeadlineDate != nil {
		deadline := *input.DeadlineDate
		settings.DeadlineDate = &deadline
	}
	if input.AlertEnabled != nil {
		settings.AlertEnabled = *input.AlertEnabled
	}
	if input.AlertThresholds != nil {
		threshold := *input.AlertThresholds
		settings.AlertThresholds = &threshold
	}
	if input.IsActive != nil {
		settings.IsActive = *input.IsActive
	}
	if input.DisplayOptions != nil {
		settings.DisplayOptions = datatypes.NewJSONType(*input.DisplayOptions)
	}
}

// normalizeSettings clears every field whose master toggle is off. Running it
// before each persist keeps direct updates and the achievement/display
// sub-operations from leaving a contradictory record behind.
func normalizeSettings(settings *db.MetricSettings) {
	if !settings.GoalEnabled {
		settings.GoalType = nil
		settings.GoalValue = nil
		settings.StartDate = nil
		settings.DeadlineDate = nil
	}
	if !settings.TimeFrameEnabled {
		settings.StartDate = nil
		settings.DeadlineDate = nil
	}
	if !settings.AlertEnabled {
		settings.AlertThresholds = nil
	}
}

func validateSettings(settings *db.MetricSettings) error {
	if settings.GoalEnabled {
		if settings.GoalType == nil || settings.GoalValue == nil {
			return fmt.Errorf("%w: goalType and goalValue are required when the goal is enabled", ErrSettingsInvalid)
		}
		if *settings.GoalType != db.GoalTypeCumulative && *settings.GoalType != db.GoalTypeIncremental {
			return fmt.Errorf("%w: unsupported goal type %s", ErrSettingsInvalid, *settings.GoalType)
		}
		if *settings.GoalValue <= 0 {
			return fmt.Errorf("%w: goal value must be greater than 0", ErrSettingsInvalid)
		}
	}

	if settings.TimeFrameEnabled {
		if settings.StartDate == nil || settings.DeadlineDate == nil {
			return fmt.Errorf("%w: startDate and deadlineDate are required when the time frame is enabled", ErrSettingsInvalid)
		}
		if !settings.DeadlineDate.After(*settings.StartDate) {
			return fmt.Errorf("%w: deadline date must be after the start date", ErrSettingsInvalid)
		}
	}

	if settings.AlertThresholds != nil {
		if *settings.AlertThresholds < 0 || *settings.AlertThresholds > 100 {
			return fmt.Errorf("%w: alert threshold must be between 0 and 100", ErrSettingsInvalid)
		}
	}

	options := settings.DisplayOptions.Data()
	if options.Priority < 1 || options.Priority > 5 {
		return fmt.Errorf("%w: display priority must be between 1 and 5", ErrSettingsInvalid)
	}

	return nil
}
