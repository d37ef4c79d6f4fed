package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vitalog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrLogNotFound is returned when no log matches the (id, metricId) pair
	ErrLogNotFound = errors.New("metric log not found")
	// ErrLogInvalid is returned when a log write or query violates a business rule
	ErrLogInvalid = errors.New("invalid metric log")
	// ErrDuplicateTimestamp is returned when a log already exists for the exact same instant
	ErrDuplicateTimestamp = errors.New("a log entry already exists for this timestamp")
)

// trendWindow bounds the series returned by Trends.
const trendWindow = 30 * 24 * time.Hour

// MetricLogService owns the append-only observation stream of a metric:
// creation with duplicate-timestamp suppression, filtered and sorted
// retrieval, full-history aggregation and the bounded trend series.
type MetricLogService struct {
	db *gorm.DB
}

// LogInput carries the fields accepted when appending a log.
type LogInput struct {
	LogValue *float64
	Type     string
	LoggedAt *time.Time
}

// LogPatch carries the fields accepted when updating a log in place.
type LogPatch struct {
	LogValue *float64
	Type     *string
	LoggedAt *time.Time
}

// LogQuery narrows and orders a log listing. Absent bounds leave that side
// of the range open.
type LogQuery struct {
	StartDate *time.Time
	EndDate   *time.Time
	SortBy    string
	Order     string
}

// LogStats is the unweighted full-history aggregate over a metric's logs.
type LogStats struct {
	Average float64
	Min     float64
	Max     float64
}

// TrendPoint is one chartable observation.
type TrendPoint struct {
	Date  time.Time
	Value float64
}

// NewMetricLogService constructs a MetricLogService.
func NewMetricLogService(gdb *gorm.DB) *MetricLogService {
	return &MetricLogService{db: gdb}
}

// Create appends an observation to the metric. At most one log may exist per
// (metric, loggedAt) instant; a second write for the same instant is rejected
// instead of overwriting. The check-then-insert pair is not atomic, so two
// concurrent writers racing on the same instant can both land.
func (s *MetricLogService) Create(metricID string, input LogInput) (*db.MetricLog, error) {
	var count int64
	if err := s.db.Model(&db.Metric{}).Where("id = ?", metricID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check metric: %w", err)
	}
	if count == 0 {
		return nil, ErrMetricNotFound
	}

	if input.LogValue == nil {
		return nil, fmt.Errorf("%w: log value is required", ErrLogInvalid)
	}
	if *input.LogValue <= 0 {
		return nil, fmt.Errorf("%w: log value must be greater than 0", ErrLogInvalid)
	}

	logType, err := normalizeLogType(input.Type)
	if err != nil {
		return nil, err
	}

	loggedAt := time.Now()
	if input.LoggedAt != nil {
		loggedAt = *input.LoggedAt
	}

	if err := s.ensureInstantFree(metricID, loggedAt, ""); err != nil {
		return nil, err
	}

	record := db.MetricLog{
		MetricID: metricID,
		LogValue: *input.LogValue,
		Type:     logType,
		LoggedAt: loggedAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("create log: %w", err)
	}
	return &record, nil
}

// List returns the metric's logs restricted to the inclusive
// [startDate, endDate] range and ordered by the named field, newest first by
// default. An empty result is an empty slice.
func (s *MetricLogService) List(metricID string, query LogQuery) ([]db.MetricLog, error) {
	column, err := sortColumn(query.SortBy)
	if err != nil {
		return nil, err
	}

	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(query.Order), "asc") {
		direction = "ASC"
	}

	tx := s.db.Where("metric_id = ?", metricID)
	if query.StartDate != nil {
		tx = tx.Where("logged_at >= ?", *query.StartDate)
	}
	if query.EndDate != nil {
		tx = tx.Where("logged_at <= ?", *query.EndDate)
	}

	var logs []db.MetricLog
	if err := tx.Order(fmt.Sprintf("%s %s", column, direction)).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return logs, nil
}

// Get returns a single log after the two-layer ownership check: a missing
// metric and a missing log are both not-found, but a metric that exists and
// belongs to someone else (and is not public) is forbidden, so the caller can
// tell the two apart.
func (s *MetricLogService) Get(userID, metricID, logID string) (*db.MetricLog, error) {
	if err := s.authorizeRead(userID, metricID); err != nil {
		return nil, err
	}

	var record db.MetricLog
	if err := s.db.Where("id = ? AND metric_id = ?", logID, metricID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("get log: %w", err)
	}
	return &record, nil
}

// Update applies the supplied fields to the log. A changed loggedAt re-runs
// the duplicate check against the metric's other logs.
func (s *MetricLogService) Update(metricID, logID string, patch LogPatch) (*db.MetricLog, error) {
	var record db.MetricLog
	if err := s.db.Where("id = ? AND metric_id = ?", logID, metricID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("find log: %w", err)
	}

	if patch.LogValue != nil {
		if *patch.LogValue <= 0 {
			return nil, fmt.Errorf("%w: log value must be greater than 0", ErrLogInvalid)
		}
		record.LogValue = *patch.LogValue
	}
	if patch.Type != nil {
		logType, err := normalizeLogType(*patch.Type)
		if err != nil {
			return nil, err
		}
		record.Type = logType
	}
	if patch.LoggedAt != nil && !patch.LoggedAt.Equal(record.LoggedAt) {
		if err := s.ensureInstantFree(metricID, *patch.LoggedAt, record.ID); err != nil {
			return nil, err
		}
		record.LoggedAt = *patch.LoggedAt
	}

	if err := s.db.Save(&record).Error; err != nil {
		return nil, fmt.Errorf("update log: %w", err)
	}
	return &record, nil
}

// Delete removes the log for good.
func (s *MetricLogService) Delete(metricID, logID string) error {
	var record db.MetricLog
	if err := s.db.Where("id = ? AND metric_id = ?", logID, metricID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLogNotFound
		}
		return fmt.Errorf("find log: %w", err)
	}

	if err := s.db.Delete(&record).Error; err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	return nil
}

// Stats returns the arithmetic mean and extrema over every log of the metric.
// A metric without logs yields all zeroes rather than an error.
func (s *MetricLogService) Stats(userID, metricID string) (*LogStats, error) {
	if err := s.authorizeRead(userID, metricID); err != nil {
		return nil, err
	}

	var values []float64
	if err := s.db.Model(&db.MetricLog{}).
		Where("metric_id = ?", metricID).
		Pluck("log_value", &values).Error; err != nil {
		return nil, fmt.Errorf("load log values: %w", err)
	}

	stats := &LogStats{}
	if len(values) == 0 {
		return stats, nil
	}

	stats.Min = values[0]
	stats.Max = values[0]
	var sum float64
	for _, value := range values {
		sum += value
		if value < stats.Min {
			stats.Min = value
		}
		if value > stats.Max {
			stats.Max = value
		}
	}
	stats.Average = sum / float64(len(values))

	return stats, nil
}

// Trends projects the last 30 days of logs into {date, value} points,
// oldest first, for chart rendering. Days without logs stay absent; there is
// no interpolation.
func (s *MetricLogService) Trends(userID, metricID string) ([]TrendPoint, error) {
	var metric db.Metric
	if err := s.db.Where("id = ? AND user_id = ?", metricID, userID).First(&metric).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMetricNotFound
		}
		return nil, fmt.Errorf("find metric: %w", err)
	}

	now := time.Now()
	var logs []db.MetricLog
	if err := s.db.Where("metric_id = ? AND logged_at >= ? AND logged_at <= ?",
		metricID, now.Add(-trendWindow), now).
		Order("logged_at ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list trend logs: %w", err)
	}

	points := make([]TrendPoint, 0, len(logs))
	for _, record := range logs {
		points = append(points, TrendPoint{Date: record.LoggedAt, Value: record.LogValue})
	}
	return points, nil
}

func (s *MetricLogService) authorizeRead(userID, metricID string) error {
	var metric db.Metric
	if err := s.db.Where("id = ?", metricID).First(&metric).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMetricNotFound
		}
		return fmt.Errorf("find metric: %w", err)
	}

	if metric.UserID != userID && !metric.IsPublic {
		return ErrMetricForbidden
	}
	return nil
}

func (s *MetricLogService) ensureInstantFree(metricID string, loggedAt time.Time, excludeID string) error {
	query := s.db.Model(&db.MetricLog{}).Where("metric_id = ? AND logged_at = ?", metricID, loggedAt)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check log timestamp: %w", err)
	}
	if count > 0 {
		return ErrDuplicateTimestamp
	}
	return nil
}

func normalizeLogType(value string) (string, error) {
	logType := strings.ToLower(strings.TrimSpace(value))
	switch logType {
	case "":
		return db.LogTypeManual, nil
	case db.LogTypeManual, db.LogTypeAutomatic:
		return logType, nil
	default:
		return "", fmt.Errorf("%w: unsupported log type %s", ErrLogInvalid, value)
	}
}

func sortColumn(sortBy string) (string, error) {
	switch strings.TrimSpace(sortBy) {
	case "", "loggedAt", "logged_at":
		return "logged_at", nil
	case "logValue", "log_value":
		return "log_value", nil
	case "createdAt", "created_at":
		return "created_at", nil
	default:
		return "", fmt.Errorf("%w: unsupported sort field %s", ErrLogInvalid, sortBy)
	}
}
