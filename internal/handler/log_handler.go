package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vitalog/internal/db"
	"github.com/vitalog/internal/service"
)

type logPayload struct {
	LogValue *float64 `json:"logValue"`
	Type     *string  `json:"type"`
	LoggedAt *string  `json:"loggedAt"`
}

// CreateLog appends an observation to the metric.
func (a *API) CreateLog(c *gin.Context) {
	if !a.requireOwnedMetric(c, c.Param("metricId")) {
		return
	}

	var payload logPayload
	if !bindStrictJSON(c, &payload) {
		return
	}

	input := service.LogInput{LogValue: payload.LogValue}
	if payload.Type != nil {
		input.Type = *payload.Type
	}
	if payload.LoggedAt != nil {
		loggedAt, ok := parseTimestamp(*payload.LoggedAt)
		if !ok {
			respondError(c, http.StatusBadRequest, "invalid loggedAt")
			return
		}
		input.LoggedAt = loggedAt
	}

	record, err := a.logs.Create(c.Param("metricId"), input)
	if err != nil {
		a.handleLogError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"log": logToPayload(*record)}, "metric log created successfully")
}

// ListLogs returns the metric's logs, filtered and sorted per the query.
// The caller must own the metric or it must be public.
func (a *API) ListLogs(c *gin.Context) {
	metricID := c.Param("metricId")
	if !a.requireReadableMetric(c, metricID) {
		return
	}

	query := service.LogQuery{
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
	}

	if raw := c.Query("startDate"); raw != "" {
		start, ok := parseTimestamp(raw)
		if !ok {
			respondError(c, http.StatusBadRequest, "invalid startDate")
			return
		}
		query.StartDate = start
	}
	if raw := c.Query("endDate"); raw != "" {
		end, ok := parseTimestamp(raw)
		if !ok {
			respondError(c, http.StatusBadRequest, "invalid endDate")
			return
		}
		query.EndDate = end
	}

	logs, err := a.logs.List(metricID, query)
	if err != nil {
		a.handleLogError(c, err)
		return
	}

	items := make([]gin.H, 0, len(logs))
	for _, record := range logs {
		items = append(items, logToPayload(record))
	}
	respondSuccess(c, http.StatusOK, gin.H{"logs": items}, "")
}

// GetLog returns a single log after the two-layer ownership check.
func (a *API) GetLog(c *gin.Context) {
	record, err := a.logs.Get(currentUserID(c), c.Param("metricId"), c.Param("id"))
	if err != nil {
		a.handleLogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"log": logToPayload(*record)}, "")
}

// UpdateLog applies a partial update to a log entry.
func (a *API) UpdateLog(c *gin.Context) {
	if !a.requireOwnedMetric(c, c.Param("metricId")) {
		return
	}

	var payload logPayload
	if !bindStrictJSON(c, &payload) {
		return
	}

	patch := service.LogPatch{
		LogValue: payload.LogValue,
		Type:     payload.Type,
	}
	if payload.LoggedAt != nil {
		loggedAt, ok := parseTimestamp(*payload.LoggedAt)
		if !ok {
			respondError(c, http.StatusBadRequest, "invalid loggedAt")
			return
		}
		patch.LoggedAt = loggedAt
	}

	record, err := a.logs.Update(c.Param("metricId"), c.Param("id"), patch)
	if err != nil {
		a.handleLogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"log": logToPayload(*record)}, "log updated successfully")
}

// DeleteLog removes a log entry.
func (a *API) DeleteLog(c *gin.Context) {
	if !a.requireOwnedMetric(c, c.Param("metricId")) {
		return
	}

	if err := a.logs.Delete(c.Param("metricId"), c.Param("id")); err != nil {
		a.handleLogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"deleted": true}, "log deleted successfully")
}

// GetStats returns the full-history min/average/max for the metric.
func (a *API) GetStats(c *gin.Context) {
	stats, err := a.logs.Stats(currentUserID(c), c.Param("metricId"))
	if err != nil {
		a.handleLogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"average": stats.Average,
		"min":     stats.Min,
		"max":     stats.Max,
	}, "")
}

// GetTrends returns the 30-day {date, value} series for charting.
func (a *API) GetTrends(c *gin.Context) {
	points, err := a.logs.Trends(currentUserID(c), c.Param("metricId"))
	if err != nil {
		a.handleLogError(c, err)
		return
	}

	items := make([]gin.H, 0, len(points))
	for _, point := range points {
		items = append(items, gin.H{
			"date":  point.Date.Format(time.RFC3339),
			"value": point.Value,
		})
	}
	respondSuccess(c, http.StatusOK, gin.H{"trends": items}, "")
}

// requireReadableMetric resolves the metric and writes the 404/403 response
// itself when the caller may not read it. Public metrics are readable by
// anyone.
func (a *API) requireReadableMetric(c *gin.Context, metricID string) bool {
	metric, err := a.metrics.Find(metricID)
	if err != nil {
		if errors.Is(err, service.ErrMetricNotFound) {
			respondError(c, http.StatusNotFound, "metric not found")
		} else {
			a.log.Error("find metric failed", "error", err, "metric_id", metricID)
			respondError(c, http.StatusInternalServerError, "failed to load metric")
		}
		return false
	}

	if metric.UserID != currentUserID(c) && !metric.IsPublic {
		respondError(c, http.StatusForbidden, "you do not have access to this metric")
		return false
	}
	return true
}

// requireOwnedMetric is the stricter gate for write paths: only the owner may
// pass, public or not.
func (a *API) requireOwnedMetric(c *gin.Context, metricID string) bool {
	metric, err := a.metrics.Find(metricID)
	if err != nil {
		if errors.Is(err, service.ErrMetricNotFound) {
			respondError(c, http.StatusNotFound, "metric not found")
		} else {
			a.log.Error("find metric failed", "error", err, "metric_id", metricID)
			respondError(c, http.StatusInternalServerError, "failed to load metric")
		}
		return false
	}

	if metric.UserID != currentUserID(c) {
		respondError(c, http.StatusForbidden, "you do not have access to this metric")
		return false
	}
	return true
}

func (a *API) handleLogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMetricNotFound):
		respondError(c, http.StatusNotFound, "metric not found")
	case errors.Is(err, service.ErrMetricForbidden):
		respondError(c, http.StatusForbidden, "you do not have access to this metric")
	case errors.Is(err, service.ErrLogNotFound):
		respondError(c, http.StatusNotFound, "log not found")
	case errors.Is(err, service.ErrDuplicateTimestamp):
		respondError(c, http.StatusBadRequest, "a log entry already exists for this timestamp")
	case errors.Is(err, service.ErrLogInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		a.log.Error("log operation failed", "error", err)
		respondError(c, http.StatusInternalServerError, "log operation failed")
	}
}

func logToPayload(record db.MetricLog) gin.H {
	return gin.H{
		"id":       record.ID,
		"metricId": record.MetricID,
		"logValue": record.LogValue,
		"type":     record.Type,
		"loggedAt": record.LoggedAt.Format(time.RFC3339),
	}
}
