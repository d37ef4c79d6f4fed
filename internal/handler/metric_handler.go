package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalog/internal/db"
	"github.com/vitalog/internal/service"
)

type metricPayload struct {
	CategoryID       *string `json:"categoryId"`
	OriginalMetricID *string `json:"originalMetricId"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	DefaultUnit      string  `json:"defaultUnit"`
	IsPublic         *bool   `json:"isPublic"`
}

// ListMetrics returns the caller's metrics with category and goal info.
func (a *API) ListMetrics(c *gin.Context) {
	summaries, err := a.metrics.List(currentUserID(c))
	if err != nil {
		a.log.Error("list metrics failed", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load metrics")
		return
	}

	items := make([]gin.H, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, gin.H{
			"id":           summary.ID,
			"name":         summary.Name,
			"defaultUnit":  summary.DefaultUnit,
			"isPublic":     summary.IsPublic,
			"categoryName": summary.CategoryName,
			"categoryIcon": summary.CategoryIcon,
			"goalType":     summary.GoalType,
		})
	}
	respondSuccess(c, http.StatusOK, gin.H{"metrics": items}, "")
}

// GetMetric returns the metric detail with category, settings and logs.
func (a *API) GetMetric(c *gin.Context) {
	detail, err := a.metrics.GetDetail(currentUserID(c), c.Param("metricId"))
	if err != nil {
		a.handleMetricError(c, err)
		return
	}

	settings := make([]gin.H, 0, len(detail.Settings))
	for _, record := range detail.Settings {
		settings = append(settings, settingsToPayload(record))
	}

	logs := make([]gin.H, 0, len(detail.Logs))
	for _, record := range detail.Logs {
		logs = append(logs, logToPayload(record))
	}

	payload := gin.H{
		"metric":   metricToPayload(detail.Metric),
		"settings": settings,
		"logs":     logs,
	}
	if detail.Category != nil {
		payload["category"] = categoryToPayload(*detail.Category)
	} else {
		payload["category"] = nil
	}

	respondSuccess(c, http.StatusOK, payload, "")
}

// CreateMetric adds a metric for the caller.
func (a *API) CreateMetric(c *gin.Context) {
	var payload metricPayload
	if !bindStrictJSON(c, &payload) {
		return
	}

	metric, err := a.metrics.Create(currentUserID(c), metricInputFromPayload(payload))
	if err != nil {
		a.handleMetricError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"metric": metricToPayload(*metric)}, "metric created successfully")
}

// UpdateMetric overwrites a metric's fields.
func (a *API) UpdateMetric(c *gin.Context) {
	var payload metricPayload
	if !bindStrictJSON(c, &payload) {
		return
	}

	metric, err := a.metrics.Update(currentUserID(c), c.Param("metricId"), metricInputFromPayload(payload))
	if err != nil {
		a.handleMetricError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"metric": metricToPayload(*metric)}, "metric updated successfully")
}

// DeleteMetric tombstones the metric and removes its settings and logs.
func (a *API) DeleteMetric(c *gin.Context) {
	if err := a.metrics.Delete(currentUserID(c), c.Param("metricId")); err != nil {
		a.handleMetricError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"deleted": true}, "metric deleted successfully")
}

func metricInputFromPayload(payload metricPayload) service.MetricInput {
	return service.MetricInput{
		CategoryID:       payload.CategoryID,
		OriginalMetricID: payload.OriginalMetricID,
		Name:             payload.Name,
		Description:      payload.Description,
		DefaultUnit:      payload.DefaultUnit,
		IsPublic:         payload.IsPublic,
	}
}

func (a *API) handleMetricError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMetricNotFound):
		respondError(c, http.StatusNotFound, "metric not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, http.StatusBadRequest, "category not found")
	case errors.Is(err, service.ErrMetricNameTaken):
		respondError(c, http.StatusBadRequest, "metric name already in use")
	case errors.Is(err, service.ErrMetricInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		a.log.Error("metric operation failed", "error", err)
		respondError(c, http.StatusInternalServerError, "metric operation failed")
	}
}

func metricToPayload(metric db.Metric) gin.H {
	return gin.H{
		"id":               metric.ID,
		"categoryId":       metric.CategoryID,
		"originalMetricId": metric.OriginalMetricID,
		"name":             metric.Name,
		"description":      metric.Description,
		"defaultUnit":      metric.DefaultUnit,
		"isPublic":         metric.IsPublic,
	}
}
