package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalog/internal/db"
	"github.com/vitalog/internal/service"
)

type displayOptionsPayload struct {
	ShowOnDashboard *bool   `json:"showOnDashboard"`
	Priority        *int    `json:"priority"`
	ChartType       *string `json:"chartType"`
	Color           *string `json:"color"`
}

type settingsPayload struct {
	GoalEnabled      *bool                  `json:"goalEnabled"`
	GoalType         *string                `json:"goalType"`
	GoalValue        *float64               `json:"goalValue"`
	TimeFrameEnabled *bool                  `json:"timeFrameEnabled"`
	StartDate        *string                `json:"startDate"`
	DeadlineDate     *string                `json:"deadlineDate"`
	AlertEnabled     *bool                  `json:"alertEnabled"`
	AlertThresholds  *int                   `json:"alertThresholds"`
	IsActive         *bool                  `json:"isActive"`
	DisplayOptions   *displayOptionsPayload `json:"displayOptions"`
}

// CreateSettings adds a settings record under the metric.
func (a *API) CreateSettings(c *gin.Context) {
	if !a.requireOwnedMetric(c, c.Param("metricId")) {
		return
	}

	input, ok := a.parseSettingsInput(c)
	if !ok {
		return
	}

	settings, err := a.settings.Create(c.Param("metricId"), input)
	if err != nil {
		a.handleSettingsError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"settings": settingsToPayload(*settings)}, "metric settings created successfully")
}

// ListSettings returns all settings records under the metric.
func (a *API) ListSettings(c *gin.Context) {
	if !a.requireOwnedMetric(c, c.Param("metricId")) {
		return
	}

	records, err := a.settings.List(c.Param("metricId"))
	if err != nil {
		a.handleSettingsError(c, err)
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, settingsToPayload(record))
	}
	respondSuccess(c, http.StatusOK, gin.H{"settings": items}, "")
}

// GetSettings returns a settings record by id.
func (a *API) GetSettings(c *gin.Context) {
	if !a.requireOwnedMetric(c, c.Param("metricId")) {
		return
	}

	settings, err := a.settings.Get(c.Param("metricId"), c.Param("id"))
	if err != nil {
		a.handleSettingsError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"settings": settingsToPayload(*settings)}, "")
}

// UpdateSettings merges the supplied fields and re-applies the invalidation
// rules before persisting.
func (a *API) UpdateSettings(c *gin.Context) {
	if !a.requireOwnedMetric(c, c.Param("metricId")) {
		return
	}

	input, ok := a.parseSettingsInput(c)
	if !ok {
		return
	}

	settings, err := a.settings.Update(c.Param("metricId"), c.Param("id"), input)
	if err != nil {
		a.handleSettingsError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"settings": settingsToPayload(*settings)}, "metric settings updated successfully")
}

// AchieveSettings marks the settings' goal as reached.
func (a *API) AchieveSettings(c *gin.Context) {
	if !a.requireOwnedMetric(c, c.Param("metricId")) {
		return
	}

	settings, err := a.settings.Achieve(c.Param("metricId"), c.Param("id"))
	if err != nil {
		a.handleSettingsError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"settings": settingsToPayload(*settings)}, "goal marked as achieved")
}

// UpdateDisplaySettings replaces the display options wholesale. Partial
// option structs are rejected.
func (a *API) UpdateDisplaySettings(c *gin.Context) {
	if !a.requireOwnedMetric(c, c.Param("metricId")) {
		return
	}

	var payload struct {
		DisplayOptions *displayOptionsPayload `json:"displayOptions"`
	}
	if !bindStrictJSON(c, &payload) {
		return
	}
	if payload.DisplayOptions == nil {
		respondError(c, http.StatusBadRequest, "displayOptions is required")
		return
	}

	options, ok := completeDisplayOptions(*payload.DisplayOptions)
	if !ok {
		respondError(c, http.StatusBadRequest, "displayOptions must include showOnDashboard, priority, chartType and color")
		return
	}

	settings, err := a.settings.UpdateDisplay(c.Param("metricId"), c.Param("id"), options)
	if err != nil {
		a.handleSettingsError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"settings": settingsToPayload(*settings)}, "display options updated successfully")
}

// DeleteSettings removes a settings record and returns it.
func (a *API) DeleteSettings(c *gin.Context) {
	if !a.requireOwnedMetric(c, c.Param("metricId")) {
		return
	}

	settings, err := a.settings.Delete(c.Param("metricId"), c.Param("id"))
	if err != nil {
		a.handleSettingsError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"settings": settingsToPayload(*settings)}, "metric settings deleted successfully")
}

func (a *API) parseSettingsInput(c *gin.Context) (service.SettingsInput, bool) {
	var payload settingsPayload
	if !bindStrictJSON(c, &payload) {
		return service.SettingsInput{}, false
	}

	input := service.SettingsInput{
		GoalEnabled:      payload.GoalEnabled,
		GoalType:         payload.GoalType,
		GoalValue:        payload.GoalValue,
		TimeFrameEnabled: payload.TimeFrameEnabled,
		AlertEnabled:     payload.AlertEnabled,
		AlertThresholds:  payload.AlertThresholds,
		IsActive:         payload.IsActive,
	}

	if payload.StartDate != nil {
		start, ok := parseTimestamp(*payload.StartDate)
		if !ok {
			respondError(c, http.StatusBadRequest, "invalid startDate")
			return service.SettingsInput{}, false
		}
		input.StartDate = start
	}
	if payload.DeadlineDate != nil {
		deadline, ok := parseTimestamp(*payload.DeadlineDate)
		if !ok {
			respondError(c, http.StatusBadRequest, "invalid deadlineDate")
			return service.SettingsInput{}, false
		}
		input.DeadlineDate = deadline
	}

	if payload.DisplayOptions != nil {
		options := displayOptionsWithDefaults(*payload.DisplayOptions)
		input.DisplayOptions = &options
	}

	return input, true
}

// displayOptionsWithDefaults fills omitted fields from the server defaults,
// for the create/update paths where options are an optional extra.
func displayOptionsWithDefaults(payload displayOptionsPayload) db.DisplayOptions {
	options := db.DefaultDisplayOptions()
	if payload.ShowOnDashboard != nil {
		options.ShowOnDashboard = *payload.ShowOnDashboard
	}
	if payload.Priority != nil {
		options.Priority = *payload.Priority
	}
	if payload.ChartType != nil {
		options.ChartType = *payload.ChartType
	}
	if payload.Color != nil {
		options.Color = *payload.Color
	}
	return options
}

// completeDisplayOptions requires every field, for the wholesale-replace
// endpoint.
func completeDisplayOptions(payload displayOptionsPayload) (db.DisplayOptions, bool) {
	if payload.ShowOnDashboard == nil || payload.Priority == nil || payload.ChartType == nil || payload.Color == nil {
		return db.DisplayOptions{}, false
	}
	return db.DisplayOptions{
		ShowOnDashboard: *payload.ShowOnDashboard,
		Priority:        *payload.Priority,
		ChartType:       *payload.ChartType,
		Color:           *payload.Color,
	}, true
}

func (a *API) handleSettingsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMetricNotFound):
		respondError(c, http.StatusNotFound, "metric not found")
	case errors.Is(err, service.ErrSettingsNotFound):
		respondError(c, http.StatusNotFound, "metric settings not found")
	case errors.Is(err, service.ErrSettingsInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		a.log.Error("settings operation failed", "error", err)
		respondError(c, http.StatusInternalServerError, "settings operation failed")
	}
}

func settingsToPayload(settings db.MetricSettings) gin.H {
	options := settings.DisplayOptions.Data()

	payload := gin.H{
		"id":               settings.ID,
		"metricId":         settings.MetricID,
		"goalEnabled":      settings.GoalEnabled,
		"goalType":         settings.GoalType,
		"goalValue":        settings.GoalValue,
		"timeFrameEnabled": settings.TimeFrameEnabled,
		"startDate":        nil,
		"deadlineDate":     nil,
		"alertEnabled":     settings.AlertEnabled,
		"alertThresholds":  settings.AlertThresholds,
		"isAchieved":       settings.IsAchieved,
		"isActive":         settings.IsActive,
		"displayOptions": gin.H{
			"showOnDashboard": options.ShowOnDashboard,
			"priority":        options.Priority,
			"chartType":       options.ChartType,
			"color":           options.Color,
		},
	}

	if settings.StartDate != nil {
		payload["startDate"] = settings.StartDate.Format(dateFormat)
	}
	if settings.DeadlineDate != nil {
		payload["deadlineDate"] = settings.DeadlineDate.Format(dateFormat)
	}

	return payload
}
