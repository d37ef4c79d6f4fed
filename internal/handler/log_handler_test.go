package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vitalog/internal/db"
)

func seedTestLog(t *testing.T, metricID string, value float64, loggedAt time.Time) db.MetricLog {
	t.Helper()
	record := db.MetricLog{MetricID: metricID, LogValue: value, Type: db.LogTypeManual, LoggedAt: loggedAt}
	if err := db.DB.Create(&record).Error; err != nil {
		t.Fatalf("failed to seed log: %v", err)
	}
	return record
}

func authedContext(w *httptest.ResponseRecorder, req *http.Request, userID string, params gin.Params) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(userIDContextKey, userID)
	c.Params = params
	return c
}

func TestGetLogDistinguishesForbiddenFromNotFound(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	owner := seedTestUser(t, "logowner@example.com")
	stranger := seedTestUser(t, "logstranger@example.com")
	private := seedTestMetric(t, owner.ID, "Private", false)
	record := seedTestLog(t, private.ID, 10, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	// Missing metric: 404.
	w := httptest.NewRecorder()
	c := authedContext(w, httptest.NewRequest(http.MethodGet, "/api/metrics/x/logs/y", nil), stranger.ID, gin.Params{
		{Key: "metricId", Value: "00000000-0000-0000-0000-000000000000"},
		{Key: "id", Value: record.ID},
	})
	api.GetLog(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for missing metric, got %d", w.Code)
	}

	// Foreign private metric: 403.
	w = httptest.NewRecorder()
	c = authedContext(w, httptest.NewRequest(http.MethodGet, "/api/metrics/x/logs/y", nil), stranger.ID, gin.Params{
		{Key: "metricId", Value: private.ID},
		{Key: "id", Value: record.ID},
	})
	api.GetLog(c)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for foreign private metric, got %d", w.Code)
	}

	// Owner: 200.
	w = httptest.NewRecorder()
	c = authedContext(w, httptest.NewRequest(http.MethodGet, "/api/metrics/x/logs/y", nil), owner.ID, gin.Params{
		{Key: "metricId", Value: private.ID},
		{Key: "id", Value: record.ID},
	})
	api.GetLog(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for owner, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetStatsOnPublicMetric(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	owner := seedTestUser(t, "statsowner@example.com")
	stranger := seedTestUser(t, "statsstranger@example.com")
	public := seedTestMetric(t, owner.ID, "Public", true)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTestLog(t, public.ID, 10, base)
	seedTestLog(t, public.ID, 30, base.AddDate(0, 0, 1))

	w := httptest.NewRecorder()
	c := authedContext(w, httptest.NewRequest(http.MethodGet, "/api/metrics/x/stats", nil), stranger.ID, gin.Params{
		{Key: "metricId", Value: public.ID},
	})
	api.GetStats(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	data, _ := decodeBody(t, w)["data"].(map[string]any)
	if data["average"] != float64(20) || data["min"] != float64(10) || data["max"] != float64(30) {
		t.Fatalf("unexpected stats payload: %v", data)
	}
}

func TestCreateLogDuplicateTimestamp(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	owner := seedTestUser(t, "dupowner@example.com")
	metric := seedTestMetric(t, owner.ID, "Weight", false)

	payload := map[string]any{"logValue": 10, "loggedAt": "2025-01-01T00:00:00Z"}

	w := httptest.NewRecorder()
	c := authedContext(w, jsonRequest(t, http.MethodPost, "/api/metrics/x/logs", payload), owner.ID, gin.Params{
		{Key: "metricId", Value: metric.ID},
	})
	api.CreateLog(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	c = authedContext(w, jsonRequest(t, http.MethodPost, "/api/metrics/x/logs", payload), owner.ID, gin.Params{
		{Key: "metricId", Value: metric.ID},
	})
	api.CreateLog(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for duplicate timestamp, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListLogsForbiddenForStranger(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	owner := seedTestUser(t, "listowner@example.com")
	stranger := seedTestUser(t, "liststranger@example.com")
	private := seedTestMetric(t, owner.ID, "Private", false)

	w := httptest.NewRecorder()
	c := authedContext(w, httptest.NewRequest(http.MethodGet, "/api/metrics/x/logs", nil), stranger.ID, gin.Params{
		{Key: "metricId", Value: private.ID},
	})
	api.ListLogs(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}
}

func TestWritePathsRequireOwnership(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	owner := seedTestUser(t, "writeowner@example.com")
	stranger := seedTestUser(t, "writestranger@example.com")
	// Public grants read access, never write.
	public := seedTestMetric(t, owner.ID, "Public", true)

	w := httptest.NewRecorder()
	c := authedContext(w, jsonRequest(t, http.MethodPost, "/api/metrics/x/logs", map[string]any{
		"logValue": 10,
	}), stranger.ID, gin.Params{
		{Key: "metricId", Value: public.ID},
	})
	api.CreateLog(c)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for foreign log create, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	c = authedContext(w, jsonRequest(t, http.MethodPost, "/api/metrics/x/settings", map[string]any{}), stranger.ID, gin.Params{
		{Key: "metricId", Value: public.ID},
	})
	api.CreateSettings(c)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for foreign settings create, got %d", w.Code)
	}
}

func TestCreateLogRejectsUnknownFields(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	owner := seedTestUser(t, "strictlog@example.com")
	metric := seedTestMetric(t, owner.ID, "Weight", false)

	w := httptest.NewRecorder()
	c := authedContext(w, jsonRequest(t, http.MethodPost, "/api/metrics/x/logs", map[string]any{
		"logValue": 10,
		"note":     "not a field",
	}), owner.ID, gin.Params{
		{Key: "metricId", Value: metric.ID},
	})
	api.CreateLog(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown field, got %d", w.Code)
	}
}
