package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vitalog/internal/db"
	"github.com/vitalog/internal/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*API, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.User{},
		&db.MetricCategory{},
		&db.Metric{},
		&db.MetricSettings{},
		&db.MetricLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return NewAPI(db.DB, logger.NewNop(), "test-secret", time.Hour), func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func seedTestUser(t *testing.T, email string) db.User {
	t.Helper()
	user := db.User{Email: email, Password: "hashed", Name: "Tester"}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedTestMetric(t *testing.T, userID, name string, public bool) db.Metric {
	t.Helper()
	metric := db.Metric{UserID: userID, Name: name, DefaultUnit: "kg", IsPublic: public}
	if err := db.DB.Create(&metric).Error; err != nil {
		t.Fatalf("failed to seed metric: %v", err)
	}
	return metric
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestRegisterAndLoginFlow(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "flow@example.com",
		"password": "secret123",
		"name":     "Flow",
	})

	api.Register(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	data, _ := decodeBody(t, w)["data"].(map[string]any)
	if data["token"] == "" || data["token"] == nil {
		t.Fatal("expected a token in the register response")
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "flow@example.com",
		"password": "secret123",
	})

	api.Login(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginBadPassword(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "badpass@example.com",
		"password": "secret123",
	})
	api.Register(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "badpass@example.com",
		"password": "wrong",
	})
	api.Login(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestRegisterRejectsUnknownFields(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "strict@example.com",
		"password": "secret123",
		"isAdmin":  true,
	})

	api.Register(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown field, got %d", w.Code)
	}
}

func TestAuthRequiredMiddleware(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	svcToken := func() string {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]any{
			"email":    "tokenuser@example.com",
			"password": "secret123",
		})
		api.Register(c)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", w.Code)
		}
		data, _ := decodeBody(t, w)["data"].(map[string]any)
		token, _ := data["token"].(string)
		return token
	}()

	middleware := api.AuthRequired()

	// No Authorization header.
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	middleware(c)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without header, got %d", w.Code)
	}

	// Garbage token.
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	c.Request.Header.Set("Authorization", "Bearer garbage")
	middleware(c)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for garbage token, got %d", w.Code)
	}

	// Valid token stores the user id on the context.
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	c.Request.Header.Set("Authorization", "Bearer "+svcToken)
	middleware(c)
	if c.IsAborted() {
		t.Fatalf("expected request to pass, got %d", w.Code)
	}
	if currentUserID(c) == "" {
		t.Fatal("expected user id on the context")
	}
}
