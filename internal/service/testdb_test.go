package service

import (
	"testing"
	"time"

	"github.com/vitalog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
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

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func seedUser(t *testing.T, email string) db.User {
	t.Helper()
	user := db.User{Email: email, Password: "x", Name: "Test User"}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedMetric(t *testing.T, userID, name string) db.Metric {
	t.Helper()
	metric := db.Metric{UserID: userID, Name: name, DefaultUnit: "kg"}
	if err := db.DB.Create(&metric).Error; err != nil {
		t.Fatalf("failed to seed metric: %v", err)
	}
	return metric
}

func seedLog(t *testing.T, metricID string, value float64, loggedAt time.Time) db.MetricLog {
	t.Helper()
	record := db.MetricLog{MetricID: metricID, LogValue: value, Type: db.LogTypeManual, LoggedAt: loggedAt}
	if err := db.DB.Create(&record).Error; err != nil {
		t.Fatalf("failed to seed log: %v", err)
	}
	return record
}

func boolPtr(v bool) *bool          { return &v }
func intPtr(v int) *int             { return &v }
func floatPtr(v float64) *float64   { return &v }
func strPtr(v string) *string       { return &v }
func timePtr(v time.Time) *time.Time { return &v }
