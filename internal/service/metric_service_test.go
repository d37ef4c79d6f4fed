package service

import (
	"errors"
	"testing"
	"time"

	"github.com/vitalog/internal/db"
)

func TestMetricCreateAndGet(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, "metrics@example.com")
	svc := NewMetricService(db.DB)

	metric, err := svc.Create(user.ID, MetricInput{
		Name:        "  Weight  ",
		Description: "Body weight",
		DefaultUnit: "kg",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if metric.Name != "Weight" {
		t.Fatalf("expected trimmed name, got %q", metric.Name)
	}
	if metric.IsPublic {
		t.Fatal("expected metric to default to private")
	}

	got, err := svc.Get(user.ID, metric.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.ID != metric.ID {
		t.Fatalf("expected metric %s, got %s", metric.ID, got.ID)
	}

	// Another user cannot see it through the owner-scoped lookup.
	stranger := seedUser(t, "metricstranger@example.com")
	if _, err := svc.Get(stranger.ID, metric.ID); !errors.Is(err, ErrMetricNotFound) {
		t.Fatalf("expected ErrMetricNotFound for foreign user, got %v", err)
	}
}

func TestMetricNameUniquePerUser(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	first := seedUser(t, "nameone@example.com")
	second := seedUser(t, "nametwo@example.com")
	svc := NewMetricService(db.DB)

	if _, err := svc.Create(first.ID, MetricInput{Name: "Weight"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(first.ID, MetricInput{Name: "Weight"}); !errors.Is(err, ErrMetricNameTaken) {
		t.Fatalf("expected ErrMetricNameTaken, got %v", err)
	}

	// The same name under another account is fine.
	if _, err := svc.Create(second.ID, MetricInput{Name: "Weight"}); err != nil {
		t.Fatalf("Create for second user returned error: %v", err)
	}
}

func TestMetricCreateValidatesReferences(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, "refs@example.com")
	other := seedUser(t, "refsother@example.com")
	svc := NewMetricService(db.DB)
	categories := NewCategoryService(db.DB)

	missing := "00000000-0000-0000-0000-000000000000"
	if _, err := svc.Create(user.ID, MetricInput{Name: "Steps", CategoryID: &missing}); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}

	// A category owned by someone else is as good as missing.
	foreign, err := categories.Create(other.ID, CategoryInput{Name: "Fitness"})
	if err != nil {
		t.Fatalf("category Create returned error: %v", err)
	}
	if _, err := svc.Create(user.ID, MetricInput{Name: "Steps", CategoryID: &foreign.ID}); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound for foreign category, got %v", err)
	}

	if _, err := svc.Create(user.ID, MetricInput{Name: "Steps", OriginalMetricID: &missing}); !errors.Is(err, ErrMetricInvalid) {
		t.Fatalf("expected ErrMetricInvalid for missing original metric, got %v", err)
	}

	mine, err := categories.Create(user.ID, CategoryInput{Name: "Fitness"})
	if err != nil {
		t.Fatalf("category Create returned error: %v", err)
	}
	metric, err := svc.Create(user.ID, MetricInput{Name: "Steps", CategoryID: &mine.ID})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if metric.CategoryID == nil || *metric.CategoryID != mine.ID {
		t.Fatalf("expected category %s, got %v", mine.ID, metric.CategoryID)
	}
}

func TestMetricUpdate(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, "metricupdate@example.com")
	svc := NewMetricService(db.DB)

	metric, err := svc.Create(user.ID, MetricInput{Name: "Weight", DefaultUnit: "kg"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	seedMetric(t, user.ID, "Steps")

	if _, err := svc.Update(user.ID, metric.ID, MetricInput{Name: "Steps"}); !errors.Is(err, ErrMetricNameTaken) {
		t.Fatalf("expected ErrMetricNameTaken, got %v", err)
	}

	updated, err := svc.Update(user.ID, metric.ID, MetricInput{
		Name:        "Body Weight",
		DefaultUnit: "lb",
		IsPublic:    boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Name != "Body Weight" || updated.DefaultUnit != "lb" || !updated.IsPublic {
		t.Fatalf("unexpected updated metric: %+v", updated)
	}
}

func TestMetricListSummaries(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, "summaries@example.com")
	metrics := NewMetricService(db.DB)
	categories := NewCategoryService(db.DB)
	settings := NewMetricSettingsService(db.DB)

	category, err := categories.Create(user.ID, CategoryInput{Name: "Health", Icon: "❤️"})
	if err != nil {
		t.Fatalf("category Create returned error: %v", err)
	}
	metric, err := metrics.Create(user.ID, MetricInput{Name: "Weight", CategoryID: &category.ID})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	deadline := start.AddDate(0, 1, 0)
	if _, err := settings.Create(metric.ID, SettingsInput{
		GoalEnabled:  boolPtr(true),
		GoalType:     strPtr(db.GoalTypeCumulative),
		GoalValue:    floatPtr(100),
		StartDate:    timePtr(start),
		DeadlineDate: timePtr(deadline),
	}); err != nil {
		t.Fatalf("settings Create returned error: %v", err)
	}

	summaries, err := metrics.List(user.ID)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}

	summary := summaries[0]
	if summary.CategoryName == nil || *summary.CategoryName != "Health" {
		t.Fatalf("expected category name Health, got %v", summary.CategoryName)
	}
	if summary.CategoryIcon == nil || *summary.CategoryIcon != "❤️" {
		t.Fatalf("expected category icon, got %v", summary.CategoryIcon)
	}
	if summary.GoalType == nil || *summary.GoalType != db.GoalTypeCumulative {
		t.Fatalf("expected goal type cumulative, got %v", summary.GoalType)
	}
}

func TestMetricGetDetail(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, "detail@example.com")
	metrics := NewMetricService(db.DB)
	settings := NewMetricSettingsService(db.DB)

	metric := seedMetric(t, user.ID, "Weight")
	if _, err := settings.Create(metric.ID, SettingsInput{}); err != nil {
		t.Fatalf("settings Create returned error: %v", err)
	}
	seedLog(t, metric.ID, 10, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	seedLog(t, metric.ID, 20, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))

	detail, err := metrics.GetDetail(user.ID, metric.ID)
	if err != nil {
		t.Fatalf("GetDetail returned error: %v", err)
	}
	if len(detail.Settings) != 1 {
		t.Fatalf("expected 1 settings record, got %d", len(detail.Settings))
	}
	if len(detail.Logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(detail.Logs))
	}
	// Logs come back newest first.
	if detail.Logs[0].LogValue != 20 {
		t.Fatalf("expected newest log first, got %v", detail.Logs[0].LogValue)
	}
}

func TestMetricDeleteCascades(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, "cascade@example.com")
	metrics := NewMetricService(db.DB)
	settings := NewMetricSettingsService(db.DB)

	metric := seedMetric(t, user.ID, "Weight")
	if _, err := settings.Create(metric.ID, SettingsInput{}); err != nil {
		t.Fatalf("settings Create returned error: %v", err)
	}
	seedLog(t, metric.ID, 10, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	if err := metrics.Delete(user.ID, metric.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, err := metrics.Get(user.ID, metric.ID); !errors.Is(err, ErrMetricNotFound) {
		t.Fatalf("expected ErrMetricNotFound after delete, got %v", err)
	}

	var settingsCount int64
	if err := db.DB.Model(&db.MetricSettings{}).Where("metric_id = ?", metric.ID).Count(&settingsCount).Error; err != nil {
		t.Fatalf("count settings: %v", err)
	}
	if settingsCount != 0 {
		t.Fatalf("expected settings to be deleted, found %d", settingsCount)
	}

	var logCount int64
	if err := db.DB.Model(&db.MetricLog{}).Where("metric_id = ?", metric.ID).Count(&logCount).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	if logCount != 0 {
		t.Fatalf("expected logs to be deleted, found %d", logCount)
	}
}
