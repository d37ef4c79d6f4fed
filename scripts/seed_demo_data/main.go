package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/vitalog/internal/config"
	"github.com/vitalog/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// Seeds a demo account with categories, metrics, settings and a month of
// logs so a fresh install has something to chart.
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("failed to initialize database:", err)
	}

	fmt.Println("seeding demo data...")

	user := createDemoUser()
	if user == nil {
		return
	}

	categories := createDemoCategories(user.ID)
	metrics := createDemoMetrics(user.ID, categories)
	createDemoSettings(metrics)
	createDemoLogs(metrics)

	fmt.Println("demo data ready")
	fmt.Println("account: demo@vitalog.dev (password: demo1234)")
}

func createDemoUser() *db.User {
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("users already exist, skipping seed")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("failed to hash password:", err)
	}

	user := db.User{
		Email:    "demo@vitalog.dev",
		Password: string(hashed),
		Name:     "Demo",
	}
	if err := db.DB.Create(&user).Error; err != nil {
		log.Fatal("failed to create demo user:", err)
	}
	return &user
}

func createDemoCategories(userID string) map[string]db.MetricCategory {
	seeds := []db.MetricCategory{
		{UserID: userID, Name: "Body", Color: "#E897A3", Icon: "⚖️"},
		{UserID: userID, Name: "Activity", Color: "#7AC0A2", Icon: "🏃"},
	}

	categories := make(map[string]db.MetricCategory, len(seeds))
	for _, seed := range seeds {
		if err := db.DB.Create(&seed).Error; err != nil {
			log.Fatal("failed to create category:", err)
		}
		categories[seed.Name] = seed
	}
	return categories
}

func createDemoMetrics(userID string, categories map[string]db.MetricCategory) []db.Metric {
	body := categories["Body"]
	activity := categories["Activity"]

	seeds := []db.Metric{
		{UserID: userID, CategoryID: &body.ID, Name: "Weight", DefaultUnit: "kg"},
		{UserID: userID, CategoryID: &activity.ID, Name: "Steps", DefaultUnit: "steps", IsPublic: true},
		{UserID: userID, CategoryID: &activity.ID, Name: "Running Distance", DefaultUnit: "km"},
	}

	for i := range seeds {
		if err := db.DB.Create(&seeds[i]).Error; err != nil {
			log.Fatal("failed to create metric:", err)
		}
	}
	return seeds
}

func createDemoSettings(metrics []db.Metric) {
	goalType := db.GoalTypeIncremental
	goalValue := 70.0
	threshold := 80

	for _, metric := range metrics {
		settings := db.MetricSettings{
			MetricID:       metric.ID,
			IsActive:       true,
			DisplayOptions: datatypes.NewJSONType(db.DefaultDisplayOptions()),
		}
		if metric.Name == "Weight" {
			settings.GoalEnabled = true
			settings.GoalType = &goalType
			settings.GoalValue = &goalValue
			settings.AlertEnabled = true
			settings.AlertThresholds = &threshold
		}
		if err := db.DB.Create(&settings).Error; err != nil {
			log.Fatal("failed to create settings:", err)
		}
	}
}

func createDemoLogs(metrics []db.Metric) {
	now := time.Now()
	for _, metric := range metrics {
		base := 70.0
		spread := 3.0
		if metric.Name == "Steps" {
			base = 8000
			spread = 4000
		}
		if metric.Name == "Running Distance" {
			base = 5
			spread = 2
		}

		for day := 30; day >= 1; day-- {
			record := db.MetricLog{
				MetricID: metric.ID,
				LogValue: base + (rand.Float64()-0.5)*spread,
				Type:     db.LogTypeManual,
				LoggedAt: now.AddDate(0, 0, -day),
			}
			if err := db.DB.Create(&record).Error; err != nil {
				log.Fatal("failed to create log:", err)
			}
		}
	}
}
