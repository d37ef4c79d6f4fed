package handler

import (
	"time"

	"github.com/vitalog/internal/logger"
	"github.com/vitalog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	log        *logger.Logger
	auth       *service.AuthService
	metrics    *service.MetricService
	categories *service.CategoryService
	settings   *service.MetricSettingsService
	logs       *service.MetricLogService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, log *logger.Logger, jwtSecret string, tokenTTL time.Duration) *API {
	return &API{
		db:         gdb,
		log:        log,
		auth:       service.NewAuthService(gdb, jwtSecret, tokenTTL),
		metrics:    service.NewMetricService(gdb),
		categories: service.NewCategoryService(gdb),
		settings:   service.NewMetricSettingsService(gdb),
		logs:       service.NewMetricLogService(gdb),
	}
}

// DB exposes the underlying gorm instance for test seeding.
func (a *API) DB() *gorm.DB {
	return a.db
}
