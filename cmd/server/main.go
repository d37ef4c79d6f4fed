package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/vitalog/internal/config"
	"github.com/vitalog/internal/db"
	"github.com/vitalog/internal/handler"
	"github.com/vitalog/internal/logger"
	"github.com/vitalog/internal/router"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if err := db.Init(cfg.DatabasePath); err != nil {
		zlog.Fatal("failed to initialize database", "error", err)
	}

	gin.SetMode(cfg.GinMode)

	api := handler.NewAPI(db.DB, zlog, cfg.JWTSecret, cfg.TokenTTL)
	r := router.SetupRouter(api, zlog, cfg)

	zlog.Info("server starting", "addr", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		zlog.Fatal("server exited", "error", err)
	}
}
