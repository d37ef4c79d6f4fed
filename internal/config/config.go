package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds everything the server needs to boot.
type AppConfig struct {
	ListenAddr     string
	Port           string
	DatabasePath   string
	GinMode        string
	LogMode        string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
}

// Load reads the application config from environment variables, with safe
// defaults for anything missing.
func Load() AppConfig {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "vitalog.db")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_MODE", "production")
	v.SetDefault("JWT_SECRET", "vitalog-dev-secret")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("ALLOWED_ORIGINS", "*")

	port := strings.TrimSpace(v.GetString("PORT"))

	listenAddr := strings.TrimSpace(v.GetString("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	tokenTTL := v.GetDuration("TOKEN_TTL")
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	origins := make([]string, 0)
	for _, origin := range strings.Split(v.GetString("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return AppConfig{
		ListenAddr:     listenAddr,
		Port:           port,
		DatabasePath:   strings.TrimSpace(v.GetString("DATABASE_PATH")),
		GinMode:        strings.TrimSpace(v.GetString("GIN_MODE")),
		LogMode:        strings.TrimSpace(v.GetString("LOG_MODE")),
		JWTSecret:      strings.TrimSpace(v.GetString("JWT_SECRET")),
		TokenTTL:       tokenTTL,
		AllowedOrigins: origins,
	}
}
