package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/vitalog/internal/config"
	"github.com/vitalog/internal/handler"
	"github.com/vitalog/internal/logger"
)

// SetupRouter configures the gin engine and all API routes.
func SetupRouter(api *handler.API, log *logger.Logger, cfg config.AppConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	apiGroup := r.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			auth.POST("/register", api.Register)
			auth.POST("/login", api.Login)
		}

		authed := apiGroup.Group("")
		authed.Use(api.AuthRequired())
		{
			categories := authed.Group("/categories")
			{
				categories.GET("", api.ListCategories)
				categories.POST("", api.CreateCategory)
				categories.GET("/:id", api.GetCategory)
				categories.PUT("/:id", api.UpdateCategory)
				categories.DELETE("/:id", api.DeleteCategory)
			}

			metrics := authed.Group("/metrics")
			{
				metrics.GET("", api.ListMetrics)
				metrics.POST("", api.CreateMetric)
				metrics.GET("/:metricId", api.GetMetric)
				metrics.PUT("/:metricId", api.UpdateMetric)
				metrics.DELETE("/:metricId", api.DeleteMetric)

				metrics.GET("/:metricId/stats", api.GetStats)
				metrics.GET("/:metricId/trends", api.GetTrends)

				settings := metrics.Group("/:metricId/settings")
				{
					settings.POST("", api.CreateSettings)
					settings.GET("", api.ListSettings)
					settings.GET("/:id", api.GetSettings)
					settings.PUT("/:id", api.UpdateSettings)
					settings.PATCH("/:id/achieve", api.AchieveSettings)
					settings.PATCH("/:id/display", api.UpdateDisplaySettings)
					settings.DELETE("/:id", api.DeleteSettings)
				}

				logs := metrics.Group("/:metricId/logs")
				{
					logs.POST("", api.CreateLog)
					logs.GET("", api.ListLogs)
					logs.GET("/:id", api.GetLog)
					logs.PUT("/:id", api.UpdateLog)
					logs.DELETE("/:id", api.DeleteLog)
				}
			}
		}
	}

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}
