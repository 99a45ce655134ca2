package routes

import (
	"net/http"
	"time"

	"github.com/address-parser/postal-service/app/controllers"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Controllers các controller được gắn vào router
type Controllers struct {
	Postal *controllers.PostalController
	Dedupe *controllers.DedupeController
	Admin  *controllers.AdminController
}

// SetupAPIRoutes thiết lập tất cả API routes
func SetupAPIRoutes(router *gin.Engine, ctrl Controllers) {
	v1 := router.Group("/v1")
	{
		v1.POST("/expand", ctrl.Postal.Expand)
		v1.POST("/parse", ctrl.Postal.Parse)

		jobs := v1.Group("/jobs")
		{
			jobs.POST("", ctrl.Postal.CreateJob)
			jobs.GET("/:jobID/status", ctrl.Postal.GetJobStatus)
			jobs.GET("/:jobID/results", ctrl.Postal.GetJobResults)
		}

		dedupe := v1.Group("/dedupe")
		{
			dedupe.POST("/compare", ctrl.Dedupe.Compare)
			dedupe.POST("/toponym", ctrl.Dedupe.Toponym)
			dedupe.POST("/fuzzy", ctrl.Dedupe.Fuzzy)
		}
		v1.POST("/near_dupe_hashes", ctrl.Dedupe.NearDupeHashes)
		v1.POST("/place_languages", ctrl.Dedupe.PlaceLanguages)

		blocking := v1.Group("/blocking")
		{
			blocking.POST("/records", ctrl.Dedupe.IndexRecord)
			blocking.POST("/candidates", ctrl.Dedupe.Candidates)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/stats", ctrl.Admin.GetStats)
			admin.POST("/cache/clear", ctrl.Admin.ClearCache)
		}

		v1.GET("/health", ctrl.Admin.HealthCheck)
	}
}

// SetupHealthRoutes thiết lập health check routes
func SetupHealthRoutes(router *gin.Engine, admin *controllers.AdminController) {
	router.GET("/health", admin.HealthCheck)
	router.GET("/ready", admin.Ready)
	router.GET("/live", admin.Live)
}

// SetupMetricsRoutes thiết lập metrics routes (cho Prometheus)
func SetupMetricsRoutes(router *gin.Engine, handler http.Handler) {
	if handler == nil {
		return
	}
	router.GET("/metrics", gin.WrapH(handler))
}

// SetupAllRoutes thiết lập tất cả routes
func SetupAllRoutes(router *gin.Engine, ctrl Controllers, metricsHandler http.Handler, logger *zap.Logger) {
	setupMiddleware(router, logger)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, ctrl.Admin)
	SetupAPIRoutes(router, ctrl)
	SetupMetricsRoutes(router, metricsHandler)

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

// setupMiddleware thiết lập middleware cho router
func setupMiddleware(router *gin.Engine, logger *zap.Logger) {
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
}

// requestLogger log mỗi request bằng zap
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("HTTP request", fields...)
			return
		}
		logger.Debug("HTTP request", fields...)
	}
}
