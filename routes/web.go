package routes

import (
	"net/http"

	"github.com/address-parser/postal-service/app/controllers"
	"github.com/gin-gonic/gin"
)

// SetupWebRoutes thiết lập web routes
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "Postal Service",
				"version": controllers.Version,
				"docs":    "/docs",
			})
		})

		// API documentation
		web.GET("/docs", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"api": "Postal API v1",
				"endpoints": map[string]string{
					"expand":           "POST /v1/expand",
					"parse":            "POST /v1/parse",
					"batch":            "POST /v1/jobs",
					"job_status":       "GET /v1/jobs/:jobID/status",
					"job_results":      "GET /v1/jobs/:jobID/results?format=ndjson&gzip=1",
					"dedupe_compare":   "POST /v1/dedupe/compare",
					"dedupe_toponym":   "POST /v1/dedupe/toponym",
					"dedupe_fuzzy":     "POST /v1/dedupe/fuzzy",
					"near_dupe_hashes": "POST /v1/near_dupe_hashes",
					"place_languages":  "POST /v1/place_languages",
					"blocking_records": "POST /v1/blocking/records",
					"blocking_search":  "POST /v1/blocking/candidates",
					"admin_stats":      "GET /v1/admin/stats",
					"cache_clear":      "POST /v1/admin/cache/clear?data_version=",
					"health":           "GET /health",
					"metrics":          "GET /metrics",
				},
			})
		})
	}
}
