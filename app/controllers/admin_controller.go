package controllers

import (
	"net/http"
	"time"

	"github.com/address-parser/postal-service/app/responses"
	"github.com/address-parser/postal-service/app/services"
	"github.com/address-parser/postal-service/postal"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version phiên bản service, ghi đè bằng -ldflags khi build
var Version = "dev"

// AdminController controller thống kê, cache và health check
type AdminController struct {
	postalService *services.PostalService
	logger        *zap.Logger
}

// NewAdminController tạo mới AdminController
func NewAdminController(postalService *services.PostalService, logger *zap.Logger) *AdminController {
	return &AdminController{
		postalService: postalService,
		logger:        logger,
	}
}

// ClearCache xóa cache. Có data_version thì chỉ xóa các phiên bản khác.
func (ac *AdminController) ClearCache(c *gin.Context) {
	dataVersion := c.Query("data_version")
	startTime := time.Now()

	if err := ac.postalService.ClearCache(c.Request.Context(), dataVersion); err != nil {
		respondError(c, ac.logger, err)
		return
	}

	processingTime := time.Since(startTime)
	ac.logger.Info("Clear cache thành công",
		zap.String("data_version", dataVersion),
		zap.Duration("duration", processingTime))

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "Clear cache thành công",
		Data: map[string]interface{}{
			"data_version":       dataVersion,
			"processing_time_ms": processingTime.Milliseconds(),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// GetStats lấy thống kê hệ thống
func (ac *AdminController) GetStats(c *gin.Context) {
	cacheStats, err := ac.postalService.CacheStats(c.Request.Context())
	if err != nil {
		ac.logger.Warn("Lỗi lấy cache stats", zap.Error(err))
		cacheStats = &services.CacheStats{}
	}

	c.JSON(http.StatusOK, responses.AdminStatsResponse{
		Engine:        ac.postalService.EngineStatus(),
		Subsystems:    subsystemRefs(),
		Cache:         cacheStats,
		Service:       ac.postalService.GetStats(),
		UptimeSeconds: int64(time.Since(ac.postalService.GetStartTime()).Seconds()),
		LastUpdated:   time.Now().Format(time.RFC3339),
	})
}

func subsystemRefs() map[string]int {
	out := make(map[string]int, 3)
	for _, kind := range []postal.Subsystem{postal.SubsystemCore, postal.SubsystemParser, postal.SubsystemLanguageClassifier} {
		out[kind.String()] = postal.RefCount(kind)
	}
	return out
}

// HealthCheck kiểm tra sức khỏe service
func (ac *AdminController) HealthCheck(c *gin.Context) {
	engine := ac.postalService.EngineStatus()
	status := "healthy"
	code := http.StatusOK
	if !engine.Core {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, responses.HealthCheckResponse{
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(ac.postalService.GetStartTime()).String(),
		Version:   Version,
		Services: map[string]string{
			"core":       stateString(engine.Core),
			"parser":     stateString(engine.Parser),
			"classifier": stateString(engine.Classifier),
		},
	})
}

func stateString(up bool) string {
	if up {
		return "up"
	}
	return "down"
}

// Ready sẵn sàng nhận request khi libpostal core đã khởi tạo
func (ac *AdminController) Ready(c *gin.Context) {
	if !ac.postalService.EngineStatus().Core {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (ac *AdminController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
