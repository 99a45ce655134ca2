package controllers

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/address-parser/postal-service/app/requests"
	"github.com/address-parser/postal-service/app/responses"
	"github.com/address-parser/postal-service/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PostalController controller expand/parse và job batch
type PostalController struct {
	postalService *services.PostalService
	jobCtx        context.Context // bị hủy khi server dừng
	logger        *zap.Logger
}

// NewPostalController tạo mới PostalController. Job batch chạy với jobCtx.
func NewPostalController(jobCtx context.Context, postalService *services.PostalService, logger *zap.Logger) *PostalController {
	return &PostalController{
		postalService: postalService,
		jobCtx:        jobCtx,
		logger:        logger,
	}
}

// Expand expand một địa chỉ
func (pc *PostalController) Expand(c *gin.Context) {
	var req requests.ExpandRequest
	if !bindJSON(c, &req) {
		return
	}

	startTime := time.Now()
	result, hit, err := pc.postalService.Expand(c.Request.Context(), req.Address, req.Options)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}

	c.JSON(http.StatusOK, responses.ResultResponse{
		Result:           result,
		CacheHit:         hit,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	})
}

// Parse parse một địa chỉ
func (pc *PostalController) Parse(c *gin.Context) {
	var req requests.ParseRequest
	if !bindJSON(c, &req) {
		return
	}

	startTime := time.Now()
	result, hit, err := pc.postalService.Parse(c.Request.Context(), req.Address, req.Options)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}

	c.JSON(http.StatusOK, responses.ResultResponse{
		Result:           result,
		CacheHit:         hit,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	})
}

// CreateJob tạo job batch và xử lý trong background
func (pc *PostalController) CreateJob(c *gin.Context) {
	var req requests.BatchRequest
	if !bindJSON(c, &req) {
		return
	}

	jobID, err := pc.postalService.CreateJob(req.Operation, len(req.Addresses))
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}

	go pc.postalService.ProcessBatchJob(pc.jobCtx, jobID, req.Addresses, req.Expand, req.Parse)

	c.JSON(http.StatusAccepted, responses.BatchJobResponse{
		JobID:            jobID,
		Operation:        req.Operation,
		EstimatedSeconds: pc.postalService.EstimateBatchProcessingTime(len(req.Addresses)),
		TotalAddresses:   len(req.Addresses),
		Message:          "Job đã được tạo và đang xử lý",
	})
}

// GetJobStatus lấy trạng thái job
func (pc *PostalController) GetJobStatus(c *gin.Context) {
	status, err := pc.postalService.GetJobStatus(c.Param("jobID"))
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:              status.JobID,
		Operation:          status.Operation,
		Status:             status.Status,
		Progress:           status.Progress,
		Processed:          status.Processed,
		Failed:             status.Failed,
		Total:              status.Total,
		EstimatedRemaining: status.EstimatedRemaining,
		Message:            status.Message,
	})
}

// GetJobResults lấy kết quả job với hỗ trợ NDJSON + gzip streaming
func (pc *PostalController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")

	if c.Query("format") == "ndjson" {
		pc.streamNDJSONResults(c, jobID, c.Query("gzip") == "1")
		return
	}

	results, err := pc.postalService.GetJobResults(jobID)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "Lấy kết quả thành công",
		Data:      results,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// streamNDJSONResults stream kết quả theo format NDJSON với hỗ trợ gzip
func (pc *PostalController) streamNDJSONResults(c *gin.Context, jobID string, gzipEnabled bool) {
	resultChannel, err := pc.postalService.GetJobResultsStream(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gzWriter:       gzWriter,
		}
	}
	c.Status(http.StatusOK)

	encoder := json.NewEncoder(writer)
	for result := range resultChannel {
		if err := encoder.Encode(result); err != nil {
			pc.logger.Error("Lỗi encode NDJSON", zap.Error(err))
			break
		}
		// Flush để đảm bảo data được gửi ngay
		writer.Flush()
	}
}

// gzipResponseWriter wrapper cho gzip writer
type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.gzWriter.Write([]byte(s))
}

func (w *gzipResponseWriter) Flush() {
	w.gzWriter.Flush()
	w.ResponseWriter.Flush()
}
