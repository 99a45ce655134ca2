package responses

import (
	"github.com/address-parser/postal-service/app/models"
	"github.com/address-parser/postal-service/app/services"
	"github.com/address-parser/postal-service/postal"
)

// ResultResponse response expand/parse một địa chỉ
type ResultResponse struct {
	Result           *models.PostalResult `json:"result"`
	CacheHit         bool                 `json:"cache_hit"`          // Có hit cache không
	ProcessingTimeMs int64                `json:"processing_time_ms"` // Thời gian xử lý (ms)
}

// BatchJobResponse response tạo job batch
type BatchJobResponse struct {
	JobID            string `json:"job_id"`
	Operation        string `json:"operation"`
	EstimatedSeconds int    `json:"estimated_seconds"` // Thời gian ước tính (giây)
	TotalAddresses   int    `json:"total_addresses"`
	Message          string `json:"message"`
}

// JobStatusResponse response trạng thái job
type JobStatusResponse struct {
	JobID              string  `json:"job_id"`
	Operation          string  `json:"operation"`
	Status             string  `json:"status"`
	Progress           float64 `json:"progress"` // Tiến độ (0.0 - 1.0)
	Processed          int     `json:"processed"`
	Failed             int     `json:"failed"`
	Total              int     `json:"total"`
	EstimatedRemaining int     `json:"estimated_remaining"` // Thời gian còn lại ước tính (giây)
	Message            string  `json:"message"`
}

// ToponymResponse kết quả so sánh toponym
type ToponymResponse struct {
	Status postal.DuplicateStatus `json:"status"`
}

// NearDupeHashesResponse các khóa blocking của một bản ghi
type NearDupeHashesResponse struct {
	Hashes []string `json:"hashes"`
}

// PlaceLanguagesResponse ngôn ngữ đoán được
type PlaceLanguagesResponse struct {
	Languages []string `json:"languages"`
}

// BlockingRecordResponse response lưu bản ghi vào blocking index
type BlockingRecordResponse struct {
	ID     string   `json:"id"`
	Hashes []string `json:"hashes"`
}

// CandidatesResponse các bản ghi ứng viên trùng lặp
type CandidatesResponse struct {
	Hashes     []string           `json:"hashes"`
	Candidates []models.Candidate `json:"candidates"`
}

// AdminStatsResponse response thống kê admin
type AdminStatsResponse struct {
	Engine        services.EngineStatus  `json:"engine"`
	Subsystems    map[string]int         `json:"subsystem_refs"` // Số handle đang mở mỗi subsystem
	Cache         *services.CacheStats   `json:"cache,omitempty"`
	Service       map[string]interface{} `json:"service"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	LastUpdated   string                 `json:"last_updated"`
}

// ErrorResponse response lỗi
type ErrorResponse struct {
	Error     string      `json:"error"`                // Mã lỗi
	Message   string      `json:"message"`              // Thông báo lỗi
	Details   interface{} `json:"details,omitempty"`    // Chi tiết lỗi
	Timestamp string      `json:"timestamp"`            // Thời gian xảy ra lỗi
	RequestID string      `json:"request_id,omitempty"` // ID của request
}

// SuccessResponse response thành công
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// HealthCheckResponse response kiểm tra sức khỏe
type HealthCheckResponse struct {
	Status    string            `json:"status"` // Trạng thái sức khỏe
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"` // Trạng thái các service
}
