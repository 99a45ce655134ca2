package models

import (
	"time"

	"github.com/address-parser/postal-service/postal"
)

// Các thao tác libpostal được cache
const (
	OpExpand     = "expand"
	OpExpandRoot = "expand_root"
	OpParse      = "parse"
)

// Trạng thái kết quả
const (
	StatusOK    = "ok"
	StatusEmpty = "empty" // libpostal không trả về kết quả parse
	StatusError = "error"
)

// PostalResult kết quả expand hoặc parse một địa chỉ
type PostalResult struct {
	Operation        string                   `bson:"operation" json:"operation"`
	Input            string                   `bson:"input" json:"input"`
	Expansions       []string                 `bson:"expansions,omitempty" json:"expansions,omitempty"`
	Components       []postal.ParsedComponent `bson:"components,omitempty" json:"components,omitempty"`
	Status           string                   `bson:"status" json:"status"`
	Error            string                   `bson:"error,omitempty" json:"error,omitempty"`
	DataVersion      string                   `bson:"data_version" json:"data_version"`
	ProcessingTimeMs int64                    `bson:"processing_time_ms" json:"processing_time_ms"`
	CreatedAt        time.Time                `bson:"created_at" json:"created_at"`
}

// Component trả về giá trị đầu tiên có nhãn label
func (r *PostalResult) Component(label string) (string, bool) {
	for _, c := range r.Components {
		if c.Label == label {
			return c.Value, true
		}
	}
	return "", false
}

// ErrorResult tạo kết quả lỗi cho job batch
func ErrorResult(operation, input string, err error) *PostalResult {
	return &PostalResult{
		Operation: operation,
		Input:     input,
		Status:    StatusError,
		Error:     err.Error(),
		CreatedAt: time.Now(),
	}
}
