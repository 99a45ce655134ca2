// Package search wraps the Meilisearch index that stores near-duplicate
// blocking keys.
package search

import (
	"fmt"
	"strings"
	"time"

	ms "github.com/meilisearch/meilisearch-go"
)

// SearchConfig cấu hình cho Meilisearch
type SearchConfig struct {
	Host          string
	APIKey        string
	IndexName     string
	Timeout       time.Duration
	MaxCandidates int64
}

// indexBackend là phần của meilisearch.IndexManager mà BlockingIndex dùng
type indexBackend interface {
	UpdateSettings(request *ms.Settings) (*ms.TaskInfo, error)
	AddDocuments(documentsPtr interface{}, primaryKey ...string) (*ms.TaskInfo, error)
	DeleteDocument(identifier string) (*ms.TaskInfo, error)
	Search(query string, request *ms.SearchRequest) (*ms.SearchResponse, error)
}

// newClient tạo client và kiểm tra kết nối
func newClient(cfg SearchConfig) (ms.ServiceManager, error) {
	client := ms.New(cfg.Host, ms.WithAPIKey(cfg.APIKey))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("không thể kết nối Meilisearch: %w", err)
	}
	return client, nil
}

// FilterHashesIn tạo filter `hashes IN [...]`
func FilterHashesIn(hashes []string) string {
	quoted := make([]string, len(hashes))
	for i, h := range hashes {
		quoted[i] = fmt.Sprintf("%q", h)
	}
	return fmt.Sprintf("hashes IN [%s]", strings.Join(quoted, ", "))
}

// FilterExcludeID loại bản ghi id khỏi kết quả
func FilterExcludeID(id string) string {
	return fmt.Sprintf("id != %q", id)
}

// And ghép các filter không rỗng
func And(filters ...string) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f != "" {
			parts = append(parts, "("+f+")")
		}
	}
	return strings.Join(parts, " AND ")
}
