package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/address-parser/postal-service/app/models"
)

// CacheStats thống kê cache
type CacheStats struct {
	Backend    string  `json:"backend"`
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService interface định nghĩa các method cần thiết cho cache kết quả libpostal
type ICacheService interface {
	// Get lấy kết quả từ cache
	Get(ctx context.Context, key string) (*models.PostalResult, bool, error)

	// Set lưu kết quả vào cache
	Set(ctx context.Context, key string, result *models.PostalResult) error

	Delete(ctx context.Context, key string) error

	// Clear xóa tất cả cache
	Clear(ctx context.Context) error

	// InvalidateByDataVersion xóa các bản ghi không thuộc phiên bản dữ liệu hiện tại
	InvalidateByDataVersion(ctx context.Context, dataVersion string) error

	GetStats(ctx context.Context) (*CacheStats, error)

	// Exists kiểm tra key có tồn tại không
	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL lấy TTL còn lại của key
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Close đóng kết nối (nếu cần)
	Close() error
}

// hitCounter đếm hit/miss an toàn giữa các goroutine
type hitCounter struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *hitCounter) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func (c *hitCounter) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
}

func (c *hitCounter) stats(backend string, items int64) *CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	hitRate := float64(0)
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return &CacheStats{
		Backend:    backend,
		HitRate:    hitRate,
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: items,
	}
}
