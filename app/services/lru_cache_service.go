package services

import (
	"context"
	"fmt"
	"time"

	"github.com/address-parser/postal-service/app/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCacheService cache in-memory giới hạn số phần tử, có TTL
type LRUCacheService struct {
	cache   *expirable.LRU[string, *models.PostalResult]
	ttl     time.Duration
	counter hitCounter
}

// NewLRUCacheService tạo LRU cache với size phần tử
func NewLRUCacheService(size int, ttl time.Duration) (*LRUCacheService, error) {
	if size <= 0 {
		return nil, fmt.Errorf("kích thước LRU cache không hợp lệ: %d", size)
	}
	return &LRUCacheService{
		cache: expirable.NewLRU[string, *models.PostalResult](size, nil, ttl),
		ttl:   ttl,
	}, nil
}

func (lc *LRUCacheService) Get(ctx context.Context, key string) (*models.PostalResult, bool, error) {
	result, ok := lc.cache.Get(key)
	lc.counter.record(ok)
	return result, ok, nil
}

func (lc *LRUCacheService) Set(ctx context.Context, key string, result *models.PostalResult) error {
	lc.cache.Add(key, result)
	return nil
}

func (lc *LRUCacheService) Delete(ctx context.Context, key string) error {
	lc.cache.Remove(key)
	return nil
}

func (lc *LRUCacheService) Clear(ctx context.Context) error {
	lc.cache.Purge()
	lc.counter.reset()
	return nil
}

// InvalidateByDataVersion xóa các kết quả của phiên bản dữ liệu khác
func (lc *LRUCacheService) InvalidateByDataVersion(ctx context.Context, dataVersion string) error {
	for _, key := range lc.cache.Keys() {
		if result, ok := lc.cache.Peek(key); ok && result.DataVersion != dataVersion {
			lc.cache.Remove(key)
		}
	}
	return nil
}

func (lc *LRUCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	return lc.counter.stats("lru", int64(lc.cache.Len())), nil
}

func (lc *LRUCacheService) Exists(ctx context.Context, key string) (bool, error) {
	return lc.cache.Contains(key), nil
}

// GetTTL trả về TTL cấu hình; expirable.LRU không cho biết thời điểm thêm của từng key
func (lc *LRUCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	if !lc.cache.Contains(key) {
		return 0, nil
	}
	return lc.ttl, nil
}

func (lc *LRUCacheService) Close() error {
	return nil
}
