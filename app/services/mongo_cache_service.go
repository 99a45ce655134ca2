package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/address-parser/postal-service/app/models"
	"github.com/address-parser/postal-service/helpers/utils"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoCacheService persistent cache service sử dụng MongoDB + LRU in-memory
type MongoCacheService struct {
	collection *mongo.Collection
	l1Cache    *lru.Cache[string, *models.PostalResult] // LRU in-memory cache
	ttl        time.Duration
	logger     *zap.Logger

	counter hitCounter
	l1      hitCounter
}

// NewMongoCacheService tạo mới MongoCacheService
func NewMongoCacheService(db *mongo.Database, l1Size int, ttl time.Duration, logger *zap.Logger) (*MongoCacheService, error) {
	l1Cache, err := lru.New[string, *models.PostalResult](l1Size)
	if err != nil {
		return nil, fmt.Errorf("không thể tạo LRU cache: %w", err)
	}

	collection := db.Collection("postal_cache")

	// Tạo indexes cho performance
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{bson.E{Key: "data_version", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "operation", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "last_accessed", Value: 1}},
		},
	}
	if ttl > 0 {
		indexModels = append(indexModels, mongo.IndexModel{
			Keys:    bson.D{bson.E{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Không thể tạo indexes cho postal_cache", zap.Error(err))
	}

	return &MongoCacheService{
		collection: collection,
		l1Cache:    l1Cache,
		ttl:        ttl,
		logger:     logger,
	}, nil
}

// Get lấy kết quả từ cache (L1 → MongoDB)
func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.PostalResult, bool, error) {
	fingerprint := utils.Fingerprint(key)

	// 1. Thử L1 cache trước (in-memory LRU, theo fingerprint)
	if result, found := mcs.l1Cache.Get(fingerprint); found {
		mcs.l1.record(true)
		mcs.counter.record(true)
		return result, true, nil
	}
	mcs.l1.record(false)

	// 2. Thử MongoDB persistent cache
	var entry models.PostalCache
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": fingerprint}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			mcs.counter.record(false)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("lỗi query MongoDB cache: %w", err)
	}
	if entry.IsExpired(mcs.ttl) {
		mcs.counter.record(false)
		return nil, false, nil
	}

	mcs.counter.record(true)

	go mcs.updateAccessStats(entry.ID)

	// Lưu vào L1 cache cho lần sau
	mcs.l1Cache.Add(fingerprint, &entry.Result)

	mcs.logger.Debug("MongoDB cache hit",
		zap.String("key", key),
		zap.String("fingerprint", fingerprint))

	return &entry.Result, true, nil
}

// Set lưu kết quả vào cache (L1 + MongoDB)
func (mcs *MongoCacheService) Set(ctx context.Context, key string, result *models.PostalResult) error {
	fingerprint := utils.Fingerprint(key)
	mcs.l1Cache.Add(fingerprint, result)

	entry := models.NewPostalCache(fingerprint, *result)

	opts := options.Replace().SetUpsert(true)
	_, err := mcs.collection.ReplaceOne(ctx, bson.M{"fingerprint": fingerprint}, entry, opts)
	if err != nil {
		mcs.logger.Error("Lỗi lưu vào MongoDB cache",
			zap.Error(err),
			zap.String("fingerprint", fingerprint))
		return fmt.Errorf("lỗi lưu vào MongoDB cache: %w", err)
	}
	return nil
}

// Delete xóa kết quả khỏi cache
func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	fingerprint := utils.Fingerprint(key)
	mcs.l1Cache.Remove(fingerprint)

	_, err := mcs.collection.DeleteOne(ctx, bson.M{"fingerprint": fingerprint})
	if err != nil {
		return fmt.Errorf("lỗi xóa khỏi MongoDB cache: %w", err)
	}
	return nil
}

// Clear xóa tất cả cache
func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()

	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("lỗi clear MongoDB cache: %w", err)
	}

	mcs.counter.reset()
	mcs.l1.reset()
	return nil
}

// InvalidateByDataVersion xóa các bản ghi có data_version khác phiên bản hiện tại
func (mcs *MongoCacheService) InvalidateByDataVersion(ctx context.Context, dataVersion string) error {
	mcs.l1Cache.Purge()

	filter := bson.M{"data_version": bson.M{"$ne": dataVersion}}
	result, err := mcs.collection.DeleteMany(ctx, filter)
	if err != nil {
		return fmt.Errorf("lỗi invalidate cache theo data version: %w", err)
	}

	mcs.logger.Info("Đã invalidate cache",
		zap.String("data_version", dataVersion),
		zap.Int64("deleted_count", result.DeletedCount))
	return nil
}

// GetStats lấy thống kê cache
func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	mongoCount, err := mcs.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("lỗi đếm documents trong MongoDB cache: %w", err)
	}

	stats := mcs.counter.stats("mongo", mongoCount)
	mcs.logger.Debug("Cache stats",
		zap.Float64("hit_rate", stats.HitRate),
		zap.Int64("l1_hits", mcs.l1.hits.Load()),
		zap.Int("l1_size", mcs.l1Cache.Len()),
		zap.Int64("mongo_count", mongoCount))
	return stats, nil
}

// Exists kiểm tra key có tồn tại không
func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	fingerprint := utils.Fingerprint(key)
	if mcs.l1Cache.Contains(fingerprint) {
		return true, nil
	}

	count, err := mcs.collection.CountDocuments(ctx, bson.M{"fingerprint": fingerprint})
	if err != nil {
		return false, fmt.Errorf("lỗi check exists trong MongoDB: %w", err)
	}
	return count > 0, nil
}

// GetTTL lấy TTL còn lại của key dựa trên created_at
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	if mcs.ttl <= 0 {
		return 0, nil
	}

	var entry models.PostalCache
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": utils.Fingerprint(key)},
		options.FindOne().SetProjection(bson.M{"created_at": 1})).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}

	remaining := mcs.ttl - time.Since(entry.CreatedAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Close đóng kết nối. MongoDB client được quản lý bởi caller.
func (mcs *MongoCacheService) Close() error {
	return nil
}

// updateAccessStats cập nhật thống kê truy cập (async)
func (mcs *MongoCacheService) updateAccessStats(id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"last_accessed": time.Now()},
		"$inc": bson.M{"access_count": 1},
	}
	if _, err := mcs.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		mcs.logger.Warn("Lỗi update access stats", zap.Error(err))
	}
}

// WarmUp làm nóng L1 từ các bản ghi được truy cập nhiều nhất của phiên bản dữ liệu
func (mcs *MongoCacheService) WarmUp(ctx context.Context, dataVersion string, limit int) error {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "access_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := mcs.collection.Find(ctx, bson.M{"data_version": dataVersion}, opts)
	if err != nil {
		return fmt.Errorf("lỗi warm up cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var entry models.PostalCache
		if err := cursor.Decode(&entry); err != nil {
			mcs.logger.Warn("Lỗi decode cache entry trong warm up", zap.Error(err))
			continue
		}
		mcs.l1Cache.Add(entry.Fingerprint, &entry.Result)
		count++
	}

	mcs.logger.Info("Cache warm up hoàn thành",
		zap.Int("loaded_items", count),
		zap.Int("l1_size", mcs.l1Cache.Len()))
	return cursor.Err()
}
