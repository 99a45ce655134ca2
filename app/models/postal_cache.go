package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostalCache bản ghi cache kết quả libpostal trong MongoDB
type PostalCache struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Fingerprint  string             `bson:"fingerprint" json:"fingerprint"`   // sha256 của cache key
	Operation    string             `bson:"operation" json:"operation"`       // expand | expand_root | parse
	Input        string             `bson:"input" json:"input"`               // Địa chỉ gốc
	Result       PostalResult       `bson:"result" json:"result"`             // Kết quả
	DataVersion  string             `bson:"data_version" json:"data_version"` // Phiên bản dữ liệu libpostal
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount  int                `bson:"access_count" json:"access_count"`
}

// NewPostalCache tạo mới một PostalCache
func NewPostalCache(fingerprint string, result PostalResult) *PostalCache {
	now := time.Now()
	return &PostalCache{
		Fingerprint:  fingerprint,
		Operation:    result.Operation,
		Input:        result.Input,
		Result:       result,
		DataVersion:  result.DataVersion,
		CreatedAt:    now,
		LastAccessed: now,
		AccessCount:  1,
	}
}

// UpdateAccess cập nhật thông tin truy cập
func (pc *PostalCache) UpdateAccess() {
	pc.LastAccessed = time.Now()
	pc.AccessCount++
}

// IsExpired kiểm tra cache có hết hạn không (dựa trên thời gian tạo)
func (pc *PostalCache) IsExpired(ttl time.Duration) bool {
	return ttl > 0 && time.Since(pc.CreatedAt) > ttl
}

// IsValidDataVersion kiểm tra phiên bản dữ liệu có khớp không
func (pc *PostalCache) IsValidDataVersion(currentVersion string) bool {
	return pc.DataVersion == currentVersion
}
