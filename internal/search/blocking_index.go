package search

import (
	"context"
	"errors"
	"fmt"

	ms "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

// ErrInvalidDocumentID id không dùng được làm khóa chính Meilisearch
var ErrInvalidDocumentID = errors.New("id tài liệu chỉ gồm chữ, số, '-' và '_' (tối đa 511 ký tự)")

// BlockingDocument một bản ghi địa chỉ cùng các near-dupe hash của nó
type BlockingDocument struct {
	ID        string   `json:"id"`
	Hashes    []string `json:"hashes"`
	ASCIIText string   `json:"ascii_text"`
	Labels    []string `json:"labels"`
}

// BlockingIndex index Meilisearch dùng để tìm bản ghi ứng viên trùng lặp
type BlockingIndex struct {
	index  indexBackend
	name   string
	limit  int64
	logger *zap.Logger
}

// NewBlockingIndex kết nối Meilisearch và mở index cfg.IndexName
func NewBlockingIndex(cfg SearchConfig, logger *zap.Logger) (*BlockingIndex, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return newBlockingIndex(client.Index(cfg.IndexName), cfg.IndexName, cfg.MaxCandidates, logger), nil
}

func newBlockingIndex(index indexBackend, name string, limit int64, logger *zap.Logger) *BlockingIndex {
	if limit <= 0 {
		limit = 20
	}
	return &BlockingIndex{index: index, name: name, limit: limit, logger: logger}
}

// EnsureSettings cấu hình thuộc tính filter/search của index
func (b *BlockingIndex) EnsureSettings() error {
	task, err := b.index.UpdateSettings(&ms.Settings{
		SearchableAttributes: []string{"ascii_text"},
		FilterableAttributes: []string{"id", "hashes", "labels"},
	})
	if err != nil {
		return fmt.Errorf("lỗi cấu hình index: %w", err)
	}
	b.logger.Info("Đã cấu hình blocking index",
		zap.String("index", b.name),
		zap.Int64("task_uid", task.TaskUID))
	return nil
}

// Upsert thêm hoặc thay thế documents
func (b *BlockingIndex) Upsert(docs ...BlockingDocument) error {
	if len(docs) == 0 {
		return nil
	}
	for _, d := range docs {
		if !validDocumentID(d.ID) {
			return fmt.Errorf("%w: %q", ErrInvalidDocumentID, d.ID)
		}
	}
	task, err := b.index.AddDocuments(docs, "id")
	if err != nil {
		return fmt.Errorf("lỗi thêm documents: %w", err)
	}
	b.logger.Debug("Đã gửi documents vào blocking index",
		zap.Int("count", len(docs)),
		zap.Int64("task_uid", task.TaskUID))
	return nil
}

func (b *BlockingIndex) Delete(id string) error {
	if !validDocumentID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentID, id)
	}
	if _, err := b.index.DeleteDocument(id); err != nil {
		return fmt.Errorf("lỗi xóa document %s: %w", id, err)
	}
	return nil
}

// FindByHashes tìm documents có chung ít nhất một hash. excludeID rỗng
// nghĩa là không loại trừ.
func (b *BlockingIndex) FindByHashes(ctx context.Context, hashes []string, excludeID string, limit int64) ([]BlockingDocument, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = b.limit
	}

	filter := FilterHashesIn(hashes)
	if excludeID != "" {
		filter = And(filter, FilterExcludeID(excludeID))
	}
	result, err := b.index.Search("", &ms.SearchRequest{
		Limit:  limit,
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("lỗi tìm kiếm với filter: %w", err)
	}
	return parseBlockingHits(result), nil
}

// parseBlockingHits parse kết quả từ Meilisearch thành BlockingDocument
func parseBlockingHits(result *ms.SearchResponse) []BlockingDocument {
	docs := make([]BlockingDocument, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		doc := BlockingDocument{}
		if id, ok := hitMap["id"].(string); ok {
			doc.ID = id
		}
		if text, ok := hitMap["ascii_text"].(string); ok {
			doc.ASCIIText = text
		}
		doc.Hashes = stringSlice(hitMap["hashes"])
		doc.Labels = stringSlice(hitMap["labels"])
		docs = append(docs, doc)
	}
	return docs
}

func stringSlice(raw interface{}) []string {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func validDocumentID(id string) bool {
	if id == "" || len(id) > 511 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
