package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/address-parser/postal-service/app/config"
	"github.com/address-parser/postal-service/app/metrics"
	"github.com/address-parser/postal-service/app/models"
	"github.com/address-parser/postal-service/internal/normalizer"
	"github.com/address-parser/postal-service/internal/search"
	"github.com/address-parser/postal-service/postal"
	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
	"go.uber.org/zap"
)

// BlockingStore nơi lưu near-dupe hash của các bản ghi
type BlockingStore interface {
	Upsert(docs ...search.BlockingDocument) error
	FindByHashes(ctx context.Context, hashes []string, excludeID string, limit int64) ([]search.BlockingDocument, error)
}

// DedupeService so sánh trùng lặp và blocking theo near-dupe hash
type DedupeService struct {
	engine   Engine
	blocking BlockingStore // nil: tắt blocking
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewDedupeService tạo mới DedupeService
func NewDedupeService(engine Engine, blocking BlockingStore, m *metrics.Metrics, logger *zap.Logger) *DedupeService {
	return &DedupeService{
		engine:   engine,
		blocking: blocking,
		metrics:  m,
		logger:   logger,
	}
}

func languagesOrDefault(languages []string) []string {
	if len(languages) > 0 {
		return languages
	}
	return config.C.Dedupe.Languages
}

// observe ghi metrics cho một thao tác dedupe
func (ds *DedupeService) observe(op string, start time.Time, err error) {
	status := models.StatusOK
	if err != nil {
		status = models.StatusError
	}
	ds.metrics.ObserveOperation(op, status, time.Since(start))
}

// CompareField so sánh hai giá trị của một trường. Khi kết quả cần review
// (hoặc explain) thì kèm số liệu tương đồng chuỗi.
func (ds *DedupeService) CompareField(ctx context.Context, fieldName, value1, value2 string, languages []string, explain bool) (result *models.DuplicateResult, err error) {
	defer func(start time.Time) { ds.observe("is_duplicate", start, err) }(time.Now())

	field, ok := postal.ParseField(fieldName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, fieldName)
	}

	status, err := callNative(ctx, func() (postal.DuplicateStatus, error) {
		opts, err := ds.engine.DuplicateOptions(languagesOrDefault(languages))
		if err != nil {
			return postal.NullDuplicateStatus, err
		}
		return ds.engine.IsDuplicate(field, value1, value2, opts)
	})
	if err != nil {
		return nil, err
	}

	result = &models.DuplicateResult{Field: field.String(), Status: status}
	if explain || status == postal.PossibleDuplicateNeedsReview {
		result.Similarity = Similarity(value1, value2)
	}
	return result, nil
}

// Similarity số liệu tương đồng trên dạng không dấu, lowercase của hai chuỗi
func Similarity(a, b string) *models.SimilarityReport {
	na, nb := normalizer.CompareForm(a), normalizer.CompareForm(b)
	return &models.SimilarityReport{
		NormalizedA: na,
		NormalizedB: nb,
		Levenshtein: levenshtein.ComputeDistance(na, nb),
		JaroWinkler: smetrics.JaroWinkler(na, nb, 0.7, 4),
	}
}

// CompareToponym so sánh hai tập toponym (city, state, country...)
func (ds *DedupeService) CompareToponym(ctx context.Context, a, b []postal.Address, languages []string) (status postal.DuplicateStatus, err error) {
	defer func(start time.Time) { ds.observe("is_toponym_duplicate", start, err) }(time.Now())

	if len(a) == 0 || len(b) == 0 {
		return postal.NullDuplicateStatus, ErrEmptyInput
	}
	return callNative(ctx, func() (postal.DuplicateStatus, error) {
		opts, err := ds.engine.DuplicateOptions(languagesOrDefault(languages))
		if err != nil {
			return postal.NullDuplicateStatus, err
		}
		return ds.engine.IsToponymDuplicate(a, b, opts)
	})
}

// CompareFuzzy so sánh fuzzy hai danh sách token có trọng số. Ngưỡng trong
// cấu hình thay mặc định của libpostal; ngưỡng của request ưu tiên nhất.
func (ds *DedupeService) CompareFuzzy(ctx context.Context, fieldName string, tokens1, tokens2 []postal.TokenScore, languages []string, needsReview, likelyDupe *float64) (result *models.FuzzyDuplicateResult, err error) {
	defer func(start time.Time) { ds.observe("is_duplicate_fuzzy", start, err) }(time.Now())

	field, ok := postal.ParseField(fieldName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, fieldName)
	}
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return nil, ErrEmptyInput
	}

	status, err := callNative(ctx, func() (postal.FuzzyDuplicateStatus, error) {
		opts, err := ds.engine.FuzzyDuplicateOptions(languagesOrDefault(languages))
		if err != nil {
			return postal.FuzzyDuplicateStatus{Status: postal.NullDuplicateStatus}, err
		}
		if v := config.C.Dedupe.NeedsReviewThreshold; v > 0 {
			opts.NeedsReviewThreshold = v
		}
		if v := config.C.Dedupe.LikelyDupeThreshold; v > 0 {
			opts.LikelyDupeThreshold = v
		}
		if needsReview != nil {
			opts.NeedsReviewThreshold = *needsReview
		}
		if likelyDupe != nil {
			opts.LikelyDupeThreshold = *likelyDupe
		}
		return ds.engine.IsDuplicateFuzzy(field, tokens1, tokens2, opts)
	})
	if err != nil {
		return nil, err
	}

	return &models.FuzzyDuplicateResult{
		Field:      field.String(),
		Status:     status.Status,
		Similarity: status.Similarity,
	}, nil
}

// HashOptions options near-dupe hash: opts của request hoặc mặc định với
// geohash precision trong cấu hình
func (ds *DedupeService) HashOptions(opts *postal.NearDupeHashOptions) postal.NearDupeHashOptions {
	if opts != nil {
		return *opts
	}
	out := ds.engine.DefaultNearDupeHashOptions()
	if p := config.C.Dedupe.GeohashPrecision; p > 0 {
		out.GeohashPrecision = p
	}
	return out
}

// NearDupeHashes sinh các khóa blocking cho một bản ghi
func (ds *DedupeService) NearDupeHashes(ctx context.Context, addrs []postal.Address, opts *postal.NearDupeHashOptions, languages []string) (hashes []string, err error) {
	defer func(start time.Time) { ds.observe("near_dupe_hashes", start, err) }(time.Now())

	if len(addrs) == 0 {
		return nil, ErrEmptyInput
	}
	hopts := ds.HashOptions(opts)
	return callNative(ctx, func() ([]string, error) {
		return ds.engine.NearDupeHashes(addrs, hopts, languagesOrDefault(languages))
	})
}

// PlaceLanguages đoán ngôn ngữ của các trường địa chỉ
func (ds *DedupeService) PlaceLanguages(ctx context.Context, addrs []postal.Address) (languages []string, err error) {
	defer func(start time.Time) { ds.observe("place_languages", start, err) }(time.Now())

	if len(addrs) == 0 {
		return nil, ErrEmptyInput
	}
	return callNative(ctx, func() ([]string, error) {
		return ds.engine.PlaceLanguages(addrs)
	})
}

// IndexRecord tính hash cho bản ghi id và lưu vào blocking index
func (ds *DedupeService) IndexRecord(ctx context.Context, id string, addrs []postal.Address, opts *postal.NearDupeHashOptions, languages []string) ([]string, error) {
	if ds.blocking == nil {
		return nil, ErrBlockingDisabled
	}
	hashes, err := ds.NearDupeHashes(ctx, addrs, opts, languages)
	if err != nil {
		return nil, err
	}

	doc := search.BlockingDocument{
		ID:        id,
		Hashes:    hashes,
		ASCIIText: asciiText(addrs),
		Labels:    labels(addrs),
	}
	if err := ds.blocking.Upsert(doc); err != nil {
		return nil, err
	}
	ds.logger.Debug("Đã index bản ghi", zap.String("id", id), zap.Int("hashes", len(hashes)))
	return hashes, nil
}

// FindCandidates tìm các bản ghi có chung ít nhất một hash, sắp xếp theo số hash chung
func (ds *DedupeService) FindCandidates(ctx context.Context, addrs []postal.Address, opts *postal.NearDupeHashOptions, languages []string, excludeID string, limit int64) ([]string, []models.Candidate, error) {
	if ds.blocking == nil {
		return nil, nil, ErrBlockingDisabled
	}
	hashes, err := ds.NearDupeHashes(ctx, addrs, opts, languages)
	if err != nil {
		return nil, nil, err
	}
	if limit <= 0 {
		limit = config.C.Dedupe.CandidateLimit
	}

	docs, err := ds.blocking.FindByHashes(ctx, hashes, excludeID, limit)
	if err != nil {
		return hashes, nil, err
	}

	own := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		own[h] = struct{}{}
	}
	candidates := make([]models.Candidate, 0, len(docs))
	for _, d := range docs {
		shared := 0
		for _, h := range d.Hashes {
			if _, ok := own[h]; ok {
				shared++
			}
		}
		candidates = append(candidates, models.Candidate{
			ID:           d.ID,
			Labels:       d.Labels,
			ASCIIText:    d.ASCIIText,
			SharedHashes: shared,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].SharedHashes > candidates[j].SharedHashes
	})
	return hashes, candidates, nil
}

func asciiText(addrs []postal.Address) string {
	values := make([]string, len(addrs))
	for i, a := range addrs {
		values[i] = a.Value
	}
	return normalizer.ASCIIText(strings.Join(values, " "))
}

func labels(addrs []postal.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Label
	}
	return out
}
