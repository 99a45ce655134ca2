package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/address-parser/postal-service/app/config"
	"github.com/address-parser/postal-service/app/metrics"
	"github.com/address-parser/postal-service/app/models"
	"github.com/address-parser/postal-service/app/requests"
	"github.com/address-parser/postal-service/helpers/utils"
	"github.com/address-parser/postal-service/internal/normalizer"
	"github.com/address-parser/postal-service/postal"
	"go.uber.org/zap"
)

// PostalService service expand/parse địa chỉ qua libpostal, có cache và job batch
type PostalService struct {
	engine    Engine
	cache     ICacheService // nil: không cache
	metrics   *metrics.Metrics
	logger    *zap.Logger
	startTime time.Time
	mu        sync.RWMutex

	// Job management
	jobs       map[string]*JobStatus
	jobResults map[string][]*models.PostalResult
}

// JobStatus trạng thái của job
type JobStatus struct {
	JobID              string
	Operation          string
	Status             string
	Progress           float64
	Processed          int
	Failed             int
	Total              int
	EstimatedRemaining int
	Message            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewPostalService tạo mới PostalService
func NewPostalService(engine Engine, cache ICacheService, m *metrics.Metrics, logger *zap.Logger) *PostalService {
	return &PostalService{
		engine:     engine,
		cache:      cache,
		metrics:    m,
		logger:     logger,
		startTime:  time.Now(),
		jobs:       make(map[string]*JobStatus),
		jobResults: make(map[string][]*models.PostalResult),
	}
}

// NormalizeOptions options libpostal sau khi áp dụng cấu hình và ghi đè của request
func (ps *PostalService) NormalizeOptions(opts requests.ExpandOptions) (postal.NormalizeOptions, error) {
	base, err := config.C.ExpandOptions(ps.engine.DefaultNormalizeOptions())
	if err != nil {
		return base, fmt.Errorf("cấu hình expand không hợp lệ: %w", err)
	}
	return opts.Apply(base)
}

// ParserOptions gợi ý parse của request, fallback về cấu hình
func (ps *PostalService) ParserOptions(opts requests.ParseOptions) postal.AddressParserOptions {
	out := ps.engine.DefaultParserOptions()
	if config.C.Parser.Language != "" {
		out.Language = config.C.Parser.Language
	}
	if config.C.Parser.Country != "" {
		out.Country = config.C.Parser.Country
	}
	if opts.Language != "" {
		out.Language = opts.Language
	}
	if opts.Country != "" {
		out.Country = opts.Country
	}
	return out
}

// Expand expand một địa chỉ. Trả về kết quả và có hit cache hay không.
func (ps *PostalService) Expand(ctx context.Context, input string, opts requests.ExpandOptions) (*models.PostalResult, bool, error) {
	if strings.TrimSpace(input) == "" {
		return nil, false, ErrEmptyInput
	}
	nopts, err := ps.NormalizeOptions(opts)
	if err != nil {
		return nil, false, err
	}

	op := models.OpExpand
	if opts.Root || config.C.Expand.Root {
		op = models.OpExpandRoot
	}
	key := utils.CacheKey(op, config.C.Cache.DataVersion, normalizer.FoldKey(input, nopts.Lowercase), optionsFingerprint(nopts))

	return ps.cached(ctx, op, input, key, func() (*models.PostalResult, error) {
		expand := ps.engine.ExpandAddress
		if op == models.OpExpandRoot {
			expand = ps.engine.ExpandAddressRoot
		}
		expansions, err := expand(input, nopts)
		if err != nil {
			return nil, err
		}
		result := &models.PostalResult{Expansions: expansions, Status: models.StatusOK}
		if len(expansions) == 0 {
			result.Status = models.StatusEmpty
		}
		return result, nil
	})
}

// Parse gán nhãn các thành phần của một địa chỉ
func (ps *PostalService) Parse(ctx context.Context, input string, opts requests.ParseOptions) (*models.PostalResult, bool, error) {
	if strings.TrimSpace(input) == "" {
		return nil, false, ErrEmptyInput
	}
	popts := ps.ParserOptions(opts)
	key := utils.CacheKey(models.OpParse, config.C.Cache.DataVersion, normalizer.FoldKey(input, false), popts.Language, popts.Country)

	return ps.cached(ctx, models.OpParse, input, key, func() (*models.PostalResult, error) {
		components, ok, err := ps.engine.ParseAddress(input, popts)
		if err != nil {
			return nil, err
		}
		result := &models.PostalResult{Components: components, Status: models.StatusOK}
		if !ok || len(components) == 0 {
			result.Status = models.StatusEmpty
		}
		return result, nil
	})
}

// Run chạy một thao tác theo tên, dùng cho job batch và worker
func (ps *PostalService) Run(ctx context.Context, op, input string, expandOpts requests.ExpandOptions, parseOpts requests.ParseOptions) (*models.PostalResult, error) {
	var (
		result *models.PostalResult
		err    error
	)
	switch op {
	case models.OpExpand:
		result, _, err = ps.Expand(ctx, input, expandOpts)
	case models.OpExpandRoot:
		expandOpts.Root = true
		result, _, err = ps.Expand(ctx, input, expandOpts)
	case models.OpParse:
		result, _, err = ps.Parse(ctx, input, parseOpts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	return result, err
}

// cached tra cache theo key, nếu miss thì gọi run và lưu kết quả
func (ps *PostalService) cached(ctx context.Context, op, input, key string, run func() (*models.PostalResult, error)) (*models.PostalResult, bool, error) {
	if ps.cache != nil {
		hit, found, err := ps.cache.Get(ctx, key)
		if err != nil {
			ps.logger.Warn("Lỗi đọc cache", zap.Error(err), zap.String("operation", op))
		}
		ps.metrics.CacheLookup(found)
		if found {
			out := *hit
			out.Input = input
			return &out, true, nil
		}
	}

	start := time.Now()
	result, err := callNative(ctx, run)
	elapsed := time.Since(start)
	if err != nil {
		ps.metrics.ObserveOperation(op, models.StatusError, elapsed)
		return nil, false, err
	}

	result.Operation = op
	result.Input = input
	result.DataVersion = config.C.Cache.DataVersion
	result.ProcessingTimeMs = elapsed.Milliseconds()
	result.CreatedAt = time.Now()
	ps.metrics.ObserveOperation(op, result.Status, elapsed)

	if ps.cache != nil {
		if err := ps.cache.Set(ctx, key, result); err != nil {
			ps.logger.Warn("Lỗi lưu cache", zap.Error(err), zap.String("operation", op))
		}
	}
	return result, false, nil
}

// callNative chạy fn trong goroutine riêng và chờ tối đa config.RequestTimeout().
// libpostal không hủy được giữa chừng nên khi hết giờ kết quả bị bỏ; goroutine
// vẫn giữ handle cho tới khi lời gọi native trả về.
func callNative[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, config.RequestTimeout())
	defer cancel()

	type out struct {
		v   T
		err error
	}
	done := make(chan out, 1)
	go func() {
		v, err := fn()
		done <- out{v, err}
	}()

	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func optionsFingerprint(opts postal.NormalizeOptions) string {
	b, err := json.Marshal(opts)
	if err != nil {
		return fmt.Sprintf("%+v", opts)
	}
	return string(b)
}

// EstimateBatchProcessingTime ước tính thời gian xử lý batch (giây)
func (ps *PostalService) EstimateBatchProcessingTime(addressCount int) int {
	workers := config.C.Batch.Workers
	if workers <= 0 {
		workers = 1
	}
	// Giả sử mỗi địa chỉ mất khoảng 5ms
	return (addressCount*5/workers + 999) / 1000
}

// CreateJob đăng ký job mới ở trạng thái pending
func (ps *PostalService) CreateJob(op string, total int) (string, error) {
	switch op {
	case models.OpExpand, models.OpExpandRoot, models.OpParse:
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	if limit := config.C.Batch.MaxItems; limit > 0 && total > limit {
		return "", fmt.Errorf("%w: %d > %d", ErrTooManyItems, total, limit)
	}

	jobID := utils.GenerateUUID()
	now := time.Now()
	ps.mu.Lock()
	ps.jobs[jobID] = &JobStatus{
		JobID:              jobID,
		Operation:          op,
		Status:             models.JobStatusPending,
		Total:              total,
		EstimatedRemaining: ps.EstimateBatchProcessingTime(total),
		Message:            "Đang chờ xử lý",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	ps.mu.Unlock()
	return jobID, nil
}

// ProcessBatchJob xử lý job batch với pool worker; kết quả giữ thứ tự input
func (ps *PostalService) ProcessBatchJob(ctx context.Context, jobID string, addresses []string, expandOpts requests.ExpandOptions, parseOpts requests.ParseOptions) {
	ps.mu.Lock()
	job, exists := ps.jobs[jobID]
	if !exists {
		ps.mu.Unlock()
		ps.logger.Warn("Batch job không tồn tại", zap.String("job_id", jobID))
		return
	}
	job.Status = models.JobStatusRunning
	job.Message = "Đang xử lý..."
	job.UpdatedAt = time.Now()
	op := job.Operation
	ps.mu.Unlock()

	ps.metrics.JobStarted()
	defer ps.metrics.JobFinished()

	workers := config.C.Batch.Workers
	if workers <= 0 {
		workers = 1
	}
	start := time.Now()
	results := make([]*models.PostalResult, len(addresses))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				result, err := ps.Run(ctx, op, addresses[i], expandOpts, parseOpts)
				if err != nil {
					result = models.ErrorResult(op, addresses[i], err)
				}
				results[i] = result
				ps.progress(jobID, err != nil, start)
			}
		}()
	}

	cancelled := false
	for i := range addresses {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		select {
		case indexes <- i:
		case <-ctx.Done():
			cancelled = true
		}
		if cancelled {
			break
		}
	}
	close(indexes)
	wg.Wait()

	ps.mu.Lock()
	if cancelled {
		job.Status = models.JobStatusFailed
		job.Message = "Job bị hủy: " + ctx.Err().Error()
	} else {
		job.Status = models.JobStatusDone
		job.Message = "Hoàn thành xử lý"
		job.EstimatedRemaining = 0
		ps.jobResults[jobID] = results
	}
	job.UpdatedAt = time.Now()
	failed := job.Failed
	ps.mu.Unlock()

	ps.logger.Info("Batch job completed",
		zap.String("job_id", jobID),
		zap.String("operation", op),
		zap.Int("total_addresses", len(addresses)),
		zap.Int("failed", failed),
		zap.Bool("cancelled", cancelled),
		zap.Duration("elapsed", time.Since(start)))
}

func (ps *PostalService) progress(jobID string, failed bool, start time.Time) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	job, exists := ps.jobs[jobID]
	if !exists {
		return
	}
	job.Processed++
	if failed {
		job.Failed++
	}
	if job.Total > 0 {
		job.Progress = float64(job.Processed) / float64(job.Total)
	}
	if job.Processed > 0 {
		perItem := time.Since(start) / time.Duration(job.Processed)
		job.EstimatedRemaining = int((perItem * time.Duration(job.Total-job.Processed)).Seconds())
	}
	job.UpdatedAt = time.Now()
}

// GetJobStatus lấy trạng thái job (bản sao)
func (ps *PostalService) GetJobStatus(jobID string) (*JobStatus, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	job, exists := ps.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}
	out := *job
	return &out, nil
}

// GetJobResults lấy kết quả job
func (ps *PostalService) GetJobResults(jobID string) ([]*models.PostalResult, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	results, exists := ps.jobResults[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: chưa có kết quả cho %s", ErrJobNotFound, jobID)
	}
	return results, nil
}

// GetJobResultsStream lấy kết quả job dưới dạng channel để stream
func (ps *PostalService) GetJobResultsStream(ctx context.Context, jobID string) (<-chan *models.PostalResult, error) {
	results, err := ps.GetJobResults(jobID)
	if err != nil {
		return nil, err
	}

	resultChannel := make(chan *models.PostalResult, 100)
	go func() {
		defer close(resultChannel)
		for _, result := range results {
			select {
			case resultChannel <- result:
			case <-ctx.Done():
				return
			}
		}
	}()
	return resultChannel, nil
}

// GetStartTime lấy thời gian khởi động service
func (ps *PostalService) GetStartTime() time.Time {
	return ps.startTime
}

// EngineStatus trạng thái libpostal
func (ps *PostalService) EngineStatus() EngineStatus {
	return ps.engine.Status()
}

// CacheStats thống kê cache, nil nếu không cấu hình cache
func (ps *PostalService) CacheStats(ctx context.Context) (*CacheStats, error) {
	if ps.cache == nil {
		return nil, nil
	}
	return ps.cache.GetStats(ctx)
}

// ClearCache xóa cache; nếu dataVersion khác rỗng thì chỉ xóa các phiên bản khác
func (ps *PostalService) ClearCache(ctx context.Context, dataVersion string) error {
	if ps.cache == nil {
		return nil
	}
	if dataVersion != "" {
		return ps.cache.InvalidateByDataVersion(ctx, dataVersion)
	}
	return ps.cache.Clear(ctx)
}

// GetStats lấy thống kê service
func (ps *PostalService) GetStats() map[string]interface{} {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	running := 0
	for _, job := range ps.jobs {
		if job.Status == models.JobStatusRunning {
			running++
		}
	}

	return map[string]interface{}{
		"uptime_seconds": int64(time.Since(ps.startTime).Seconds()),
		"start_time":     ps.startTime.Format(time.RFC3339),
		"jobs_total":     len(ps.jobs),
		"jobs_running":   running,
		"data_version":   config.C.Cache.DataVersion,
	}
}
