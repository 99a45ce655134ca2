package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/address-parser/postal-service/app/config"
	"github.com/address-parser/postal-service/app/metrics"
	"github.com/address-parser/postal-service/app/models"
	"github.com/address-parser/postal-service/app/requests"
	"github.com/address-parser/postal-service/postal"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostalService(t *testing.T) (*PostalService, *fakeEngine, *metrics.Metrics) {
	t.Helper()
	withConfig(t, nil)
	engine := newFakeEngine()
	m := metrics.New()
	return NewPostalService(engine, NewCacheService(time.Hour), m, testLogger()), engine, m
}

func TestExpandUsesCache(t *testing.T) {
	ps, engine, _ := newTestPostalService(t)
	ctx := context.Background()

	first, hit, err := ps.Expand(ctx, "123 Main St", requests.ExpandOptions{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.OpExpand, first.Operation)
	assert.Equal(t, models.StatusOK, first.Status)
	assert.Equal(t, []string{"123 main st", "123 main street"}, first.Expansions)
	assert.Equal(t, config.C.Cache.DataVersion, first.DataVersion)

	// Khác khoảng trắng và hoa thường vẫn dùng chung khóa khi lowercase bật
	second, hit, err := ps.Expand(ctx, "123  MAIN st", requests.ExpandOptions{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "123  MAIN st", second.Input)
	assert.Equal(t, "123 Main St", first.Input, "cached copy is not mutated")
	assert.Equal(t, int64(1), engine.expandCalls.Load())
}

func TestExpandOptionsChangeCacheKey(t *testing.T) {
	ps, engine, _ := newTestPostalService(t)
	ctx := context.Background()
	off := false

	_, _, err := ps.Expand(ctx, "123 Main St", requests.ExpandOptions{})
	require.NoError(t, err)
	res, hit, err := ps.Expand(ctx, "123 Main St", requests.ExpandOptions{NormalizeFlags: config.NormalizeFlags{Lowercase: &off}})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "123 Main St", res.Expansions[0])
	assert.False(t, engine.lastNormalize.Lowercase)

	root, hit, err := ps.Expand(ctx, "123 Main St", requests.ExpandOptions{Root: true})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.OpExpandRoot, root.Operation)
	assert.Equal(t, "root:123 main st", root.Expansions[0])
	assert.Equal(t, int64(3), engine.expandCalls.Load())
}

func TestExpandAppliesConfiguredDefaults(t *testing.T) {
	ps, engine, _ := newTestPostalService(t)
	config.C.Expand.Languages = []string{"vi"}
	config.C.Expand.AddressComponents = "street"

	_, _, err := ps.Expand(context.Background(), "12 Nguyễn Huệ", requests.ExpandOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"vi"}, engine.lastNormalize.Languages)
	assert.True(t, engine.lastNormalize.AddressComponents.Has(postal.ComponentStreet))
	assert.False(t, engine.lastNormalize.AddressComponents.Has(postal.ComponentName))

	_, _, err = ps.Expand(context.Background(), "x", requests.ExpandOptions{AddressComponents: "nope"})
	assert.Error(t, err)
}

func TestExpandEmptyAndErrors(t *testing.T) {
	ps, engine, m := newTestPostalService(t)
	ctx := context.Background()

	_, _, err := ps.Expand(ctx, "   ", requests.ExpandOptions{})
	assert.ErrorIs(t, err, ErrEmptyInput)

	res, _, err := ps.Expand(ctx, "???", requests.ExpandOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusEmpty, res.Status)
	assert.Empty(t, res.Expansions)

	_, _, err = ps.Expand(ctx, "bad\x00input", requests.ExpandOptions{})
	assert.ErrorIs(t, err, postal.ErrInvalidString)

	engine.err = postal.ErrClosed
	_, _, err = ps.Expand(ctx, "another", requests.ExpandOptions{})
	assert.ErrorIs(t, err, postal.ErrClosed)

	// expand/empty và expand/error
	n, err := testutil.GatherAndCount(m.Registry(), "postal_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestParse(t *testing.T) {
	ps, engine, _ := newTestPostalService(t)
	ctx := context.Background()
	config.C.Parser.Country = "us"

	res, hit, err := ps.Parse(ctx, "781 Franklin Ave Brooklyn", requests.ParseOptions{Language: "en"})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.StatusOK, res.Status)
	road, ok := res.Component("road")
	assert.True(t, ok)
	assert.Equal(t, "franklin ave brooklyn", road)
	assert.Equal(t, postal.AddressParserOptions{Language: "en", Country: "us"}, engine.lastParser)

	_, hit, err = ps.Parse(ctx, "781 Franklin Ave Brooklyn", requests.ParseOptions{Language: "en"})
	require.NoError(t, err)
	assert.True(t, hit)

	_, hit, err = ps.Parse(ctx, "781 Franklin Ave Brooklyn", requests.ParseOptions{Language: "en", Country: "ca"})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(2), engine.parseCalls.Load())
}

func TestParseAbsentResponse(t *testing.T) {
	ps, engine, _ := newTestPostalService(t)
	engine.parseAbsent = true

	res, _, err := ps.Parse(context.Background(), "something", requests.ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusEmpty, res.Status)
	assert.Empty(t, res.Components)

	engine.parseAbsent = false
	engine.err = ErrParserDisabled
	_, _, err = ps.Parse(context.Background(), "other", requests.ParseOptions{})
	assert.ErrorIs(t, err, ErrParserDisabled)
}

func TestNativeCallTimeout(t *testing.T) {
	ps, engine, _ := newTestPostalService(t)
	config.C.RequestTimeoutMs = 10
	engine.delay = 200 * time.Millisecond

	_, _, err := ps.Expand(context.Background(), "slow address", requests.ExpandOptions{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunUnknownOperation(t *testing.T) {
	ps, _, _ := newTestPostalService(t)
	_, err := ps.Run(context.Background(), "geocode", "x", requests.ExpandOptions{}, requests.ParseOptions{})
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, err = ps.CreateJob("geocode", 1)
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestBatchJob(t *testing.T) {
	ps, _, _ := newTestPostalService(t)
	config.C.Batch.Workers = 3

	addresses := make([]string, 25)
	for i := range addresses {
		addresses[i] = fmt.Sprintf("%d Main St", i+1)
	}
	addresses[7] = "bad\x00"

	jobID, err := ps.CreateJob(models.OpExpand, len(addresses))
	require.NoError(t, err)

	status, err := ps.GetJobStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, status.Status)

	_, err = ps.GetJobResults(jobID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	ps.ProcessBatchJob(context.Background(), jobID, addresses, requests.ExpandOptions{}, requests.ParseOptions{})

	status, err = ps.GetJobStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusDone, status.Status)
	assert.Equal(t, 25, status.Processed)
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, 1.0, status.Progress)

	results, err := ps.GetJobResults(jobID)
	require.NoError(t, err)
	require.Len(t, results, 25)
	for i, r := range results {
		assert.Equal(t, addresses[i], r.Input, "results keep input order")
	}
	assert.Equal(t, models.StatusError, results[7].Status)
	assert.NotEmpty(t, results[7].Error)

	stream, err := ps.GetJobResultsStream(context.Background(), jobID)
	require.NoError(t, err)
	count := 0
	for range stream {
		count++
	}
	assert.Equal(t, 25, count)
}

func TestBatchJobLimits(t *testing.T) {
	ps, _, _ := newTestPostalService(t)
	config.C.Batch.MaxItems = 2

	_, err := ps.CreateJob(models.OpParse, 3)
	assert.ErrorIs(t, err, ErrTooManyItems)

	_, err = ps.GetJobStatus("missing")
	assert.True(t, errors.Is(err, ErrJobNotFound))
}

func TestBatchJobCancelled(t *testing.T) {
	ps, _, _ := newTestPostalService(t)
	jobID, err := ps.CreateJob(models.OpParse, 3)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ps.ProcessBatchJob(ctx, jobID, []string{"a", "b", "c"}, requests.ExpandOptions{}, requests.ParseOptions{})

	status, err := ps.GetJobStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, status.Status)
	_, err = ps.GetJobResults(jobID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestClearCacheAndStats(t *testing.T) {
	ps, engine, _ := newTestPostalService(t)
	ctx := context.Background()

	_, _, err := ps.Expand(ctx, "1 Main St", requests.ExpandOptions{})
	require.NoError(t, err)
	stats, err := ps.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalItems)

	require.NoError(t, ps.ClearCache(ctx, config.C.Cache.DataVersion))
	_, hit, err := ps.Expand(ctx, "1 Main St", requests.ExpandOptions{})
	require.NoError(t, err)
	assert.True(t, hit, "same data version survives invalidation")

	require.NoError(t, ps.ClearCache(ctx, ""))
	_, hit, err = ps.Expand(ctx, "1 Main St", requests.ExpandOptions{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(2), engine.expandCalls.Load())

	assert.Contains(t, ps.GetStats(), "uptime_seconds")
	assert.True(t, ps.EngineStatus().Core)
}
