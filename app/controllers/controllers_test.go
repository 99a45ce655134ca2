package controllers_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/address-parser/postal-service/app/config"
	"github.com/address-parser/postal-service/app/controllers"
	"github.com/address-parser/postal-service/app/metrics"
	"github.com/address-parser/postal-service/app/models"
	"github.com/address-parser/postal-service/app/responses"
	"github.com/address-parser/postal-service/app/services"
	"github.com/address-parser/postal-service/postal"
	"github.com/address-parser/postal-service/routes"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubEngine Engine tối giản trả kết quả cố định
type stubEngine struct {
	classifier bool
}

func (s *stubEngine) DefaultNormalizeOptions() postal.NormalizeOptions {
	return postal.NormalizeOptions{Lowercase: true}
}

func (s *stubEngine) ExpandAddress(input string, opts postal.NormalizeOptions) ([]string, error) {
	if strings.Contains(input, "\x00") {
		return nil, &postal.InvalidStringError{Field: "input", Offset: strings.Index(input, "\x00")}
	}
	return []string{strings.ToLower(input)}, nil
}

func (s *stubEngine) ExpandAddressRoot(input string, opts postal.NormalizeOptions) ([]string, error) {
	return []string{"root " + strings.ToLower(input)}, nil
}

func (s *stubEngine) DefaultParserOptions() postal.AddressParserOptions {
	return postal.AddressParserOptions{}
}

func (s *stubEngine) ParseAddress(input string, opts postal.AddressParserOptions) ([]postal.ParsedComponent, bool, error) {
	return []postal.ParsedComponent{{Label: "road", Value: strings.ToLower(input)}}, true, nil
}

func (s *stubEngine) PlaceLanguages(addrs []postal.Address) ([]string, error) {
	if !s.classifier {
		return nil, services.ErrClassifierDisabled
	}
	return []string{"en"}, nil
}

func (s *stubEngine) DefaultNearDupeHashOptions() postal.NearDupeHashOptions {
	return postal.NearDupeHashOptions{WithName: true}
}

func (s *stubEngine) NearDupeHashes(addrs []postal.Address, opts postal.NearDupeHashOptions, languages []string) ([]string, error) {
	if !s.classifier {
		return nil, services.ErrClassifierDisabled
	}
	return []string{"h1", "h2"}, nil
}

func (s *stubEngine) DuplicateOptions(languages []string) (postal.DuplicateOptions, error) {
	return postal.DuplicateOptions{Languages: languages}, nil
}

func (s *stubEngine) IsDuplicate(field postal.Field, a, b string, opts postal.DuplicateOptions) (postal.DuplicateStatus, error) {
	if a == b {
		return postal.ExactDuplicate, nil
	}
	return postal.PossibleDuplicateNeedsReview, nil
}

func (s *stubEngine) IsToponymDuplicate(a, b []postal.Address, opts postal.DuplicateOptions) (postal.DuplicateStatus, error) {
	return postal.LikelyDuplicate, nil
}

func (s *stubEngine) FuzzyDuplicateOptions(languages []string) (postal.FuzzyDuplicateOptions, error) {
	return postal.FuzzyDuplicateOptions{Languages: languages}, nil
}

func (s *stubEngine) IsDuplicateFuzzy(field postal.Field, a, b []postal.TokenScore, opts postal.FuzzyDuplicateOptions) (postal.FuzzyDuplicateStatus, error) {
	return postal.FuzzyDuplicateStatus{Status: postal.LikelyDuplicate, Similarity: 0.91}, nil
}

func (s *stubEngine) Status() services.EngineStatus {
	return services.EngineStatus{Core: true, Parser: true, Classifier: s.classifier}
}

func (s *stubEngine) Close() error { return nil }

func newTestRouter(t *testing.T, classifier bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	saved := config.C
	config.C = config.Default()
	t.Cleanup(func() { config.C = saved })

	logger := zap.NewNop()
	engine := &stubEngine{classifier: classifier}
	m := metrics.New()
	postalService := services.NewPostalService(engine, services.NewCacheService(time.Hour), m, logger)
	dedupeService := services.NewDedupeService(engine, nil, m, logger)

	router := gin.New()
	routes.SetupAllRoutes(router, routes.Controllers{
		Postal: controllers.NewPostalController(context.Background(), postalService, logger),
		Dedupe: controllers.NewDedupeController(dedupeService, logger),
		Admin:  controllers.NewAdminController(postalService, logger),
	}, m.Handler(), logger)
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestExpandEndpoint(t *testing.T) {
	router := newTestRouter(t, true)

	w := doJSON(t, router, http.MethodPost, "/v1/expand", gin.H{"address": "123 Main St"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp responses.ResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"123 main st"}, resp.Result.Expansions)
	assert.False(t, resp.CacheHit)

	w = doJSON(t, router, http.MethodPost, "/v1/expand", gin.H{"address": "123 Main St"})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.CacheHit)

	w = doJSON(t, router, http.MethodPost, "/v1/expand", gin.H{"address": "1 Main", "options": gin.H{"root": true}})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.OpExpandRoot, resp.Result.Operation)
}

func TestErrorMapping(t *testing.T) {
	router := newTestRouter(t, false)

	cases := []struct {
		name   string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"missing address", "/v1/expand", gin.H{}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"nul byte", "/v1/expand", gin.H{"address": "a\x00b"}, http.StatusBadRequest, "INVALID_STRING"},
		{"bad component", "/v1/expand", gin.H{"address": "a", "options": gin.H{"address_components": "moon"}}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown field", "/v1/dedupe/compare", gin.H{"field": "planet", "value1": "a", "value2": "b"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"classifier off", "/v1/place_languages", gin.H{"addresses": []gin.H{{"label": "road", "value": "Main St"}}}, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"blocking off", "/v1/blocking/candidates", gin.H{"addresses": []gin.H{{"label": "road", "value": "Main St"}}}, http.StatusServiceUnavailable, "UNAVAILABLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code)
			var resp responses.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Error)
		})
	}

	w := doJSON(t, router, http.MethodGet, "/v1/jobs/nope/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "JOB_NOT_FOUND")
}

func TestParseEndpoint(t *testing.T) {
	router := newTestRouter(t, true)

	w := doJSON(t, router, http.MethodPost, "/v1/parse", gin.H{"address": "Franklin Ave", "options": gin.H{"country": "us"}})
	require.Equal(t, http.StatusOK, w.Code)
	var resp responses.ResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Result.Components, 1)
	assert.Equal(t, "franklin ave", resp.Result.Components[0].Value)
}

func TestDedupeEndpoints(t *testing.T) {
	router := newTestRouter(t, true)

	w := doJSON(t, router, http.MethodPost, "/v1/dedupe/compare", gin.H{"field": "street", "value1": "Main Street", "value2": "Main St"})
	require.Equal(t, http.StatusOK, w.Code)
	var dup models.DuplicateResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dup))
	assert.Equal(t, postal.PossibleDuplicateNeedsReview, dup.Status)
	require.NotNil(t, dup.Similarity)
	assert.Equal(t, 4, dup.Similarity.Levenshtein)
	assert.Contains(t, w.Body.String(), `"status":"needs_review"`)

	w = doJSON(t, router, http.MethodPost, "/v1/dedupe/toponym", gin.H{
		"addresses1": []gin.H{{"label": "city", "value": "New York"}},
		"addresses2": []gin.H{{"label": "city", "value": "NYC"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"likely_duplicate"}`, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/v1/dedupe/fuzzy", gin.H{"field": "name", "words1": []string{"whole", "foods"}, "words2": []string{"whole", "foods", "market"}})
	require.Equal(t, http.StatusOK, w.Code)
	var fuzzy models.FuzzyDuplicateResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fuzzy))
	assert.InDelta(t, 0.91, fuzzy.Similarity, 1e-9)

	w = doJSON(t, router, http.MethodPost, "/v1/dedupe/fuzzy", gin.H{"field": "unit", "words1": []string{"a"}, "words2": []string{"a"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/near_dupe_hashes", gin.H{"addresses": []gin.H{{"label": "name", "value": "Whole Foods"}}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"hashes":["h1","h2"]}`, w.Body.String())
}

func TestBatchJobEndpoints(t *testing.T) {
	router := newTestRouter(t, true)

	w := doJSON(t, router, http.MethodPost, "/v1/jobs", gin.H{"operation": "expand", "addresses": []string{"1 A St", "2 B St", "3 C St"}})
	require.Equal(t, http.StatusAccepted, w.Code)
	var job responses.BatchJobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	require.NotEmpty(t, job.JobID)

	require.Eventually(t, func() bool {
		w := doJSON(t, router, http.MethodGet, "/v1/jobs/"+job.JobID+"/status", nil)
		var status responses.JobStatusResponse
		_ = json.Unmarshal(w.Body.Bytes(), &status)
		return status.Status == models.JobStatusDone
	}, 2*time.Second, 10*time.Millisecond)

	w = doJSON(t, router, http.MethodGet, "/v1/jobs/"+job.JobID+"/results?format=ndjson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 3)

	w = doJSON(t, router, http.MethodGet, "/v1/jobs/"+job.JobID+"/results?format=ndjson&gzip=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)
	var first models.PostalResult
	require.NoError(t, json.Unmarshal([]byte(strings.SplitN(string(raw), "\n", 2)[0]), &first))
	assert.Equal(t, "1 A St", first.Input)

	w = doJSON(t, router, http.MethodPost, "/v1/jobs", gin.H{"operation": "geocode", "addresses": []string{"x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminAndHealth(t *testing.T) {
	router := newTestRouter(t, true)
	doJSON(t, router, http.MethodPost, "/v1/expand", gin.H{"address": "9 Elm St"})

	w := doJSON(t, router, http.MethodGet, "/v1/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats responses.AdminStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.True(t, stats.Engine.Core)
	require.NotNil(t, stats.Cache)
	assert.Equal(t, int64(1), stats.Cache.TotalItems)

	w = doJSON(t, router, http.MethodPost, "/v1/admin/cache/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)

	for _, path := range []string{"/health", "/ready", "/live", "/v1/health"} {
		w = doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w = doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "postal_operations_total")

	w = doJSON(t, router, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
