package controllers

import (
	"net/http"

	"github.com/address-parser/postal-service/app/requests"
	"github.com/address-parser/postal-service/app/responses"
	"github.com/address-parser/postal-service/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DedupeController controller so sánh trùng lặp, near-dupe hash và blocking
type DedupeController struct {
	dedupeService *services.DedupeService
	logger        *zap.Logger
}

func NewDedupeController(dedupeService *services.DedupeService, logger *zap.Logger) *DedupeController {
	return &DedupeController{dedupeService: dedupeService, logger: logger}
}

// Compare so sánh hai giá trị của một trường
func (dc *DedupeController) Compare(c *gin.Context) {
	var req requests.CompareRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := dc.dedupeService.CompareField(c.Request.Context(), req.Field, req.Value1, req.Value2, req.Languages, req.Explain)
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (dc *DedupeController) Toponym(c *gin.Context) {
	var req requests.ToponymRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := dc.dedupeService.CompareToponym(c.Request.Context(), req.Addresses1, req.Addresses2, req.Languages)
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}
	c.JSON(http.StatusOK, responses.ToponymResponse{Status: status})
}

// Fuzzy so sánh fuzzy hai danh sách token
func (dc *DedupeController) Fuzzy(c *gin.Context) {
	var req requests.FuzzyCompareRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens1, tokens2 := req.Scores()
	result, err := dc.dedupeService.CompareFuzzy(c.Request.Context(), req.Field, tokens1, tokens2,
		req.Languages, req.NeedsReviewThreshold, req.LikelyDupeThreshold)
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (dc *DedupeController) NearDupeHashes(c *gin.Context) {
	var req requests.NearDupeHashesRequest
	if !bindJSON(c, &req) {
		return
	}

	hashes, err := dc.dedupeService.NearDupeHashes(c.Request.Context(), req.Addresses, req.Options, req.Languages)
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}
	if hashes == nil {
		hashes = []string{}
	}
	c.JSON(http.StatusOK, responses.NearDupeHashesResponse{Hashes: hashes})
}

func (dc *DedupeController) PlaceLanguages(c *gin.Context) {
	var req requests.PlaceLanguagesRequest
	if !bindJSON(c, &req) {
		return
	}

	languages, err := dc.dedupeService.PlaceLanguages(c.Request.Context(), req.Addresses)
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}
	if languages == nil {
		languages = []string{}
	}
	c.JSON(http.StatusOK, responses.PlaceLanguagesResponse{Languages: languages})
}

// IndexRecord lưu hash của bản ghi vào blocking index
func (dc *DedupeController) IndexRecord(c *gin.Context) {
	var req requests.BlockingRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	hashes, err := dc.dedupeService.IndexRecord(c.Request.Context(), req.ID, req.Addresses, req.Options, req.Languages)
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, responses.BlockingRecordResponse{ID: req.ID, Hashes: hashes})
}

// Candidates tìm các bản ghi có chung near-dupe hash
func (dc *DedupeController) Candidates(c *gin.Context) {
	var req requests.CandidatesRequest
	if !bindJSON(c, &req) {
		return
	}

	hashes, candidates, err := dc.dedupeService.FindCandidates(c.Request.Context(), req.Addresses, req.Options, req.Languages, req.ExcludeID, req.Limit)
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}
	c.JSON(http.StatusOK, responses.CandidatesResponse{Hashes: hashes, Candidates: candidates})
}
