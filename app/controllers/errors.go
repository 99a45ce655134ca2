package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/address-parser/postal-service/app/responses"
	"github.com/address-parser/postal-service/app/services"
	"github.com/address-parser/postal-service/postal"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorStatus ánh xạ lỗi sang HTTP status và mã lỗi
func errorStatus(err error) (int, string) {
	var unsupported *postal.UnsupportedFieldError
	switch {
	case errors.Is(err, postal.ErrInvalidString):
		return http.StatusBadRequest, "INVALID_STRING"
	case errors.Is(err, services.ErrEmptyInput),
		errors.Is(err, services.ErrUnknownField),
		errors.Is(err, services.ErrUnknownOperation),
		errors.Is(err, services.ErrTooManyItems),
		errors.Is(err, postal.ErrUnknownComponent),
		errors.As(err, &unsupported):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, services.ErrJobNotFound):
		return http.StatusNotFound, "JOB_NOT_FOUND"
	case errors.Is(err, postal.ErrUnavailable),
		errors.Is(err, postal.ErrClosed),
		errors.Is(err, services.ErrParserDisabled),
		errors.Is(err, services.ErrClassifierDisabled),
		errors.Is(err, services.ErrBlockingDisabled):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	}
	return http.StatusInternalServerError, "POSTAL_ERROR"
}

// respondError trả lỗi dạng ErrorResponse; lỗi 5xx được log
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Lỗi xử lý request",
			zap.String("path", c.FullPath()),
			zap.String("code", code),
			zap.Error(err))
	}
	c.JSON(status, responses.ErrorResponse{
		Error:     code,
		Message:   err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// bindJSON bind body vào req, trả false và response 400 nếu không hợp lệ
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:     "INVALID_REQUEST",
			Message:   "Request không hợp lệ: " + err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return false
	}
	return true
}
