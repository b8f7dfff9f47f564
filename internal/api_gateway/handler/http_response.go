package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lead-marketplace/internal/api_gateway/middleware"
	"github.com/lead-marketplace/internal/domain/shared"
)

// RetryAfterSeconds is sent with every retryable failure.
const RetryAfterSeconds = 1

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// MetaInfo represents pagination metadata in a response
type MetaInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

func newMeta(page, perPage, totalItems int) *MetaInfo {
	totalPages := 0
	if perPage > 0 {
		totalPages = (totalItems + perPage - 1) / perPage
	}
	return &MetaInfo{
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalItems: totalItems,
	}
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, &Response{
		Data:          data,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondWithPaginatedData sends a JSON response with data and pagination metadata
func RespondWithPaginatedData(c *gin.Context, data interface{}, page, perPage int, totalItems int64) {
	c.JSON(http.StatusOK, &Response{
		Data:          data,
		Meta:          newMeta(page, perPage, int(totalItems)),
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, info ErrorInfo) {
	c.JSON(statusCode, &Response{
		Error:         &info,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondOK wraps data in a success envelope with status 200.
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated is RespondOK with status 201.
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondAccepted is used for work queued on Kafka.
func RespondAccepted(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusAccepted, data)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondBadRequest reports a request that failed binding or parsing
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, ErrorInfo{Code: "BAD_REQUEST", Message: message})
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, ErrorInfo{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "An internal server error occurred",
	})
}

// RespondError maps a service error to its HTTP status. Errors without a
// kind are logged and hidden behind a 500.
func RespondError(c *gin.Context, logger *slog.Logger, err error) {
	_ = c.Error(err)

	var de *shared.Error
	if !errors.As(err, &de) {
		logger.Error("Request failed", "path", c.FullPath(), "correlation_id", middleware.GetCorrelationID(c), "error", err)
		RespondInternalError(c)
		return
	}

	if de.Retryable {
		c.Header("Retry-After", strconv.Itoa(RetryAfterSeconds))
	}
	RespondWithError(c, StatusForKind(de.Kind), ErrorInfo{
		Code:      string(de.Kind),
		Message:   de.Message,
		Retryable: de.Retryable,
	})
}

// StatusForKind is the HTTP status of each error kind.
func StatusForKind(kind shared.Kind) int {
	switch kind {
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindForbidden:
		return http.StatusForbidden
	case shared.KindInvalidState, shared.KindInvalidInput, shared.KindCapacityExceeded, shared.KindInsufficientFunds:
		return http.StatusBadRequest
	case shared.KindAlreadyPurchased, shared.KindConflict:
		return http.StatusConflict
	case shared.KindRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
