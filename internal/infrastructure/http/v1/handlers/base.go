// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/pkg/logger"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error processes error and sends appropriate response.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	h.HandleError(c, err)
}

// HandleError registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParamID parses the path parameter name as an id. On failure the error
// is registered and false returned.
func (h *BaseHandler) ParamID(c *gin.Context, name string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").
			WithDetail("field", name).
			WithDetail("value", c.Param(name)))
		return id.ID{}, false
	}
	return parsed, true
}

// GetUserID extracts user ID from request context.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	return appctx.GetUserID(c.Request.Context())
}

// CompleteIdempotency marks idempotency key as completed with the same HTTP semantics
// (status code + content type + body) for correct replay.
func (h *BaseHandler) CompleteIdempotency(c *gin.Context, statusCode int, contentType string, response any) {
	key, exists := c.Get(middleware.KeyIdempotencyKey)
	if !exists {
		return
	}
	store, ok := c.Get(middleware.KeyIdempotencyStore)
	if !ok {
		return
	}
	if s, ok := store.(middleware.KeyStore); ok {
		if err := s.CompleteKey(c.Request.Context(), key.(string), statusCode, contentType, response); err != nil {
			logger.Warn(c.Request.Context(), "failed to complete idempotency key", "error", err)
		}
	}
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", data)
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.CompleteIdempotency(c, http.StatusOK, "application/json", data)
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	// 204 must replay as 204 with empty body.
	h.CompleteIdempotency(c, http.StatusNoContent, "", nil)
	c.Status(http.StatusNoContent)
}
