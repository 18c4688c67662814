package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		status, body := ErrorBody(c, err)
		failIdempotency(c, status, body)
		c.JSON(status, body)
	}
}

// ErrorBody renders err as the {code, message, details} envelope.
func ErrorBody(c *gin.Context, err error) (int, gin.H) {
	if appErr, ok := apperror.AsAppError(err); ok {
		if appErr.Err != nil {
			logger.Error(c.Request.Context(), "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		}

		details := appErr.Details
		if details == nil {
			details = map[string]any{}
		}
		return appErr.HTTPStatus, gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
			"details": details,
		}
	}

	logger.Error(c.Request.Context(), "unhandled error", "error", err)

	return http.StatusInternalServerError, gin.H{
		"code":    apperror.CodeInternal,
		"message": "Internal server error",
		"details": map[string]any{
			"request_id": c.GetString(KeyRequestID),
		},
	}
}

// failIdempotency stores the error response under the request's
// idempotency key, so a retry replays it (best-effort).
func failIdempotency(c *gin.Context, status int, body gin.H) {
	key, ok := c.Get(KeyIdempotencyKey)
	if !ok {
		return
	}
	store, ok := c.Get(KeyIdempotencyStore)
	if !ok {
		return
	}
	if s, ok := store.(KeyStore); ok && s != nil {
		if err := s.FailKey(c.Request.Context(), key.(string), status, "application/json", body); err != nil {
			logger.Warn(c.Request.Context(), "failed to store idempotent error", "error", err)
		}
	}
}
