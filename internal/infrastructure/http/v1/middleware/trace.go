package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "stockledger/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Gin context keys set by the middleware chain.
const (
	KeyRequestID        = "request_id"
	KeyTraceID          = "trace_id"
	KeyUserID           = "user_id"
	KeyIdempotencyKey   = "idempotency_key"
	KeyIdempotencyStore = "idempotency_store"
)

// Trace middleware adds request tracing context.
// Extracts or generates trace IDs for distributed tracing.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		traceID := c.GetHeader(HeaderTraceID)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		trace := &appctx.TraceContext{
			TraceID:   traceID,
			SpanID:    uuid.New().String()[:16],
			RequestID: requestID,
		}

		ctx := appctx.WithTrace(c.Request.Context(), trace)
		c.Request = c.Request.WithContext(ctx)

		c.Set(KeyTraceID, traceID)
		c.Set(KeyRequestID, requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}
