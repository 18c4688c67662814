package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/infrastructure/storage/postgres"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

// KeyStore persists idempotency keys and the responses recorded for them.
type KeyStore interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
}

var _ KeyStore = (*postgres.IdempotencyStore)(nil)

// Idempotency middleware protects POST requests carrying an
// X-Idempotency-Key against duplicate execution. A repeated key with the
// same body replays the recorded response.
func Idempotency(store KeyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		operation := c.Request.Method + " " + c.FullPath()
		userID := appctx.GetUserID(c.Request.Context())

		replay, err := store.AcquireKey(c.Request.Context(), key, userID, operation, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}

		if replay != nil {
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(KeyIdempotencyKey, key)
		c.Set(KeyIdempotencyStore, store)

		c.Next()
	}
}
