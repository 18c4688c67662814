package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
)

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth middleware validates JWT tokens and populates user context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := validator.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth validates token if present, but doesn't require it.
func OptionalAuth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if user, err := validator.ValidateToken(token); err == nil && user != nil {
				setUser(c, user)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func setUser(c *gin.Context, user *appctx.UserContext) {
	ctx := appctx.WithUser(c.Request.Context(), user)
	c.Request = c.Request.WithContext(ctx)
	c.Set(KeyUserID, user.UserID)
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
