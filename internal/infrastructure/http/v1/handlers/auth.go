package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/auth"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// AuthService is the account service behind the auth endpoints.
type AuthService interface {
	Signup(ctx context.Context, req auth.SignupRequest) (*auth.User, error)
	Login(ctx context.Context, creds auth.Credentials) (*auth.Token, *auth.User, error)
	Me(ctx context.Context) (*auth.User, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Signup(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromUser(user))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewLoginResponse(token, user))
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromUser(user))
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/signup", h.Signup)
	public.POST("/login", h.Login)

	protected.GET("/me", h.Me)
}
