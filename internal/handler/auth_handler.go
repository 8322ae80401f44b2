package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mailtrack-api/internal/models"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
	"github.com/noah-isme/mailtrack-api/pkg/response"
)

// AuthService is the surface the auth handler depends on.
type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Me(ctx context.Context, userID string) (*models.UserInfo, error)
}

// AuthHandler exposes login and profile endpoints.
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login authenticates credentials and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validationf("body: malformed request"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "login successful", result)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	info, err := h.auth.Me(c.Request.Context(), p.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "profile", info)
}
