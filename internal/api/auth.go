package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodgram/internal/middleware"
	"foodgram/internal/service"
)

// AuthHandler owns the token lifecycle endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	limiter *middleware.RateLimiter
}

func NewAuthHandler(auth *service.AuthService, limiter *middleware.RateLimiter) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	tokens := router.Group("/auth/token")
	{
		tokens.POST("/login/", h.limiter.Middleware(), h.Login)
		tokens.POST("/logout/", middleware.Auth(h.auth), h.Logout)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	key, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_token": key})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.auth.Logout(user.ID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
