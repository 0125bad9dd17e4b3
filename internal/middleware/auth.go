package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"foodgram/internal/models"
)

// TokenValidator resolves an opaque token key to its user.
type TokenValidator interface {
	ValidateToken(key string) (*models.User, error)
}

const userKey = "user"

// Auth validates the Authorization header and aborts with 401 when it is
// missing or invalid. Both the DRF "Token" scheme and "Bearer" are
// accepted.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := authenticate(c, validator)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "authentication credentials were not provided"})
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is presented but lets
// anonymous requests through.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := authenticate(c, validator); ok {
			c.Set(userKey, user)
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, validator TokenValidator) (*models.User, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || (parts[0] != "Token" && parts[0] != "Bearer") {
		return nil, false
	}
	user, err := validator.ValidateToken(parts[1])
	if err != nil {
		return nil, false
	}
	return user, true
}

// CurrentUser returns the authenticated user from the context, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, exists := c.Get(userKey)
	if !exists {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
