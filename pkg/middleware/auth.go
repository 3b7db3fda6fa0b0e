package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"ecomart/pkg/auth"
	"ecomart/pkg/errors"
	"ecomart/pkg/logger"
)

const (
	// TokenCookie is the session cookie set by the auth service
	TokenCookie = "token"
	// UserIDKey is the context key for the authenticated user id
	UserIDKey = "user_id"
	// UserRoleKey is the context key for the authenticated user role
	UserRoleKey = "user_role"
)

// TokenVerifier validates session tokens
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Auth rejects requests without a valid session token. The token is read
// from the "token" cookie, then from an Authorization Bearer header.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerOrCookie(c)
		if token == "" {
			c.Error(errors.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			c.Error(errors.NewUnauthorized("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.ID)
		c.Set(UserRoleKey, claims.Role)
		c.Request = c.Request.WithContext(logger.WithUserIDContext(c.Request.Context(), claims.ID))

		c.Next()
	}
}

// UserID returns the authenticated user id, or false outside Auth
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// Role returns the authenticated user role, or "" outside Auth
func Role(c *gin.Context) string {
	return c.GetString(UserRoleKey)
}

func bearerOrCookie(c *gin.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
