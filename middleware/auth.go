package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tripplanner/logger"
	"tripplanner/services"
)

const (
	AuthUserKey  = "auth_user"
	bearerPrefix = "Bearer "
)

// TokenVerifier resolves a bearer token to a user.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*services.AuthUser, error)
}

// RequireAuth rejects requests without a valid bearer token with 401.
func RequireAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		user, err := v.VerifyToken(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, services.ErrUnauthorized) {
				logger.FromContext(c).Warn("token verification failed", zap.Error(err))
			}
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(AuthUserKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and never rejects.
func OptionalAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if user, err := v.VerifyToken(c.Request.Context(), token); err == nil {
				c.Set(AuthUserKey, user)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by RequireAuth or OptionalAuth.
func CurrentUser(c *gin.Context) (*services.AuthUser, bool) {
	v, ok := c.Get(AuthUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*services.AuthUser)
	return user, ok && user != nil
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": msg})
}
