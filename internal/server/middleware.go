package server

import (
	"campus-market/internal/auth"
	handler "campus-market/services/marketplace/handler"
	"campus-market/services/marketplace/helpers"
	"campus-market/utils"
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":    c.Request.Method,
		"path":      c.Request.URL.Path,
		"status":    c.Writer.Status(),
		"latency":   time.Since(start).String(),
		"client_ip": c.ClientIP(),
	})
}

// TokenVerifier validates an admin session token
type TokenVerifier interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// AdminAuthMiddleware rejects requests without a valid admin bearer token
func AdminAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifier.Authenticate(c.Request.Context(), handler.BearerToken(c))
		if err != nil {
			helpers.RespondError(c, "AdminAuthMiddleware", err, map[string]any{"path": c.Request.URL.Path})
			c.Abort()
			return
		}

		c.Set(handler.ContextAdminKey, claims.Subject)
		c.Next()
	}
}
