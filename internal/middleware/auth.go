package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cubicleally/ai-gateway/internal/service"
)

// BearerAuth resolves an optional Authorization header into user claims.
// AI endpoints serve anonymous callers too (IP-limited), so a missing header
// passes through; a present but invalid token does not.
func BearerAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Use: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		if idStr, ok := claims["user_id"].(string); ok {
			if userID, err := uuid.Parse(idStr); err == nil {
				c.Set("user_id", userID)
			}
		}
		if tier, ok := claims["tier"].(string); ok {
			c.Set("user_tier", tier)
		}

		c.Next()
	}
}

// RequireUser aborts when no authenticated user reached this point. Used on
// endpoints that make no sense anonymously (own usage history).
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user_id"); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
