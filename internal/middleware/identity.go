package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cubicleally/ai-gateway/internal/identity"
	"github.com/cubicleally/ai-gateway/internal/models"
)

// CallerIdentity assembles the identity descriptor for a request from
// whatever the auth middlewares resolved: a JWT user, an API key, or
// nothing, in which case the caller is anonymous and known by IP only.
// The user wins when both are present.
func CallerIdentity(c *gin.Context) identity.Identity {
	clientIP := identity.ClientIP(c.Request)

	if userIDVal, exists := c.Get("user_id"); exists {
		if userID, ok := userIDVal.(uuid.UUID); ok {
			tier, _ := c.Get("user_tier")
			tierStr, _ := tier.(string)
			return identity.Identity{
				UserID:   &userID,
				Tier:     tierStr,
				ClientIP: clientIP,
			}
		}
	}

	if apiKeyVal, exists := c.Get("api_key"); exists {
		if apiKey, ok := apiKeyVal.(*models.APIKey); ok {
			keyID := apiKey.ID
			return identity.Identity{
				APIKeyID: &keyID,
				Tier:     apiKey.Tier,
				ClientIP: clientIP,
			}
		}
	}

	return identity.Anonymous(clientIP)
}
