package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cubicleally/ai-gateway/internal/coach"
	"github.com/cubicleally/ai-gateway/internal/extract"
	"github.com/cubicleally/ai-gateway/internal/llm"
	"github.com/cubicleally/ai-gateway/internal/middleware"
	"github.com/cubicleally/ai-gateway/internal/ratelimit"
)

// AIHandler exposes the coaching AI operations over HTTP. Every response
// carries the rate limit decision as headers; a denied call is a 429 with
// Retry-After, never a 5xx.
type AIHandler struct {
	coach *coach.Service
}

func NewAIHandler(coachService *coach.Service) *AIHandler {
	return &AIHandler{coach: coachService}
}

// Handles POST /v1/ai/interpret
func (h *AIHandler) InterpretTitle(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := middleware.CallerIdentity(c)
	result, err := h.coach.InterpretTitle(c.Request.Context(), caller, req.Title, req.Description)
	if err != nil {
		respondAIError(c, err)
		return
	}

	setRateLimitHeaders(c, result.Decision)
	if !result.Decision.Allowed {
		respondRateLimited(c, result.Decision)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Handles POST /v1/ai/enhance
func (h *AIHandler) EnhanceEvidence(c *gin.Context) {
	var req struct {
		Text      string `json:"text" binding:"required"`
		SkillName string `json:"skill_name"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := middleware.CallerIdentity(c)
	result, err := h.coach.EnhanceEvidence(c.Request.Context(), caller, req.Text, req.SkillName)
	if err != nil {
		respondAIError(c, err)
		return
	}

	setRateLimitHeaders(c, result.Decision)
	if !result.Decision.Allowed {
		respondRateLimited(c, result.Decision)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Handles POST /v1/ai/coaching
func (h *AIHandler) GapCoaching(c *gin.Context) {
	var req coach.CoachingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := middleware.CallerIdentity(c)
	result, err := h.coach.GapCoaching(c.Request.Context(), caller, req)
	if err != nil {
		respondAIError(c, err)
		return
	}

	setRateLimitHeaders(c, result.Decision)
	if !result.Decision.Allowed {
		respondRateLimited(c, result.Decision)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Handles POST /v1/ai/document
func (h *AIHandler) GenerateDocument(c *gin.Context) {
	var req coach.DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := middleware.CallerIdentity(c)
	result, err := h.coach.GenerateDocument(c.Request.Context(), caller, req)
	if err != nil {
		respondAIError(c, err)
		return
	}

	setRateLimitHeaders(c, result.Decision)
	if !result.Decision.Allowed {
		respondRateLimited(c, result.Decision)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Handles POST /v1/ai/paths
func (h *AIHandler) CareerPaths(c *gin.Context) {
	var req struct {
		OccupationCode string `json:"occupation_code" binding:"required"`
		Industry       string `json:"industry"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := middleware.CallerIdentity(c)
	result, err := h.coach.CareerPaths(c.Request.Context(), caller, req.OccupationCode, req.Industry)
	if err != nil {
		respondAIError(c, err)
		return
	}

	setRateLimitHeaders(c, result.Decision)
	if !result.Decision.Allowed {
		respondRateLimited(c, result.Decision)
		return
	}

	c.JSON(http.StatusOK, result)
}

func setRateLimitHeaders(c *gin.Context, decision ratelimit.Decision) {
	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
	c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
	c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", decision.ResetSeconds))
}

func respondRateLimited(c *gin.Context, decision ratelimit.Decision) {
	c.Header("Retry-After", fmt.Sprintf("%d", decision.ResetSeconds))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":       "Rate limit exceeded",
		"message":     "Too many requests. Please try again later.",
		"retry_after": decision.ResetSeconds,
	})
}

// respondAIError maps the gateway error taxonomy onto HTTP statuses. The
// end user gets a generic message; details go to the log keyed by request
// id. Malformed responses are logged with their truncated snippet only.
func respondAIError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")

	var malformed *extract.ErrMalformed
	var upstream *llm.UpstreamError
	var transport *llm.TransportError

	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Printf("[%s] AI call failed: %v", requestID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "AI service is not configured",
		})

	case errors.Is(err, llm.ErrCircuitOpen):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "AI service is temporarily unavailable. Please try again shortly.",
		})

	case errors.As(err, &malformed):
		log.Printf("[%s] unparseable AI response: %v", requestID, err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "The AI returned an unexpected response. Please try again.",
		})

	case errors.As(err, &upstream):
		log.Printf("[%s] AI upstream error: %v", requestID, err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "The AI service returned an error. Please try again.",
		})

	case errors.As(err, &transport):
		log.Printf("[%s] AI transport error: %v", requestID, err)
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": "Could not reach the AI service. Please try again.",
		})

	case errors.Is(err, coach.ErrUnknownOccupation):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Unknown occupation code",
		})

	default:
		log.Printf("[%s] AI call failed: %v", requestID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Something went wrong. Please try again.",
		})
	}
}
