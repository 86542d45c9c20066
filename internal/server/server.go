package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cubicleally/ai-gateway/internal/coach"
	"github.com/cubicleally/ai-gateway/internal/config"
	"github.com/cubicleally/ai-gateway/internal/gateway"
	"github.com/cubicleally/ai-gateway/internal/handler"
	"github.com/cubicleally/ai-gateway/internal/llm"
	"github.com/cubicleally/ai-gateway/internal/middleware"
	"github.com/cubicleally/ai-gateway/internal/ratelimit"
	"github.com/cubicleally/ai-gateway/internal/repository"
	"github.com/cubicleally/ai-gateway/internal/service"
	"github.com/cubicleally/ai-gateway/internal/storage"
	"github.com/cubicleally/ai-gateway/internal/usage"
)

type Server struct {
	router        *gin.Engine
	config        *config.Config
	redis         *storage.RedisClient
	postgres      *storage.Postgres
	recorder      *usage.Recorder
	apiKeyService *service.APIKeyService
	authService   *service.AuthService
	aiHandler     *handler.AIHandler
	apiKeyHandler *handler.APIKeyHandler
	authHandler   *handler.AuthHandler
	usageHandler  *handler.UsageHandler
	httpServer    *http.Server
}

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Repositories
	apiKeyRepo := repository.NewAPIKeyRepository(postgres)
	userRepo := repository.NewUserRepository(postgres)
	usageRepo := repository.NewUsageLogRepository(postgres)
	occupationRepo := repository.NewOccupationRepository(postgres)

	// Services
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, redis)
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.JWTExpiryHours)
	usageStatsService := service.NewUsageStatsService(usageRepo)

	// AI call pipeline: limiter -> model client -> usage recorder
	limiter := ratelimit.New(ratelimit.NewRedisStore(redis), cfg)
	client := llm.NewOpenAIClient(cfg.AI)
	recorder := usage.NewRecorder(usageRepo, cfg.Usage.BufferSize,
		time.Duration(cfg.Usage.FlushSeconds)*time.Second)
	gw := gateway.New(limiter, client, recorder)
	coachService := coach.NewService(gw, occupationRepo)

	s := &Server{
		router:        router,
		config:        cfg,
		redis:         redis,
		postgres:      postgres,
		recorder:      recorder,
		apiKeyService: apiKeyService,
		authService:   authService,
		aiHandler:     handler.NewAIHandler(coachService),
		apiKeyHandler: handler.NewAPIKeyHandler(apiKeyService),
		authHandler:   handler.NewAuthHandler(authService),
		usageHandler:  handler.NewUsageHandler(usageStatsService),
	}

	// Setup middleware
	s.setupMiddleware()

	// Setup routes
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.APIKeyValidator(s.apiKeyService))
	s.router.Use(middleware.BearerAuth(s.authService))
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	auth := s.router.Group("/auth")
	{
		auth.POST("/register", s.authHandler.Register)
		auth.POST("/login", s.authHandler.Login)
	}

	v1 := s.router.Group("/v1")
	{
		ai := v1.Group("/ai")
		{
			ai.POST("/interpret", s.aiHandler.InterpretTitle)
			ai.POST("/enhance", s.aiHandler.EnhanceEvidence)
			ai.POST("/coaching", s.aiHandler.GapCoaching)
			ai.POST("/document", s.aiHandler.GenerateDocument)
			ai.POST("/paths", s.aiHandler.CareerPaths)
		}

		v1.GET("/usage", middleware.RequireUser(), s.usageHandler.GetMyUsage)
	}

	admin := s.router.Group("/admin")
	{
		admin.GET("/status", s.adminStatus)
		admin.POST("/keys", s.apiKeyHandler.Create)
		admin.GET("/keys", s.apiKeyHandler.List)
		admin.GET("/keys/:id", s.apiKeyHandler.Get)
		admin.PUT("/keys/:id", s.apiKeyHandler.Update)
		admin.DELETE("/keys/:id", s.apiKeyHandler.Delete)
		admin.GET("/usage", s.usageHandler.GetSummary)
		admin.GET("/usage/daily", s.usageHandler.GetDailyUsage)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	redisHealthy := true

	if err := s.redis.Ping(c.Request.Context()); err != nil {
		redisHealthy = false
		log.Printf("Redis health check failed: %v", err)
	}

	dbHealthy := true
	if err := s.postgres.Ping(c.Request.Context()); err != nil {
		dbHealthy = false
		log.Printf("Database health check failed: %v", err)
	}

	aiConfigured := s.config.AI.APIKey != ""

	status := "healthy"
	statusCode := http.StatusOK

	if !redisHealthy || !dbHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   "ai-gateway",
		"version":   "1.0.0",
		"timestamp": time.Now().Unix(),
		"checks": gin.H{
			"redis":         redisHealthy,
			"database":      dbHealthy,
			"ai_configured": aiConfigured,
		},
	})
}

func (s *Server) adminStatus(c *gin.Context) {
	ctx := c.Request.Context()
	keys, _ := s.apiKeyService.List(ctx)
	c.JSON(http.StatusOK, gin.H{
		"gateway":    "running",
		"model":      s.config.AI.Model,
		"categories": len(s.config.Categories),
		"api_keys":   len(keys),
		"uptime":     time.Since(startTime).Seconds(),
		"timestamp":  time.Now().Unix(),
	})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // model calls can be slow
		IdleTimeout:  15 * time.Second,
	}

	log.Printf("Starting AI Gateway on %s", addr)
	log.Printf("Environment: %s", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}

	// Flush buffered usage records after in-flight requests finish
	s.recorder.Close()

	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

var startTime = time.Now()
