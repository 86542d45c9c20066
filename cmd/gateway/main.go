package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cubicleally/ai-gateway/internal/config"
	"github.com/cubicleally/ai-gateway/internal/repository"
	"github.com/cubicleally/ai-gateway/internal/server"
	"github.com/cubicleally/ai-gateway/internal/service"
	"github.com/cubicleally/ai-gateway/internal/storage"
)

func main() {
	// Load env if it exists
	godotenv.Load()

	cfg, err := config.Load("config.json")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redis, err := storage.NewRedis(
		cfg.GetRedisAddr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
	)

	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	log.Println("Connected to redis successfully")

	postgres, err := storage.NewPostgres(cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer postgres.Close()

	if err := postgres.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Connected to postgres successfully")

	// Create server
	srv := server.New(cfg, redis, postgres)

	// Daily usage log cleanup per retention policy
	go runLogCleanup(postgres, cfg.Usage.RetentionDays)

	go func() {
		addr := ":" + cfg.Server.Port
		if err := srv.Run(addr); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func runLogCleanup(postgres *storage.Postgres, retentionDays int) {
	stats := service.NewUsageStatsService(repository.NewUsageLogRepository(postgres))

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		deleted, err := stats.CleanupOldLogs(ctx, retentionDays)
		cancel()

		if err != nil {
			log.Printf("Usage log cleanup failed: %v", err)
			continue
		}
		if deleted > 0 {
			log.Printf("Usage log cleanup removed %d rows", deleted)
		}
	}
}
