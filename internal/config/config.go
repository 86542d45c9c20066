package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type Config struct {
	Server     ServerConfig     `json:"server"`
	Redis      RedisConfig      `json:"redis"`
	Postgres   PostgresConfig   `json:"postgres"`
	AI         AIConfig         `json:"ai"`
	Auth       AuthConfig       `json:"auth"`
	Categories []CategoryConfig `json:"categories"`
	Tiers      []TierConfig     `json:"tiers"`
	Usage      UsageConfig      `json:"usage"`
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type AuthConfig struct {
	JWTSecret      string `json:"-"` // only ever read from env
	JWTExpiryHours int    `json:"jwt_expiry_hours"`
}

type AIConfig struct {
	APIKey  string `json:"-"` // only ever read from env
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
}

// Per-category rate limit. Limits are per caller per window.
type CategoryConfig struct {
	Name          string `json:"name"`
	Limit         int    `json:"limit"`
	WindowSeconds int    `json:"window_seconds"`
}

func (c CategoryConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// Subscription tier multiplier applied to category base limits.
type TierConfig struct {
	Name       string `json:"name"`
	Multiplier int    `json:"multiplier"`
}

type UsageConfig struct {
	BufferSize    int `json:"buffer_size"`
	FlushSeconds  int `json:"flush_seconds"`
	RetentionDays int `json:"retention_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	config.applyEnv()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if len(c.Categories) == 0 {
		c.Categories = DefaultCategories()
	}
	if len(c.Tiers) == 0 {
		c.Tiers = DefaultTiers()
	}
	if c.Usage.BufferSize <= 0 {
		c.Usage.BufferSize = 1000
	}
	if c.Usage.FlushSeconds <= 0 {
		c.Usage.FlushSeconds = 5
	}
	if c.Usage.RetentionDays <= 0 {
		c.Usage.RetentionDays = 90
	}
	if c.Auth.JWTExpiryHours <= 0 {
		c.Auth.JWTExpiryHours = 24
	}
}

// Secrets always come from the environment, never from config.json.
func (c *Config) applyEnv() {
	c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Postgres.DSN = dsn
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		c.Redis.Password = pass
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.AI.Model = model
	}
}

func (c *Config) GetRedisAddr() string {
	host := c.Redis.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Redis.Port
	if port == "" {
		port = "6379"
	}
	return fmt.Sprintf("%s:%s", host, port)
}

// Category returns the rate limit configuration for name, falling back to
// the ai_default category when the name is unknown.
func (c *Config) Category(name string) CategoryConfig {
	var fallback CategoryConfig
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat
		}
		if cat.Name == "ai_default" {
			fallback = cat
		}
	}
	if fallback.Name == "" {
		fallback = CategoryConfig{Name: "ai_default", Limit: 30, WindowSeconds: 60}
	}
	return fallback
}

// TierMultiplier returns the limit multiplier for a subscription tier.
// Unknown tiers get the free multiplier of 1.
func (c *Config) TierMultiplier(tier string) int {
	for _, t := range c.Tiers {
		if t.Name == tier && t.Multiplier > 0 {
			return t.Multiplier
		}
	}
	return 1
}

func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{Name: "ai_interpret", Limit: 10, WindowSeconds: 60},
		{Name: "ai_enhance", Limit: 20, WindowSeconds: 60},
		{Name: "ai_coaching", Limit: 15, WindowSeconds: 60},
		{Name: "ai_document", Limit: 5, WindowSeconds: 300},
		{Name: "ai_paths", Limit: 10, WindowSeconds: 60},
		{Name: "ai_default", Limit: 30, WindowSeconds: 60},
	}
}

func DefaultTiers() []TierConfig {
	return []TierConfig{
		{Name: "free", Multiplier: 1},
		{Name: "pro", Multiplier: 3},
	}
}
