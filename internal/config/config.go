package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the wardrobe API server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Vision    VisionConfig
	Supabase  SupabaseConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// VisionConfig points at the GPU vision pipeline. The pipeline is a black box
// that may hang on large images, so every call is bounded by Timeout.
type VisionConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SupabaseConfig carries the trusted service identity used for auth
// resolution and storage writes. Caller tokens are only ever sent to the
// auth endpoint, never to storage or the database.
type SupabaseConfig struct {
	URL           string
	ServiceKey    string
	StorageBucket string
	Timeout       time.Duration
}

type RateLimitConfig struct {
	RequestsPerMin int
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any required value is
// missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("WARDROBE_PORT", 8080),
			Env:  envString("WARDROBE_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Vision: VisionConfig{
			BaseURL: os.Getenv("VISION_BASE_URL"),
			Timeout: envDuration("VISION_TIMEOUT", 120*time.Second),
		},
		Supabase: SupabaseConfig{
			URL:           os.Getenv("SUPABASE_URL"),
			ServiceKey:    os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
			StorageBucket: envString("WARDROBE_STORAGE_BUCKET", "wardrobe"),
			Timeout:       envDuration("SUPABASE_TIMEOUT", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMin: envInt("WARDROBE_RATE_LIMIT_PER_MIN", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Vision.BaseURL == "" {
		return fmt.Errorf("VISION_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Vision.BaseURL, "http://") && !strings.HasPrefix(c.Vision.BaseURL, "https://") {
		return fmt.Errorf("VISION_BASE_URL must start with http:// or https://, got %q", c.Vision.BaseURL)
	}

	if c.Supabase.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if !strings.HasPrefix(c.Supabase.URL, "http://") && !strings.HasPrefix(c.Supabase.URL, "https://") {
		return fmt.Errorf("SUPABASE_URL must start with http:// or https://, got %q", c.Supabase.URL)
	}

	if c.Supabase.ServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
