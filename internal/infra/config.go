package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv   string
	Host     string
	Port     string
	LogLevel string

	DataDir string

	CacheDriver   string
	CachePath     string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	BFLAPIKey     string
	BFLBaseURL    string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	CallTimeout  time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. The two upstream API keys are required so the
// process never becomes ready without them.
func LoadConfig() (*Config, error) {
	dataDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Host:     getEnv("HOST", "0.0.0.0"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataDir: dataDir,

		CacheDriver:   getEnv("CACHE_DRIVER", "sqlite"),
		CachePath:     getEnv("CACHE_PATH", filepath.Join(dataDir, "aesthetic_cache.db")),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		BFLAPIKey:     os.Getenv("BFL_API_KEY"),
		BFLBaseURL:    getEnv("BFL_BASE_URL", "https://api.bfl.ai"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		CallTimeout:  time.Second * time.Duration(getEnvInt("CALL_TIMEOUT_SECONDS", 60)),
		PollInterval: time.Millisecond * time.Duration(getEnvInt("POLL_INTERVAL_MS", 500)),
		PollTimeout:  time.Second * time.Duration(getEnvInt("POLL_TIMEOUT_SECONDS", 120)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.BFLAPIKey == "" {
		return nil, fmt.Errorf("BFL_API_KEY is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	switch cfg.CacheDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when CACHE_DRIVER=postgres")
		}
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when CACHE_DRIVER=redis")
		}
	default:
		return nil, fmt.Errorf("unsupported CACHE_DRIVER %q", cfg.CacheDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
