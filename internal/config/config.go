package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8000"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	MaxFiles            int   `env:"MAX_FILES" default:"10"`
	MaxUploadBytes      int64 `env:"MAX_UPLOAD_BYTES" default:"104857600"` // 100 MiB
	MaxConcurrentMerges int64 `env:"MAX_CONCURRENT_MERGES" default:"8"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" default:"30"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST" default:"10"`

	GhostscriptPath    string        `env:"GHOSTSCRIPT_PATH"`
	GhostscriptTimeout time.Duration `env:"GHOSTSCRIPT_TIMEOUT" default:"2m"`

	// WorkDir is the parent directory for per-request workspaces.
	// Empty means os.TempDir().
	WorkDir string `env:"WORK_DIR"`

	// RedisURL enables the distributed rate limiter when set.
	RedisURL string `env:"REDIS_URL"`
	// DatabaseURL enables the merge job audit store when set.
	DatabaseURL string `env:"DATABASE_URL"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.MaxFiles < 1 {
		return errors.New("MAX_FILES must be at least 1")
	}
	if cfg.MaxUploadBytes < 1 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.MaxConcurrentMerges < 1 {
		return errors.New("MAX_CONCURRENT_MERGES must be at least 1")
	}
	if cfg.RateLimitPerMinute < 1 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be at least 1")
	}
	if cfg.RateLimitBurst < 1 {
		return errors.New("RATE_LIMIT_BURST must be at least 1")
	}
	if cfg.GhostscriptTimeout <= 0 {
		return errors.New("GHOSTSCRIPT_TIMEOUT must be positive")
	}
	return nil
}
