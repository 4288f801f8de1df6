package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8088"`
	OpsPort   string `env:"OPS_PORT" default:"8081"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	MaxConnections int `env:"MAX_CONNECTIONS" default:"1000"`
	MaxLineBytes   int `env:"MAX_LINE_BYTES" default:"8192"`
	SendBufferSize int `env:"SEND_BUFFER_SIZE" default:"16"`

	SessionRateLimit float64       `env:"SESSION_RATE_LIMIT" default:"20"`
	SessionRateBurst int           `env:"SESSION_RATE_BURST" default:"40"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT" default:"5s"`
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
	if cfg.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if cfg.Port == cfg.OpsPort {
		return fmt.Errorf("PORT and OPS_PORT must differ, both are %s", cfg.Port)
	}
	if cfg.MaxConnections < 1 {
		return fmt.Errorf("MAX_CONNECTIONS must be at least 1, got %d", cfg.MaxConnections)
	}
	if cfg.MaxLineBytes < 64 {
		return fmt.Errorf("MAX_LINE_BYTES must be at least 64, got %d", cfg.MaxLineBytes)
	}
	if cfg.SendBufferSize < 1 {
		return fmt.Errorf("SEND_BUFFER_SIZE must be at least 1, got %d", cfg.SendBufferSize)
	}
	if cfg.SessionRateLimit <= 0 {
		return fmt.Errorf("SESSION_RATE_LIMIT must be positive, got %v", cfg.SessionRateLimit)
	}
	if cfg.SessionRateBurst < 1 {
		return fmt.Errorf("SESSION_RATE_BURST must be at least 1, got %d", cfg.SessionRateBurst)
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("WRITE_TIMEOUT must be positive, got %v", cfg.WriteTimeout)
	}
	return nil
}
