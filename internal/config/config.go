package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port         string     `env:"PORT" envDefault:"8080"`
	Environment  string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelName string     `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel     slog.Level

	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	DataDir  string `env:"DATA_DIR" envDefault:"./data"`

	// Simulation
	CharacterID       string        `env:"CHARACTER_ID"`
	TimeScale         float64       `env:"TIME_SCALE" envDefault:"60"`
	FrameInterval     time.Duration `env:"FRAME_INTERVAL" envDefault:"100ms"`
	SaveInterval      time.Duration `env:"SAVE_INTERVAL" envDefault:"10s"`
	InventoryCapacity int           `env:"INVENTORY_CAPACITY" envDefault:"20"`
	StartingGold      int           `env:"STARTING_GOLD" envDefault:"50"`
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)

	if cfg.TimeScale <= 0 {
		return nil, fmt.Errorf("TIME_SCALE must be positive, got %v", cfg.TimeScale)
	}
	if cfg.FrameInterval <= 0 {
		return nil, fmt.Errorf("FRAME_INTERVAL must be positive, got %v", cfg.FrameInterval)
	}
	return &cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
