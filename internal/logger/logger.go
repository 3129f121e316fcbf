package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/vitals-engine/internal/config"
)

// Setup builds the process logger for service and installs it as the slog
// default. Production writes JSON; anything else writes text. Debug level
// adds source locations.
func Setup(cfg *config.Config, service string) *slog.Logger {
	return setup(cfg, service, os.Stdout)
}

func setup(cfg *config.Config, service string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: cfg.LogLevel <= slog.LevelDebug,
	}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(w, opts)
	}

	log := slog.New(handler).With("service", service)
	slog.SetDefault(log)
	return log
}

func WithRequestID(log *slog.Logger, requestID string) *slog.Logger {
	return log.With("request_id", requestID)
}

// WithCharacterID scopes a logger to one simulated character
func WithCharacterID(log *slog.Logger, characterID string) *slog.Logger {
	return log.With("character_id", characterID)
}

func WithError(log *slog.Logger, err error) *slog.Logger {
	return log.With("error", err.Error())
}
