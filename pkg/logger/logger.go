// Package logger provides structured logging on top of log/slog with
// context-based attribute injection and optional Sentry error reporting.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Config holds logger settings, populated from environment variables.
type Config struct {
	// Minimum level: debug, info, warn, error.
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// New creates a JSON-formatted stdout logger with optional context
// extractors applied on every log call.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	return slog.New(NewContextHandler(h, extractors...))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
