// Package logging builds the process logger and carries request-scoped
// loggers through contexts.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/capoo-pm/apiserver/config"
)

const serviceName = "capoo-apiserver"

// New returns the process logger configured by cfg and installs it as the
// slog default.
func New(cfg config.LogConfig, env string) *slog.Logger {
	logger := NewWithWriter(os.Stdout, cfg, env)
	slog.SetDefault(logger)
	return logger
}

// NewWithWriter builds a logger writing to w without touching the default.
func NewWithWriter(w io.Writer, cfg config.LogConfig, env string) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: env == "dev",
		Level:     ParseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With(
		slog.String("service", serviceName),
		slog.String("env", env),
	)
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
