// Package logger builds the process-wide slog logger. JSON output in
// deployed environments, human-readable text with debug level during
// development.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a structured logger tuned to the given environment.
func New(environment string) *slog.Logger {
	if isDevelopment(environment) {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func isDevelopment(environment string) bool {
	switch strings.ToLower(environment) {
	case "local", "dev", "development", "test", "testing":
		return true
	}
	return false
}
