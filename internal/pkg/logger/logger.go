package logger

import (
	"log/slog"
	"os"
	"strings"
)

// NewDefault builds the process-wide slog logger writing text to stderr.
//
// level accepts "debug" / "info" / "warn" / "error"; anything else
// falls back to info.
func NewDefault(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
