// Package logx sets up the structured logger used across the service.
package logx

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON slog.Logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// NewDefault returns an INFO-level JSON logger on stdout.
func NewDefault() *slog.Logger {
	return New(os.Stdout, slog.LevelInfo)
}

// SetDefault installs a JSON logger as the process-wide default.
func SetDefault(w io.Writer, level slog.Level) *slog.Logger {
	logger := New(w, level)
	slog.SetDefault(logger)
	return logger
}
