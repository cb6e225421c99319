package models

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Syscall and instruction traces log
// at Debug, syscall summaries at Info.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
