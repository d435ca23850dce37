package util

import (
	"log/slog"
	"os"
)

// InitLogger installs the process-wide slog logger used across studyhub,
// emitting JSON records with source locations. The level string comes
// straight from config; anything unrecognized means info.
func InitLogger(level string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true,
	}))
	slog.SetDefault(logger)
	return logger
}
