// Package logging installs the process-wide slog default handler, the way
// the teacher's cli/internal/logging does it, with separate defaults for
// the Hub (more verbose by default — it's a long-running service) and peer
// binaries (quieter by default — interactive CLI use).
package logging

import (
	"log/slog"
	"os"
)

const envVar = "FABRIC_LOG_LEVEL"

func levelFromEnv(fallback slog.Level) slog.Level {
	l, ok := os.LookupEnv(envVar)
	if !ok {
		return fallback
	}
	switch l {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

func install(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// InitHub installs the Hub's default logger (info level unless overridden).
func InitHub() {
	install(levelFromEnv(slog.LevelInfo))
}

// InitPeer installs a peer binary's default logger (warn level unless
// overridden — interactive CLI use wants a quiet terminal by default).
func InitPeer() {
	install(levelFromEnv(slog.LevelWarn))
}
