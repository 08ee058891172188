// Package appenv sets up logging and configuration shared by the gt-*
// binaries.
package appenv

import (
	"github.com/joho/godotenv"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Init installs the default logger and loads .env files.
func Init() *slog.Logger {
	logger := NewLogger(os.Getenv("APP_ENV"), os.Getenv("GEOTAG_LOG_LEVEL"), os.Stdout)
	slog.SetDefault(logger)

	err := godotenv.Load(".env", ".env.local")
	if err != nil {
		slog.Info("no dotenv", "err", err)
	}
	return logger
}

// NewLogger logs JSON at info level, or text at debug level when appEnv is
// development. A recognised level overrides either default.
func NewLogger(appEnv, level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	dev := appEnv == "development"
	if dev {
		opts.Level = slog.LevelDebug
	}
	if lvl, ok := ParseLevel(level); ok {
		opts.Level = lvl
	}

	if dev {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func MustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s not set", key)
	}
	return value
}

func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
