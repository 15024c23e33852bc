/*
Package config loads runtime configuration from environment variables,
with an optional .env file for local development.
*/
package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the server's runtime settings.
type Config struct {
	Port        string
	DBPath      string
	AppEnv      string
	LogLevel    slog.Level
	CORSOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	// Ignore the error: a missing .env file is the normal production case.
	_ = godotenv.Load()

	return Config{
		Port:        getEnv("PORT", "5000"),
		DBPath:      getEnv("DB_PATH", "leave.db"),
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
	}
}

// Production reports whether the server runs in production mode.
func (c Config) Production() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(s string) slog.Level {
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

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
