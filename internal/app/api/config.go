package api

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/inventory-service/internal/domains/inventory/application"
	platformobservability "github.com/Apurer/inventory-service/internal/platform/observability"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	Environment       string
	LogLevel          slog.Level
	PostgresDSN       string
	MySQLDSN          string
	RedisAddr         string
	RedisPassword     string
	BackendTimeout    time.Duration
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	OTLPEndpoint      string
	OTLPInsecure      bool
}

// LoadConfig reads variables from the given .env files (".env" when none are
// named; missing files are skipped) and the environment, applies defaults
// and validates them. Variables already set in the environment win.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		Environment:       envDefault("ENVIRONMENT", "local"),
		LogLevel:          platformobservability.ParseLevel(os.Getenv("LOG_LEVEL")),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		MySQLDSN:          strings.TrimSpace(os.Getenv("MYSQL_DSN")),
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		BackendTimeout:    application.DefaultBackendTimeout,
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		OTLPEndpoint:      strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTLPInsecure:      os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") != "0",
	}
	if port, err := strconv.Atoi(cfg.Port); err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("PORT must be a TCP port number, got %q", cfg.Port)
	}
	if raw := strings.TrimSpace(os.Getenv("BACKEND_TIMEOUT_MS")); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return Config{}, fmt.Errorf("BACKEND_TIMEOUT_MS must be a positive integer")
		}
		cfg.BackendTimeout = time.Duration(ms) * time.Millisecond
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Backend names the persistence backend the config selects. Postgres takes
// precedence over MySQL.
func (c Config) Backend() string {
	switch {
	case c.PostgresDSN != "":
		return "postgres"
	case c.MySQLDSN != "":
		return "mysql"
	default:
		return "memory"
	}
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
