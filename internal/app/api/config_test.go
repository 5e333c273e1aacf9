package api

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/inventory-service/internal/domains/inventory/application"
)

// clearEnv unsets the variables so .env files can supply them; t.Setenv
// restores the originals after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "POSTGRES_DSN", "MYSQL_DSN", "REDIS_ADDR", "REDIS_PASSWORD",
		"BACKEND_TIMEOUT_MS", "TEMPORAL_ADDRESS", "TEMPORAL_NAMESPACE", "TEMPORAL_DISABLED",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "memory", cfg.Backend())
	assert.Equal(t, application.DefaultBackendTimeout, cfg.BackendTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.TemporalDisabled)
}

func TestLoadConfig_ReadsEnvFileWithoutOverridingEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("PORT=7070\nMYSQL_DSN=root@tcp(db:3306)/inventory\nBACKEND_TIMEOUT_MS=250\nTEMPORAL_DISABLED=true\nLOG_LEVEL=debug\n"), 0o600))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "mysql", cfg.Backend())
	assert.Equal(t, 250*time.Millisecond, cfg.BackendTimeout)
	assert.True(t, cfg.TemporalDisabled)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadConfig_PostgresWinsOverMySQL(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_DSN", "postgres://localhost/inventory")
	t.Setenv("MYSQL_DSN", "root@tcp(localhost:3306)/inventory")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Backend())
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_TIMEOUT_MS", "-5")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "none.env"))
	require.Error(t, err)

	clearEnv(t)
	t.Setenv("PORT", "http")
	_, err = LoadConfig(filepath.Join(t.TempDir(), "none.env"))
	require.Error(t, err)
}
