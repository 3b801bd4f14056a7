package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WEALTHDESK_DATA_DIR", t.TempDir())
	t.Setenv("DEV_MODE", "true")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 60*time.Second, cfg.QuoteCacheTTL)
	assert.Equal(t, 4, cfg.ValuationWorkers)
	assert.NotEmpty(t, cfg.JWTSecret, "dev mode should fall back to a default secret")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WEALTHDESK_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_EXPIRY", "1h")
	t.Setenv("QUOTE_CACHE_TTL", "5m")
	t.Setenv("VALUATION_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5*time.Minute, cfg.QuoteCacheTTL)
	assert.Equal(t, 8, cfg.ValuationWorkers)
}

func TestValidate_RequiresSecretOutsideDevMode(t *testing.T) {
	cfg := &Config{Port: 8001, ValuationWorkers: 4}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := &Config{Port: -1, JWTSecret: "x"}
	assert.Error(t, cfg.Validate())
}
