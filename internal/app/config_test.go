package app

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://inventory.local:8000/api")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 24*time.Hour, cfg.DraftTTL)
	assert.Equal(t, 5*time.Minute, cfg.RefDataTTL)
	assert.Equal(t, 120, cfg.RateLimit)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresUpstream(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsRelativeUpstream(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "/api")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "absolute")
}

func TestLoadConfigRejectsNonPositiveRateLimit(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://inventory.local")
	t.Setenv("RATE_LIMIT", "0")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "rate limit")
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{AppEnv: "production", LogFormat: "json"}, &buf)
	logger.Debug("hidden")
	logger.Info("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"visible"`)
	assert.Contains(t, out, `"env":"production"`)
}
