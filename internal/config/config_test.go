package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 256, cfg.Cache.MaxEntries)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Pipeline.Cutoff)
	assert.Equal(t, 30*time.Second, cfg.Providers.HTTPTimeout)
	assert.Empty(t, cfg.Providers.FMPAPIKey)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Server.AdminAPIKey)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("INSIDERS_SERVER_PORT", "9001")
	t.Setenv("INSIDERS_PIPELINE_CUTOFF", "2019-01-01")
	t.Setenv("INSIDERS_CACHE_TTL", "0s")
	t.Setenv("INSIDERS_PROVIDERS_FMP_API_KEY", "secret")
	t.Setenv("INSIDERS_LOGGING_FORMAT", "console")
	t.Setenv("INSIDERS_SERVER_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9001", cfg.Server.Port)
	assert.Equal(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Pipeline.Cutoff)
	assert.Equal(t, time.Duration(0), cfg.Cache.TTL)
	assert.Equal(t, "secret", cfg.Providers.FMPAPIKey)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"INSIDERS_PIPELINE_CUTOFF", "01/01/2023"},
		{"INSIDERS_CACHE_MAX_ENTRIES", "-1"},
		{"INSIDERS_LOGGING_FORMAT", "xml"},
		{"INSIDERS_TELEMETRY_TRACE_EXPORTER", "jaeger"},
		{"INSIDERS_SERVER_RATE_LIMIT_RPS", "0"},
		{"INSIDERS_CACHE_TTL", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseCutoff(t *testing.T) {
	got, err := ParseCutoff(" 2024-03-05 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseCutoff("2024-13-01")
	assert.Error(t, err)
}
