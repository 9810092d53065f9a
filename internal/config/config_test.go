package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "public", cfg.DataBasePath)
	assert.Equal(t, "data/data_final_avec_anomalies.csv", cfg.DataYieldFile)
	assert.Equal(t, "data/tendances_climatiques_region.csv", cfg.DataTrendFile)
	assert.Equal(t, "data/regions.geojson", cfg.DataGeometryFile)
	assert.Equal(t, 10*time.Second, cfg.DataFetchTimeout)
	assert.Equal(t, 1000, cfg.SessionCacheSize)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DATA_BASE_PATH", "https://static.example.org/agro")
	t.Setenv("DATA_YIELD_FILE", "y.csv")
	t.Setenv("DATA_TREND_FILE", "t.csv")
	t.Setenv("DATA_GEOMETRY_FILE", "g.geojson")
	t.Setenv("DATA_FETCH_TIMEOUT", "3s")
	t.Setenv("SESSION_CACHE_SIZE", "50")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://static.example.org/agro", cfg.DataBasePath)
	assert.Equal(t, "y.csv", cfg.DataYieldFile)
	assert.Equal(t, "t.csv", cfg.DataTrendFile)
	assert.Equal(t, "g.geojson", cfg.DataGeometryFile)
	assert.Equal(t, 3*time.Second, cfg.DataFetchTimeout)
	assert.Equal(t, 50, cfg.SessionCacheSize)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTimeout)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DATA_FETCH_TIMEOUT", "soon"},
		{"DATA_FETCH_TIMEOUT", "-2s"},
		{"SESSION_IDLE_TIMEOUT", "0s"},
		{"SESSION_CACHE_SIZE", "zero"},
		{"SESSION_CACHE_SIZE", "-5"},
		{"LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
