package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset location. DataBasePath is a directory or an http(s) URL; the
	// file names are resolved against it.
	DataBasePath     string
	DataYieldFile    string
	DataTrendFile    string
	DataGeometryFile string
	DataFetchTimeout time.Duration

	// Interactive session store.
	SessionCacheSize   int
	SessionIdleTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("DATA_FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	idleTimeout, err := parsePositiveDuration("SESSION_IDLE_TIMEOUT", "30m")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseSessionCacheSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataBasePath:     sharedcfg.EnvOrDefault("DATA_BASE_PATH", "public"),
		DataYieldFile:    sharedcfg.EnvOrDefault("DATA_YIELD_FILE", "data/data_final_avec_anomalies.csv"),
		DataTrendFile:    sharedcfg.EnvOrDefault("DATA_TREND_FILE", "data/tendances_climatiques_region.csv"),
		DataGeometryFile: sharedcfg.EnvOrDefault("DATA_GEOMETRY_FILE", "data/regions.geojson"),
		DataFetchTimeout: fetchTimeout,

		SessionCacheSize:   cacheSize,
		SessionIdleTimeout: idleTimeout,
	}

	if strings.TrimSpace(cfg.DataBasePath) == "" {
		return nil, errors.New("DATA_BASE_PATH is required")
	}
	if cfg.DataYieldFile == "" {
		return nil, errors.New("DATA_YIELD_FILE is required")
	}
	if cfg.DataTrendFile == "" {
		return nil, errors.New("DATA_TREND_FILE is required")
	}
	if cfg.DataGeometryFile == "" {
		return nil, errors.New("DATA_GEOMETRY_FILE is required")
	}
	if f := strings.ToLower(cfg.LogFormat); f != "json" && f != "text" {
		return nil, errors.New("invalid LOG_FORMAT: must be json or text")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseSessionCacheSize() (int, error) {
	s := os.Getenv("SESSION_CACHE_SIZE")
	if s == "" {
		return 1000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid SESSION_CACHE_SIZE: must be a positive integer")
	}
	return n, nil
}
