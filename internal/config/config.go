package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

// AppConfig holds everything read from the environment at startup.
type AppConfig struct {
	Port string

	// Location is the location the scheduler refreshes periodically.
	Location string

	// FetchInterval controls how often the scheduler rebuilds the snapshot.
	FetchInterval time.Duration

	// SourceTimeout bounds each individual source call.
	SourceTimeout time.Duration

	// MaxConcurrent bounds the aggregator's worker pool.
	MaxConcurrent int

	// In-memory snapshot history retention.
	StoreMaxHistory int
	StoreMaxAge     time.Duration

	// Redis durable cache layer. Empty RedisAddr means memory-only caching.
	RedisAddr     string
	RedisUser     string
	RedisPassword string
	RedisDB       int

	// Upstream API credentials.
	TomTomAPIKey   string
	GeocoderAPIKey string

	// Optional upstream endpoint overrides, mainly for local stubs.
	TrafficBaseURL string
	BikesBaseURL   string

	LogLevel  string
	LogPretty bool
}

// Load reads configuration from the environment with sensible defaults.
// A .env file is honored when present.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.Location = getenvDefault("LOCATION", mobility.DefaultLocation)

	interval, err := parseDurationEnv("FETCH_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	cfg.FetchInterval = interval

	timeout, err := parseDurationEnv("SOURCE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.SourceTimeout = timeout

	cfg.MaxConcurrent = getenvInt("MAX_CONCURRENT", 4)

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	maxAge, err := parseDurationEnv("STORE_MAX_AGE", "24h")
	if err != nil {
		return nil, err
	}
	cfg.StoreMaxAge = maxAge

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisUser = os.Getenv("REDIS_USER")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getenvInt("REDIS_DB", 0)

	cfg.TomTomAPIKey = os.Getenv("TOMTOM_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.TrafficBaseURL = os.Getenv("TRAFFIC_BASE_URL")
	cfg.BikesBaseURL = os.Getenv("BIKES_BASE_URL")

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogPretty = getenvDefault("LOG_PRETTY", "false") == "true"

	return cfg, nil
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getenvDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
