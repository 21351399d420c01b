// Package config reads the EasyNote CLI settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvAPIBase     = "EASYNOTE_API_BASE"
	EnvTimeout     = "EASYNOTE_TIMEOUT"
	EnvTokenFile   = "EASYNOTE_TOKEN_FILE"
	EnvRedisAddr   = "EASYNOTE_REDIS_ADDR"
	EnvRedisPrefix = "EASYNOTE_REDIS_PREFIX"
	EnvRedisTTL    = "EASYNOTE_REDIS_TTL"
	EnvRateLimit   = "EASYNOTE_RATE_LIMIT"
	EnvRateBurst   = "EASYNOTE_RATE_BURST"
	EnvLogLevel    = "EASYNOTE_LOG_LEVEL"
	EnvTrace       = "EASYNOTE_TRACE"
	EnvOTLP        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsec   = "OTEL_EXPORTER_OTLP_INSECURE"
)

// DefaultAPIBase points at a backend on the local machine.
const DefaultAPIBase = "http://localhost:8080/api"

type Config struct {
	APIBase   string
	Timeout   time.Duration
	TokenFile string

	// RedisAddr switches token persistence from TokenFile to Redis.
	RedisAddr   string
	RedisPrefix string
	RedisTTL    time.Duration

	// RateLimit is requests per second. Zero disables limiting.
	RateLimit float64
	RateBurst int

	LogLevel string

	Trace        bool
	OTLPEndpoint string
	OTLPInsecure bool
}

// Load reads the configuration. When envFile is not empty its variables are
// loaded first; variables already set in the environment win.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env (%s): %w", envFile, err)
		}
	}

	cfg := Config{
		APIBase:      readString(EnvAPIBase, DefaultAPIBase),
		TokenFile:    readString(EnvTokenFile, defaultTokenFile()),
		RedisAddr:    os.Getenv(EnvRedisAddr),
		RedisPrefix:  os.Getenv(EnvRedisPrefix),
		LogLevel:     readString(EnvLogLevel, "info"),
		OTLPEndpoint: os.Getenv(EnvOTLP),
	}

	var err error
	if cfg.Timeout, err = readDuration(EnvTimeout, 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RedisTTL, err = readDuration(EnvRedisTTL, 0); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit, err = readFloat(EnvRateLimit, 0); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = readInt(EnvRateBurst, 1); err != nil {
		return Config{}, err
	}
	if cfg.Trace, err = readBool(EnvTrace, false); err != nil {
		return Config{}, err
	}
	if cfg.OTLPInsecure, err = readBool(EnvOTLPInsec, false); err != nil {
		return Config{}, err
	}

	if cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %s", EnvTimeout, cfg.Timeout)
	}
	if cfg.RateBurst < 1 {
		return Config{}, fmt.Errorf("%s must be at least 1, got %d", EnvRateBurst, cfg.RateBurst)
	}
	return cfg, nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "easynote", "token")
}

func readString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func readDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func readInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func readFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func readBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
