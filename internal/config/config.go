package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAddr          = ":8080"
	defaultPublicBaseURL = "http://localhost:8080"
	defaultUploadDir     = "./uploads"
	defaultSessionTTL    = "3h"
	defaultSweepInterval = "15m"
	defaultMaxFileSize   = "10737418240" // 10 GiB
)

// Config holds all runtime settings, loaded from environment variables
// with sensible local-development defaults.
type Config struct {
	Addr          string
	PublicBaseURL string
	UploadDir     string
	SessionTTL    time.Duration
	SweepInterval time.Duration
	MaxFileSize   int64
}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Addr = strings.TrimSpace(getEnv("ADDR", defaultAddr))
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("PUBLIC_BASE_URL", defaultPublicBaseURL)), "/")
	cfg.UploadDir = strings.TrimSpace(getEnv("UPLOAD_DIR", defaultUploadDir))

	var err error
	cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return nil, err
	}
	cfg.SweepInterval, err = parseDurationEnv("SWEEP_INTERVAL", defaultSweepInterval)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSize, err = parseInt64Env("MAX_FILE_SIZE", defaultMaxFileSize)
	if err != nil {
		return nil, err
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", cfg.MaxFileSize)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration in %s: %q: %w", key, raw, err)
	}
	return d, nil
}

func parseInt64Env(key, fallback string) (int64, error) {
	raw := getEnv(key, fallback)
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in %s: %q: %w", key, raw, err)
	}
	return n, nil
}
