package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("default addr: %q", cfg.Addr)
	}
	if cfg.SessionTTL != 3*time.Hour {
		t.Fatalf("default session ttl: %v", cfg.SessionTTL)
	}
	if cfg.SweepInterval != 15*time.Minute {
		t.Fatalf("default sweep interval: %v", cfg.SweepInterval)
	}
	if cfg.MaxFileSize != 10<<30 {
		t.Fatalf("default max file size: %d", cfg.MaxFileSize)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("PUBLIC_BASE_URL", "https://drop.example.com/")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("MAX_FILE_SIZE", "1024")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("addr: %q", cfg.Addr)
	}
	if cfg.PublicBaseURL != "https://drop.example.com" {
		t.Fatalf("trailing slash must be trimmed: %q", cfg.PublicBaseURL)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("session ttl: %v", cfg.SessionTTL)
	}
	if cfg.MaxFileSize != 1024 {
		t.Fatalf("max file size: %d", cfg.MaxFileSize)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "yesterday")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}

	t.Setenv("SESSION_TTL", "3h")
	t.Setenv("MAX_FILE_SIZE", "-5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-positive size")
	}
}
