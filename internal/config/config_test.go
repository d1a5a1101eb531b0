package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"INGESTOR_ADDR", "ENV", "DUCKDB_PATH", "REDIS_URL",
		"INGESTOR_MAX_CONCURRENT_SOURCES", "YOUTUBE_DAILY_QUOTA",
	} {
		os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.Addr != ":8090" {
		t.Errorf("Addr = %q, want :8090", cfg.Addr)
	}
	if cfg.MaxConcurrentSources != 8 {
		t.Errorf("MaxConcurrentSources = %d, want 8", cfg.MaxConcurrentSources)
	}
	if cfg.YouTubeDailyQuota != 10000 {
		t.Errorf("YouTubeDailyQuota = %d, want 10000", cfg.YouTubeDailyQuota)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development env by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	os.Setenv("INGESTOR_MAX_CONCURRENT_SOURCES", "4")
	os.Setenv("INGESTOR_SOFT_DEADLINE_SEC", "45")
	defer os.Unsetenv("INGESTOR_MAX_CONCURRENT_SOURCES")
	defer os.Unsetenv("INGESTOR_SOFT_DEADLINE_SEC")

	cfg := Load()

	if cfg.MaxConcurrentSources != 4 {
		t.Errorf("MaxConcurrentSources = %d, want 4", cfg.MaxConcurrentSources)
	}
	if cfg.SoftDeadline != 45*time.Second {
		t.Errorf("SoftDeadline = %v, want 45s", cfg.SoftDeadline)
	}
}
