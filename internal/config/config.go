// Package config loads ingestor configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all ingestor configuration values.
type Config struct {
	// Server
	Addr            string
	Env             string
	GracefulTimeout time.Duration

	// Storage
	DuckDBPath string
	RedisURL   string

	// Source credentials (plugins read only Source.Config at runtime; the
	// reddit, YouTube and dev.to credentials here are copied into a
	// source's config at startup only when that source has no config
	// yet. RedditUserAgent and NitterBaseURL are loaded but not read by
	// any plugin)
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	YouTubeAPIKey      string
	DevToAPIKey        string
	NitterBaseURL      string

	// Scraping
	MaxConcurrentSources int
	SoftDeadline         time.Duration
	HardDeadline         time.Duration
	DefaultRateLimitRPM  int
	DefaultTimeout       time.Duration
	MaxRetries           int

	// Quota
	YouTubeDailyQuota     int
	YouTubeQuotaWarnRatio float64

	// Logging
	LogLevel string

	// Scheduler
	SchedulerEnabled bool
}

// Load reads configuration from environment variables and an optional
// .env file.
func Load() *Config {
	_ = godotenv.Load()

	gracefulSec := getEnvInt("INGESTOR_GRACEFUL_TIMEOUT_SEC", 15)
	softDeadlineSec := getEnvInt("INGESTOR_SOFT_DEADLINE_SEC", 25*60)
	hardDeadlineSec := getEnvInt("INGESTOR_HARD_DEADLINE_SEC", 30*60)
	defaultTimeoutSec := getEnvInt("INGESTOR_DEFAULT_TIMEOUT_SEC", 30)

	return &Config{
		Addr:            getEnv("INGESTOR_ADDR", ":8090"),
		Env:             getEnv("ENV", "development"),
		GracefulTimeout: time.Duration(gracefulSec) * time.Second,

		DuckDBPath: getEnv("DUCKDB_PATH", "./data/ingestor.duckdb"),
		RedisURL:   getEnv("REDIS_URL", "redis://redis:6379"),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", "zenwatch-ingestor/1.0"),
		YouTubeAPIKey:      getEnv("YOUTUBE_API_KEY", ""),
		DevToAPIKey:        getEnv("DEVTO_API_KEY", ""),
		NitterBaseURL:      getEnv("NITTER_BASE_URL", "https://nitter.net"),

		MaxConcurrentSources: getEnvInt("INGESTOR_MAX_CONCURRENT_SOURCES", 8),
		SoftDeadline:         time.Duration(softDeadlineSec) * time.Second,
		HardDeadline:         time.Duration(hardDeadlineSec) * time.Second,
		DefaultRateLimitRPM:  getEnvInt("INGESTOR_DEFAULT_RATE_LIMIT_RPM", 60),
		DefaultTimeout:       time.Duration(defaultTimeoutSec) * time.Second,
		MaxRetries:           getEnvInt("INGESTOR_MAX_RETRIES", 3),

		YouTubeDailyQuota:     getEnvInt("YOUTUBE_DAILY_QUOTA", 10000),
		YouTubeQuotaWarnRatio: getEnvFloat("YOUTUBE_QUOTA_WARN_RATIO", 0.95),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", true),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
