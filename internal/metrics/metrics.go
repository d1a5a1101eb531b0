// Package metrics exposes the ingestion engine's Prometheus
// instrumentation: run duration and outcome, items scraped/saved,
// YouTube quota usage, and scheduler trigger counts.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunDuration tracks how long each ingestion run takes, labeled by
	// its terminal status (success, partial_success, failed).
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingestor_run_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		},
		[]string{"status"},
	)

	// RunsTotal counts completed ingestion runs by terminal status.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_runs_total",
			Help: "Total number of completed ingestion runs",
		},
		[]string{"status"},
	)

	// SourceDuration tracks per-source scrape+persist duration.
	SourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingestor_source_duration_seconds",
			Help:    "Duration of a single source's scrape and persist in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source_type", "status"},
	)

	// ItemsScraped counts items a plugin returned before persistence.
	ItemsScraped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_items_scraped_total",
			Help: "Total number of items returned by a source plugin",
		},
		[]string{"source_type"},
	)

	// ItemsSaved counts items actually persisted (post-validation, post-dedup).
	ItemsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_items_saved_total",
			Help: "Total number of items persisted to storage",
		},
		[]string{"source_type"},
	)

	// SourceErrors counts per-source scrape failures.
	SourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_source_errors_total",
			Help: "Total number of source scrape failures",
		},
		[]string{"source_type"},
	)

	// YouTubeQuotaUsage reports the current day's recorded YouTube Data
	// API quota usage in units.
	YouTubeQuotaUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingestor_youtube_quota_usage",
			Help: "Current day's YouTube Data API quota usage in units",
		},
	)

	// SchedulerTriggersTotal counts scheduled task firings by task id
	// and outcome (ok, error, skipped_in_flight).
	SchedulerTriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_scheduler_triggers_total",
			Help: "Total number of scheduler trigger firings",
		},
		[]string{"task", "outcome"},
	)

	// CacheHits and CacheMisses track the Redis-backed scrape cache.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_cache_hits_total",
			Help: "Total number of scrape cache hits",
		},
		[]string{"source_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_cache_misses_total",
			Help: "Total number of scrape cache misses",
		},
		[]string{"source_type"},
	)
)

// RecordRun records a completed ingestion run's duration and outcome.
func RecordRun(status string, duration time.Duration) {
	RunDuration.WithLabelValues(status).Observe(duration.Seconds())
	RunsTotal.WithLabelValues(status).Inc()
}

// RecordSource records one source's scrape+persist outcome.
func RecordSource(sourceType, status string, duration time.Duration, scraped, saved int) {
	SourceDuration.WithLabelValues(sourceType, status).Observe(duration.Seconds())
	ItemsScraped.WithLabelValues(sourceType).Add(float64(scraped))
	ItemsSaved.WithLabelValues(sourceType).Add(float64(saved))
	if status != "success" {
		SourceErrors.WithLabelValues(sourceType).Inc()
	}
}

// RecordSchedulerTrigger records a scheduler task firing.
func RecordSchedulerTrigger(task, outcome string) {
	SchedulerTriggersTotal.WithLabelValues(task, outcome).Inc()
}

// SetYouTubeQuotaUsage sets the current day's recorded quota usage.
func SetYouTubeQuotaUsage(units int64) {
	YouTubeQuotaUsage.Set(float64(units))
}

// RecordCacheHit and RecordCacheMiss record scrape cache outcomes.
func RecordCacheHit(sourceType string)  { CacheHits.WithLabelValues(sourceType).Inc() }
func RecordCacheMiss(sourceType string) { CacheMisses.WithLabelValues(sourceType).Inc() }
