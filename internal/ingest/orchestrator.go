// Package ingest hosts the orchestrator (component C7): it fans
// scraping work out across active sources, persists what each plugin
// returns, and seals a telemetry record describing the run.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/zenwatch/ingestor/internal/httpclient"
	"github.com/zenwatch/ingestor/internal/metrics"
	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/quota"
	"github.com/zenwatch/ingestor/internal/scoring"
	"github.com/zenwatch/ingestor/internal/scraper"
	"github.com/zenwatch/ingestor/internal/userscoring"
)

// DefaultKeywords seeds scoring when the store has no active global
// keywords yet — a cold-start fallback so a freshly provisioned
// deployment still produces scored, categorized items.
var DefaultKeywords = []scraper.Keyword{
	{Keyword: "artificial intelligence", Weight: 1.0, Category: "ai"},
	{Keyword: "machine learning", Weight: 1.0, Category: "ai"},
	{Keyword: "claude", Weight: 1.5, Category: "ai"},
	{Keyword: "golang", Weight: 1.0, Category: "programming"},
}

// Store is the persistence seam the orchestrator depends on.
type Store interface {
	CreateRunningRun(ctx context.Context, taskID, sourceType string, startedAt time.Time) error
	CompleteRun(ctx context.Context, taskID string, status model.RunStatus, articlesScraped, articlesSaved int, errMsg string, completedAt time.Time) error
	ActiveSources(ctx context.Context) ([]*model.Source, error)
	ActiveGlobalKeywords(ctx context.Context) ([]scoring.Keyword, error)
	ActiveChannels(ctx context.Context) ([]scraper.Channel, error)
	PersistNormalized(ctx context.Context, items []model.NormalizedItem, sourceType string) (int, error)
	TouchLastScraped(ctx context.Context, sourceID string, when time.Time) error
}

// Config tunes the orchestrator's concurrency and deadline behavior,
// mirroring spec §5's resource model.
type Config struct {
	MaxConcurrentSources int
	SoftDeadline         time.Duration
	HardDeadline         time.Duration
	RunScoring           bool
}

// DefaultConfig returns the §5-mandated defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentSources: 8,
		SoftDeadline:         25 * time.Minute,
		HardDeadline:         30 * time.Minute,
		RunScoring:           true,
	}
}

// SourceReport is the per-source outcome appended to a RunReport.
type SourceReport struct {
	SourceType      string
	Status          string
	ArticlesScraped int
	ArticlesSaved   int
	Duration        time.Duration
	Error           string
}

// RunReport is ingest_all's return value: the sealed run plus its
// per-source breakdown.
type RunReport struct {
	TaskID   string
	Status   model.RunStatus
	Sources  []SourceReport
	Scraped  int
	Saved    int
	Duration time.Duration
}

// Orchestrator implements ingest_all over a Registry, a Store, a
// shared Redis handle (may be nil — caching degrades to disabled),
// and the scoring services that run after a successful batch.
type Orchestrator struct {
	registry    *scraper.Registry
	store       Store
	rdb         *redis.Client
	quota       *quota.Manager
	scorer      *scoring.Service
	userScoring *userscoring.Service
	cfg         Config
	logger      zerolog.Logger
}

// New builds an Orchestrator. rdb and quotaManager may be nil.
func New(registry *scraper.Registry, store Store, rdb *redis.Client, quotaManager *quota.Manager,
	scorer *scoring.Service, userScoring *userscoring.Service, cfg Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		registry:    registry,
		store:       store,
		rdb:         rdb,
		quota:       quotaManager,
		scorer:      scorer,
		userScoring: userScoring,
		cfg:         cfg,
		logger:      logger.With().Str("component", "orchestrator").Logger(),
	}
}

// IngestAll runs one full orchestration pass across every active
// source and blocks until it completes. keywords, if nil, is loaded
// from the store, falling back to DefaultKeywords when the store has
// none active. Used by the scheduler's full-ingest trigger, which
// already runs on its own goroutine.
func (o *Orchestrator) IngestAll(ctx context.Context, keywords []scraper.Keyword) (*RunReport, error) {
	taskID := uuid.NewString()
	if err := o.store.CreateRunningRun(ctx, taskID, "all", time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("create run record: %w", err)
	}
	return o.execute(ctx, taskID, keywords), nil
}

// StartIngestAll creates the IngestionRun record synchronously and
// returns its task_id immediately, running the actual ingestion pass
// in the background. It is the seam POST /scraping/trigger uses to
// return 202 without blocking on the full run.
func (o *Orchestrator) StartIngestAll(ctx context.Context, keywords []scraper.Keyword) (string, error) {
	taskID := uuid.NewString()
	if err := o.store.CreateRunningRun(ctx, taskID, "all", time.Now().UTC()); err != nil {
		return "", fmt.Errorf("create run record: %w", err)
	}

	go func() {
		bg := context.Background()
		o.execute(bg, taskID, keywords)
	}()

	return taskID, nil
}

func (o *Orchestrator) execute(ctx context.Context, taskID string, keywords []scraper.Keyword) *RunReport {
	startedAt := time.Now().UTC()

	report := o.run(ctx, taskID, keywords)
	report.Duration = time.Since(startedAt)
	metrics.RecordRun(string(report.Status), report.Duration)

	errMsg := ""
	if report.Status == model.RunStatusFailed || report.Status == model.RunStatusPartialSuccess {
		errMsg = summarizeErrors(report.Sources)
	}
	if err := o.store.CompleteRun(ctx, taskID, report.Status, report.Scraped, report.Saved, errMsg, time.Now().UTC()); err != nil {
		o.logger.Error().Err(err).Str("task_id", taskID).Msg("failed to seal ingestion run")
	}

	if report.Saved > 0 && o.cfg.RunScoring {
		o.runPostIngestionScoring(ctx)
	}

	return report
}

func (o *Orchestrator) run(ctx context.Context, taskID string, keywords []scraper.Keyword) *RunReport {
	keywords = o.resolveKeywords(ctx, keywords)

	cache := httpclient.NewScrapeCache(o.rdb, o.logger)

	sources, err := o.store.ActiveSources(ctx)
	if err != nil {
		o.logger.Error().Err(err).Msg("failed to load active sources")
		return &RunReport{TaskID: taskID, Status: model.RunStatusFailed}
	}

	hardCtx, hardCancel := context.WithTimeout(ctx, o.cfg.HardDeadline)
	defer hardCancel()

	channels, err := o.store.ActiveChannels(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("failed to load active channels, youtube_rss will run empty")
	}

	group, groupCtx := errgroup.WithContext(hardCtx)
	group.SetLimit(o.cfg.MaxConcurrentSources)

	var mu sync.Mutex
	var reports []SourceReport

	for _, src := range sources {
		src := src
		group.Go(func() error {
			sourceCtx, sourceCancel := context.WithTimeout(groupCtx, o.cfg.SoftDeadline)
			defer sourceCancel()

			rep := o.runSource(sourceCtx, src, keywords, channels, cache)

			mu.Lock()
			reports = append(reports, rep)
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	scraped, saved, status := summarize(reports)
	return &RunReport{TaskID: taskID, Status: status, Sources: reports, Scraped: scraped, Saved: saved}
}

func (o *Orchestrator) resolveKeywords(ctx context.Context, keywords []scraper.Keyword) []scraper.Keyword {
	if len(keywords) > 0 {
		return keywords
	}
	active, err := o.store.ActiveGlobalKeywords(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("failed to load active keywords, using defaults")
		return DefaultKeywords
	}
	if len(active) == 0 {
		return DefaultKeywords
	}
	out := make([]scraper.Keyword, len(active))
	for i, kw := range active {
		out[i] = scraper.Keyword{Keyword: kw.Keyword, Weight: kw.Weight, Category: kw.Category}
	}
	return out
}

func (o *Orchestrator) runSource(ctx context.Context, src *model.Source, keywords []scraper.Keyword, channels []scraper.Channel, cache *httpclient.ScrapeCache) SourceReport {
	started := time.Now()
	rep := SourceReport{SourceType: src.Type}

	plugin, ok := o.registry.Get(src.Type)
	if !ok {
		rep.Status = "error"
		rep.Error = fmt.Sprintf("no plugin registered for source type %q", src.Type)
		rep.Duration = time.Since(started)
		return rep
	}
	if !plugin.ValidateConfig(src.Config) {
		rep.Status = "error"
		rep.Error = "invalid plugin configuration"
		rep.Duration = time.Since(started)
		return rep
	}

	if injectable, ok := plugin.(scraper.QuotaAware); ok && o.quota != nil {
		injectable.SetQuotaManager(o.quota)
	}
	if injectable, ok := plugin.(scraper.ChannelAware); ok {
		injectable.SetChannels(channels)
	}

	keywordStrings := make([]string, len(keywords))
	for i, kw := range keywords {
		keywordStrings[i] = kw.Keyword
	}
	cacheKey := httpclient.Key(src.Type, keywordStrings, src.Config)

	items, fromCache := cache.Get(ctx, cacheKey)
	if fromCache {
		metrics.RecordCacheHit(src.Type)
	} else {
		metrics.RecordCacheMiss(src.Type)
		scraped, err := plugin.Scrape(ctx, src.Config, keywords)
		if err != nil {
			rep.Status = "error"
			rep.Error = err.Error()
			rep.Duration = time.Since(started)
			metrics.RecordSource(src.Type, rep.Status, rep.Duration, 0, 0)
			return rep
		}
		items = scraped
		cache.Set(ctx, cacheKey, items, 15*time.Minute)
	}

	valid := make([]model.NormalizedItem, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			o.logger.Debug().Err(err).Str("source_type", src.Type).Str("url", item.URL).Msg("dropping invalid item")
			continue
		}
		valid = append(valid, item)
	}

	saved, err := o.store.PersistNormalized(ctx, valid, src.Type)
	if err != nil {
		rep.Status = "error"
		rep.Error = err.Error()
		rep.ArticlesScraped = len(valid)
		rep.Duration = time.Since(started)
		metrics.RecordSource(src.Type, rep.Status, rep.Duration, rep.ArticlesScraped, 0)
		return rep
	}

	if err := o.store.TouchLastScraped(ctx, src.ID, time.Now().UTC()); err != nil {
		o.logger.Warn().Err(err).Str("source_id", src.ID).Msg("failed to touch last_scraped_at")
	}

	rep.Status = "success"
	rep.ArticlesScraped = len(valid)
	rep.ArticlesSaved = saved
	rep.Duration = time.Since(started)
	metrics.RecordSource(src.Type, rep.Status, rep.Duration, rep.ArticlesScraped, rep.ArticlesSaved)
	return rep
}

func (o *Orchestrator) runPostIngestionScoring(ctx context.Context) {
	if o.scorer != nil {
		if _, err := o.scorer.ScoreUnscored(ctx, 500); err != nil {
			o.logger.Warn().Err(err).Msg("post-ingestion global scoring failed")
		}
	}
	if o.userScoring != nil {
		if _, _, err := o.userScoring.RescoreAllUsersWithKeywords(ctx); err != nil {
			o.logger.Warn().Err(err).Msg("post-ingestion per-user scoring failed")
		}
	}
}

func summarize(reports []SourceReport) (scraped, saved int, status model.RunStatus) {
	succeeded, failed := 0, 0
	for _, rep := range reports {
		scraped += rep.ArticlesScraped
		saved += rep.ArticlesSaved
		if rep.Status == "success" {
			succeeded++
		} else {
			failed++
		}
	}

	switch {
	case len(reports) == 0 || failed == 0:
		status = model.RunStatusSuccess
	case succeeded == 0:
		status = model.RunStatusFailed
	default:
		status = model.RunStatusPartialSuccess
	}
	return scraped, saved, status
}

func summarizeErrors(reports []SourceReport) string {
	var msg string
	for _, rep := range reports {
		if rep.Error == "" {
			continue
		}
		if msg != "" {
			msg += "; "
		}
		msg += rep.SourceType + ": " + rep.Error
	}
	return msg
}
