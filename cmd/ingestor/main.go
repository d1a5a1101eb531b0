// Command ingestor runs the content ingestion and scoring engine:
// config → logger → redis → duckdb → plugin registry → orchestrator →
// scheduler → HTTP API, with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zenwatch/ingestor/internal/config"
	"github.com/zenwatch/ingestor/internal/httpapi"
	"github.com/zenwatch/ingestor/internal/ingest"
	"github.com/zenwatch/ingestor/internal/logger"
	"github.com/zenwatch/ingestor/internal/quota"
	"github.com/zenwatch/ingestor/internal/scheduler"
	"github.com/zenwatch/ingestor/internal/scoring"
	"github.com/zenwatch/ingestor/internal/scraper"
	_ "github.com/zenwatch/ingestor/internal/scraper/plugins"
	"github.com/zenwatch/ingestor/internal/store"
	"github.com/zenwatch/ingestor/internal/summarizer"
	"github.com/zenwatch/ingestor/internal/trend"
	"github.com/zenwatch/ingestor/internal/userscoring"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	log.Info().Str("env", cfg.Env).Msg("ingestor starting")

	rdb := redis.NewClient(&redis.Options{})
	if opts, err := redis.ParseURL(cfg.RedisURL); err == nil {
		rdb = redis.NewClient(opts)
	} else {
		log.Warn().Err(err).Msg("invalid REDIS_URL, using default client options")
	}
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Msg("redis ping failed — caching and quota tracking degraded")
	} else {
		log.Info().Msg("redis connected")
	}

	db, err := store.Open(store.Config{Path: cfg.DuckDBPath}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open duckdb store")
	}
	defer db.Close()

	registry := scraper.Default()
	if err := bootstrapSources(context.Background(), db, registry, cfg); err != nil {
		log.Error().Err(err).Msg("failed to bootstrap default sources")
	}

	quotaManager := quota.NewManager(rdb, cfg.YouTubeDailyQuota, cfg.YouTubeQuotaWarnRatio, log)

	scorer := scoring.NewScorer(scoring.NewHashedBackend())
	globalScoring := scoring.NewService(db, scorer, log)
	userScoring := userscoring.NewService(db, log)
	trendDetector := trend.NewDetector(db, log)
	summarizerSvc := summarizer.NewService(db, summarizer.NoopBackend{}, log)

	orchCfg := ingest.DefaultConfig()
	orchCfg.MaxConcurrentSources = cfg.MaxConcurrentSources
	orchCfg.SoftDeadline = cfg.SoftDeadline
	orchCfg.HardDeadline = cfg.HardDeadline
	orchestrator := ingest.New(registry, db, rdb, quotaManager, globalScoring, userScoring, orchCfg, log)

	sched := scheduler.New(scheduler.Tasks{
		FullIngest: func(ctx context.Context) error {
			_, err := orchestrator.IngestAll(ctx, nil)
			return err
		},
		YouTubeTrending: func(ctx context.Context) error {
			_, err := orchestrator.IngestAll(ctx, nil)
			return err
		},
		GlobalScore: func(ctx context.Context) error {
			_, err := globalScoring.ScoreUnscored(ctx, 500)
			return err
		},
		Summarize: func(ctx context.Context) error {
			_, err := summarizerSvc.SummarizeMissing(ctx, 200)
			return err
		},
		DetectTrends: func(ctx context.Context) error {
			_, err := trendDetector.DetectTrends(ctx, time.Now().UTC())
			return err
		},
		CleanupTrends: func(ctx context.Context) error {
			_, _, err := trendDetector.CleanupOldTrends(ctx, time.Now().UTC(), 90)
			return err
		},
	}, scheduler.Config{CheckInterval: time.Minute, Enabled: cfg.SchedulerEnabled}, log)

	scrapingHandler := httpapi.NewScrapingHandler(orchestrator, db, log)
	router := httpapi.NewRouter(httpapi.Deps{Logger: log, Scraper: scrapingHandler})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.DefaultTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sched.Start(context.Background())

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("ingestor listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-done
	log.Info().Msg("shutdown signal received")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("ingestor stopped gracefully")
	}
}
