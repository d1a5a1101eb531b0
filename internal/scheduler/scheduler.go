// Package scheduler runs the periodic ingestion and maintenance
// triggers declared by component C8: a ticker checks, once a minute,
// which of six fixed-time triggers are due and fires each at most
// once per matching minute.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenwatch/ingestor/internal/metrics"
)

// Config tunes the scheduler's check cadence and whether it runs at all.
type Config struct {
	CheckInterval time.Duration
	Enabled       bool
}

// DefaultConfig checks once a minute, matching the granularity of the
// declared triggers (none fire more often than hourly).
func DefaultConfig() Config {
	return Config{CheckInterval: time.Minute, Enabled: true}
}

// Tasks bundles the callbacks the scheduler invokes; the caller
// (cmd/ingestor) wires these to the orchestrator and scoring/trend
// services. A nil field disables that trigger.
type Tasks struct {
	FullIngest      func(ctx context.Context) error
	YouTubeTrending func(ctx context.Context) error
	GlobalScore     func(ctx context.Context) error
	Summarize       func(ctx context.Context) error
	DetectTrends    func(ctx context.Context) error
	CleanupTrends   func(ctx context.Context) error
}

// Scheduler evaluates the six declarative triggers from spec §4.8 on
// every tick and runs any that are due, each on its own goroutine so a
// slow task never delays the next minute's due-check.
type Scheduler struct {
	tasks  Tasks
	cfg    Config
	logger zerolog.Logger

	mu         sync.Mutex
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
	lastFired  map[string]time.Time
	inFlight   map[string]bool
	inFlightMu sync.Mutex
}

// New builds a Scheduler over the given task callbacks.
func New(tasks Tasks, cfg Config, logger zerolog.Logger) *Scheduler {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	return &Scheduler{
		tasks:     tasks,
		cfg:       cfg,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		lastFired: make(map[string]time.Time),
		inFlight:  make(map[string]bool),
	}
}

// Start begins the scheduler loop in a background goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	if !s.cfg.Enabled {
		s.logger.Info().Msg("scheduler disabled")
		close(s.doneCh)
		return
	}

	s.logger.Info().Dur("check_interval", s.cfg.CheckInterval).Msg("starting scheduler")
	go s.run(ctx)
}

// Stop halts the scheduler loop and waits for the current tick to
// finish dispatching.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkAndFire(ctx, time.Now().UTC())
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// trigger describes one declarative schedule entry: isDue reports
// whether the current minute matches, and run invokes the bound task.
type trigger struct {
	id    string
	isDue func(now time.Time) bool
	run   func(ctx context.Context) error
}

func (s *Scheduler) triggers() []trigger {
	return []trigger{
		{id: "full_ingest", isDue: everyNHours(6), run: s.tasks.FullIngest},
		{id: "youtube_trending", isDue: everyNHours(6), run: s.tasks.YouTubeTrending},
		{id: "global_score", isDue: hourlyAt(15), run: s.tasks.GlobalScore},
		{id: "summarize", isDue: dailyAt(9, 0), run: s.tasks.Summarize},
		{id: "detect_trends", isDue: dailyAt(10, 0), run: s.tasks.DetectTrends},
		{id: "cleanup_trends", isDue: weeklyAt(time.Sunday, 3, 0), run: s.tasks.CleanupTrends},
	}
}

func (s *Scheduler) checkAndFire(ctx context.Context, now time.Time) {
	for _, t := range s.triggers() {
		if t.run == nil || !t.isDue(now) {
			continue
		}
		if s.lastFiredThisMinute(t.id, now) {
			continue
		}
		if s.markInFlight(t.id) {
			s.logger.Debug().Str("task", t.id).Msg("previous run still in flight, skipping")
			metrics.RecordSchedulerTrigger(t.id, "skipped_in_flight")
			continue
		}

		go func(t trigger) {
			defer s.clearInFlight(t.id)
			s.logger.Info().Str("task", t.id).Msg("firing scheduled task")
			if err := t.run(ctx); err != nil {
				s.logger.Error().Err(err).Str("task", t.id).Msg("scheduled task failed")
				metrics.RecordSchedulerTrigger(t.id, "error")
				return
			}
			metrics.RecordSchedulerTrigger(t.id, "ok")
		}(t)
	}
}

func (s *Scheduler) lastFiredThisMinute(id string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastFired[id]
	fired := ok && last.Truncate(time.Minute).Equal(now.Truncate(time.Minute))
	if !fired {
		s.lastFired[id] = now
	}
	return fired
}

func (s *Scheduler) markInFlight(id string) (alreadyRunning bool) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	if s.inFlight[id] {
		return true
	}
	s.inFlight[id] = true
	return false
}

func (s *Scheduler) clearInFlight(id string) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	delete(s.inFlight, id)
}

func everyNHours(n int) func(time.Time) bool {
	return func(now time.Time) bool {
		return now.Hour()%n == 0 && now.Minute() == 0
	}
}

func hourlyAt(minute int) func(time.Time) bool {
	return func(now time.Time) bool {
		return now.Minute() == minute
	}
}

func dailyAt(hour, minute int) func(time.Time) bool {
	return func(now time.Time) bool {
		return now.Hour() == hour && now.Minute() == minute
	}
}

func weeklyAt(weekday time.Weekday, hour, minute int) func(time.Time) bool {
	return func(now time.Time) bool {
		return now.Weekday() == weekday && now.Hour() == hour && now.Minute() == minute
	}
}
