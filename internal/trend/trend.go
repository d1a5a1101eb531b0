// Package trend computes daily keyword trend scores and prunes stale
// history — component C11.
package trend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenwatch/ingestor/internal/model"
)

// Keyword is the trend detector's view of one active global keyword.
type Keyword struct {
	Keyword  string
	Category string
	Weight   float64
}

// Store is the persistence seam the detector depends on.
// ItemsWithKeywordInTitleSince returns items published on or after
// since whose lowercased title contains the lowercased keyword.
type Store interface {
	ActiveKeywords(ctx context.Context) ([]Keyword, error)
	ItemsWithKeywordInTitleSince(ctx context.Context, keyword string, since time.Time) ([]*model.Item, error)
	// UpsertTrend inserts or updates the (keyword, date) row and
	// reports whether a new row was inserted (false means an existing
	// row was updated in place).
	UpsertTrend(ctx context.Context, t model.Trend) (inserted bool, err error)
	DeleteTrendsOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

const analysisWindowDays = 7

// Detector runs the daily trend aggregation.
type Detector struct {
	store  Store
	logger zerolog.Logger
}

// NewDetector builds a Detector.
func NewDetector(store Store, logger zerolog.Logger) *Detector {
	return &Detector{store: store, logger: logger.With().Str("component", "trend").Logger()}
}

// Result summarizes one DetectTrends run.
type Result struct {
	Status           string
	TrendsCreated    int
	KeywordsAnalyzed int
	Reason           string
}

// DetectTrends aggregates, for every active keyword, the count and
// mean score of items published in the last 7 days whose title
// contains it, then upserts Trend(keyword, today).
func (d *Detector) DetectTrends(ctx context.Context, now time.Time) (Result, error) {
	keywords, err := d.store.ActiveKeywords(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load active keywords: %w", err)
	}
	if len(keywords) == 0 {
		d.logger.Warn().Msg("no active keywords, skipping trend detection")
		return Result{Status: "skipped", Reason: "no_keywords"}, nil
	}

	today := now.UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -analysisWindowDays)

	created := 0
	for _, kw := range keywords {
		if err := d.detectOne(ctx, kw, since, today, &created); err != nil {
			d.logger.Error().Err(err).Str("keyword", kw.Keyword).Msg("error detecting trend for keyword")
			continue
		}
	}

	d.logger.Info().Int("trends_created", created).Msg("trend detection complete")
	return Result{Status: "success", TrendsCreated: created, KeywordsAnalyzed: len(keywords)}, nil
}

func (d *Detector) detectOne(ctx context.Context, kw Keyword, since, today time.Time, created *int) error {
	items, err := d.store.ItemsWithKeywordInTitleSince(ctx, kw.Keyword, since)
	if err != nil {
		return err
	}

	count := len(items)
	if count == 0 {
		return nil
	}

	var sumScore float64
	for _, item := range items {
		if item.Score != nil {
			sumScore += *item.Score
		}
	}
	avgScore := sumScore / float64(count)

	trendScore := (float64(count) * kw.Weight * avgScore) / 10

	inserted, err := d.store.UpsertTrend(ctx, model.Trend{
		Keyword:      kw.Keyword,
		Category:     kw.Category,
		Date:         today,
		TrendScore:   trendScore,
		ArticleCount: count,
	})
	if err != nil {
		return err
	}
	if inserted {
		*created++
	}
	return nil
}

// CleanupOldTrends deletes Trend rows older than daysToKeep days.
func (d *Detector) CleanupOldTrends(ctx context.Context, now time.Time, daysToKeep int) (deleted int, cutoff time.Time, err error) {
	cutoff = now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -daysToKeep)
	deleted, err = d.store.DeleteTrendsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, cutoff, fmt.Errorf("delete old trends: %w", err)
	}
	d.logger.Info().Int("deleted", deleted).Time("cutoff", cutoff).Msg("cleaned up old trends")
	return deleted, cutoff, nil
}
