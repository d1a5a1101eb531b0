package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zenwatch/ingestor/internal/model"
)

// Store is the persistence seam the global scoring service depends on;
// internal/store implements it.
type Store interface {
	ActiveGlobalKeywords(ctx context.Context) ([]Keyword, error)
	UnscoredItems(ctx context.Context, limit int) ([]*model.Item, error)
	SetItemScore(ctx context.Context, itemID string, score float64, category string) error
}

// Service wires the pure Scorer to persistence: it loads the active
// global keyword set once per batch, scores every unscored item
// against title+content, and writes the result back.
type Service struct {
	store  Store
	scorer *Scorer
	logger zerolog.Logger
}

// NewService builds a global scoring Service.
func NewService(store Store, scorer *Scorer, logger zerolog.Logger) *Service {
	return &Service{store: store, scorer: scorer, logger: logger.With().Str("component", "scoring").Logger()}
}

// ScoreUnscored scores up to limit items that have no global score yet,
// newest first, returning the number of items scored. The scheduler's
// hourly trigger and the orchestrator's post-ingestion chain both call
// this with the same semantics.
func (s *Service) ScoreUnscored(ctx context.Context, limit int) (int, error) {
	keywords, err := s.store.ActiveGlobalKeywords(ctx)
	if err != nil {
		return 0, fmt.Errorf("load global keywords: %w", err)
	}
	if len(keywords) == 0 {
		s.logger.Info().Msg("no active global keywords, skipping scoring")
		return 0, nil
	}

	items, err := s.store.UnscoredItems(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("load unscored items: %w", err)
	}

	scored := 0
	for _, item := range items {
		text := strings.TrimSpace(item.Title + " " + item.Content)
		result := s.scorer.Score(text, keywords)

		if err := s.store.SetItemScore(ctx, item.ID, result.OverallScore, result.Category); err != nil {
			s.logger.Warn().Err(err).Str("item_id", item.ID).Msg("failed to set item score")
			continue
		}
		scored++
	}

	s.logger.Info().Int("scored", scored).Int("candidates", len(items)).Msg("scored global items")
	return scored, nil
}
