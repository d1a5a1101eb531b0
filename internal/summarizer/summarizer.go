// Package summarizer runs the daily best-effort summarization pass
// over items missing a summary. The concrete LLM call is left
// unspecified upstream, so this package defines the capability
// interface a real backend would implement and ships a no-op
// implementation that satisfies the scheduler's daily trigger without
// making an external call.
package summarizer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zenwatch/ingestor/internal/model"
)

// Backend produces a short summary for one item's content. A real
// implementation would call out to an LLM; Summarize must be safe to
// call concurrently.
type Backend interface {
	Summarize(ctx context.Context, item *model.Item) (string, error)
}

// NoopBackend implements Backend without an external call: every item
// is left with no summary, as if summarization were unavailable. It
// exists so the scheduler's daily trigger has a concrete backend to
// run against until a real one is wired in.
type NoopBackend struct{}

func (NoopBackend) Summarize(ctx context.Context, item *model.Item) (string, error) {
	return "", nil
}

// Store is the persistence seam the summarization pass depends on.
type Store interface {
	ItemsMissingSummary(ctx context.Context, limit int) ([]*model.Item, error)
	SetItemSummary(ctx context.Context, itemID, summary string) error
}

// Service drives Backend over items missing a summary.
type Service struct {
	store   Store
	backend Backend
	logger  zerolog.Logger
}

// NewService builds a summarization Service.
func NewService(store Store, backend Backend, logger zerolog.Logger) *Service {
	return &Service{store: store, backend: backend, logger: logger.With().Str("component", "summarizer").Logger()}
}

// SummarizeMissing loads up to limit items with no summary and runs
// Backend over each, writing back any non-empty result. A per-item
// backend failure is logged and skipped; it never aborts the batch.
func (s *Service) SummarizeMissing(ctx context.Context, limit int) (int, error) {
	items, err := s.store.ItemsMissingSummary(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("load items missing summary: %w", err)
	}

	written := 0
	for _, item := range items {
		summary, err := s.backend.Summarize(ctx, item)
		if err != nil {
			s.logger.Warn().Err(err).Str("item_id", item.ID).Msg("summarization backend failed")
			continue
		}
		if summary == "" {
			continue
		}
		if err := s.store.SetItemSummary(ctx, item.ID, summary); err != nil {
			s.logger.Warn().Err(err).Str("item_id", item.ID).Msg("failed to write summary")
			continue
		}
		written++
	}

	s.logger.Info().Int("candidates", len(items)).Int("written", written).Msg("summarization pass complete")
	return written, nil
}
