package userscoring

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenwatch/ingestor/internal/model"
)

// Store is the persistence seam the batch scoring operations depend
// on; internal/store implements it.
type Store interface {
	ActiveUserKeywords(ctx context.Context, userID string) ([]Keyword, error)
	ItemsByIDs(ctx context.Context, ids []string) ([]*model.Item, error)
	UnscoredItemsForUser(ctx context.Context, userID string, limit int) ([]*model.Item, error)
	UpsertUserItemScore(ctx context.Context, score model.UserItemScore) error
	DeleteUserItemScores(ctx context.Context, userID string) error
	UsersWithActiveKeywords(ctx context.Context) ([]string, error)
}

// Service implements the per-user batch scoring operations from
// component C10.
type Service struct {
	store  Store
	logger zerolog.Logger
}

// NewService builds a userscoring Service.
func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{store: store, logger: logger.With().Str("component", "userscoring").Logger()}
}

// ScoreForUser loads the user's active keywords once, then scores
// either the given itemIDs or, when itemIDs is nil, the items not yet
// scored for this user, newest first, bounded by limit. Returns the
// number of items scored.
func (s *Service) ScoreForUser(ctx context.Context, userID string, itemIDs []string, limit int) (int, error) {
	keywords, err := s.store.ActiveUserKeywords(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load user keywords: %w", err)
	}
	if len(keywords) == 0 {
		s.logger.Info().Str("user_id", userID).Msg("user has no keywords, skipping scoring")
		return 0, nil
	}

	var items []*model.Item
	if itemIDs != nil {
		items, err = s.store.ItemsByIDs(ctx, itemIDs)
	} else {
		items, err = s.store.UnscoredItemsForUser(ctx, userID, limit)
	}
	if err != nil {
		return 0, fmt.Errorf("load items: %w", err)
	}

	scored := 0
	for _, item := range items {
		score, matches := ScoreItem(item, keywords)
		err := s.store.UpsertUserItemScore(ctx, model.UserItemScore{
			UserID:         userID,
			ItemID:         item.ID,
			Score:          score,
			KeywordMatches: matches,
			ScoredAt:       time.Now().UTC(),
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("item_id", item.ID).Msg("failed to upsert user item score")
			continue
		}
		scored++
	}

	s.logger.Info().Str("user_id", userID).Int("scored", scored).Msg("scored items for user")
	return scored, nil
}

// RescoreUser wipes the user's existing scores and recomputes over the
// most recent 1000 unscored-filter-bypassed items (since all scores
// were just deleted, every recent item is eligible again).
func (s *Service) RescoreUser(ctx context.Context, userID string) (int, error) {
	if err := s.store.DeleteUserItemScores(ctx, userID); err != nil {
		return 0, fmt.Errorf("delete existing scores: %w", err)
	}
	return s.ScoreForUser(ctx, userID, nil, 1000)
}

// RescoreAllUsersWithKeywords re-scores unscored items for every user
// with at least one active keyword — the orchestrator calls this
// alongside the global scorer after a successful ingestion run.
func (s *Service) RescoreAllUsersWithKeywords(ctx context.Context) (usersScored, itemsScored int, err error) {
	userIDs, err := s.store.UsersWithActiveKeywords(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list users with keywords: %w", err)
	}
	if len(userIDs) == 0 {
		s.logger.Info().Msg("no users with keywords found")
		return 0, 0, nil
	}

	for _, userID := range userIDs {
		n, err := s.ScoreForUser(ctx, userID, nil, 500)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to score items for user")
			continue
		}
		itemsScored += n
	}

	s.logger.Info().Int("users", len(userIDs)).Int("items_scored", itemsScored).Msg("rescored all users with keywords")
	return len(userIDs), itemsScored, nil
}
