package store

import (
	"context"
	"fmt"

	"github.com/zenwatch/ingestor/internal/model"
)

const upsertUserItemScoreQuery = `
	INSERT INTO user_item_scores (user_id, item_id, score, keyword_matches, scored_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (user_id, item_id) DO UPDATE SET
		score = EXCLUDED.score,
		keyword_matches = EXCLUDED.keyword_matches,
		scored_at = EXCLUDED.scored_at`

// UpsertUserItemScore satisfies userscoring.Store. Batch scoring calls
// this once per item, so the statement is cached via db.prepared rather
// than re-parsed by the driver on every call.
func (db *DB) UpsertUserItemScore(ctx context.Context, score model.UserItemScore) error {
	var userID int64
	if _, err := fmt.Sscanf(score.UserID, "%d", &userID); err != nil {
		return fmt.Errorf("parse user id %q: %w", score.UserID, err)
	}
	stmt, err := db.prepared(ctx, upsertUserItemScoreQuery)
	if err != nil {
		return fmt.Errorf("prepare upsert user item score: %w", err)
	}
	_, err = stmt.ExecContext(ctx, userID, score.ItemID, score.Score, score.KeywordMatches, score.ScoredAt)
	if err != nil {
		return fmt.Errorf("upsert user item score: %w", err)
	}
	return nil
}

// DeleteUserItemScores satisfies userscoring.Store: wipes every score
// row for a user, ahead of a full rescore.
func (db *DB) DeleteUserItemScores(ctx context.Context, userID string) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM user_item_scores WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user item scores: %w", err)
	}
	return nil
}

// PersonalizedFeed returns a user's items ordered by personalized
// score where available, falling back to the global score, newest
// first as the final tie-break — the COALESCE ordering named in the
// feed's wire contract.
func (db *DB) PersonalizedFeed(ctx context.Context, userID string, limit, offset int) ([]*model.Item, error) {
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM items i
		LEFT JOIN user_item_scores s ON s.item_id = i.id AND s.user_id = ?
		ORDER BY COALESCE(s.score, i.score, 0) DESC, i.published_at DESC
		LIMIT ? OFFSET ?`, prefixedItemColumns("i")), userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query personalized feed: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func prefixedItemColumns(alias string) string {
	cols := []string{"id", "source_id", "external_id", "title", "url", "content", "summary", "author",
		"published_at", "scraped_at", "score", "category", "tags", "language", "upvotes", "comments_count",
		"is_video", "video_id", "thumbnail_url", "duration_secs", "view_count",
		"is_read", "is_favorite", "is_archived", "is_bookmarked", "is_dismissed"}
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + c
	}
	return out
}
