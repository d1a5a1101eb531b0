package store

import (
	"context"
	"fmt"

	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/scoring"
	"github.com/zenwatch/ingestor/internal/trend"
	"github.com/zenwatch/ingestor/internal/userscoring"
)

// ActiveGlobalKeywords returns every active row from the global
// keywords table, used by the relevance scorer.
func (db *DB) ActiveGlobalKeywords(ctx context.Context) ([]scoring.Keyword, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT keyword, weight, category FROM keywords WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("query active keywords: %w", err)
	}
	defer rows.Close()

	var out []scoring.Keyword
	for rows.Next() {
		var kw scoring.Keyword
		if err := rows.Scan(&kw.Keyword, &kw.Weight, &kw.Category); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

// ActiveKeywords satisfies trend.Store: the same global keyword table,
// shaped for the trend detector.
func (db *DB) ActiveKeywords(ctx context.Context) ([]trend.Keyword, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT keyword, category, weight FROM keywords WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("query active keywords: %w", err)
	}
	defer rows.Close()

	var out []trend.Keyword
	for rows.Next() {
		var kw trend.Keyword
		if err := rows.Scan(&kw.Keyword, &kw.Category, &kw.Weight); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

// UpsertGlobalKeyword creates or updates a row in the global keyword
// set that drives the relevance scorer and trend detector.
func (db *DB) UpsertGlobalKeyword(ctx context.Context, kw model.Keyword) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO keywords (id, keyword, category, weight, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (keyword) DO UPDATE SET
			category = EXCLUDED.category,
			weight = EXCLUDED.weight,
			is_active = EXCLUDED.is_active`,
		kw.ID, kw.Keyword, kw.Category, kw.Weight, kw.IsActive)
	if err != nil {
		return fmt.Errorf("upsert global keyword: %w", err)
	}
	return nil
}

// ActiveUserKeywords satisfies userscoring.Store.
func (db *DB) ActiveUserKeywords(ctx context.Context, userID string) ([]userscoring.Keyword, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT keyword, weight FROM user_keywords WHERE user_id = ? AND is_active = true`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user keywords: %w", err)
	}
	defer rows.Close()

	var out []userscoring.Keyword
	for rows.Next() {
		var kw userscoring.Keyword
		if err := rows.Scan(&kw.Keyword, &kw.Weight); err != nil {
			return nil, fmt.Errorf("scan user keyword: %w", err)
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

// UsersWithActiveKeywords satisfies userscoring.Store: every distinct
// user_id with at least one active keyword, as a string since the
// userscoring service is storage-agnostic about key representation.
func (db *DB) UsersWithActiveKeywords(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM user_keywords WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("query users with active keywords: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, fmt.Sprintf("%d", userID))
	}
	return out, rows.Err()
}

// UpsertUserKeyword creates or updates one of a user's scoring terms.
func (db *DB) UpsertUserKeyword(ctx context.Context, kw model.UserKeyword) error {
	var userID int64
	if _, err := fmt.Sscanf(kw.UserID, "%d", &userID); err != nil {
		return fmt.Errorf("parse user id %q: %w", kw.UserID, err)
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO user_keywords (user_id, keyword, category, weight, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, keyword) DO UPDATE SET
			category = EXCLUDED.category,
			weight = EXCLUDED.weight,
			is_active = EXCLUDED.is_active`,
		userID, kw.Keyword, kw.Category, kw.Weight, kw.IsActive)
	if err != nil {
		return fmt.Errorf("upsert user keyword: %w", err)
	}
	return nil
}
