package store

import (
	"context"
	"fmt"
	"time"

	"github.com/zenwatch/ingestor/internal/model"
)

// UpsertTrend satisfies trend.Store. It reports whether a new
// (keyword, date) row was inserted, since DuckDB's ON CONFLICT clause
// does not tell the caller which branch fired.
func (db *DB) UpsertTrend(ctx context.Context, t model.Trend) (inserted bool, err error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE trends SET trend_score = ?, article_count = ?, category = ?
		WHERE keyword = ? AND date = ?`,
		t.TrendScore, t.ArticleCount, t.Category, t.Keyword, t.Date)
	if err != nil {
		return false, fmt.Errorf("update trend: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return false, nil
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO trends (keyword, category, date, trend_score, article_count)
		VALUES (?, ?, ?, ?, ?)`,
		t.Keyword, t.Category, t.Date, t.TrendScore, t.ArticleCount)
	if err != nil {
		return false, fmt.Errorf("insert trend: %w", err)
	}
	return true, nil
}

// DeleteTrendsOlderThan satisfies trend.Store.
func (db *DB) DeleteTrendsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM trends WHERE date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old trends: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

// TrendsByDateRange returns trend rows between since and until
// inclusive, used by the stats endpoint.
func (db *DB) TrendsByDateRange(ctx context.Context, since, until time.Time) ([]*model.Trend, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT keyword, category, date, trend_score, article_count
		FROM trends WHERE date >= ? AND date <= ?
		ORDER BY trend_score DESC`, since, until)
	if err != nil {
		return nil, fmt.Errorf("query trends: %w", err)
	}
	defer rows.Close()

	var out []*model.Trend
	for rows.Next() {
		var t model.Trend
		if err := rows.Scan(&t.Keyword, &t.Category, &t.Date, &t.TrendScore, &t.ArticleCount); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
