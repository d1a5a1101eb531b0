package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zenwatch/ingestor/internal/model"
)

// CreateRunningRun inserts a new IngestionRun in the running state.
func (db *DB) CreateRunningRun(ctx context.Context, taskID, sourceType string, startedAt time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO ingestion_runs (task_id, source_type, started_at, status, articles_scraped, articles_saved)
		VALUES (?, ?, ?, ?, 0, 0)`,
		taskID, sourceType, startedAt, model.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("create ingestion run: %w", err)
	}
	return nil
}

// CompleteRun seals a running IngestionRun with its final status and
// counts. A run, once sealed, is never mutated again.
func (db *DB) CompleteRun(ctx context.Context, taskID string, status model.RunStatus, articlesScraped, articlesSaved int, errMsg string, completedAt time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE ingestion_runs SET
			status = ?, articles_scraped = ?, articles_saved = ?, error_message = ?, completed_at = ?
		WHERE task_id = ?`,
		status, articlesScraped, articlesSaved, errMsg, completedAt, taskID)
	if err != nil {
		return fmt.Errorf("complete ingestion run: %w", err)
	}
	return nil
}

// RunByTaskID returns one IngestionRun by its task ID.
func (db *DB) RunByTaskID(ctx context.Context, taskID string) (*model.IngestionRun, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT task_id, source_type, started_at, completed_at, status, articles_scraped, articles_saved, error_message
		FROM ingestion_runs WHERE task_id = ?`, taskID)
	return scanRun(row)
}

// RecentRuns returns the most recent ingestion runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]*model.IngestionRun, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT task_id, source_type, started_at, completed_at, status, articles_scraped, articles_saved, error_message
		FROM ingestion_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var out []*model.IngestionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func scanRun(row scannable) (*model.IngestionRun, error) {
	var run model.IngestionRun
	var completedAt sql.NullTime
	var errMsg sql.NullString

	if err := row.Scan(&run.TaskID, &run.SourceType, &run.StartedAt, &completedAt,
		&run.Status, &run.ArticlesScraped, &run.ArticlesSaved, &errMsg); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.ErrorMessage = errMsg.String
	return &run, nil
}

// RunStats aggregates completed ingestion runs for GET /scraping/stats.
type RunStats struct {
	TotalRuns      int64   `json:"total_runs"`
	SuccessfulRuns int64   `json:"successful_runs"`
	FailedRuns     int64   `json:"failed_runs"`
	TotalScraped   int64   `json:"total_scraped"`
	TotalSaved     int64   `json:"total_saved"`
	SuccessRate    float64 `json:"success_rate"`
}

// Stats computes aggregate counts over every completed (non-running)
// ingestion run.
func (db *DB) Stats(ctx context.Context) (*RunStats, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = ?),
			count(*) FILTER (WHERE status = ?),
			coalesce(sum(articles_scraped), 0),
			coalesce(sum(articles_saved), 0)
		FROM ingestion_runs WHERE status != ?`,
		model.RunStatusSuccess, model.RunStatusFailed, model.RunStatusRunning)

	var s RunStats
	if err := row.Scan(&s.TotalRuns, &s.SuccessfulRuns, &s.FailedRuns, &s.TotalScraped, &s.TotalSaved); err != nil {
		return nil, fmt.Errorf("query run stats: %w", err)
	}
	if s.TotalRuns > 0 {
		s.SuccessRate = float64(s.SuccessfulRuns) / float64(s.TotalRuns)
	}
	return &s, nil
}
