package store

import "fmt"

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("execute schema query: %w", err)
		}
	}
	return nil
}

func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("execute index query: %w", err)
		}
	}
	return nil
}

var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL UNIQUE,
		base_url TEXT,
		is_active BOOLEAN NOT NULL DEFAULT true,
		scrape_frequency_hours INTEGER NOT NULL DEFAULT 6,
		last_scraped_at TIMESTAMP,
		config TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		external_id TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		content TEXT,
		summary TEXT,
		author TEXT,
		published_at TIMESTAMP NOT NULL,
		scraped_at TIMESTAMP NOT NULL,
		score DOUBLE,
		category TEXT,
		tags TEXT,
		language TEXT,
		upvotes INTEGER NOT NULL DEFAULT 0,
		comments_count INTEGER NOT NULL DEFAULT 0,
		is_video BOOLEAN NOT NULL DEFAULT false,
		video_id TEXT,
		thumbnail_url TEXT,
		duration_secs INTEGER,
		view_count BIGINT,
		is_read BOOLEAN NOT NULL DEFAULT false,
		is_favorite BOOLEAN NOT NULL DEFAULT false,
		is_archived BOOLEAN NOT NULL DEFAULT false,
		is_bookmarked BOOLEAN NOT NULL DEFAULT false,
		is_dismissed BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE TABLE IF NOT EXISTS keywords (
		id TEXT PRIMARY KEY,
		keyword TEXT NOT NULL UNIQUE,
		category TEXT,
		weight DOUBLE NOT NULL DEFAULT 1.0,
		is_active BOOLEAN NOT NULL DEFAULT true
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS user_keywords (
		user_id BIGINT NOT NULL,
		keyword TEXT NOT NULL,
		category TEXT,
		weight DOUBLE NOT NULL DEFAULT 1.0,
		is_active BOOLEAN NOT NULL DEFAULT true,
		PRIMARY KEY (user_id, keyword)
	)`,
	`CREATE TABLE IF NOT EXISTS user_item_scores (
		user_id BIGINT NOT NULL,
		item_id TEXT NOT NULL,
		score DOUBLE NOT NULL,
		keyword_matches INTEGER NOT NULL DEFAULT 0,
		scored_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS trends (
		keyword TEXT NOT NULL,
		category TEXT,
		date DATE NOT NULL,
		trend_score DOUBLE NOT NULL,
		article_count INTEGER NOT NULL,
		PRIMARY KEY (keyword, date)
	)`,
	`CREATE TABLE IF NOT EXISTS subscribed_channels (
		channel_id TEXT PRIMARY KEY,
		channel_name TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT true
	)`,
	`CREATE TABLE IF NOT EXISTS ingestion_runs (
		task_id TEXT PRIMARY KEY,
		source_type TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		status TEXT NOT NULL,
		articles_scraped INTEGER NOT NULL DEFAULT 0,
		articles_saved INTEGER NOT NULL DEFAULT 0,
		error_message TEXT
	)`,
}

var indexCreationQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_items_source_id ON items (source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_items_published_at ON items (published_at)`,
	`CREATE INDEX IF NOT EXISTS idx_items_score ON items (score)`,
	`CREATE INDEX IF NOT EXISTS idx_items_title ON items (title)`,
	`CREATE INDEX IF NOT EXISTS idx_user_item_scores_user_id ON user_item_scores (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_keywords_active ON user_keywords (user_id, is_active)`,
	`CREATE INDEX IF NOT EXISTS idx_ingestion_runs_started_at ON ingestion_runs (started_at)`,
}
