package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zenwatch/ingestor/internal/model"
)

// ErrSourceNotFound is returned when a lookup by type finds no row.
var ErrSourceNotFound = errors.New("source not found")

// SourceByType returns the Source row for a plugin type, or
// ErrSourceNotFound if none has been registered yet.
func (db *DB) SourceByType(ctx context.Context, sourceType string) (*model.Source, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, name, type, base_url, is_active, scrape_frequency_hours, last_scraped_at, config
		FROM sources WHERE type = ?`, sourceType)
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}
	return src, nil
}

// EnsureSource returns the Source for sourceType, creating a default,
// active row for it on first sight.
func (db *DB) EnsureSource(ctx context.Context, sourceType, displayName string) (*model.Source, error) {
	src, err := db.SourceByType(ctx, sourceType)
	if err == nil {
		return src, nil
	}
	if !errors.Is(err, ErrSourceNotFound) {
		return nil, err
	}

	src = &model.Source{
		ID:                   uuid.NewString(),
		Name:                 displayName,
		Type:                 sourceType,
		IsActive:             true,
		ScrapeFrequencyHours: 6,
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO sources (id, name, type, base_url, is_active, scrape_frequency_hours, last_scraped_at, config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (type) DO NOTHING`,
		src.ID, src.Name, src.Type, src.BaseURL, src.IsActive, src.ScrapeFrequencyHours, nil, "{}")
	if err != nil {
		return nil, fmt.Errorf("insert source: %w", err)
	}
	return db.SourceByType(ctx, sourceType)
}

// SetSourceConfig overwrites a source's plugin config map, used at
// startup to layer process-wide credentials (API keys, OAuth secrets)
// onto each plugin's default row without clobbering is_active or
// scrape_frequency_hours.
func (db *DB) SetSourceConfig(ctx context.Context, sourceType string, config map[string]string) error {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshal source config: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, `UPDATE sources SET config = ? WHERE type = ?`, string(configJSON), sourceType)
	if err != nil {
		return fmt.Errorf("set source config: %w", err)
	}
	return nil
}

// TouchLastScraped records the moment a source finished its most
// recent scrape attempt.
func (db *DB) TouchLastScraped(ctx context.Context, sourceID string, when time.Time) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE sources SET last_scraped_at = ? WHERE id = ?`, when, sourceID)
	if err != nil {
		return fmt.Errorf("touch last_scraped_at: %w", err)
	}
	return nil
}

// ActiveSources returns every Source with is_active = true.
func (db *DB) ActiveSources(ctx context.Context) ([]*model.Source, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, type, base_url, is_active, scrape_frequency_hours, last_scraped_at, config
		FROM sources WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("query active sources: %w", err)
	}
	defer rows.Close()

	var out []*model.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSource(row scannable) (*model.Source, error) {
	var src model.Source
	var baseURL, configJSON sql.NullString
	var lastScraped sql.NullTime

	if err := row.Scan(&src.ID, &src.Name, &src.Type, &baseURL, &src.IsActive,
		&src.ScrapeFrequencyHours, &lastScraped, &configJSON); err != nil {
		return nil, err
	}

	src.BaseURL = baseURL.String
	if lastScraped.Valid {
		t := lastScraped.Time
		src.LastScrapedAt = &t
	}
	if configJSON.Valid && configJSON.String != "" {
		cfg := map[string]string{}
		if err := json.Unmarshal([]byte(configJSON.String), &cfg); err == nil {
			src.Config = cfg
		}
	}
	return &src, nil
}
