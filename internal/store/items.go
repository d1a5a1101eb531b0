package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenwatch/ingestor/internal/model"
)

// PersistNormalized resolves the Source for sourceType, then upserts
// each item by URL: an existing row has its scraped fields updated in
// place (user lifecycle flags like is_read are left untouched); a new
// URL is inserted. All writes happen in a single transaction; the
// number of items successfully persisted is returned even if one item
// fails (that item's error is logged by the caller, not fatal to the
// batch).
func (db *DB) PersistNormalized(ctx context.Context, items []model.NormalizedItem, sourceType string) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	source, err := db.EnsureSource(ctx, sourceType, sourceType)
	if err != nil {
		return 0, fmt.Errorf("ensure source %s: %w", sourceType, err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved := 0
	for _, n := range items {
		mu := db.lockURL(n.URL)
		err := db.upsertItemTx(ctx, tx, source.ID, n)
		mu.Unlock()
		if err != nil {
			db.logger.Warn().Err(err).Str("url", n.URL).Msg("failed to persist item")
			continue
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit items: %w", err)
	}
	return saved, nil
}

const lookupItemIDByURLQuery = `SELECT id FROM items WHERE url = ?`

// upsertItemTx updates the row matching n.URL if one exists, otherwise
// inserts a new one. The UPDATE's SET clause is built dynamically from
// only the fields n actually carries a non-zero value for — mirroring
// the original's `if value is not None: setattr(existing, key, value)`
// field-by-field merge — so a thinner re-scrape of an already-known URL
// (e.g. a feed entry missing tags this time) never blanks out data a
// previous pass saved. User lifecycle flags are never part of this
// clause; they are untouched by definition.
func (db *DB) upsertItemTx(ctx context.Context, tx *sql.Tx, sourceID string, n model.NormalizedItem) error {
	tagsJSON, err := json.Marshal(n.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	isVideo := model.IsVideoSourceType(n.SourceType)

	lookup, err := db.prepared(ctx, lookupItemIDByURLQuery)
	if err != nil {
		return fmt.Errorf("prepare item lookup: %w", err)
	}
	var existingID string
	err = tx.StmtContext(ctx, lookup).QueryRowContext(ctx, n.URL).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		return db.insertItemTx(ctx, tx, sourceID, n, tagsJSON, isVideo)
	case err != nil:
		return fmt.Errorf("lookup item by url: %w", err)
	}

	sets := []string{"source_id = ?", "scraped_at = ?", "is_video = ?"}
	args := []any{sourceID, time.Now().UTC(), isVideo}

	if n.ExternalID != "" {
		sets = append(sets, "external_id = ?")
		args = append(args, n.ExternalID)
	}
	if n.Title != "" {
		sets = append(sets, "title = ?")
		args = append(args, n.Title)
	}
	if n.Content != "" {
		sets = append(sets, "content = ?")
		args = append(args, n.Content)
	}
	if n.Summary != "" {
		sets = append(sets, "summary = ?")
		args = append(args, n.Summary)
	}
	if n.Author != "" {
		sets = append(sets, "author = ?")
		args = append(args, n.Author)
	}
	if !n.PublishedAt.IsZero() {
		sets = append(sets, "published_at = ?")
		args = append(args, n.PublishedAt)
	}
	if len(n.Tags) > 0 {
		sets = append(sets, "tags = ?")
		args = append(args, string(tagsJSON))
	}
	if n.Upvotes != 0 {
		sets = append(sets, "upvotes = ?")
		args = append(args, n.Upvotes)
	}
	if n.CommentsCount != 0 {
		sets = append(sets, "comments_count = ?")
		args = append(args, n.CommentsCount)
	}
	if n.VideoID != "" {
		sets = append(sets, "video_id = ?")
		args = append(args, n.VideoID)
	}
	if n.ThumbnailURL != "" {
		sets = append(sets, "thumbnail_url = ?")
		args = append(args, n.ThumbnailURL)
	}
	if n.DurationSecs != nil {
		sets = append(sets, "duration_secs = ?")
		args = append(args, int64(*n.DurationSecs))
	}
	if n.ViewCount != nil {
		sets = append(sets, "view_count = ?")
		args = append(args, *n.ViewCount)
	}

	args = append(args, n.URL)
	query := fmt.Sprintf(`UPDATE items SET %s WHERE url = ?`, strings.Join(sets, ", "))
	stmt, err := db.prepared(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare item update: %w", err)
	}
	if _, err := tx.StmtContext(ctx, stmt).ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (db *DB) insertItemTx(ctx context.Context, tx *sql.Tx, sourceID string, n model.NormalizedItem, tagsJSON []byte, isVideo bool) error {
	var durationSecs sql.NullInt64
	if n.DurationSecs != nil {
		durationSecs = sql.NullInt64{Int64: int64(*n.DurationSecs), Valid: true}
	}
	var viewCount sql.NullInt64
	if n.ViewCount != nil {
		viewCount = sql.NullInt64{Int64: *n.ViewCount, Valid: true}
	}

	const insertQuery = `
		INSERT INTO items (
			id, source_id, external_id, title, url, content, summary, author,
			published_at, scraped_at, tags, upvotes, comments_count, is_video,
			video_id, thumbnail_url, duration_secs, view_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := db.prepared(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("prepare item insert: %w", err)
	}
	_, err = tx.StmtContext(ctx, stmt).ExecContext(ctx,
		uuid.NewString(), sourceID, n.ExternalID, n.Title, n.URL, n.Content, n.Summary, n.Author,
		n.PublishedAt, time.Now().UTC(), string(tagsJSON), n.Upvotes, n.CommentsCount, isVideo,
		n.VideoID, n.ThumbnailURL, durationSecs, viewCount)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// ItemsByIDs returns items matching the given IDs, in no particular
// guaranteed order.
func (db *DB) ItemsByIDs(ctx context.Context, ids []string) ([]*model.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT %s FROM items WHERE id IN (%s)`, itemColumns, strings.Join(placeholders, ","))
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items by ids: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// UnscoredItemsForUser returns the most recent items that have no
// user_item_scores row for userID, newest first, bounded by limit.
func (db *DB) UnscoredItemsForUser(ctx context.Context, userID string, limit int) ([]*model.Item, error) {
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM items i
		WHERE NOT EXISTS (
			SELECT 1 FROM user_item_scores s WHERE s.item_id = i.id AND s.user_id = ?
		)
		ORDER BY i.published_at DESC
		LIMIT ?`, itemColumns), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query unscored items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// ItemsMissingSummary returns the most recent items with an empty
// summary, bounded by limit — the daily summarization trigger's input.
func (db *DB) ItemsMissingSummary(ctx context.Context, limit int) ([]*model.Item, error) {
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM items
		WHERE summary IS NULL OR summary = ''
		ORDER BY published_at DESC
		LIMIT ?`, itemColumns), limit)
	if err != nil {
		return nil, fmt.Errorf("query items missing summary: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// SetItemSummary writes a generated summary for an item, only ever
// called when the current summary is empty.
func (db *DB) SetItemSummary(ctx context.Context, itemID, summary string) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE items SET summary = ? WHERE id = ? AND (summary IS NULL OR summary = '')`,
		summary, itemID)
	if err != nil {
		return fmt.Errorf("set item summary: %w", err)
	}
	return nil
}

// UnscoredItems returns the most recent items with no global score yet,
// newest first, bounded by limit. Used by the hourly global scoring
// job; per-user scoring is driven separately by UnscoredItemsForUser.
func (db *DB) UnscoredItems(ctx context.Context, limit int) ([]*model.Item, error) {
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM items
		WHERE score IS NULL
		ORDER BY published_at DESC
		LIMIT ?`, itemColumns), limit)
	if err != nil {
		return nil, fmt.Errorf("query unscored items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// SetItemScore writes an item's global relevance score and assigned
// category back after scoring.
func (db *DB) SetItemScore(ctx context.Context, itemID string, score float64, category string) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE items SET score = ?, category = ? WHERE id = ?`,
		score, category, itemID)
	if err != nil {
		return fmt.Errorf("set item score: %w", err)
	}
	return nil
}

// ItemsWithKeywordInTitleSince returns items published on or after
// since whose title contains keyword, case-insensitively.
func (db *DB) ItemsWithKeywordInTitleSince(ctx context.Context, keyword string, since time.Time) ([]*model.Item, error) {
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM items
		WHERE published_at >= ? AND lower(title) LIKE ?`, itemColumns),
		since, "%"+strings.ToLower(keyword)+"%")
	if err != nil {
		return nil, fmt.Errorf("query items by keyword: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

const itemColumns = `id, source_id, external_id, title, url, content, summary, author,
	published_at, scraped_at, score, category, tags, language, upvotes, comments_count,
	is_video, video_id, thumbnail_url, duration_secs, view_count,
	is_read, is_favorite, is_archived, is_bookmarked, is_dismissed`

func scanItems(rows *sql.Rows) ([]*model.Item, error) {
	var out []*model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanItem(row scannable) (*model.Item, error) {
	var item model.Item
	var content, summary, author, category, language, videoID, thumbnailURL sql.NullString
	var tagsJSON sql.NullString
	var score sql.NullFloat64
	var durationSecs sql.NullInt64
	var viewCount sql.NullInt64

	if err := row.Scan(
		&item.ID, &item.SourceID, &item.ExternalID, &item.Title, &item.URL,
		&content, &summary, &author, &item.PublishedAt, &item.ScrapedAt,
		&score, &category, &tagsJSON, &language, &item.Upvotes, &item.CommentsCount,
		&item.IsVideo, &videoID, &thumbnailURL, &durationSecs, &viewCount,
		&item.IsRead, &item.IsFavorite, &item.IsArchived, &item.IsBookmarked, &item.IsDismissed,
	); err != nil {
		return nil, err
	}

	item.Content = content.String
	item.Summary = summary.String
	item.Author = author.String
	item.Category = category.String
	item.Language = language.String
	item.VideoID = videoID.String
	item.ThumbnailURL = thumbnailURL.String
	if score.Valid {
		v := score.Float64
		item.Score = &v
	}
	if durationSecs.Valid {
		item.DurationSecs = int(durationSecs.Int64)
	}
	if viewCount.Valid {
		item.ViewCount = viewCount.Int64
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		var tags []string
		if err := json.Unmarshal([]byte(tagsJSON.String), &tags); err == nil {
			item.Tags = tags
		}
	}
	return &item, nil
}
