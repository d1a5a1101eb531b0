package store

import (
	"context"
	"fmt"

	"github.com/zenwatch/ingestor/internal/scraper"
)

// ActiveChannels returns every subscribed YouTube channel with
// is_active = true, shaped for injection into the youtube_rss plugin.
func (db *DB) ActiveChannels(ctx context.Context) ([]scraper.Channel, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT channel_id, channel_name FROM subscribed_channels WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("query active channels: %w", err)
	}
	defer rows.Close()

	var out []scraper.Channel
	for rows.Next() {
		var ch scraper.Channel
		if err := rows.Scan(&ch.ChannelID, &ch.ChannelName); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// UpsertChannel creates or updates one subscribed channel entry.
func (db *DB) UpsertChannel(ctx context.Context, channelID, channelName string, isActive bool) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO subscribed_channels (channel_id, channel_name, is_active)
		VALUES (?, ?, ?)
		ON CONFLICT (channel_id) DO UPDATE SET
			channel_name = EXCLUDED.channel_name,
			is_active = EXCLUDED.is_active`,
		channelID, channelName, isActive)
	if err != nil {
		return fmt.Errorf("upsert channel: %w", err)
	}
	return nil
}
