package main

import (
	"context"
	"fmt"

	"github.com/zenwatch/ingestor/internal/config"
	"github.com/zenwatch/ingestor/internal/scraper"
	"github.com/zenwatch/ingestor/internal/store"
)

// bootstrapSources ensures a Source row exists for every registered
// plugin and layers process-wide credentials from cfg onto each one's
// config map. A source already configured by an operator keeps its
// existing row; only a freshly created row gets the env-derived
// config seeded in.
func bootstrapSources(ctx context.Context, db *store.DB, registry *scraper.Registry, cfg *config.Config) error {
	for _, name := range registry.List() {
		src, err := db.EnsureSource(ctx, name, name)
		if err != nil {
			return fmt.Errorf("ensure source %s: %w", name, err)
		}
		if len(src.Config) > 0 {
			continue
		}

		pluginCfg := defaultPluginConfig(name, cfg)
		if len(pluginCfg) == 0 {
			continue
		}
		if err := db.SetSourceConfig(ctx, name, pluginCfg); err != nil {
			return fmt.Errorf("set source config %s: %w", name, err)
		}
	}
	return nil
}

func defaultPluginConfig(sourceType string, cfg *config.Config) map[string]string {
	switch sourceType {
	case "reddit":
		if cfg.RedditClientID == "" || cfg.RedditClientSecret == "" {
			return nil
		}
		return map[string]string{
			"client_id":     cfg.RedditClientID,
			"client_secret": cfg.RedditClientSecret,
		}
	case "youtube_trending":
		if cfg.YouTubeAPIKey == "" {
			return nil
		}
		return map[string]string{"api_key": cfg.YouTubeAPIKey}
	case "devto":
		if cfg.DevToAPIKey == "" {
			return nil
		}
		return map[string]string{"api_key": cfg.DevToAPIKey}
	case "twitter":
		return map[string]string{"handles": "golang,AnthropicAI"}
	default:
		return nil
	}
}
