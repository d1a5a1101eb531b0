package httpclient

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/zenwatch/ingestor/internal/model"
)

// ScrapeCache is the advisory, Redis-backed result cache fronting a
// plugin's Scrape call. A nil *redis.Client disables it transparently.
type ScrapeCache struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

// NewScrapeCache wraps a Redis client; rdb may be nil, in which case
// every lookup/store is a silent no-op.
func NewScrapeCache(rdb *redis.Client, logger zerolog.Logger) *ScrapeCache {
	return &ScrapeCache{rdb: rdb, logger: logger.With().Str("component", "scrapecache").Logger()}
}

// Key builds the cache key scraper:{plugin_name}:{md5(sorted(keywords)+sorted(config))[0:8]}.
func Key(pluginName string, keywords []string, config map[string]string) string {
	sortedKw := append([]string(nil), keywords...)
	sort.Strings(sortedKw)

	configKeys := make([]string, 0, len(config))
	for k := range config {
		configKeys = append(configKeys, k)
	}
	sort.Strings(configKeys)

	h := md5.New()
	for _, k := range sortedKw {
		h.Write([]byte(k))
		h.Write([]byte{0})
	}
	for _, k := range configKeys {
		h.Write([]byte(k))
		h.Write([]byte("="))
		h.Write([]byte(config[k]))
		h.Write([]byte{0})
	}
	digest := hex.EncodeToString(h.Sum(nil))[:8]
	return fmt.Sprintf("scraper:%s:%s", pluginName, digest)
}

// Get returns cached items and true on a hit. Any Redis error is
// logged and treated as a miss — the cache is advisory.
func (c *ScrapeCache) Get(ctx context.Context, key string) ([]model.NormalizedItem, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, bypassing")
		}
		return nil, false
	}
	var items []model.NormalizedItem
	if err := json.Unmarshal(raw, &items); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache decode failed, bypassing")
		return nil, false
	}
	return items, true
}

// Set stores items under key with ttl. Failures are logged and ignored.
func (c *ScrapeCache) Set(ctx context.Context, key string, items []model.NormalizedItem, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache encode failed, skipping write")
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
