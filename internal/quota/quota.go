// Package quota tracks per-day usage for metered vendor APIs such as
// the YouTube Data API.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Manager is a Redis-backed daily usage counter. check-then-increment
// is deliberately NOT atomic across the two calls — see spec §5: a
// small amount of over-use by concurrent callers is acceptable given
// the warning/hard thresholds.
type Manager struct {
	rdb             *redis.Client
	logger          zerolog.Logger
	dailyLimit      int
	warningRatio    float64
}

// NewManager builds a quota Manager. dailyLimit is the hard cap;
// warningRatio (e.g. 0.95) sets the warning threshold.
func NewManager(rdb *redis.Client, dailyLimit int, warningRatio float64, logger zerolog.Logger) *Manager {
	return &Manager{
		rdb:          rdb,
		logger:       logger.With().Str("component", "quota").Logger(),
		dailyLimit:   dailyLimit,
		warningRatio: warningRatio,
	}
}

func quotaKey(now time.Time) string {
	return fmt.Sprintf("youtube_api_quota:%s", now.UTC().Format("2006-01-02"))
}

// CheckQuota reports whether another metered call may proceed. An
// absent counter (first call of the day) is treated as "usage is zero"
// and returns true; a Redis error is returned together with false.
func (m *Manager) CheckQuota(ctx context.Context) (bool, error) {
	usage, err := m.usage(ctx)
	if err != nil {
		return false, err
	}
	if usage >= m.warningRatio*float64(m.dailyLimit) {
		m.logger.Warn().Int64("usage", usage).Int("limit", m.dailyLimit).Msg("approaching daily quota")
	}
	return usage < int64(m.dailyLimit), nil
}

// RecordUsage atomically increments today's counter by units and
// (re)sets a 48h TTL. Callers MUST NOT call this for a call that was
// skipped or failed before dispatch.
func (m *Manager) RecordUsage(ctx context.Context, units int) error {
	key := quotaKey(time.Now())
	pipe := m.rdb.TxPipeline()
	pipe.IncrBy(ctx, key, int64(units))
	pipe.Expire(ctx, key, 48*time.Hour)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("record quota usage: %w", err)
	}
	return nil
}

// Usage returns today's recorded usage.
func (m *Manager) Usage(ctx context.Context) (int64, error) {
	return m.usage(ctx)
}

func (m *Manager) usage(ctx context.Context) (int64, error) {
	key := quotaKey(time.Now())
	val, err := m.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read quota usage: %w", err)
	}
	return val, nil
}
