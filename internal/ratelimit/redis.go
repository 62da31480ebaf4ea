// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/metrics"
)

func logRollbackErr(err error) {
	logging.Warn().Err(err).Msg("quota rollback failed, window will over-count")
}

// RedisQuota counts requests in Redis so the hourly cap holds across
// processes. Each hour window gets its own key; INCRBY is atomic, so
// two workers racing for the last unit cannot both win.
type RedisQuota struct {
	client *redis.Client
	limit  int64
	prefix string

	// now is swapped in tests to control window boundaries.
	now func() time.Time
}

// NewRedisQuota returns a quota backed by client with the given
// per-hour limit.
func NewRedisQuota(client *redis.Client, limit int64) *RedisQuota {
	return &RedisQuota{
		client: client,
		limit:  limit,
		prefix: "jf:quota:courtlistener:",
		now:    time.Now,
	}
}

func (q *RedisQuota) key(t time.Time) string {
	return q.prefix + windowStart(t).UTC().Format("2006010215")
}

// TryAcquire consumes cost units from the current hour window.
//
// The counter is incremented first and rolled back on rejection. The
// rollback is best-effort: if it fails the window over-counts by cost,
// which only makes the limiter stricter, never looser.
func (q *RedisQuota) TryAcquire(ctx context.Context, cost int64) (bool, time.Duration, error) {
	if cost <= 0 {
		return true, 0, nil
	}
	now := q.now()
	key := q.key(now)

	pipe := q.client.TxPipeline()
	incr := pipe.IncrBy(ctx, key, cost)
	// Expire a little past rollover so Remaining can still read the
	// closing window; stale keys self-clean.
	pipe.Expire(ctx, key, time.Hour+5*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("quota incr: %w", err)
	}

	if incr.Val() > q.limit {
		if err := q.client.DecrBy(ctx, key, cost).Err(); err != nil {
			logRollbackErr(err)
		}
		metrics.QuotaRejected.Inc()
		return false, untilRollover(now), nil
	}
	metrics.QuotaAcquired.Add(float64(cost))
	return true, 0, nil
}

// Remaining reports the unconsumed budget in the current window.
func (q *RedisQuota) Remaining(ctx context.Context) (int64, error) {
	used, err := q.client.Get(ctx, q.key(q.now())).Int64()
	if err == redis.Nil {
		return q.limit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quota read: %w", err)
	}
	if used >= q.limit {
		return 0, nil
	}
	return q.limit - used, nil
}
