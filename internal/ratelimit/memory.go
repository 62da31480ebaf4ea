// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/judgefinder/judgefinder/internal/metrics"
)

// MemoryQuota enforces the hourly cap for a single process. It is the
// fallback when no Redis URL is configured; with multiple instances
// each process gets the full budget, so deployments that scale out
// must run Redis.
type MemoryQuota struct {
	mu     sync.Mutex
	limit  int64
	used   int64
	window time.Time

	now func() time.Time
}

// NewMemoryQuota returns a single-process quota with the given
// per-hour limit.
func NewMemoryQuota(limit int64) *MemoryQuota {
	return &MemoryQuota{limit: limit, now: time.Now}
}

// roll resets the counter when the hour window has moved on.
// Caller holds mu.
func (q *MemoryQuota) roll(now time.Time) {
	if ws := windowStart(now); !ws.Equal(q.window) {
		q.window = ws
		q.used = 0
	}
}

// TryAcquire consumes cost units from the current hour window.
func (q *MemoryQuota) TryAcquire(_ context.Context, cost int64) (bool, time.Duration, error) {
	if cost <= 0 {
		return true, 0, nil
	}
	now := q.now()

	q.mu.Lock()
	defer q.mu.Unlock()
	q.roll(now)

	if q.used+cost > q.limit {
		metrics.QuotaRejected.Inc()
		return false, untilRollover(now), nil
	}
	q.used += cost
	metrics.QuotaAcquired.Add(float64(cost))
	return true, 0, nil
}

// Remaining reports the unconsumed budget in the current window.
func (q *MemoryQuota) Remaining(_ context.Context) (int64, error) {
	now := q.now()

	q.mu.Lock()
	defer q.mu.Unlock()
	q.roll(now)

	return q.limit - q.used, nil
}
