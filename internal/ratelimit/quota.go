// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

// Package ratelimit enforces the shared hourly request quota for the
// external court-records API.
//
// The quota is a single source of truth shared by every sync worker and
// every process: the Redis implementation keys an atomic counter by the
// current hour window, so concurrent callers across instances cannot
// jointly exceed the cap. The in-memory implementation serves tests and
// single-node deployments without Redis.
package ratelimit

import (
	"context"
	"time"
)

// Quota grants budget for upstream requests.
//
// TryAcquire consumes cost units from the current window. When the
// budget is exhausted it returns granted=false together with the
// duration until the window rolls over; it never blocks. Callers that
// prefer waiting over failing sleep on retryAfter themselves (see
// courtlistener.WaitMode).
type Quota interface {
	TryAcquire(ctx context.Context, cost int64) (granted bool, retryAfter time.Duration, err error)

	// Remaining reports the unconsumed budget in the current window.
	// Best-effort; used for observability only.
	Remaining(ctx context.Context) (int64, error)
}

// windowStart truncates t to the beginning of its hour window.
func windowStart(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}

// untilRollover returns time left until the current hour window ends.
func untilRollover(t time.Time) time.Duration {
	return windowStart(t).Add(time.Hour).Sub(t)
}
