// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

// Package cache implements the tiered analytics cache: an in-process
// LRU in front of Redis in front of the durable database table. The
// Coordinator reads through the tiers in order, writes computed values
// back to all of them, and serves stale entries while recomputing in
// the background so readers never block on the slow path.
package cache

import (
	"context"
	"time"
)

// Entry is a cached value together with the time it was produced.
// StoredAt travels with the value through every tier so staleness is
// judged against the original computation, not the latest copy.
type Entry struct {
	Value    []byte    `json:"v"`
	StoredAt time.Time `json:"at"`
}

// Age returns how old the entry is at now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Tier is a single cache level. Implementations must be safe for
// concurrent use.
//
// Set stores the entry under key and associates it with tags; a later
// InvalidateTag removes every entry carrying that tag. A ttl of zero
// means the tier's own policy applies (the durable tier keeps entries
// indefinitely).
type Tier interface {
	// Name identifies the tier in responses and metrics, e.g.
	// "memory_cache".
	Name() string

	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry, ttl time.Duration, tags []string) error
	Delete(ctx context.Context, key string) error
	InvalidateTag(ctx context.Context, tag string) error
}

// BatchTier is implemented by tiers that can serve several keys in one
// round trip. Found keys map to their entries; missing keys are simply
// absent. SetMulti stores each entry under its key with the tags given
// for that key.
type BatchTier interface {
	GetMulti(ctx context.Context, keys []string) (map[string]Entry, error)
	SetMulti(ctx context.Context, entries map[string]Entry, ttl time.Duration, tags map[string][]string) error
}

// Tier names, surfaced as the data_source field of API responses.
const (
	TierMemory   = "memory_cache"
	TierRedis    = "redis_cache"
	TierDatabase = "database_cache"

	// SourceComputed marks responses produced by a fresh computation
	// rather than any cache tier.
	SourceComputed = "case_analysis"
)
