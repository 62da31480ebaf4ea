// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package cache

import (
	"context"
	"time"
)

// Durable is the persistence surface the database layer provides for
// the bottom cache tier. Rows live in judge_analytics_cache and are
// never expired by time: a years-old analytics row beats recomputing
// from raw cases, and invalidation happens explicitly when new
// decisions arrive.
type Durable interface {
	GetCacheRow(ctx context.Context, key string) (value []byte, storedAt time.Time, ok bool, err error)
	GetCacheRows(ctx context.Context, keys []string) ([]CacheRow, error)
	PutCacheRow(ctx context.Context, key string, value []byte, storedAt time.Time, tags []string) error
	PutCacheRows(ctx context.Context, rows []CacheRow) error
	DeleteCacheRow(ctx context.Context, key string) error
	DeleteCacheTag(ctx context.Context, tag string) error
}

// CacheRow is one durable cache record as the database layer sees it.
type CacheRow struct {
	Key      string
	Value    []byte
	StoredAt time.Time
	Tags     []string
}

// StoreTier adapts a Durable store to the Tier interface. It ignores
// TTLs entirely.
type StoreTier struct {
	store Durable
}

// NewStoreTier wraps store as the durable bottom tier.
func NewStoreTier(store Durable) *StoreTier {
	return &StoreTier{store: store}
}

// Name implements Tier.
func (t *StoreTier) Name() string { return TierDatabase }

// Get retrieves an entry by key.
func (t *StoreTier) Get(ctx context.Context, key string) (Entry, bool, error) {
	value, storedAt, ok, err := t.store.GetCacheRow(ctx, key)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	return Entry{Value: value, StoredAt: storedAt}, true, nil
}

// Set upserts the backing row. The ttl argument is ignored.
func (t *StoreTier) Set(ctx context.Context, key string, e Entry, _ time.Duration, tags []string) error {
	return t.store.PutCacheRow(ctx, key, e.Value, e.StoredAt, tags)
}

// GetMulti fetches several rows in one query.
func (t *StoreTier) GetMulti(ctx context.Context, keys []string) (map[string]Entry, error) {
	rows, err := t.store.GetCacheRows(ctx, keys)
	if err != nil {
		return nil, err
	}
	found := make(map[string]Entry, len(rows))
	for _, row := range rows {
		found[row.Key] = Entry{Value: row.Value, StoredAt: row.StoredAt}
	}
	return found, nil
}

// SetMulti upserts several rows in one batch. The ttl argument is
// ignored.
func (t *StoreTier) SetMulti(ctx context.Context, entries map[string]Entry, _ time.Duration, tags map[string][]string) error {
	rows := make([]CacheRow, 0, len(entries))
	for key, e := range entries {
		rows = append(rows, CacheRow{Key: key, Value: e.Value, StoredAt: e.StoredAt, Tags: tags[key]})
	}
	return t.store.PutCacheRows(ctx, rows)
}

// Delete removes the backing row.
func (t *StoreTier) Delete(ctx context.Context, key string) error {
	return t.store.DeleteCacheRow(ctx, key)
}

// InvalidateTag removes every row tagged with tag.
func (t *StoreTier) InvalidateTag(ctx context.Context, tag string) error {
	return t.store.DeleteCacheTag(ctx, tag)
}
