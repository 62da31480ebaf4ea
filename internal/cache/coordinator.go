// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/metrics"
)

// ComputeFunc produces the value for a key on a full cache miss.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Result is the outcome of a GetOrCompute call.
type Result struct {
	Value []byte

	// Source names where the value came from: a tier name, or
	// SourceComputed on a full miss.
	Source string

	// Cached is false only when the value was computed on this call.
	Cached bool

	// WasStale is true when a stale cached value was served and a
	// background refresh was started.
	WasStale bool

	// StoredAt is when the value was originally computed.
	StoredAt time.Time
}

// TierConfig binds a tier to the TTL the coordinator writes it with.
type TierConfig struct {
	Tier Tier
	TTL  time.Duration
}

// Coordinator reads through the configured tiers in order and writes
// computed values back to all of them.
//
// Read path guarantees:
//   - a hit in any tier is promoted to all tiers above it, so the next
//     read stops earlier
//   - entries older than staleAfter are still served, but trigger a
//     single background recomputation (stale-while-revalidate)
//   - concurrent misses on the same key share one computation
//   - tier read/write failures degrade to the next tier, they never
//     fail the request; only a failed computation surfaces an error
type Coordinator struct {
	tiers      []TierConfig
	staleAfter time.Duration

	// inflight deduplicates concurrent computations per key.
	mu       sync.Mutex
	inflight map[string]*call

	// refreshing guards one background refresh per key.
	refreshing sync.Map

	// now is swapped in tests.
	now func() time.Time

	// background work is tracked so Close can drain it.
	wg      sync.WaitGroup
	closed  chan struct{}
	closeMu sync.Once
}

// call is a single in-flight computation awaited by multiple callers.
type call struct {
	done  chan struct{}
	value []byte
	err   error
}

// NewCoordinator builds a coordinator over tiers, ordered fastest
// first. Entries older than staleAfter are served stale while a
// background refresh runs.
func NewCoordinator(staleAfter time.Duration, tiers ...TierConfig) *Coordinator {
	return &Coordinator{
		tiers:      tiers,
		staleAfter: staleAfter,
		inflight:   make(map[string]*call),
		now:        time.Now,
		closed:     make(chan struct{}),
	}
}

// GetOrCompute returns the cached value for key, falling through the
// tiers and finally calling compute. The computed value is written to
// every tier with the given tags.
func (c *Coordinator) GetOrCompute(ctx context.Context, key string, tags []string, compute ComputeFunc) (Result, error) {
	now := c.now()

	for i, tc := range c.tiers {
		entry, ok, err := tc.Tier.Get(ctx, key)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("tier", tc.Tier.Name()).
				Str("key", key).
				Msg("cache tier read failed, falling through")
			continue
		}
		if !ok {
			metrics.CacheMisses.WithLabelValues(tc.Tier.Name()).Inc()
			continue
		}

		metrics.CacheHits.WithLabelValues(tc.Tier.Name()).Inc()
		c.promote(ctx, key, entry, tags, i)

		res := Result{
			Value:    entry.Value,
			Source:   tc.Tier.Name(),
			Cached:   true,
			StoredAt: entry.StoredAt,
		}
		if c.staleAfter > 0 && entry.Age(now) > c.staleAfter {
			res.WasStale = true
			metrics.CacheStaleServed.Inc()
			c.refreshAsync(key, tags, compute)
		}
		return res, nil
	}

	value, err := c.computeShared(ctx, key, tags, compute)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Value:    value,
		Source:   SourceComputed,
		StoredAt: now,
	}, nil
}

// PeekKey names one key to peek at and the tags any promoted copy is
// stored under.
type PeekKey struct {
	Key  string
	Tags []string
}

// PeekMulti looks up several keys across the tiers without computing
// anything, batching per tier where the tier supports it, and promotes
// hits into the faster tiers above. Stale entries are returned as-is;
// there is no compute function to refresh them with. The result maps
// found keys to their values.
func (c *Coordinator) PeekMulti(ctx context.Context, keys []PeekKey) map[string][]byte {
	found := make(map[string][]byte, len(keys))
	tagsByKey := make(map[string][]string, len(keys))
	remaining := make([]string, 0, len(keys))
	for _, k := range keys {
		tagsByKey[k.Key] = k.Tags
		remaining = append(remaining, k.Key)
	}

	for i, tc := range c.tiers {
		if len(remaining) == 0 {
			break
		}

		hits, err := c.peekTier(ctx, tc.Tier, remaining)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("tier", tc.Tier.Name()).
				Msg("cache tier batch read failed, falling through")
			continue
		}
		if len(hits) == 0 {
			continue
		}

		for key, entry := range hits {
			found[key] = entry.Value
			metrics.CacheHits.WithLabelValues(tc.Tier.Name()).Inc()
		}
		c.promoteMulti(ctx, hits, tagsByKey, i)

		next := remaining[:0]
		for _, key := range remaining {
			if _, ok := hits[key]; !ok {
				next = append(next, key)
			}
		}
		remaining = next
	}
	return found
}

// peekTier reads keys from one tier, in a single round trip when the
// tier can.
func (c *Coordinator) peekTier(ctx context.Context, tier Tier, keys []string) (map[string]Entry, error) {
	if bt, ok := tier.(BatchTier); ok {
		return bt.GetMulti(ctx, keys)
	}
	hits := make(map[string]Entry)
	for _, key := range keys {
		entry, ok, err := tier.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			hits[key] = entry
		}
	}
	return hits, nil
}

// promoteMulti copies lower-tier hits into the tiers above hitIdx.
func (c *Coordinator) promoteMulti(ctx context.Context, hits map[string]Entry, tagsByKey map[string][]string, hitIdx int) {
	for i := 0; i < hitIdx; i++ {
		tc := c.tiers[i]
		var err error
		if bt, ok := tc.Tier.(BatchTier); ok {
			err = bt.SetMulti(ctx, hits, tc.TTL, tagsByKey)
		} else {
			for key, entry := range hits {
				if setErr := tc.Tier.Set(ctx, key, entry, tc.TTL, tagsByKey[key]); setErr != nil {
					err = setErr
				}
			}
		}
		if err != nil {
			metrics.CacheWriteErrors.WithLabelValues(tc.Tier.Name()).Inc()
			logging.Ctx(ctx).Warn().Err(err).
				Str("tier", tc.Tier.Name()).
				Msg("cache batch promotion failed")
		}
	}
}

// Invalidate drops the given keys from every tier.
func (c *Coordinator) Invalidate(ctx context.Context, keys ...string) {
	for _, tc := range c.tiers {
		for _, key := range keys {
			if err := tc.Tier.Delete(ctx, key); err != nil {
				logging.Ctx(ctx).Warn().Err(err).
					Str("tier", tc.Tier.Name()).
					Str("key", key).
					Msg("cache invalidation failed")
			}
		}
	}
}

// InvalidateTags drops every entry carrying any of the tags from every
// tier.
func (c *Coordinator) InvalidateTags(ctx context.Context, tags ...string) {
	for _, tc := range c.tiers {
		for _, tag := range tags {
			if err := tc.Tier.InvalidateTag(ctx, tag); err != nil {
				logging.Ctx(ctx).Warn().Err(err).
					Str("tier", tc.Tier.Name()).
					Str("tag", tag).
					Msg("cache tag invalidation failed")
			}
		}
	}
}

// Close stops accepting background refreshes and waits for running
// ones to finish.
func (c *Coordinator) Close() {
	c.closeMu.Do(func() { close(c.closed) })
	c.wg.Wait()
}

// promote copies a lower-tier hit into the tiers above it.
func (c *Coordinator) promote(ctx context.Context, key string, entry Entry, tags []string, hitIdx int) {
	for i := 0; i < hitIdx; i++ {
		tc := c.tiers[i]
		if err := tc.Tier.Set(ctx, key, entry, tc.TTL, tags); err != nil {
			metrics.CacheWriteErrors.WithLabelValues(tc.Tier.Name()).Inc()
			logging.Ctx(ctx).Warn().Err(err).
				Str("tier", tc.Tier.Name()).
				Str("key", key).
				Msg("cache promotion failed")
		}
	}
}

// computeShared runs compute once per key regardless of how many
// callers miss at the same time, then writes the result to every tier.
func (c *Coordinator) computeShared(ctx context.Context, key string, tags []string, compute ComputeFunc) ([]byte, error) {
	c.mu.Lock()
	if existing, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-existing.done:
			return existing.value, existing.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	cl.value, cl.err = c.computeAndStore(ctx, key, tags, compute)
	close(cl.done)

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()

	return cl.value, cl.err
}

func (c *Coordinator) computeAndStore(ctx context.Context, key string, tags []string, compute ComputeFunc) ([]byte, error) {
	metrics.CacheComputes.Inc()
	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	entry := Entry{Value: value, StoredAt: c.now()}
	for _, tc := range c.tiers {
		if err := tc.Tier.Set(ctx, key, entry, tc.TTL, tags); err != nil {
			metrics.CacheWriteErrors.WithLabelValues(tc.Tier.Name()).Inc()
			logging.Ctx(ctx).Warn().Err(err).
				Str("tier", tc.Tier.Name()).
				Str("key", key).
				Msg("cache write-back failed")
		}
	}
	return value, nil
}

// refreshAsync recomputes key in the background, at most once at a
// time per key. The refresh uses a fresh context so it outlives the
// request that triggered it.
func (c *Coordinator) refreshAsync(key string, tags []string, compute ComputeFunc) {
	select {
	case <-c.closed:
		return
	default:
	}
	if _, loaded := c.refreshing.LoadOrStore(key, struct{}{}); loaded {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.refreshing.Delete(key)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if _, err := c.computeAndStore(ctx, key, tags, compute); err != nil {
			logging.Warn().Err(err).
				Str("key", key).
				Msg("stale cache refresh failed, keeping stale entry")
		}
	}()
}

// StartJanitor periodically sweeps expired entries out of mem until
// ctx is cancelled. Runs in the calling goroutine; start it under the
// process supervisor.
func (c *Coordinator) StartJanitor(ctx context.Context, mem *MemoryTier, period time.Duration) {
	if period <= 0 {
		period = time.Minute
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := mem.CleanupExpired(); removed > 0 {
				logging.Debug().Int("removed", removed).Msg("memory cache janitor sweep")
			}
		}
	}
}
