// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeTier is an in-memory Tier with switchable failure modes.
type fakeTier struct {
	name string

	mu      sync.Mutex
	entries map[string]Entry
	sets    int
	failGet bool
	failSet bool
}

func newFakeTier(name string) *fakeTier {
	return &fakeTier{name: name, entries: make(map[string]Entry)}
}

func (f *fakeTier) Name() string { return f.name }

func (f *fakeTier) Get(_ context.Context, key string) (Entry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return Entry{}, false, errors.New("tier unavailable")
	}
	e, ok := f.entries[key]
	return e, ok, nil
}

func (f *fakeTier) Set(_ context.Context, key string, e Entry, _ time.Duration, _ []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.failSet {
		return errors.New("tier unavailable")
	}
	f.entries[key] = e
	return nil
}

func (f *fakeTier) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

func (f *fakeTier) InvalidateTag(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string]Entry)
	return nil
}

func (f *fakeTier) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

func (f *fakeTier) put(key string, e Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = e
}

func staticCompute(v string) ComputeFunc {
	return func(context.Context) ([]byte, error) { return []byte(v), nil }
}

func TestCoordinatorComputeOnMissWritesAllTiers(t *testing.T) {
	t1, t2 := newFakeTier(TierMemory), newFakeTier(TierRedis)
	c := NewCoordinator(time.Hour, TierConfig{t1, time.Minute}, TierConfig{t2, time.Hour})
	defer c.Close()

	res, err := c.GetOrCompute(context.Background(), "k", nil, staticCompute("fresh"))
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if res.Cached {
		t.Error("full miss must report Cached=false")
	}
	if res.Source != SourceComputed {
		t.Errorf("Source = %q, want %q", res.Source, SourceComputed)
	}
	if string(res.Value) != "fresh" {
		t.Errorf("Value = %q, want %q", res.Value, "fresh")
	}
	if !t1.has("k") || !t2.has("k") {
		t.Error("computed value must be written back to every tier")
	}
}

func TestCoordinatorHitStopsAtFirstTier(t *testing.T) {
	t1, t2 := newFakeTier(TierMemory), newFakeTier(TierRedis)
	c := NewCoordinator(time.Hour, TierConfig{t1, time.Minute}, TierConfig{t2, time.Hour})
	defer c.Close()

	t1.put("k", Entry{Value: []byte("top"), StoredAt: time.Now()})
	t2.put("k", Entry{Value: []byte("bottom"), StoredAt: time.Now()})

	res, err := c.GetOrCompute(context.Background(), "k", nil, func(context.Context) ([]byte, error) {
		t.Fatal("compute must not run on a hit")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if !res.Cached || res.Source != TierMemory || string(res.Value) != "top" {
		t.Errorf("got (%v, %q, %q), want hit from %s", res.Cached, res.Source, res.Value, TierMemory)
	}
}

func TestCoordinatorPromotesLowerTierHit(t *testing.T) {
	t1, t2 := newFakeTier(TierMemory), newFakeTier(TierRedis)
	c := NewCoordinator(time.Hour, TierConfig{t1, time.Minute}, TierConfig{t2, time.Hour})
	defer c.Close()

	t2.put("k", Entry{Value: []byte("v"), StoredAt: time.Now()})

	res, err := c.GetOrCompute(context.Background(), "k", nil, staticCompute("unused"))
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if res.Source != TierRedis {
		t.Errorf("Source = %q, want %q", res.Source, TierRedis)
	}
	if !t1.has("k") {
		t.Error("hit in lower tier must be promoted to upper tier")
	}
}

func TestCoordinatorFailedTierFallsThrough(t *testing.T) {
	t1, t2 := newFakeTier(TierMemory), newFakeTier(TierRedis)
	t1.failGet = true
	c := NewCoordinator(time.Hour, TierConfig{t1, time.Minute}, TierConfig{t2, time.Hour})
	defer c.Close()

	t2.put("k", Entry{Value: []byte("v"), StoredAt: time.Now()})

	res, err := c.GetOrCompute(context.Background(), "k", nil, staticCompute("unused"))
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if res.Source != TierRedis || string(res.Value) != "v" {
		t.Errorf("got (%q, %q), want hit from healthy lower tier", res.Source, res.Value)
	}
}

func TestCoordinatorWriteBackFailureDoesNotFailRequest(t *testing.T) {
	t1 := newFakeTier(TierMemory)
	t1.failSet = true
	c := NewCoordinator(time.Hour, TierConfig{t1, time.Minute})
	defer c.Close()

	res, err := c.GetOrCompute(context.Background(), "k", nil, staticCompute("v"))
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if string(res.Value) != "v" {
		t.Errorf("Value = %q, want %q", res.Value, "v")
	}
}

func TestCoordinatorStaleServedWhileRevalidating(t *testing.T) {
	t1 := newFakeTier(TierMemory)
	c := NewCoordinator(time.Hour, TierConfig{t1, time.Minute})
	defer c.Close()

	t1.put("k", Entry{Value: []byte("old"), StoredAt: time.Now().Add(-2 * time.Hour)})

	recomputed := make(chan struct{})
	res, err := c.GetOrCompute(context.Background(), "k", nil, func(context.Context) ([]byte, error) {
		close(recomputed)
		return []byte("new"), nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if !res.WasStale {
		t.Error("expected WasStale for an entry past the threshold")
	}
	if string(res.Value) != "old" {
		t.Errorf("stale read must return cached value, got %q", res.Value)
	}

	select {
	case <-recomputed:
	case <-time.After(2 * time.Second):
		t.Fatal("background refresh never ran")
	}
	c.Close()

	e, ok, _ := t1.Get(context.Background(), "k")
	if !ok || string(e.Value) != "new" {
		t.Errorf("after refresh tier holds %q, want %q", e.Value, "new")
	}
}

func TestCoordinatorComputeErrorSurfaces(t *testing.T) {
	c := NewCoordinator(time.Hour, TierConfig{newFakeTier(TierMemory), time.Minute})
	defer c.Close()

	wantErr := errors.New("analytics generation failed")
	_, err := c.GetOrCompute(context.Background(), "k", nil, func(context.Context) ([]byte, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestCoordinatorConcurrentMissesShareOneCompute(t *testing.T) {
	t1 := newFakeTier(TierMemory)
	c := NewCoordinator(time.Hour, TierConfig{t1, time.Minute})
	defer c.Close()

	var computes int32
	release := make(chan struct{})
	compute := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&computes, 1)
		<-release
		return []byte("v"), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]byte, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.GetOrCompute(context.Background(), "k", nil, compute)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = res.Value
		}(i)
	}

	// Give every caller time to reach the in-flight guard.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&computes); n != 1 {
		t.Errorf("compute ran %d times, want 1", n)
	}
	for i, v := range results {
		if string(v) != "v" {
			t.Errorf("caller %d got %q", i, v)
		}
	}
}

// fakeBatchTier adds single-round-trip batch calls on top of fakeTier,
// counting them so tests can assert the batch path was taken.
type fakeBatchTier struct {
	*fakeTier
	getMultis int
	setMultis int
	lastTags  map[string][]string
}

func newFakeBatchTier(name string) *fakeBatchTier {
	return &fakeBatchTier{fakeTier: newFakeTier(name)}
}

func (f *fakeBatchTier) GetMulti(_ context.Context, keys []string) (map[string]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getMultis++
	if f.failGet {
		return nil, errors.New("tier unavailable")
	}
	hits := make(map[string]Entry)
	for _, key := range keys {
		if e, ok := f.entries[key]; ok {
			hits[key] = e
		}
	}
	return hits, nil
}

func (f *fakeBatchTier) SetMulti(_ context.Context, entries map[string]Entry, _ time.Duration, tags map[string][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setMultis++
	f.lastTags = tags
	for key, e := range entries {
		f.entries[key] = e
	}
	return nil
}

func peekKeys(keys ...string) []PeekKey {
	out := make([]PeekKey, len(keys))
	for i, k := range keys {
		out[i] = PeekKey{Key: k, Tags: []string{"tag:" + k}}
	}
	return out
}

func TestPeekMultiBatchesPerTier(t *testing.T) {
	mem := newFakeTier(TierMemory)
	rds := newFakeBatchTier(TierRedis)
	c := NewCoordinator(time.Hour, TierConfig{mem, time.Minute}, TierConfig{rds, time.Hour})
	defer c.Close()

	now := time.Now()
	mem.put("a", Entry{Value: []byte("va"), StoredAt: now})
	rds.put("b", Entry{Value: []byte("vb"), StoredAt: now})
	rds.put("c", Entry{Value: []byte("vc"), StoredAt: now})

	found := c.PeekMulti(context.Background(), peekKeys("a", "b", "c", "missing"))

	if len(found) != 3 {
		t.Fatalf("found %d keys, want 3: %v", len(found), found)
	}
	for key, want := range map[string]string{"a": "va", "b": "vb", "c": "vc"} {
		if string(found[key]) != want {
			t.Errorf("found[%s] = %q, want %q", key, found[key], want)
		}
	}
	if _, ok := found["missing"]; ok {
		t.Error("missing key must be absent from the result")
	}
	if rds.getMultis != 1 {
		t.Errorf("redis tier saw %d batch reads, want 1", rds.getMultis)
	}
}

func TestPeekMultiPromotesHitsUpward(t *testing.T) {
	mem := newFakeTier(TierMemory)
	rds := newFakeBatchTier(TierRedis)
	db := newFakeBatchTier(TierDatabase)
	c := NewCoordinator(time.Hour,
		TierConfig{mem, time.Minute}, TierConfig{rds, time.Hour}, TierConfig{db, 0})
	defer c.Close()

	db.put("a", Entry{Value: []byte("va"), StoredAt: time.Now()})
	db.put("b", Entry{Value: []byte("vb"), StoredAt: time.Now()})

	found := c.PeekMulti(context.Background(), peekKeys("a", "b"))
	if len(found) != 2 {
		t.Fatalf("found %d keys, want 2", len(found))
	}

	if !mem.has("a") || !mem.has("b") {
		t.Error("database hits must be promoted to the memory tier")
	}
	if !rds.has("a") || !rds.has("b") {
		t.Error("database hits must be promoted to the redis tier")
	}
	if rds.setMultis != 1 {
		t.Errorf("redis promotion used %d batch writes, want 1", rds.setMultis)
	}
	if got := rds.lastTags["a"]; len(got) != 1 || got[0] != "tag:a" {
		t.Errorf("promoted copy lost its tags: %v", rds.lastTags)
	}
}

func TestPeekMultiFailedTierFallsThrough(t *testing.T) {
	rds := newFakeBatchTier(TierRedis)
	rds.failGet = true
	db := newFakeBatchTier(TierDatabase)
	c := NewCoordinator(time.Hour, TierConfig{rds, time.Hour}, TierConfig{db, 0})
	defer c.Close()

	db.put("a", Entry{Value: []byte("va"), StoredAt: time.Now()})

	found := c.PeekMulti(context.Background(), peekKeys("a"))
	if string(found["a"]) != "va" {
		t.Errorf("found = %v, want hit from healthy lower tier", found)
	}
}

func TestCoordinatorInvalidate(t *testing.T) {
	t1, t2 := newFakeTier(TierMemory), newFakeTier(TierRedis)
	c := NewCoordinator(time.Hour, TierConfig{t1, time.Minute}, TierConfig{t2, time.Hour})
	defer c.Close()

	e := Entry{Value: []byte("v"), StoredAt: time.Now()}
	t1.put("k", e)
	t2.put("k", e)

	c.Invalidate(context.Background(), "k")
	if t1.has("k") || t2.has("k") {
		t.Error("Invalidate must drop the key from every tier")
	}
}
