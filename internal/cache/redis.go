// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package cache

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "jf:analytics:"
	redisTagPrefix = "jf:tag:"
)

// RedisTier is the shared cache level. Entries survive process
// restarts and are visible to every instance; the 90-day default TTL
// keeps Redis memory bounded while the durable tier below holds
// entries indefinitely.
//
// Tag membership is tracked in Redis sets so invalidation does not
// require a keyspace scan. Tag sets expire alongside the longest
// possible entry lifetime; a set member whose entry already expired is
// harmless, deleting a missing key is a no-op.
type RedisTier struct {
	client *redis.Client
}

// NewRedisTier wraps client as a cache tier.
func NewRedisTier(client *redis.Client) *RedisTier {
	return &RedisTier{client: client}
}

// Name implements Tier.
func (t *RedisTier) Name() string { return TierRedis }

// Get retrieves an entry by key.
func (t *RedisTier) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := t.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// Corrupt envelope, drop it and report a miss.
		t.client.Del(ctx, redisKeyPrefix+key)
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Set stores an entry with the given TTL and records tag membership.
func (t *RedisTier) Set(ctx context.Context, key string, e Entry, ttl time.Duration, tags []string) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry %s: %w", key, err)
	}

	pipe := t.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+key, raw, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, redisTagPrefix+tag, key)
		pipe.Expire(ctx, redisTagPrefix+tag, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// GetMulti fetches several keys with one MGET.
func (t *RedisTier) GetMulti(ctx context.Context, keys []string) (map[string]Entry, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = redisKeyPrefix + key
	}
	values, err := t.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget %d keys: %w", len(keys), err)
	}

	found := make(map[string]Entry, len(keys))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			t.client.Del(ctx, prefixed[i])
			continue
		}
		found[keys[i]] = e
	}
	return found, nil
}

// SetMulti stores several entries and their tag memberships in one
// pipeline round trip.
func (t *RedisTier) SetMulti(ctx context.Context, entries map[string]Entry, ttl time.Duration, tags map[string][]string) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := t.client.TxPipeline()
	for key, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal cache entry %s: %w", key, err)
		}
		pipe.Set(ctx, redisKeyPrefix+key, raw, ttl)
		for _, tag := range tags[key] {
			pipe.SAdd(ctx, redisTagPrefix+tag, key)
			pipe.Expire(ctx, redisTagPrefix+tag, ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %d keys: %w", len(entries), err)
	}
	return nil
}

// Delete removes an entry by key.
func (t *RedisTier) Delete(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// InvalidateTag removes every entry recorded under the tag.
func (t *RedisTier) InvalidateTag(ctx context.Context, tag string) error {
	keys, err := t.client.SMembers(ctx, redisTagPrefix+tag).Result()
	if err != nil {
		return fmt.Errorf("redis tag members %s: %w", tag, err)
	}

	pipe := t.client.TxPipeline()
	for _, key := range keys {
		pipe.Del(ctx, redisKeyPrefix+key)
	}
	pipe.Del(ctx, redisTagPrefix+tag)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis invalidate tag %s: %w", tag, err)
	}
	return nil
}
