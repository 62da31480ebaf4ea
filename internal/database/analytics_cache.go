// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/judgefinder/judgefinder/internal/cache"
)

// Durable analytics cache rows. Unlike the memory and Redis tiers
// these have no TTL: a stale analytics payload is still better than
// recomputing from raw decisions on a cold start, and freshness is
// handled by explicit invalidation plus stale-while-revalidate above.

// GetCacheRow reads one analytics cache row.
func (s *Store) GetCacheRow(ctx context.Context, key string) (value []byte, storedAt time.Time, ok bool, err error) {
	defer track("select", "judge_analytics_cache", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.pool.QueryRow(ctx, `
		SELECT payload, generated_at FROM judge_analytics_cache WHERE cache_key = $1`,
		key).Scan(&value, &storedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("get cache row: %w", err)
	}
	return value, storedAt, true, nil
}

// GetCacheRows reads several analytics cache rows in one query.
func (s *Store) GetCacheRows(ctx context.Context, keys []string) (out []cache.CacheRow, err error) {
	defer track("select", "judge_analytics_cache", time.Now(), &err)
	if len(keys) == 0 {
		return nil, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT cache_key, payload, generated_at, tags
		FROM judge_analytics_cache WHERE cache_key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("get cache rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row cache.CacheRow
		if err := rows.Scan(&row.Key, &row.Value, &row.StoredAt, &row.Tags); err != nil {
			return nil, fmt.Errorf("scan cache row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PutCacheRow upserts one analytics cache row with its tags.
func (s *Store) PutCacheRow(ctx context.Context, key string, value []byte, storedAt time.Time, tags []string) (err error) {
	defer track("upsert", "judge_analytics_cache", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.pool.Exec(ctx, `
		INSERT INTO judge_analytics_cache (cache_key, payload, generated_at, tags)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			generated_at = EXCLUDED.generated_at,
			tags = EXCLUDED.tags`,
		key, value, storedAt, tags)
	if err != nil {
		return fmt.Errorf("put cache row: %w", err)
	}
	return nil
}

// PutCacheRows upserts several analytics cache rows in one batched
// round trip.
func (s *Store) PutCacheRows(ctx context.Context, rows []cache.CacheRow) (err error) {
	defer track("upsert", "judge_analytics_cache", time.Now(), &err)
	if len(rows) == 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO judge_analytics_cache (cache_key, payload, generated_at, tags)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (cache_key) DO UPDATE SET
				payload = EXCLUDED.payload,
				generated_at = EXCLUDED.generated_at,
				tags = EXCLUDED.tags`,
			row.Key, row.Value, row.StoredAt, row.Tags)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("put cache rows: %w", err)
	}
	return nil
}

// DeleteCacheRow removes one analytics cache row.
func (s *Store) DeleteCacheRow(ctx context.Context, key string) (err error) {
	defer track("delete", "judge_analytics_cache", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.pool.Exec(ctx,
		`DELETE FROM judge_analytics_cache WHERE cache_key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete cache row: %w", err)
	}
	return nil
}

// PruneAnalyticsCacheVersions deletes rows written under an analytics
// version other than current. A version bump reshapes the cache key,
// so older rows are unreachable and only occupy space. Runs at startup.
func (s *Store) PruneAnalyticsCacheVersions(ctx context.Context, current int) (removed int64, err error) {
	defer track("delete", "judge_analytics_cache", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
		DELETE FROM judge_analytics_cache
		WHERE cache_key LIKE 'analytics:v%'
		  AND cache_key NOT LIKE 'analytics:v' || $1::text || ':%'`, current)
	if err != nil {
		return 0, fmt.Errorf("prune analytics cache versions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteCacheTag removes every analytics cache row carrying tag.
func (s *Store) DeleteCacheTag(ctx context.Context, tag string) (err error) {
	defer track("delete", "judge_analytics_cache", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.pool.Exec(ctx,
		`DELETE FROM judge_analytics_cache WHERE $1 = ANY(tags)`, tag)
	if err != nil {
		return fmt.Errorf("delete cache tag: %w", err)
	}
	return nil
}
