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

	"github.com/judgefinder/judgefinder/internal/models"
)

const syncProgressColumns = `judge_id, has_positions, has_education, has_political_affiliations,
	opinions_count, dockets_count, is_analytics_ready, sync_phase, last_synced_at,
	error_count, last_error`

func scanSyncProgress(row pgx.Row) (*models.SyncProgress, error) {
	var sp models.SyncProgress
	var lastError *string
	err := row.Scan(&sp.JudgeID, &sp.HasPositions, &sp.HasEducation, &sp.HasPoliticalAffiliations,
		&sp.OpinionsCount, &sp.DocketsCount, &sp.IsAnalyticsReady, &sp.SyncPhase,
		&sp.LastSyncedAt, &sp.ErrorCount, &lastError)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan sync progress: %w", err)
	}
	if lastError != nil {
		sp.LastError = *lastError
	}
	return &sp, nil
}

// GetSyncProgress fetches the enrichment state for a judge.
func (s *Store) GetSyncProgress(ctx context.Context, judgeID int64) (sp *models.SyncProgress, err error) {
	defer track("select", "sync_progress", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return scanSyncProgress(s.pool.QueryRow(ctx,
		`SELECT `+syncProgressColumns+` FROM sync_progress WHERE judge_id = $1`, judgeID))
}

// EnsureSyncProgress creates the progress row for a freshly discovered
// judge if it does not exist yet.
func (s *Store) EnsureSyncProgress(ctx context.Context, judgeID int64) (err error) {
	defer track("insert", "sync_progress", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.pool.Exec(ctx, `
		INSERT INTO sync_progress (judge_id, sync_phase)
		VALUES ($1, $2)
		ON CONFLICT (judge_id) DO NOTHING`,
		judgeID, models.PhaseDiscovered)
	if err != nil {
		return fmt.Errorf("ensure sync progress: %w", err)
	}
	return nil
}

// UpdateSyncProgress persists the full progress row after a sync step.
// The readiness flag is derived in SQL from the docket count so two
// workers racing on the same judge cannot write an inconsistent pair.
func (s *Store) UpdateSyncProgress(ctx context.Context, sp *models.SyncProgress, readyCaseCount int64) (err error) {
	defer track("update", "sync_progress", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	sp.LastSyncedAt = &now
	sp.IsAnalyticsReady = sp.DocketsCount >= readyCaseCount

	_, err = s.pool.Exec(ctx, `
		UPDATE sync_progress SET
			has_positions = $2,
			has_education = $3,
			has_political_affiliations = $4,
			opinions_count = $5,
			dockets_count = $6,
			is_analytics_ready = ($6 >= $8),
			sync_phase = $7,
			last_synced_at = now(),
			error_count = $9,
			last_error = NULLIF($10, '')
		WHERE judge_id = $1`,
		sp.JudgeID, sp.HasPositions, sp.HasEducation, sp.HasPoliticalAffiliations,
		sp.OpinionsCount, sp.DocketsCount, sp.SyncPhase, readyCaseCount,
		sp.ErrorCount, sp.LastError)
	if err != nil {
		return fmt.Errorf("update sync progress: %w", err)
	}
	return nil
}

// RecordSyncError increments the error counter for a judge without
// touching phase flags, so a transient failure does not lose progress.
func (s *Store) RecordSyncError(ctx context.Context, judgeID int64, syncErr error) (err error) {
	defer track("update", "sync_progress", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.pool.Exec(ctx, `
		UPDATE sync_progress SET
			error_count = error_count + 1,
			last_error = $2
		WHERE judge_id = $1`,
		judgeID, syncErr.Error())
	if err != nil {
		return fmt.Errorf("record sync error: %w", err)
	}
	return nil
}

// CountAnalyticsReady returns how many judges have crossed the
// analytics readiness threshold, used by the health endpoint.
func (s *Store) CountAnalyticsReady(ctx context.Context) (n int64, err error) {
	defer track("select", "sync_progress", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.pool.QueryRow(ctx,
		`SELECT count(*) FROM sync_progress WHERE is_analytics_ready`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count analytics ready: %w", err)
	}
	return n, nil
}
