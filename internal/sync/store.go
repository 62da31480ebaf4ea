// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package sync

import (
	"context"
	"time"

	"github.com/judgefinder/judgefinder/internal/models"
)

// Store is the persistence surface the sync pipeline needs.
// Implemented by *database.Store; mocked in tests.
type Store interface {
	UpsertJudge(ctx context.Context, j *models.Judge) (*models.Judge, error)
	GetJudge(ctx context.Context, id int64) (*models.Judge, error)
	ListJudgeIDs(ctx context.Context, limit int) ([]int64, error)
	UpdateJudgeCaseCount(ctx context.Context, judgeID int64) (int64, error)

	UpsertCourt(ctx context.Context, c *models.Court) (*models.Court, error)
	GetCourtByExternalID(ctx context.Context, externalID string) (*models.Court, error)
	FindCourtByName(ctx context.Context, name, jurisdiction string, threshold float64) (*models.Court, error)
	RefreshCourtJudgeCounts(ctx context.Context) error

	UpsertDecisions(ctx context.Context, decisions []models.Decision) (written, flagged int, err error)

	GetSyncProgress(ctx context.Context, judgeID int64) (*models.SyncProgress, error)
	EnsureSyncProgress(ctx context.Context, judgeID int64) error
	UpdateSyncProgress(ctx context.Context, sp *models.SyncProgress, readyCaseCount int64) error
	RecordSyncError(ctx context.Context, judgeID int64, syncErr error) error
}

// AnalyticsRefresher invalidates and recomputes a judge's cached
// analytics after new decisions land. Implemented by
// *analytics.Service.
type AnalyticsRefresher interface {
	Refresh(ctx context.Context, judgeID int64) error
}

// clock lets tests pin time-dependent behavior.
type clock func() time.Time
