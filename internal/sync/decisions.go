// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/judgefinder/judgefinder/internal/courtlistener"
	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/metrics"
)

// SyncDecisions refreshes only the case phase for each judge in ids,
// skipping positions and education. Used to top up decision data for
// judges that are already enriched.
func (m *Manager) SyncDecisions(ctx context.Context, ids []int64) BatchResult {
	var result BatchResult

	for i, id := range ids {
		if err := m.pace(ctx); err != nil {
			result.RateLimited = append(result.RateLimited, ids[i:]...)
			return result
		}

		err := m.syncDecisionsOne(ctx, id)
		switch {
		case err == nil:
			result.Succeeded = append(result.Succeeded, id)
			metrics.SyncItemsTotal.WithLabelValues("decisions", "succeeded").Inc()
		case errors.Is(err, courtlistener.ErrRateLimited):
			result.RateLimited = append(result.RateLimited, ids[i:]...)
			metrics.SyncItemsTotal.WithLabelValues("decisions", "rate_limited").Inc()
			return result
		default:
			result.Failed = append(result.Failed, ItemError{ID: id, Err: err})
			metrics.SyncItemsTotal.WithLabelValues("decisions", "failed").Inc()
			logging.Ctx(ctx).Error().Err(err).Int64("judge_id", id).Msg("decision sync failed")
			if recErr := m.store.RecordSyncError(ctx, id, err); recErr != nil {
				logging.Ctx(ctx).Warn().Err(recErr).Int64("judge_id", id).
					Msg("failed to record sync error")
			}
		}
	}
	return result
}

func (m *Manager) syncDecisionsOne(ctx context.Context, judgeID int64) error {
	judge, err := m.store.GetJudge(ctx, judgeID)
	if err != nil {
		return fmt.Errorf("load judge: %w", err)
	}
	progress, err := m.store.GetSyncProgress(ctx, judgeID)
	if err != nil {
		return fmt.Errorf("load sync progress: %w", err)
	}
	return m.syncCases(ctx, judge, progress)
}
