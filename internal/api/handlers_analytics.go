// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/judgefinder/judgefinder/internal/database"
	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/models"
)

// JudgeAnalytics handles GET /api/judges/{id}/analytics.
//
// The response reports which tier answered (data_source) and whether
// the payload was served from cache. ?debug=true adds tier
// diagnostics.
func (h *Handler) JudgeAnalytics(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	judgeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || judgeID < 1 {
		rw.BadRequest("judge id must be a positive integer")
		return
	}

	if _, err := h.store.GetJudge(ctx, judgeID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("judge not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	payload, result, err := h.analytics.Get(ctx, judgeID)
	if err != nil {
		rw.InternalError("failed to compute analytics")
		logging.Ctx(ctx).Error().Err(err).Int64("judge_id", judgeID).Msg("analytics computation failed")
		return
	}

	resp := models.AnalyticsResponse{
		Analytics:   payload,
		Cached:      result.Cached,
		DataSource:  result.Source,
		LastUpdated: result.StoredAt,
	}
	if r.URL.Query().Get("debug") == "true" {
		resp.Debug = &models.AnalyticsDebug{
			Tier:     result.Source,
			WasStale: result.WasStale,
		}
	}

	rw.Success(resp)
}

// InvalidateAnalytics handles POST /api/admin/invalidate/{judgeID}:
// tag-based invalidation of a judge's cached analytics across all
// tiers.
func (h *Handler) InvalidateAnalytics(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	judgeID, err := strconv.ParseInt(chi.URLParam(r, "judgeID"), 10, 64)
	if err != nil || judgeID < 1 {
		rw.BadRequest("judge id must be a positive integer")
		return
	}

	h.analytics.Invalidate(ctx, judgeID)
	logging.Ctx(ctx).Info().Int64("judge_id", judgeID).Msg("analytics cache invalidated")

	rw.Success(map[string]interface{}{
		"judge_id":    judgeID,
		"invalidated": true,
	})
}
