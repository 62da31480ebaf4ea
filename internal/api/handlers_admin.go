// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package api

import (
	"net/http"

	"github.com/judgefinder/judgefinder/internal/logging"
)

// SyncRunResponse summarizes one manually triggered sync batch.
type SyncRunResponse struct {
	Succeeded   int      `json:"succeeded"`
	Failed      int      `json:"failed"`
	RateLimited int      `json:"rate_limited"`
	Errors      []string `json:"errors,omitempty"`
}

// TriggerSync handles POST /api/admin/sync: runs one sync batch
// immediately, serialized against the background scheduler. Deferred
// items are not failures, they re-enter the next batch.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	if h.trigger == nil {
		rw.ServiceUnavailable("sync is not running in this process")
		return
	}

	result, err := h.trigger.TriggerSync(ctx)
	if err != nil {
		rw.UpstreamError("courtlistener", err)
		logging.Ctx(ctx).Error().Err(err).Msg("manual sync batch failed")
		return
	}

	resp := SyncRunResponse{
		Succeeded:   len(result.Succeeded),
		Failed:      len(result.Failed),
		RateLimited: len(result.RateLimited),
	}
	for _, item := range result.Failed {
		resp.Errors = append(resp.Errors, item.String())
	}

	logging.Ctx(ctx).Info().
		Int("succeeded", resp.Succeeded).
		Int("failed", resp.Failed).
		Int("rate_limited", resp.RateLimited).
		Msg("manual sync batch finished")
	rw.Success(resp)
}

// CacheStats handles GET /api/admin/cache/stats: memory tier hit and
// miss counters plus the current entry count.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.cacheStats == nil {
		rw.ServiceUnavailable("cache stats are not available")
		return
	}

	hits, misses, size := h.cacheStats.Stats()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	rw.Success(map[string]interface{}{
		"hits":     hits,
		"misses":   misses,
		"entries":  size,
		"hit_rate": hitRate,
	})
}
