// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/judgefinder/judgefinder/internal/analytics"
	"github.com/judgefinder/judgefinder/internal/database"
	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/models"
)

// SearchJudges handles GET /api/judges/search.
//
// Query parameters:
//
//	q            search text; empty lists the most active judges
//	jurisdiction jurisdiction code filter, e.g. CA
//	court_type   federal | state | local
//	limit        page size, capped at Search.MaxLimit
//	page         1-based page number
//
// Intent metadata from the upstream query classifier arrives as
// optional parameters (intent_exact_name, intent_location,
// intent_case_type, intent_characteristic) and feeds the reranker.
func (h *Handler) SearchJudges(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	params, intent, errMsg := h.parseSearchParams(r)
	if errMsg != "" {
		rw.BadRequest(errMsg)
		return
	}

	results, total, err := h.store.SearchJudges(ctx, params)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	// Rerank the page with the composite score. The specialization
	// signal comes from cached analytics and only matters when the
	// intent names a case type.
	analytics.Rerank(results, params.Query, intent, func(judgeID int64, caseType string) float64 {
		return h.analytics.Specialization(ctx, judgeID, caseType)
	})

	if results == nil {
		results = []models.SearchResult{}
	}

	// Warm the fast tiers for the page so a follow-up analytics
	// request hits memory instead of the database.
	if len(results) > 0 {
		ids := make([]int64, len(results))
		for i := range results {
			ids[i] = results[i].Judge.ID
		}
		h.analytics.WarmUp(ctx, ids)
	}

	logging.Ctx(ctx).Debug().
		Str("query", params.Query).
		Int("results", len(results)).
		Int64("total", total).
		Msg("judge search")

	rw.SuccessWithPagination(models.SearchResponse{
		Results:    results,
		TotalCount: total,
		AIInsights: intent,
	}, &PaginationMeta{
		Total:   total,
		Count:   len(results),
		Offset:  params.Offset,
		Limit:   params.Limit,
		HasMore: int64(params.Offset+len(results)) < total,
	})
}

func (h *Handler) parseSearchParams(r *http.Request) (database.SearchParams, *models.QueryIntent, string) {
	q := r.URL.Query()

	params := database.SearchParams{
		Query:            q.Get("q"),
		Jurisdiction:     strings.ToUpper(strings.TrimSpace(q.Get("jurisdiction"))),
		CourtType:        strings.ToLower(strings.TrimSpace(q.Get("court_type"))),
		TrigramThreshold: h.cfg.Search.TrigramThreshold,
		Limit:            h.cfg.Search.DefaultLimit,
	}

	switch params.CourtType {
	case "", string(models.CourtTypeFederal), string(models.CourtTypeState), string(models.CourtTypeLocal):
	default:
		return params, nil, "court_type must be federal, state or local"
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return params, nil, "limit must be a positive integer"
		}
		if limit > h.cfg.Search.MaxLimit {
			limit = h.cfg.Search.MaxLimit
		}
		params.Limit = limit
	}

	page := 1
	if raw := q.Get("page"); raw != "" {
		var err error
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, nil, "page must be a positive integer"
		}
	}
	params.Offset = (page - 1) * params.Limit

	return params, parseIntent(q.Get("intent_exact_name"), q.Get("intent_location"),
		q.Get("intent_case_type"), q.Get("intent_characteristic")), ""
}

// parseIntent folds the upstream classifier's parameters into a
// QueryIntent, nil when none are present.
func parseIntent(exactName, location, caseType, characteristic string) *models.QueryIntent {
	intent := &models.QueryIntent{
		ExactName:           exactName == "true",
		Location:            strings.TrimSpace(location),
		CaseType:            strings.ToLower(strings.TrimSpace(caseType)),
		CharacteristicMatch: characteristic == "true",
	}
	if !intent.ExactName && intent.Location == "" && intent.CaseType == "" && !intent.CharacteristicMatch {
		return nil
	}
	return intent
}
