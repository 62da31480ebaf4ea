// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package analytics

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/judgefinder/judgefinder/internal/cache"
	"github.com/judgefinder/judgefinder/internal/models"
)

// Service is the cache-backed analytics entry point: reads come from
// the tier coordinator and only fall through to the generator on a
// full miss.
type Service struct {
	generator   *Generator
	coordinator *cache.Coordinator
	version     int
}

// NewService wires the generator behind the cache coordinator.
func NewService(generator *Generator, coordinator *cache.Coordinator) *Service {
	return &Service{
		generator:   generator,
		coordinator: coordinator,
		version:     generator.cfg.Version,
	}
}

// CacheKey returns the coordinator key for a judge's analytics. The
// analytics version is part of the key, so a version bump orphans old
// entries instead of serving mixed schemas.
func (s *Service) CacheKey(judgeID int64) string {
	return fmt.Sprintf("analytics:v%d:judge:%d", s.version, judgeID)
}

// JudgeTag returns the invalidation tag covering everything derived
// from one judge's data.
func JudgeTag(judgeID int64) string {
	return fmt.Sprintf("judge:%d", judgeID)
}

// Get returns the analytics for a judge together with cache
// provenance.
func (s *Service) Get(ctx context.Context, judgeID int64) (*models.JudgeAnalytics, *cache.Result, error) {
	res, err := s.coordinator.GetOrCompute(ctx, s.CacheKey(judgeID), []string{JudgeTag(judgeID)},
		func(ctx context.Context) ([]byte, error) {
			a, err := s.generator.Generate(ctx, judgeID)
			if err != nil {
				return nil, fmt.Errorf("generate analytics for judge %d: %w", judgeID, err)
			}
			return json.Marshal(a)
		})
	if err != nil {
		return nil, nil, err
	}

	var a models.JudgeAnalytics
	if err := json.Unmarshal(res.Value, &a); err != nil {
		return nil, nil, fmt.Errorf("decode cached analytics for judge %d: %w", judgeID, err)
	}
	return &a, &res, nil
}

// Refresh recomputes and re-caches a judge's analytics, used after a
// sync batch lands new decisions.
func (s *Service) Refresh(ctx context.Context, judgeID int64) error {
	s.coordinator.InvalidateTags(ctx, JudgeTag(judgeID))
	_, _, err := s.Get(ctx, judgeID)
	return err
}

// Invalidate drops a judge's cached analytics from every tier without
// recomputing.
func (s *Service) Invalidate(ctx context.Context, judgeID int64) {
	s.coordinator.InvalidateTags(ctx, JudgeTag(judgeID))
}

// WarmUp batch-loads the cached analytics for a page of judges into
// the faster tiers, one round trip per batch-capable tier. Judges with
// nothing cached are skipped; the next Get computes them. Returns how
// many judges had cached analytics.
func (s *Service) WarmUp(ctx context.Context, judgeIDs []int64) int {
	if len(judgeIDs) == 0 {
		return 0
	}
	keys := make([]cache.PeekKey, 0, len(judgeIDs))
	for _, id := range judgeIDs {
		keys = append(keys, cache.PeekKey{
			Key:  s.CacheKey(id),
			Tags: []string{JudgeTag(id)},
		})
	}
	return len(s.coordinator.PeekMulti(ctx, keys))
}

// Specialization looks at a judge's cached case-type distribution and
// reports the share in caseType. Cache misses compute on demand, so
// calling this for a page of search results is bounded by the page
// size.
func (s *Service) Specialization(ctx context.Context, judgeID int64, caseType string) float64 {
	a, _, err := s.Get(ctx, judgeID)
	if err != nil || a.TotalCases == 0 || len(a.CaseTypes) == 0 {
		return 0
	}
	return float64(a.CaseTypes[caseType]) / float64(a.TotalCases)
}
