// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package sync

import (
	"context"
	"errors"
	"strings"

	"github.com/gosimple/slug"

	"github.com/judgefinder/judgefinder/internal/courtlistener"
	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/metrics"
	"github.com/judgefinder/judgefinder/internal/models"
)

// SyncCourts pulls every in-use court for the configured jurisdiction
// and upserts it. Court volume is small (hundreds), so this pages
// through the full listing each run.
func (m *Manager) SyncCourts(ctx context.Context, jurisdiction string) (BatchResult, error) {
	var result BatchResult
	pageURL := ""

	for {
		if err := m.pace(ctx); err != nil {
			return result, err
		}

		page, err := m.client.ListCourts(ctx, jurisdiction, pageURL)
		if err != nil {
			if errors.Is(err, courtlistener.ErrRateLimited) {
				logging.Ctx(ctx).Warn().Msg("court sync stopped by quota, resuming next run")
				return result, nil
			}
			return result, err
		}

		for i := range page.Results {
			src := &page.Results[i]
			court := courtFromSource(src)
			stored, err := m.store.UpsertCourt(ctx, court)
			if err != nil {
				result.Failed = append(result.Failed, ItemError{Err: err})
				metrics.SyncItemsTotal.WithLabelValues("courts", "failed").Inc()
				logging.Ctx(ctx).Error().Err(err).Str("court", src.ID).Msg("court upsert failed")
				continue
			}
			result.Succeeded = append(result.Succeeded, stored.ID)
			metrics.SyncItemsTotal.WithLabelValues("courts", "succeeded").Inc()
		}

		if page.Next == "" {
			break
		}
		pageURL = page.Next
	}

	if err := m.store.RefreshCourtJudgeCounts(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("court judge count refresh failed")
	}
	return result, nil
}

// courtFromSource maps a CourtListener court onto the local model.
func courtFromSource(src *courtlistener.Court) *models.Court {
	name := src.FullName
	if name == "" {
		name = src.ShortName
	}
	return &models.Court{
		ExternalID:   src.ID,
		Name:         name,
		Slug:         slug.Make(name),
		Type:         courtType(src.Jurisdiction),
		Jurisdiction: src.Jurisdiction,
		County:       extractCounty(name),
	}
}

// courtType maps CourtListener jurisdiction codes onto the local
// taxonomy: F* federal, S* state, else local.
func courtType(jurisdiction string) models.CourtType {
	switch {
	case strings.HasPrefix(jurisdiction, "F"):
		return models.CourtTypeFederal
	case strings.HasPrefix(jurisdiction, "S"):
		return models.CourtTypeState
	default:
		return models.CourtTypeLocal
	}
}
