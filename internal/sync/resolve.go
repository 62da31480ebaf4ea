// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package sync

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/judgefinder/judgefinder/internal/courtlistener"
	"github.com/judgefinder/judgefinder/internal/database"
	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/models"
)

// CourtResolution is the outcome of resolving a judge's court and
// county from position data. Confidence travels with the result so
// downstream consumers can tell a source-backed assignment from a
// textual guess.
type CourtResolution struct {
	CourtID    *int64
	County     string
	Confidence models.Confidence
	Method     string
}

// Resolution methods, recorded for observability.
const (
	resolveByExternalID = "external_id"
	resolveByName       = "court_name"
	resolveByStored     = "stored_position"
	resolveByCountyText = "county_text"
	resolveNone         = "unresolved"
)

// courtResolver runs the ordered strategy chain. First success wins;
// the chain never falls back to a silent guess: an unresolved judge
// keeps a nil court with zero confidence rather than a wrong one.
type courtResolver struct {
	store     Store
	threshold float64
}

// Resolve resolves court and county for a judge from its most recent
// position.
//
// Strategy order, strongest evidence first:
//  1. exact external court-ID match        -> high confidence
//  2. fuzzy court-name match               -> medium
//  3. court already stored on the judge    -> medium
//  4. county text extraction from position -> low
func (cr *courtResolver) Resolve(ctx context.Context, judge *models.Judge, pos *courtlistener.Position) CourtResolution {
	if pos != nil && pos.CourtID != "" {
		if court, err := cr.store.GetCourtByExternalID(ctx, pos.CourtID); err == nil {
			return CourtResolution{
				CourtID:    &court.ID,
				County:     court.County,
				Confidence: models.ConfidenceHigh,
				Method:     resolveByExternalID,
			}
		} else if !errors.Is(err, database.ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Str("court_external_id", pos.CourtID).
				Msg("court lookup by external id failed, trying next strategy")
		}
	}

	if pos != nil && pos.Court != "" {
		if court, err := cr.store.FindCourtByName(ctx, pos.Court, judge.Jurisdiction, cr.threshold); err == nil {
			return CourtResolution{
				CourtID:    &court.ID,
				County:     court.County,
				Confidence: models.ConfidenceModerate,
				Method:     resolveByName,
			}
		} else if !errors.Is(err, database.ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Str("court_name", pos.Court).
				Msg("court lookup by name failed, trying next strategy")
		}
	}

	if judge.CourtID != nil {
		return CourtResolution{
			CourtID:    judge.CourtID,
			County:     judge.County,
			Confidence: models.ConfidenceModerate,
			Method:     resolveByStored,
		}
	}

	if pos != nil {
		if county := extractCounty(pos.Court + " " + pos.Location); county != "" {
			return CourtResolution{
				County:     county,
				Confidence: models.ConfidenceLow,
				Method:     resolveByCountyText,
			}
		}
	}

	return CourtResolution{Method: resolveNone}
}

// countyPatterns match the two ways California court names spell a
// county: "County of Los Angeles" and "Los Angeles County".
var countyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bCounty of ([A-Z][a-zA-Z]+(?: [A-Z][a-zA-Z]+)*)`),
	regexp.MustCompile(`(?i)\b([A-Z][a-zA-Z]+(?: [A-Z][a-zA-Z]+)*) County\b`),
}

// extractCounty pulls a county name out of free text, or "" when no
// pattern matches.
func extractCounty(text string) string {
	for _, re := range countyPatterns {
		if m := re.FindStringSubmatch(text); len(m) == 2 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
