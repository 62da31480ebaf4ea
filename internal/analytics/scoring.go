// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/judgefinder/judgefinder/internal/models"
)

// Composite score weights. Text relevance dominates, case volume and
// specialization refine, recency nudges.
const (
	weightText           = 0.4
	weightVolume         = 0.3
	weightSpecialization = 0.2
	weightRecency        = 0.1
)

// Intent boost multipliers applied on top of the composite score.
const (
	boostExactName      = 2.0
	boostLocation       = 1.5
	boostCaseType       = 1.8
	boostCharacteristic = 1.3
)

// SpecializationFn reports what share of a judge's caseload falls in
// the given case type, in [0, 1]. Backed by cached analytics; may be
// nil when no intent case type is in play.
type SpecializationFn func(judgeID int64, caseType string) float64

// Rerank re-orders search results by composite relevance:
//
//	0.4·textRelevance + 0.3·logScaledVolume + 0.2·specialization + 0.1·recency
//
// then multiplies in intent boosts from the upstream query-intent
// classifier. Scores are rewritten in place; order is score DESC with
// name ASC as the tie break, matching the database ranking contract.
func Rerank(results []models.SearchResult, query string, intent *models.QueryIntent, specialization SpecializationFn) {
	if len(results) == 0 {
		return
	}

	// Normalization baselines from this result set.
	var maxText, maxVolume float64
	for i := range results {
		if results[i].Score > maxText {
			maxText = results[i].Score
		}
		if v := logVolume(results[i].TotalCases); v > maxVolume {
			maxVolume = v
		}
	}

	for i := range results {
		r := &results[i]

		text := 0.0
		if maxText > 0 {
			text = r.Score / maxText
		}
		volume := 0.0
		if maxVolume > 0 {
			volume = logVolume(r.TotalCases) / maxVolume
		}
		spec := 0.0
		if intent != nil && intent.CaseType != "" && specialization != nil {
			spec = clamp01(specialization(r.ID, intent.CaseType))
		}

		score := weightText*text +
			weightVolume*volume +
			weightSpecialization*spec +
			weightRecency*recency(r)

		r.Score = applyIntentBoosts(score, r, query, intent, spec)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Name < results[j].Name
	})
}

func applyIntentBoosts(score float64, r *models.SearchResult, query string, intent *models.QueryIntent, spec float64) float64 {
	if intent == nil {
		return score
	}
	if intent.ExactName && strings.EqualFold(r.Name, strings.TrimSpace(query)) {
		score *= boostExactName
	}
	if intent.Location != "" && matchesLocation(r, intent.Location) {
		score *= boostLocation
	}
	if intent.CaseType != "" && spec > 0 {
		score *= boostCaseType
	}
	if intent.CharacteristicMatch {
		score *= boostCharacteristic
	}
	return score
}

// matchesLocation checks the intent location against the judge's
// county, jurisdiction, and court name.
func matchesLocation(r *models.SearchResult, location string) bool {
	loc := strings.ToLower(location)
	return strings.Contains(strings.ToLower(r.County), loc) ||
		strings.Contains(strings.ToLower(r.Jurisdiction), loc) ||
		strings.Contains(strings.ToLower(r.CourtName), loc)
}

// recency scores how current the judge's position is: 1.0 for a
// sitting judge, decaying for retired ones.
func recency(r *models.SearchResult) float64 {
	if r.PositionEnd == nil {
		return 1.0
	}
	years := timeSinceYears(*r.PositionEnd)
	switch {
	case years <= 0:
		return 1.0
	case years < 5:
		return 0.5
	default:
		return 0.2
	}
}

func logVolume(cases int64) float64 {
	if cases < 1 {
		cases = 1
	}
	return math.Log(float64(cases))
}

func timeSinceYears(t time.Time) float64 {
	return time.Since(t).Hours() / (24 * 365)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
