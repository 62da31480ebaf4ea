// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

// Package analytics computes per-judge ruling statistics and the
// composite relevance score used to rank search results.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/judgefinder/judgefinder/internal/config"
	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/models"
)

// Outcome values recognized by the generator. Anything else counts
// toward totals but not toward a rate metric.
const (
	OutcomeGranted   = "granted"
	OutcomeDenied    = "denied"
	OutcomeDismissed = "dismissed"
	OutcomeSettled   = "settled"
	OutcomeAppealed  = "appealed"
)

// DecisionSource supplies the raw decisions behind a judge's
// analytics.
type DecisionSource interface {
	ListDecisions(ctx context.Context, judgeID int64, since time.Time) ([]models.Decision, error)
}

// Generator derives JudgeAnalytics from stored decisions.
//
// Suppression policy: a rate metric whose sample size falls below
// MinSampleSize is omitted entirely (nil) when HideSampleBelowMin is
// set. Publishing "33% grant rate" off three cases misleads more than
// it informs.
type Generator struct {
	source        DecisionSource
	cfg           config.AnalyticsConfig
	lookbackYears int

	// now is swapped in tests.
	now func() time.Time
}

// NewGenerator builds a generator reading decisions from source.
func NewGenerator(source DecisionSource, cfg config.AnalyticsConfig, lookbackYears int) *Generator {
	if lookbackYears <= 0 {
		lookbackYears = 5
	}
	return &Generator{
		source:        source,
		cfg:           cfg,
		lookbackYears: lookbackYears,
		now:           time.Now,
	}
}

// Generate computes the analytics payload for one judge over the
// lookback window. A judge with no decisions yields a valid payload
// with zero totals, not an error.
func (g *Generator) Generate(ctx context.Context, judgeID int64) (*models.JudgeAnalytics, error) {
	now := g.now()
	since := now.AddDate(-g.lookbackYears, 0, 0)

	decisions, err := g.source.ListDecisions(ctx, judgeID, since)
	if err != nil {
		return nil, err
	}

	a := &models.JudgeAnalytics{
		JudgeID:     judgeID,
		Version:     g.cfg.Version,
		TotalCases:  int64(len(decisions)),
		GeneratedAt: now,
	}

	outcomes := make(map[string]int64)
	caseTypes := make(map[string]int64)
	var decisionDays []float64
	yearAgo := now.AddDate(-1, 0, 0)

	for i := range decisions {
		d := &decisions[i]
		if d.Outcome != "" {
			outcomes[d.Outcome]++
		}
		if d.CaseType != "" {
			caseTypes[d.CaseType]++
		}
		if d.FilingDate != nil && d.DecisionDate != nil {
			decisionDays = append(decisionDays, d.DecisionDate.Sub(*d.FilingDate).Hours()/24)
		}
		if d.DecisionDate != nil && d.DecisionDate.After(yearAgo) {
			a.RecentCases++
		}
	}

	var withOutcome int64
	for _, n := range outcomes {
		withOutcome += n
	}

	a.GrantRate = g.metric(outcomes[OutcomeGranted], withOutcome)
	a.DismissalRate = g.metric(outcomes[OutcomeDismissed], withOutcome)
	a.SettlementRate = g.metric(outcomes[OutcomeSettled], withOutcome)
	a.AppealRate = g.metric(outcomes[OutcomeAppealed], withOutcome)

	if len(caseTypes) > 0 {
		a.CaseTypes = caseTypes
	}
	if len(decisionDays) > 0 {
		m := median(decisionDays)
		a.MedianDecisionDays = &m
	}

	logging.Ctx(ctx).Debug().
		Int64("judge_id", judgeID).
		Int64("total_cases", a.TotalCases).
		Int64("with_outcome", withOutcome).
		Msg("analytics generated")

	return a, nil
}

// metric builds one rate metric, applying the suppression policy.
func (g *Generator) metric(count, sample int64) *models.Metric {
	if sample == 0 {
		return nil
	}
	if sample < int64(g.cfg.MinSampleSize) && g.cfg.HideSampleBelowMin {
		return nil
	}
	return &models.Metric{
		Rate:       float64(count) / float64(sample),
		SampleSize: sample,
		Confidence: g.confidence(sample),
	}
}

func (g *Generator) confidence(sample int64) models.Confidence {
	switch {
	case sample >= int64(g.cfg.GoodSampleSize):
		return models.ConfidenceHigh
	case sample >= int64(g.cfg.MinSampleSize):
		return models.ConfidenceModerate
	default:
		return models.ConfidenceLow
	}
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
