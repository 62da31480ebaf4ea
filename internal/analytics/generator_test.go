// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/judgefinder/judgefinder/internal/config"
	"github.com/judgefinder/judgefinder/internal/models"
)

type fakeSource struct {
	decisions []models.Decision
}

func (f *fakeSource) ListDecisions(_ context.Context, _ int64, _ time.Time) ([]models.Decision, error) {
	return f.decisions, nil
}

func testAnalyticsConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		MinSampleSize:      15,
		GoodSampleSize:     40,
		HideSampleBelowMin: true,
		Version:            2,
	}
}

// makeDecisions builds n decisions with the given outcome, decided on
// the given date.
func makeDecisions(n int, outcome, caseType string, decided time.Time) []models.Decision {
	out := make([]models.Decision, n)
	filed := decided.AddDate(0, 0, -30)
	for i := range out {
		d := decided
		f := filed
		out[i] = models.Decision{
			JudgeID:      1,
			CaseType:     caseType,
			Outcome:      outcome,
			FilingDate:   &f,
			DecisionDate: &d,
		}
	}
	return out
}

func TestGenerateSuppressesSmallSamples(t *testing.T) {
	src := &fakeSource{decisions: makeDecisions(10, OutcomeGranted, "civil", time.Now().AddDate(0, -6, 0))}
	g := NewGenerator(src, testAnalyticsConfig(), 5)

	a, err := g.Generate(context.Background(), 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.TotalCases != 10 {
		t.Errorf("TotalCases = %d, want 10", a.TotalCases)
	}
	if a.GrantRate != nil {
		t.Errorf("GrantRate = %+v, want suppressed below min sample size", a.GrantRate)
	}
}

func TestGenerateConfidenceTiers(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want models.Confidence
	}{
		{"moderate at min", 15, models.ConfidenceModerate},
		{"moderate below good", 39, models.ConfidenceModerate},
		{"high at good", 40, models.ConfidenceHigh},
		{"high above good", 200, models.ConfidenceHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{decisions: makeDecisions(tt.n, OutcomeGranted, "civil", time.Now().AddDate(0, -6, 0))}
			g := NewGenerator(src, testAnalyticsConfig(), 5)

			a, err := g.Generate(context.Background(), 1)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if a.GrantRate == nil {
				t.Fatal("GrantRate suppressed, want present")
			}
			if a.GrantRate.Confidence != tt.want {
				t.Errorf("Confidence = %q, want %q", a.GrantRate.Confidence, tt.want)
			}
			if a.GrantRate.SampleSize != int64(tt.n) {
				t.Errorf("SampleSize = %d, want %d", a.GrantRate.SampleSize, tt.n)
			}
		})
	}
}

func TestGenerateRates(t *testing.T) {
	decided := time.Now().AddDate(0, -6, 0)
	decisions := append(makeDecisions(30, OutcomeGranted, "civil", decided),
		makeDecisions(10, OutcomeDismissed, "criminal", decided)...)
	src := &fakeSource{decisions: decisions}
	g := NewGenerator(src, testAnalyticsConfig(), 5)

	a, err := g.Generate(context.Background(), 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.GrantRate == nil || a.DismissalRate == nil {
		t.Fatal("expected grant and dismissal rates with 40 outcomes")
	}
	if a.GrantRate.Rate != 0.75 {
		t.Errorf("GrantRate = %v, want 0.75", a.GrantRate.Rate)
	}
	if a.DismissalRate.Rate != 0.25 {
		t.Errorf("DismissalRate = %v, want 0.25", a.DismissalRate.Rate)
	}
	if a.CaseTypes["civil"] != 30 || a.CaseTypes["criminal"] != 10 {
		t.Errorf("CaseTypes = %v", a.CaseTypes)
	}
	if a.GrantRate.Confidence != models.ConfidenceHigh {
		t.Errorf("Confidence = %q, want high at sample 40", a.GrantRate.Confidence)
	}
}

func TestGenerateMedianAndRecent(t *testing.T) {
	now := time.Now()
	mk := func(daysToDecide int, decided time.Time) models.Decision {
		filed := decided.AddDate(0, 0, -daysToDecide)
		return models.Decision{Outcome: OutcomeGranted, FilingDate: &filed, DecisionDate: &decided}
	}
	src := &fakeSource{decisions: []models.Decision{
		mk(10, now.AddDate(0, -1, 0)),
		mk(20, now.AddDate(0, -2, 0)),
		mk(90, now.AddDate(-2, 0, 0)),
	}}
	cfg := testAnalyticsConfig()
	cfg.HideSampleBelowMin = false
	g := NewGenerator(src, cfg, 5)

	a, err := g.Generate(context.Background(), 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.MedianDecisionDays == nil || *a.MedianDecisionDays != 20 {
		t.Errorf("MedianDecisionDays = %v, want 20", a.MedianDecisionDays)
	}
	if a.RecentCases != 2 {
		t.Errorf("RecentCases = %d, want 2", a.RecentCases)
	}
}

func TestGenerateEmptyJudge(t *testing.T) {
	g := NewGenerator(&fakeSource{}, testAnalyticsConfig(), 5)

	a, err := g.Generate(context.Background(), 42)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.TotalCases != 0 || a.GrantRate != nil || a.MedianDecisionDays != nil {
		t.Errorf("empty judge produced non-empty payload: %+v", a)
	}
	if a.Version != 2 {
		t.Errorf("Version = %d, want 2", a.Version)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{[]float64{3}, 3},
		{[]float64{1, 3}, 2},
		{[]float64{5, 1, 3}, 3},
		{[]float64{4, 1, 3, 2}, 2.5},
	}
	for _, tt := range tests {
		if got := median(tt.in); got != tt.want {
			t.Errorf("median(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
