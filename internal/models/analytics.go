// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package models

import "time"

// Confidence labels how trustworthy an automatically derived value is.
type Confidence string

const (
	ConfidenceLow      Confidence = "low"
	ConfidenceModerate Confidence = "moderate"
	ConfidenceHigh     Confidence = "high"
)

// Metric is a single analytics measurement with its sample size and
// confidence tier. Metrics whose sample size falls below the configured
// minimum are omitted from the payload entirely rather than shown as a
// low-confidence number.
type Metric struct {
	Rate       float64    `json:"rate"`
	SampleSize int64      `json:"sample_size"`
	Confidence Confidence `json:"confidence"`
}

// JudgeAnalytics is the computed analytics payload for one judge.
//
// The struct is explicitly versioned (Version = analytics_version in the
// store) so the schema can evolve additively. All metric fields are
// optional pointers: nil means suppressed or not computable.
type JudgeAnalytics struct {
	JudgeID    int64 `json:"judge_id"`
	Version    int   `json:"analytics_version"`
	TotalCases int64 `json:"total_cases"`

	// Per-outcome metrics, each independently suppressible.
	GrantRate      *Metric `json:"grant_rate,omitempty"`
	DismissalRate  *Metric `json:"dismissal_rate,omitempty"`
	SettlementRate *Metric `json:"settlement_rate,omitempty"`
	AppealRate     *Metric `json:"appeal_rate,omitempty"`

	// CaseTypes maps case type to decision count over the lookback window.
	CaseTypes map[string]int64 `json:"case_types,omitempty"`

	// MedianDecisionDays is the median filing-to-decision duration.
	MedianDecisionDays *float64 `json:"median_decision_days,omitempty"`

	// RecentCases counts decisions within the last year.
	RecentCases int64 `json:"recent_cases"`

	GeneratedAt time.Time `json:"generated_at"`
}

// QueryIntent is metadata derived by an upstream query-intent classifier.
// It is consumed as input to composite scoring; this service never
// produces it.
type QueryIntent struct {
	ExactName           bool   `json:"exact_name"`
	Location            string `json:"location,omitempty"`
	CaseType            string `json:"case_type,omitempty"`
	CharacteristicMatch bool   `json:"characteristic_match,omitempty"`
}

// SyncPhase identifies a step in the per-judge enrichment pipeline.
type SyncPhase string

const (
	PhaseDiscovered      SyncPhase = "discovered"
	PhasePositionsSynced SyncPhase = "positions_synced"
	PhaseEducationSynced SyncPhase = "education_synced"
	PhaseCasesSynced     SyncPhase = "cases_synced"
	PhaseAnalyticsReady  SyncPhase = "analytics_ready"
)

// SyncProgress tracks which enrichment phases have completed for a judge.
// Phases are independent and individually retryable; IsAnalyticsReady
// flips once the case count crosses the configured minimum.
type SyncProgress struct {
	JudgeID                  int64      `json:"judge_id"`
	HasPositions             bool       `json:"has_positions"`
	HasEducation             bool       `json:"has_education"`
	HasPoliticalAffiliations bool       `json:"has_political_affiliations"`
	OpinionsCount            int64      `json:"opinions_count"`
	DocketsCount             int64      `json:"dockets_count"`
	IsAnalyticsReady         bool       `json:"is_analytics_ready"`
	SyncPhase                SyncPhase  `json:"sync_phase"`
	LastSyncedAt             *time.Time `json:"last_synced_at,omitempty"`
	ErrorCount               int        `json:"error_count"`
	LastError                string     `json:"last_error,omitempty"`
}
