// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

// Package models defines the core domain types shared across the
// store, sync, analytics, and API layers.
package models

import "time"

// Judge is a judicial officer in the directory.
//
// Judges are created by the sync manager on first discovery from the
// external source and enriched by later sync phases. They are never
// hard-deleted; a retired judge keeps its row with PositionEndDate set.
type Judge struct {
	ID           int64      `json:"id"`
	ExternalID   string     `json:"external_id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	CourtID      *int64     `json:"court_id,omitempty"`
	Jurisdiction string     `json:"jurisdiction"`
	County       string     `json:"county,omitempty"`
	TotalCases   int64      `json:"total_cases"`
	PositionEnd  *time.Time `json:"position_end,omitempty"`

	// Enrichment fields, populated asynchronously by later sync phases.
	Education            *string `json:"education,omitempty"`
	PoliticalAffiliation *string `json:"political_affiliation,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Retired reports whether the judge's current position has ended.
func (j *Judge) Retired() bool {
	return j.PositionEnd != nil && j.PositionEnd.Before(time.Now())
}

// CourtType classifies a court by level of government.
type CourtType string

const (
	CourtTypeFederal CourtType = "federal"
	CourtTypeState   CourtType = "state"
	CourtTypeLocal   CourtType = "local"
)

// Court is a court in the directory. Many judges map to one court;
// JudgeCount is denormalized and maintained by the court sync manager.
type Court struct {
	ID           int64     `json:"id"`
	ExternalID   string    `json:"external_id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Type         CourtType `json:"type"`
	Jurisdiction string    `json:"jurisdiction"`
	County       string    `json:"county,omitempty"`
	JudgeCount   int       `json:"judge_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Decision is a single case decision attributed to exactly one judge.
//
// Invariant: DecisionDate >= FilingDate when both are present. Rows
// violating the invariant are flagged at upsert, not dropped.
type Decision struct {
	ID           int64      `json:"id"`
	ExternalID   string     `json:"external_id"`
	JudgeID      int64      `json:"judge_id"`
	CaseType     string     `json:"case_type"`
	Outcome      string     `json:"outcome"`
	FilingDate   *time.Time `json:"filing_date,omitempty"`
	DecisionDate *time.Time `json:"decision_date,omitempty"`
	Value        float64    `json:"value,omitempty"`
	Flagged      bool       `json:"flagged,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DatesConsistent reports whether the filing/decision date invariant holds.
func (d *Decision) DatesConsistent() bool {
	if d.FilingDate == nil || d.DecisionDate == nil {
		return true
	}
	return !d.DecisionDate.Before(*d.FilingDate)
}
