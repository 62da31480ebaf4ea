// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package sync

import (
	"testing"
	"time"

	"github.com/judgefinder/judgefinder/internal/courtlistener"
	"github.com/judgefinder/judgefinder/internal/models"
)

func TestNormalizeCaseType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Criminal - Felony", "criminal"},
		{"Child Custody", "family"},
		{"Divorce Proceedings", "family"},
		{"Estate of Smith", "probate"},
		{"Contract Dispute", "civil"},
		{"Personal Injury Tort", "civil"},
		{"Civil Rights", "civil"},
		{"Something Unclassifiable", "other"},
		{"", "other"},
	}
	for _, tt := range tests {
		if got := normalizeCaseType(tt.in); got != tt.want {
			t.Errorf("normalizeCaseType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeOutcome(t *testing.T) {
	tests := []struct {
		name        string
		terminated  string
		disposition string
		want        string
	}{
		{"open case has no outcome", "", "motion granted", ""},
		{"granted", "2023-06-01", "Motion granted in part", "granted"},
		{"dismissed", "2023-06-01", "Dismissed with prejudice", "dismissed"},
		{"settled", "2023-06-01", "Case settled", "settled"},
		{"appealed", "2023-06-01", "Judgment appealed", "appealed"},
		{"denied", "2023-06-01", "Petition denied", "denied"},
		{"unknown disposition", "2023-06-01", "transferred", ""},
		{"empty disposition", "2023-06-01", "", ""},
	}
	for _, tt := range tests {
		d := &courtlistener.Docket{DateTerminated: tt.terminated, Disposition: tt.disposition}
		if got := normalizeOutcome(d); got != tt.want {
			t.Errorf("%s: normalizeOutcome = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	if got := parseDate(""); got != nil {
		t.Errorf("empty date = %v, want nil", got)
	}
	if got := parseDate("not-a-date"); got != nil {
		t.Errorf("malformed date = %v, want nil", got)
	}
	got := parseDate("2023-04-15")
	if got == nil || !got.Equal(time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("parseDate = %v", got)
	}
}

func TestLatestPosition(t *testing.T) {
	if latestPosition(nil) != nil {
		t.Error("no positions should yield nil")
	}
	positions := []courtlistener.Position{
		{Court: "old", DateStart: "2001-01-01"},
		{Court: "newest", DateStart: "2019-06-01"},
		{Court: "middle", DateStart: "2010-01-01"},
	}
	if got := latestPosition(positions); got.Court != "newest" {
		t.Errorf("latestPosition = %q, want newest", got.Court)
	}

	// An open seat beats a newer but terminated one.
	positions = []courtlistener.Position{
		{Court: "current", DateStart: "2012-01-01"},
		{Court: "terminated", DateStart: "2020-01-01", DateTermination: "2023-01-01"},
	}
	if got := latestPosition(positions); got.Court != "current" {
		t.Errorf("latestPosition = %q, want the active position", got.Court)
	}

	// All terminated: most recent wins.
	positions = []courtlistener.Position{
		{Court: "a", DateStart: "2000-01-01", DateTermination: "2005-01-01"},
		{Court: "b", DateStart: "2006-01-01", DateTermination: "2015-01-01"},
	}
	if got := latestPosition(positions); got.Court != "b" {
		t.Errorf("latestPosition = %q, want most recent terminated", got.Court)
	}
}

func TestFormatEducation(t *testing.T) {
	educations := []courtlistener.Education{
		{School: courtlistener.School{Name: "Stanford Law School"}, Degree: "J.D.", DegreeYear: 1994},
		{School: courtlistener.School{Name: "UCLA"}, Degree: "B.A.", DegreeYear: 1991},
		{School: courtlistener.School{}, Degree: "LL.M."},
		{School: courtlistener.School{Name: "Night School"}},
	}
	want := "J.D., Stanford Law School (1994); B.A., UCLA (1991); Night School"
	if got := formatEducation(educations); got != want {
		t.Errorf("formatEducation = %q, want %q", got, want)
	}
	if got := formatEducation(nil); got != "" {
		t.Errorf("formatEducation(nil) = %q", got)
	}
}

func TestLatestAffiliation(t *testing.T) {
	affiliations := []courtlistener.PoliticalAffiliation{
		{PoliticalParty: "r", DateStart: "1990-01-01"},
		{PoliticalParty: "d", DateStart: "2005-01-01"},
		{PoliticalParty: "", DateStart: "2020-01-01"},
	}
	if got := latestAffiliation(affiliations); got != "d" {
		t.Errorf("latestAffiliation = %q, want d", got)
	}
	if got := latestAffiliation(nil); got != "" {
		t.Errorf("latestAffiliation(nil) = %q", got)
	}
}

func TestDecisionFromDocket(t *testing.T) {
	d := decisionFromDocket(7, &courtlistener.Docket{
		ID:             900,
		NatureOfSuit:   "Contract",
		DateFiled:      "2023-01-10",
		DateTerminated: "2023-03-10",
		Disposition:    "settled",
	})
	if d.ExternalID != "docket-900" {
		t.Errorf("ExternalID = %q", d.ExternalID)
	}
	if d.JudgeID != 7 || d.CaseType != "civil" || d.Outcome != "settled" {
		t.Errorf("decision = %+v", d)
	}
	if d.FilingDate == nil || d.DecisionDate == nil {
		t.Error("dates should be parsed")
	}
}

func TestCourtType(t *testing.T) {
	tests := []struct {
		jurisdiction string
		want         models.CourtType
	}{
		{"F", models.CourtTypeFederal},
		{"FD", models.CourtTypeFederal},
		{"S", models.CourtTypeState},
		{"SA", models.CourtTypeState},
		{"C", models.CourtTypeLocal},
		{"", models.CourtTypeLocal},
	}
	for _, tt := range tests {
		if got := courtType(tt.jurisdiction); got != tt.want {
			t.Errorf("courtType(%q) = %q, want %q", tt.jurisdiction, got, tt.want)
		}
	}
}
