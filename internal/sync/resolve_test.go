// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package sync

import (
	"context"
	"testing"

	"github.com/judgefinder/judgefinder/internal/courtlistener"
	"github.com/judgefinder/judgefinder/internal/models"
)

func TestResolvePrefersExternalID(t *testing.T) {
	store := newMockStore()
	court, _ := store.UpsertCourt(context.Background(), &models.Court{
		ExternalID: "lasup",
		Name:       "Superior Court of California, County of Los Angeles",
		County:     "Los Angeles",
	})

	cr := &courtResolver{store: store, threshold: 0.3}
	res := cr.Resolve(context.Background(), &models.Judge{Jurisdiction: "CA"}, &courtlistener.Position{
		CourtID: "lasup",
		Court:   "some other name entirely",
	})

	if res.Method != resolveByExternalID {
		t.Fatalf("Method = %q, want %q", res.Method, resolveByExternalID)
	}
	if res.CourtID == nil || *res.CourtID != court.ID {
		t.Errorf("CourtID = %v, want %d", res.CourtID, court.ID)
	}
	if res.Confidence != models.ConfidenceHigh {
		t.Errorf("Confidence = %q, want high", res.Confidence)
	}
	if res.County != "Los Angeles" {
		t.Errorf("County = %q", res.County)
	}
}

func TestResolveFallsBackToNameMatch(t *testing.T) {
	store := newMockStore()
	court, _ := store.UpsertCourt(context.Background(), &models.Court{
		ExternalID: "sfsup",
		Name:       "Superior Court of San Francisco",
		County:     "San Francisco",
	})

	cr := &courtResolver{store: store, threshold: 0.3}
	res := cr.Resolve(context.Background(), &models.Judge{Jurisdiction: "CA"}, &courtlistener.Position{
		CourtID: "unknown-id",
		Court:   "Superior Court of San Francisco",
	})

	if res.Method != resolveByName {
		t.Fatalf("Method = %q, want %q", res.Method, resolveByName)
	}
	if res.CourtID == nil || *res.CourtID != court.ID {
		t.Errorf("CourtID = %v, want %d", res.CourtID, court.ID)
	}
	if res.Confidence != models.ConfidenceModerate {
		t.Errorf("Confidence = %q, want moderate", res.Confidence)
	}
}

func TestResolveKeepsStoredCourt(t *testing.T) {
	store := newMockStore()
	stored := int64(42)

	cr := &courtResolver{store: store, threshold: 0.3}
	res := cr.Resolve(context.Background(), &models.Judge{Jurisdiction: "CA", CourtID: &stored, County: "Orange"},
		&courtlistener.Position{Court: "no such court"})

	if res.Method != resolveByStored {
		t.Fatalf("Method = %q, want %q", res.Method, resolveByStored)
	}
	if res.CourtID == nil || *res.CourtID != stored {
		t.Errorf("CourtID = %v, want 42", res.CourtID)
	}
	if res.County != "Orange" {
		t.Errorf("County = %q, want Orange", res.County)
	}
}

func TestResolveCountyTextLastResort(t *testing.T) {
	cr := &courtResolver{store: newMockStore(), threshold: 0.3}
	res := cr.Resolve(context.Background(), &models.Judge{Jurisdiction: "CA"}, &courtlistener.Position{
		Location: "Sacramento County Courthouse",
	})

	if res.Method != resolveByCountyText {
		t.Fatalf("Method = %q, want %q", res.Method, resolveByCountyText)
	}
	if res.CourtID != nil {
		t.Errorf("county text extraction must not invent a court id, got %v", *res.CourtID)
	}
	if res.County != "Sacramento" {
		t.Errorf("County = %q, want Sacramento", res.County)
	}
	if res.Confidence != models.ConfidenceLow {
		t.Errorf("Confidence = %q, want low", res.Confidence)
	}
}

func TestResolveUnresolved(t *testing.T) {
	cr := &courtResolver{store: newMockStore(), threshold: 0.3}
	res := cr.Resolve(context.Background(), &models.Judge{Jurisdiction: "CA"}, nil)

	if res.Method != resolveNone {
		t.Fatalf("Method = %q, want %q", res.Method, resolveNone)
	}
	if res.CourtID != nil || res.County != "" {
		t.Errorf("unresolved must carry nothing: %+v", res)
	}
}

func TestExtractCounty(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Superior Court of California, County of Los Angeles", "Los Angeles"},
		{"San Diego County Superior Court", "San Diego"},
		{"Sacramento County Courthouse, Dept 14", "Sacramento"},
		{"County of Santa Clara", "Santa Clara"},
		{"United States District Court", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractCounty(tt.text); got != tt.want {
			t.Errorf("extractCounty(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
