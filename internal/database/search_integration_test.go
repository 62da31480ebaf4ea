// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

//go:build integration

package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/judgefinder/judgefinder/internal/config"
	"github.com/judgefinder/judgefinder/internal/models"
	"github.com/judgefinder/judgefinder/internal/testinfra"
)

// newIntegrationStore starts a throwaway Postgres container, connects a
// Store to it and applies the schema. The container and pool are torn
// down with the test.
func newIntegrationStore(t *testing.T, ctx context.Context) *Store {
	t.Helper()

	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { testinfra.CleanupContainer(t, context.Background(), pg) })

	store, err := New(ctx, &config.DatabaseConfig{
		URL:             pg.URL,
		MaxConns:        4,
		MinConns:        1,
		ConnMaxLifetime: time.Hour,
		QueryTimeout:    30 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to connect store: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.InitSchema(ctx); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}
	return store
}

// seedSearchFixtures loads a small roster with one judge per ranking
// tier for the query "maria lopez", plus an out-of-state judge for the
// jurisdiction filter. Case counts rise as tiers fall so the activity
// bonus cannot mask a tier inversion.
func seedSearchFixtures(t *testing.T, ctx context.Context, s *Store) {
	t.Helper()

	la, err := s.UpsertCourt(ctx, &models.Court{
		ExternalID:   "cal-lasc",
		Name:         "Los Angeles County Superior Court",
		Slug:         "los-angeles-county-superior-court",
		Type:         models.CourtTypeLocal,
		Jurisdiction: "CA",
		County:       "Los Angeles",
	})
	if err != nil {
		t.Fatalf("Failed to upsert LA court: %v", err)
	}
	santaMaria, err := s.UpsertCourt(ctx, &models.Court{
		ExternalID:   "cal-smsc",
		Name:         "Santa Maria Superior Court",
		Slug:         "santa-maria-superior-court",
		Type:         models.CourtTypeLocal,
		Jurisdiction: "CA",
		County:       "Santa Barbara",
	})
	if err != nil {
		t.Fatalf("Failed to upsert Santa Maria court: %v", err)
	}
	ny, err := s.UpsertCourt(ctx, &models.Court{
		ExternalID:   "ny-sc",
		Name:         "New York Supreme Court",
		Slug:         "new-york-supreme-court",
		Type:         models.CourtTypeState,
		Jurisdiction: "NY",
	})
	if err != nil {
		t.Fatalf("Failed to upsert NY court: %v", err)
	}

	judges := []struct {
		externalID   string
		name         string
		slug         string
		courtID      int64
		jurisdiction string
		totalCases   int64
	}{
		{"j-exact", "Maria Lopez", "maria-lopez", la.ID, "CA", 3},
		{"j-prefix", "Maria Lopez-Garcia", "maria-lopez-garcia", la.ID, "CA", 5000},
		{"j-word", "Ana Maria Lopez", "ana-maria-lopez", la.ID, "CA", 9000},
		{"j-substr", "Rosemaria Lopez", "rosemaria-lopez", santaMaria.ID, "CA", 12000},
		{"j-substr2", "Josemaria Ruiz", "josemaria-ruiz", la.ID, "CA", 20000},
		{"j-ny", "Mario Lopez", "mario-lopez", ny.ID, "NY", 15000},
	}
	for _, jf := range judges {
		courtID := jf.courtID
		stored, err := s.UpsertJudge(ctx, &models.Judge{
			ExternalID:   jf.externalID,
			Name:         jf.name,
			Slug:         jf.slug,
			CourtID:      &courtID,
			Jurisdiction: jf.jurisdiction,
		})
		if err != nil {
			t.Fatalf("Failed to upsert judge %s: %v", jf.name, err)
		}
		// UpsertJudge never writes total_cases, set it directly.
		if _, err := s.pool.Exec(ctx,
			`UPDATE judges SET total_cases = $1 WHERE id = $2`, jf.totalCases, stored.ID); err != nil {
			t.Fatalf("Failed to set total_cases for %s: %v", jf.name, err)
		}
	}
}

// rankOf returns the position of a judge name in the result page, or
// -1 when absent.
func rankOf(results []models.SearchResult, name string) int {
	for i, r := range results {
		if r.Name == name {
			return i
		}
	}
	return -1
}

func TestSearchJudgesPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := newIntegrationStore(t, ctx)
	seedSearchFixtures(t, ctx, store)

	search := func(t *testing.T, p SearchParams) []models.SearchResult {
		t.Helper()
		if p.TrigramThreshold == 0 {
			p.TrigramThreshold = 0.3
		}
		if p.Limit == 0 {
			p.Limit = 20
		}
		results, _, err := store.SearchJudges(ctx, p)
		if err != nil {
			t.Fatalf("SearchJudges: %v", err)
		}
		return results
	}

	t.Run("exact name outranks every partial match", func(t *testing.T) {
		results := search(t, SearchParams{Query: "maria lopez"})
		if len(results) == 0 {
			t.Fatal("no results for maria lopez")
		}
		if results[0].Name != "Maria Lopez" {
			t.Errorf("top result = %q, want exact match Maria Lopez", results[0].Name)
		}
		if !strings.Contains(results[0].Headline, "<mark>") {
			t.Errorf("headline %q carries no highlight", results[0].Headline)
		}
	})

	t.Run("tiers hold when lower tiers have more cases", func(t *testing.T) {
		results := search(t, SearchParams{Query: "maria lopez"})
		order := []string{"Maria Lopez", "Maria Lopez-Garcia", "Ana Maria Lopez", "Rosemaria Lopez"}
		prev := -1
		for _, name := range order {
			idx := rankOf(results, name)
			if idx < 0 {
				t.Fatalf("%s missing from results", name)
			}
			if idx <= prev {
				t.Errorf("%s ranked at %d, want below its tier predecessor", name, idx)
			}
			prev = idx
		}
	})

	t.Run("jurisdiction filters rows instead of boosting them", func(t *testing.T) {
		results := search(t, SearchParams{Query: "lopez", Jurisdiction: "CA"})
		if idx := rankOf(results, "Mario Lopez"); idx >= 0 {
			t.Errorf("NY judge Mario Lopez present at %d under CA filter", idx)
		}
		if len(results) == 0 {
			t.Fatal("CA filter returned nothing")
		}

		results = search(t, SearchParams{Query: "lopez", Jurisdiction: "NY"})
		if len(results) != 1 || results[0].Name != "Mario Lopez" {
			t.Errorf("NY filter returned %d results, want only Mario Lopez", len(results))
		}
	})

	t.Run("court name containing the query lifts within a tier", func(t *testing.T) {
		// Both are substring hits for "maria"; only Rosemaria sits at a
		// court whose name carries the query.
		results := search(t, SearchParams{Query: "maria"})
		rose := rankOf(results, "Rosemaria Lopez")
		jose := rankOf(results, "Josemaria Ruiz")
		if rose < 0 || jose < 0 {
			t.Fatalf("substring judges missing: rose=%d jose=%d", rose, jose)
		}
		if rose > jose {
			t.Errorf("Rosemaria at %d below Josemaria at %d despite court-name match", rose, jose)
		}
	})

	t.Run("empty query lists most active judges", func(t *testing.T) {
		results, total, err := store.SearchJudges(ctx, SearchParams{Limit: 20, TrigramThreshold: 0.3})
		if err != nil {
			t.Fatalf("SearchJudges: %v", err)
		}
		if total != 6 {
			t.Errorf("total = %d, want 6", total)
		}
		want := []string{"Josemaria Ruiz", "Mario Lopez", "Rosemaria Lopez"}
		for i, name := range want {
			if i >= len(results) || results[i].Name != name {
				t.Fatalf("browse order mismatch at %d: got %v, want %v first", i, resultNames(results), want)
			}
		}
	})

	t.Run("empty query honors the jurisdiction filter", func(t *testing.T) {
		results, total, err := store.SearchJudges(ctx,
			SearchParams{Jurisdiction: "NY", Limit: 20, TrigramThreshold: 0.3})
		if err != nil {
			t.Fatalf("SearchJudges: %v", err)
		}
		if total != 1 || len(results) != 1 || results[0].Name != "Mario Lopez" {
			t.Errorf("NY browse = %v (total %d), want only Mario Lopez", resultNames(results), total)
		}
	})
}

func resultNames(results []models.SearchResult) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	return names
}
