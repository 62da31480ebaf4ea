// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package analytics

import (
	"testing"

	"github.com/judgefinder/judgefinder/internal/models"
)

var nextID int64

func result(name string, score float64, cases int64) models.SearchResult {
	nextID++
	return models.SearchResult{
		Judge: models.Judge{ID: nextID, Name: name, TotalCases: cases},
		Score: score,
	}
}

func TestRerankKeepsTextRelevanceDominant(t *testing.T) {
	results := []models.SearchResult{
		result("Low Relevance", 100, 10000),
		result("High Relevance", 1000, 10),
	}

	Rerank(results, "query", nil, nil)

	if results[0].Name != "High Relevance" {
		t.Errorf("first = %q, text relevance should outweigh volume", results[0].Name)
	}
}

func TestRerankExactNameBoost(t *testing.T) {
	results := []models.SearchResult{
		result("Maria Lopez Garcia", 900, 500),
		result("Maria Lopez", 800, 500),
	}
	intent := &models.QueryIntent{ExactName: true}

	Rerank(results, "Maria Lopez", intent, nil)

	if results[0].Name != "Maria Lopez" {
		t.Errorf("first = %q, exact-name boost should win", results[0].Name)
	}
}

func TestRerankLocationBoost(t *testing.T) {
	la := result("Judge A", 500, 100)
	la.County = "Los Angeles"
	sf := result("Judge B", 500, 100)
	sf.County = "San Francisco"

	results := []models.SearchResult{sf, la}
	intent := &models.QueryIntent{Location: "los angeles"}

	Rerank(results, "judge", intent, nil)

	if results[0].County != "Los Angeles" {
		t.Errorf("first county = %q, location boost should win", results[0].County)
	}
}

func TestRerankCaseTypeBoostUsesSpecialization(t *testing.T) {
	specialist := result("Specialist", 500, 100)
	generalist := result("Generalist", 500, 100)
	results := []models.SearchResult{generalist, specialist}

	intent := &models.QueryIntent{CaseType: "family"}
	spec := func(judgeID int64, caseType string) float64 {
		if judgeID == specialist.ID && caseType == "family" {
			return 0.8
		}
		return 0
	}

	Rerank(results, "judge", intent, spec)

	if results[0].Name != "Specialist" {
		t.Errorf("first = %q, case-type specialization should win", results[0].Name)
	}
}

func TestRerankStableTieBreakByName(t *testing.T) {
	results := []models.SearchResult{
		result("Beta", 500, 100),
		result("Alpha", 500, 100),
	}

	Rerank(results, "judge", nil, nil)

	if results[0].Name != "Alpha" {
		t.Errorf("first = %q, equal scores must order by name", results[0].Name)
	}
}

func TestRerankEmptyAndNilSafe(t *testing.T) {
	Rerank(nil, "q", nil, nil)
	Rerank([]models.SearchResult{}, "q", &models.QueryIntent{ExactName: true}, nil)
}

func TestClamp01(t *testing.T) {
	if clamp01(-1) != 0 || clamp01(2) != 1 || clamp01(0.5) != 0.5 {
		t.Error("clamp01 out of contract")
	}
}
