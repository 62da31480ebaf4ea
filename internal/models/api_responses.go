// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package models

import "time"

// SearchResult is one ranked judge row returned by the search endpoint.
type SearchResult struct {
	Judge
	Score     float64 `json:"score"`
	CourtName string  `json:"court_name,omitempty"`
	Headline  string  `json:"headline,omitempty"`
}

// SearchResponse is the payload of GET /api/judges/search.
type SearchResponse struct {
	Results    []SearchResult `json:"results"`
	TotalCount int64          `json:"total_count"`
	AIInsights *QueryIntent   `json:"ai_insights,omitempty"`
}

// Analytics data sources, reported so clients (and tests) can tell
// which tier answered.
const (
	DataSourceMemoryCache   = "memory_cache"
	DataSourceRedisCache    = "redis_cache"
	DataSourceDatabaseCache = "database_cache"
	DataSourceCaseAnalysis  = "case_analysis"
)

// AnalyticsResponse is the payload of GET /api/judges/{id}/analytics.
type AnalyticsResponse struct {
	Analytics   *JudgeAnalytics `json:"analytics"`
	Cached      bool            `json:"cached"`
	DataSource  string          `json:"data_source"`
	LastUpdated time.Time       `json:"last_updated"`
	Debug       *AnalyticsDebug `json:"debug,omitempty"`
}

// AnalyticsDebug carries tier diagnostics, exposed only with ?debug=true.
type AnalyticsDebug struct {
	Tier     string `json:"tier"`
	WasStale bool   `json:"was_stale"`
}

// HealthStatus is the payload of GET /api/health.
type HealthStatus struct {
	Status string                 `json:"status"` // healthy, degraded, unhealthy
	Checks map[string]HealthCheck `json:"checks"`
	Uptime float64                `json:"uptime_seconds"`
}

// HealthCheck is one dependency probe inside HealthStatus.
type HealthCheck struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}
