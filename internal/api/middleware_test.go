// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/judgefinder/judgefinder/internal/metrics"
)

func TestRequestMetricsRecordsRouteAndStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(RequestMetrics())
	r.Get("/api/judges/{judgeID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := metrics.APIRequestsTotal.WithLabelValues("GET", "/api/judges/{judgeID}", "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/judges/42", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	// The counter is labeled with the route template, not the raw path,
	// and with the numeric status the handler actually wrote.
	if after := testutil.ToFloat64(counter); after != before+1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestRoutePatternFallsBackToPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/unrouted", nil)
	if got := routePattern(req); got != "/unrouted" {
		t.Errorf("routePattern = %q, want raw path", got)
	}
}
