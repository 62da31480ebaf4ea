// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	syncpkg "github.com/judgefinder/judgefinder/internal/sync"
)

type fakeTrigger struct {
	result syncpkg.BatchResult
	err    error
	calls  int
}

func (f *fakeTrigger) TriggerSync(context.Context) (syncpkg.BatchResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeCacheStats struct {
	hits, misses int64
	size         int
}

func (f *fakeCacheStats) Stats() (int64, int64, int) { return f.hits, f.misses, f.size }

func newAdminTestServer(t *testing.T, trigger SyncTrigger, stats CacheStatsSource) *httptest.Server {
	t.Helper()
	cfg := testAPIConfig()
	handler := NewHandler(cfg, &fakeStore{}, &fakeAnalytics{}, nil, nil).WithAdmin(trigger, stats)
	mw := NewMiddleware(&MiddlewareConfig{
		RateLimitRequests: cfg.API.RateLimitReqs,
		RateLimitWindow:   cfg.API.RateLimitWindow,
	})
	srv := httptest.NewServer(NewRouter(handler, mw).Setup())
	t.Cleanup(srv.Close)
	return srv
}

func TestTriggerSync(t *testing.T) {
	trigger := &fakeTrigger{
		result: syncpkg.BatchResult{
			Succeeded:   []int64{1, 2, 3},
			Failed:      []syncpkg.ItemError{{ID: 4, Err: errors.New("boom")}},
			RateLimited: []int64{5},
		},
	}
	srv := newAdminTestServer(t, trigger, nil)

	resp, err := http.Post(srv.URL+"/api/admin/sync", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	envelope := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusOK || !envelope.Success {
		t.Fatalf("status = %d, envelope = %+v", resp.StatusCode, envelope)
	}
	if trigger.calls != 1 {
		t.Errorf("TriggerSync called %d times, want 1", trigger.calls)
	}

	raw, _ := json.Marshal(envelope.Data)
	var run SyncRunResponse
	if err := json.Unmarshal(raw, &run); err != nil {
		t.Fatal(err)
	}
	if run.Succeeded != 3 || run.Failed != 1 || run.RateLimited != 1 {
		t.Errorf("run = %+v", run)
	}
	if len(run.Errors) != 1 {
		t.Fatalf("Errors = %v, want one entry", run.Errors)
	}
}

func TestTriggerSyncUnavailableWithoutManager(t *testing.T) {
	srv := newAdminTestServer(t, nil, nil)

	resp, err := http.Post(srv.URL+"/api/admin/sync", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	envelope := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("error = %+v", envelope.Error)
	}
}

func TestTriggerSyncUpstreamFailure(t *testing.T) {
	trigger := &fakeTrigger{err: errors.New("courtlistener down")}
	srv := newAdminTestServer(t, trigger, nil)

	resp, err := http.Post(srv.URL+"/api/admin/sync", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	envelope := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeUpstreamFailed {
		t.Errorf("error = %+v", envelope.Error)
	}
}

func TestCacheStats(t *testing.T) {
	srv := newAdminTestServer(t, nil, &fakeCacheStats{hits: 90, misses: 10, size: 42})

	resp, err := http.Get(srv.URL + "/api/admin/cache/stats")
	if err != nil {
		t.Fatal(err)
	}
	envelope := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusOK || !envelope.Success {
		t.Fatalf("status = %d, envelope = %+v", resp.StatusCode, envelope)
	}

	stats, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T", envelope.Data)
	}
	if stats["hits"].(float64) != 90 || stats["entries"].(float64) != 42 {
		t.Errorf("stats = %+v", stats)
	}
	if rate := stats["hit_rate"].(float64); rate != 0.9 {
		t.Errorf("hit_rate = %v, want 0.9", rate)
	}
}

func TestCacheStatsUnavailable(t *testing.T) {
	srv := newAdminTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/api/admin/cache/stats")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	resp.Body.Close()
}
