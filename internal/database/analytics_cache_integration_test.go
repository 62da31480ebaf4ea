// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/judgefinder/judgefinder/internal/testinfra"
)

func TestPruneAnalyticsCacheVersionsPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := newIntegrationStore(t, ctx)

	now := time.Now()
	rows := map[string][]byte{
		"analytics:v1:judge:7": []byte(`{"stale":true}`),
		"analytics:v2:judge:7": []byte(`{"stale":false}`),
		"analytics:v2:judge:8": []byte(`{"stale":false}`),
	}
	for key, payload := range rows {
		if err := store.PutCacheRow(ctx, key, payload, now, []string{"judge:7"}); err != nil {
			t.Fatalf("PutCacheRow(%s): %v", key, err)
		}
	}

	removed, err := store.PruneAnalyticsCacheVersions(ctx, 2)
	if err != nil {
		t.Fatalf("PruneAnalyticsCacheVersions: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, _, ok, err := store.GetCacheRow(ctx, "analytics:v1:judge:7"); err != nil || ok {
		t.Errorf("v1 row survived the prune (ok=%v, err=%v)", ok, err)
	}
	for _, key := range []string{"analytics:v2:judge:7", "analytics:v2:judge:8"} {
		if _, _, ok, err := store.GetCacheRow(ctx, key); err != nil || !ok {
			t.Errorf("current-version row %s missing after prune (ok=%v, err=%v)", key, ok, err)
		}
	}

	// Running again against an already-clean table is a no-op.
	removed, err = store.PruneAnalyticsCacheVersions(ctx, 2)
	if err != nil {
		t.Fatalf("PruneAnalyticsCacheVersions rerun: %v", err)
	}
	if removed != 0 {
		t.Errorf("rerun removed = %d, want 0", removed)
	}
}
