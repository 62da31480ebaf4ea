// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

// Package main is the operational batch-sync CLI.
//
// Dry-run by default: without --execute it reports which judges would
// be synced and exits. With --execute it runs one enrichment batch
// against CourtListener, honoring the shared hourly quota.
//
//	judgefinder-sync --limit 25 --execute
//	judgefinder-sync --courts --execute          # refresh court list first
//	judgefinder-sync --fail-fast --execute       # stop instead of waiting on quota
//
// Exit code 0 when the batch completes (rate-limited deferrals are
// not failures), 1 on configuration or batch errors.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/judgefinder/judgefinder/internal/config"
	"github.com/judgefinder/judgefinder/internal/courtlistener"
	"github.com/judgefinder/judgefinder/internal/database"
	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/ratelimit"
	syncpkg "github.com/judgefinder/judgefinder/internal/sync"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		limit    = flag.Int("limit", 0, "max judges in this batch (0 = configured batch size)")
		execute  = flag.Bool("execute", false, "actually sync; default is a dry run")
		courts   = flag.Bool("courts", false, "refresh the court list before syncing judges")
		failFast = flag.Bool("fail-fast", false, "fail on quota exhaustion instead of waiting for the window")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		return 1
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := database.New(ctx, &cfg.Database)
	if err != nil {
		logging.Error().Err(err).Msg("connect database")
		return 1
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		logging.Error().Err(err).Msg("init schema")
		return 1
	}

	batchSize := cfg.Sync.BatchSize
	if *limit > 0 {
		batchSize = *limit
	}

	ids, err := store.ListJudgeIDs(ctx, batchSize)
	if err != nil {
		logging.Error().Err(err).Msg("list judges")
		return 1
	}

	if !*execute {
		logging.Info().
			Int("judges", len(ids)).
			Bool("courts", *courts).
			Msg("dry run, pass --execute to sync")
		return 0
	}

	mode := courtlistener.WaitForBudget
	if *failFast {
		mode = courtlistener.FailFast
	}

	// With Redis the CLI shares the hourly quota with any running
	// server. The in-memory fallback only sees this process, so keep
	// CLI batches small when the server is syncing too.
	var quota ratelimit.Quota = ratelimit.NewMemoryQuota(cfg.CourtListener.HourlyQuota)
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logging.Error().Err(err).Msg("parse redis url")
			return 1
		}
		client := redis.NewClient(opts)
		defer client.Close()
		quota = ratelimit.NewRedisQuota(client, cfg.CourtListener.HourlyQuota)
	}
	client := courtlistener.NewCircuitBreakerClient(
		courtlistener.NewClient(&cfg.CourtListener, quota, mode))

	manager := syncpkg.NewManager(cfg, store, client, nil)

	if *courts {
		result, err := manager.SyncCourts(ctx, "")
		if err != nil {
			logging.Error().Err(err).Msg("court sync failed")
			return 1
		}
		logging.Info().
			Int("succeeded", len(result.Succeeded)).
			Int("failed", len(result.Failed)).
			Msg("court sync complete")
	}

	result := manager.SyncJudges(ctx, ids)
	logging.Info().
		Int("succeeded", len(result.Succeeded)).
		Int("failed", len(result.Failed)).
		Int("rate_limited", len(result.RateLimited)).
		Msg("judge sync complete")

	for _, f := range result.Failed {
		logging.Warn().Int64("judge_id", f.ID).Err(f.Err).Msg("judge sync failed")
	}

	if len(result.Failed) > 0 {
		return 1
	}
	return 0
}
