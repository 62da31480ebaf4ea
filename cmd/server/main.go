// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

// Package main is the entry point for the JudgeFinder server.
//
// JudgeFinder is a judicial directory and analytics backend for
// California: it syncs judge, court and case data from CourtListener,
// computes per-judge ruling analytics behind a three-tier cache, and
// serves a ranked judge search API.
//
// The server initializes components in the following order:
//
//  1. Configuration: koanf v2 layered sources (defaults, config file,
//     environment variables)
//  2. PostgreSQL: pgxpool store (search, decisions, durable cache)
//  3. Redis (optional): shared API quota counter and cache tier two;
//     without REDIS_URL the process degrades to in-memory equivalents
//  4. Cache coordinator: memory -> redis -> database with
//     stale-while-revalidate
//  5. CourtListener client: budgeted, retrying, circuit-broken
//  6. Sync manager: periodic enrichment batches
//  7. HTTP server: chi REST API plus /metrics
//
// The sync manager, cache janitor and HTTP server all run under a
// suture supervisor; graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/judgefinder/judgefinder/internal/analytics"
	"github.com/judgefinder/judgefinder/internal/api"
	"github.com/judgefinder/judgefinder/internal/cache"
	"github.com/judgefinder/judgefinder/internal/config"
	"github.com/judgefinder/judgefinder/internal/courtlistener"
	"github.com/judgefinder/judgefinder/internal/database"
	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/ratelimit"
	syncpkg "github.com/judgefinder/judgefinder/internal/sync"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Msg("starting judgefinder server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := database.New(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	if removed, err := store.PruneAnalyticsCacheVersions(ctx, cfg.Analytics.Version); err != nil {
		logging.Warn().Err(err).Msg("pruning stale analytics cache versions failed")
	} else if removed > 0 {
		logging.Info().Int64("removed", removed).Int("version", cfg.Analytics.Version).
			Msg("pruned stale analytics cache versions")
	}

	// Redis is optional: without it the quota counter and cache tier
	// two fall back to in-process equivalents. Correct on a single
	// node, weaker once the service scales out.
	var redisClient *redis.Client
	var quota ratelimit.Quota
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logging.Warn().Err(err).Msg("redis unreachable at startup, continuing without it")
			redisClient = nil
		}
	}
	if redisClient != nil {
		quota = ratelimit.NewRedisQuota(redisClient, cfg.CourtListener.HourlyQuota)
		defer redisClient.Close()
	} else {
		quota = ratelimit.NewMemoryQuota(cfg.CourtListener.HourlyQuota)
		logging.Info().Msg("using in-memory quota counter")
	}

	memTier := cache.NewMemoryTier(cfg.Cache.MemoryCapacity, cfg.Cache.MemoryTTL)
	tiers := []cache.TierConfig{
		{Tier: memTier, TTL: cfg.Cache.MemoryTTL},
	}
	if redisClient != nil {
		tiers = append(tiers, cache.TierConfig{
			Tier: cache.NewRedisTier(redisClient),
			TTL:  cfg.Cache.RedisTTL,
		})
	}
	tiers = append(tiers, cache.TierConfig{
		Tier: cache.NewStoreTier(store),
	})

	coordinator := cache.NewCoordinator(cfg.Cache.StaleAfter, tiers...)
	defer coordinator.Close()

	generator := analytics.NewGenerator(store, cfg.Analytics, cfg.Sync.LookbackYears)
	analyticsService := analytics.NewService(generator, coordinator)

	client := courtlistener.NewClient(&cfg.CourtListener, quota, courtlistener.WaitForBudget)
	breakered := courtlistener.NewCircuitBreakerClient(client)

	manager := syncpkg.NewManager(cfg, store, breakered, analyticsService)

	var redisPing func(ctx context.Context) error
	if redisClient != nil {
		redisPing = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	handler := api.NewHandler(cfg, store, analyticsService, manager, redisPing).
		WithAdmin(manager, memTier)
	middleware := api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.API.CORSOrigins,
		RateLimitRequests:  cfg.API.RateLimitReqs,
		RateLimitWindow:    cfg.API.RateLimitWindow,
	})
	router := api.NewRouter(handler, middleware)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	sutureHandler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	root := suture.New("judgefinder", suture.Spec{
		EventHook: sutureHandler.MustHook(),
	})
	root.Add(manager)
	root.Add(&janitorService{coordinator: coordinator, mem: memTier, period: cfg.Cache.JanitorPeriod})
	root.Add(&httpService{server: server})

	logging.Info().Str("addr", server.Addr).Msg("listening")

	err = root.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("shut down cleanly")
	return nil
}

// httpService runs the HTTP server under the supervisor, shutting it
// down gracefully when the supervisor stops.
type httpService struct {
	server *http.Server
}

func (s *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("http shutdown timed out, forcing close")
			if closeErr := s.server.Close(); closeErr != nil {
				logging.Error().Err(closeErr).Msg("http close failed")
			}
		}
		return ctx.Err()
	}
}

func (s *httpService) String() string { return "http-server" }

// janitorService sweeps expired memory-cache entries on a timer.
type janitorService struct {
	coordinator *cache.Coordinator
	mem         *cache.MemoryTier
	period      time.Duration
}

func (s *janitorService) Serve(ctx context.Context) error {
	s.coordinator.StartJanitor(ctx, s.mem, s.period)
	return ctx.Err()
}

func (s *janitorService) String() string { return "cache-janitor" }
