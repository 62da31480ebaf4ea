// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package api

import (
	"context"
	"time"

	"github.com/judgefinder/judgefinder/internal/cache"
	"github.com/judgefinder/judgefinder/internal/config"
	"github.com/judgefinder/judgefinder/internal/database"
	"github.com/judgefinder/judgefinder/internal/models"
	syncpkg "github.com/judgefinder/judgefinder/internal/sync"
)

// SearchStore is the database surface the handlers need.
// Implemented by *database.Store; mocked in tests.
type SearchStore interface {
	SearchJudges(ctx context.Context, p database.SearchParams) ([]models.SearchResult, int64, error)
	GetJudge(ctx context.Context, id int64) (*models.Judge, error)
	CountAnalyticsReady(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// AnalyticsProvider serves cached judge analytics.
// Implemented by *analytics.Service.
type AnalyticsProvider interface {
	Get(ctx context.Context, judgeID int64) (*models.JudgeAnalytics, *cache.Result, error)
	Invalidate(ctx context.Context, judgeID int64)
	Specialization(ctx context.Context, judgeID int64, caseType string) float64
	WarmUp(ctx context.Context, judgeIDs []int64) int
}

// SyncStatus reports background sync progress for health checks.
// Implemented by *sync.Manager; nil when no sync runs in-process.
type SyncStatus interface {
	LastSyncTime() time.Time
}

// SyncTrigger runs one sync batch on demand, serialized against the
// scheduler. Implemented by *sync.Manager.
type SyncTrigger interface {
	TriggerSync(ctx context.Context) (syncpkg.BatchResult, error)
}

// CacheStatsSource exposes the memory tier counters on the admin
// surface. Implemented by *cache.MemoryTier.
type CacheStatsSource interface {
	Stats() (hits, misses int64, size int)
}

// Handler holds the dependencies shared by all endpoints.
type Handler struct {
	cfg        *config.Config
	store      SearchStore
	analytics  AnalyticsProvider
	sync       SyncStatus
	trigger    SyncTrigger
	cacheStats CacheStatsSource
	redisPing  func(ctx context.Context) error
	startTime  time.Time
}

// NewHandler creates the endpoint handler. sync and redisPing may be
// nil when the corresponding dependency is not wired.
func NewHandler(cfg *config.Config, store SearchStore, analytics AnalyticsProvider, sync SyncStatus, redisPing func(ctx context.Context) error) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     store,
		analytics: analytics,
		sync:      sync,
		redisPing: redisPing,
		startTime: time.Now(),
	}
}

// WithAdmin wires the optional admin surface. The corresponding
// endpoints answer 503 for anything left nil.
func (h *Handler) WithAdmin(trigger SyncTrigger, cacheStats CacheStatsSource) *Handler {
	h.trigger = trigger
	h.cacheStats = cacheStats
	return h
}
