// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/judgefinder/judgefinder/internal/config"
	"github.com/judgefinder/judgefinder/internal/courtlistener"
	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/metrics"
)

// Manager owns the periodic sync loop and exposes manual triggers.
//
// Concurrency model: one scheduler goroutine; TriggerSync and the
// scheduler serialize on syncMu so at most one batch runs at a time.
// The inter-item limiter paces requests inside a batch so a batch of
// judges does not burst the upstream API even when quota is available.
type Manager struct {
	cfg       *config.Config
	store     Store
	client    courtlistener.API
	analytics AnalyticsRefresher
	resolver  *courtResolver
	limiter   *rate.Limiter

	mu       stdsync.RWMutex
	running  bool
	lastSync time.Time

	syncMu stdsync.Mutex

	stopChan chan struct{}
	wg       stdsync.WaitGroup

	now clock
}

// NewManager wires a sync manager. The analytics refresher may be nil
// when no cache is in play (the one-shot CLI).
func NewManager(cfg *config.Config, store Store, client courtlistener.API, refresher AnalyticsRefresher) *Manager {
	itemDelay := cfg.Sync.ItemDelay
	if itemDelay <= 0 {
		itemDelay = time.Second
	}
	return &Manager{
		cfg:       cfg,
		store:     store,
		client:    client,
		analytics: refresher,
		resolver:  &courtResolver{store: store, threshold: cfg.Search.TrigramThreshold},
		limiter:   rate.NewLimiter(rate.Every(itemDelay), 1),
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
}

// Start launches the periodic sync loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is already running")
	}
	m.running = true
	m.mu.Unlock()

	logging.Info().
		Dur("interval", m.cfg.Sync.Interval).
		Int("batch_size", m.cfg.Sync.BatchSize).
		Msg("starting sync manager")

	m.wg.Add(1)
	go m.syncLoop(ctx)
	return nil
}

// Stop halts the loop and waits for an in-flight batch to finish.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is not running")
	}
	m.running = false
	m.mu.Unlock()

	logging.Info().Msg("stopping sync manager")
	close(m.stopChan)
	m.wg.Wait()
	logging.Info().Msg("sync manager stopped")
	return nil
}

// Serve implements suture.Service: run until the supervisor cancels.
func (m *Manager) Serve(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return m.Stop()
}

func (m *Manager) String() string { return "sync-manager" }

// LastSyncTime returns when the last batch completed successfully.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// TriggerSync runs one batch immediately, serialized against the
// scheduler.
func (m *Manager) TriggerSync(ctx context.Context) (BatchResult, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	return m.runBatch(ctx)
}

func (m *Manager) syncLoop(ctx context.Context) {
	defer m.wg.Done()

	interval := m.cfg.Sync.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.syncMu.Lock()
			if _, err := m.runBatch(ctx); err != nil {
				logging.Error().Err(err).Msg("scheduled sync batch failed")
			}
			m.syncMu.Unlock()
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// runBatch picks the least recently synced judges and pushes each
// through the enrichment phases. Caller holds syncMu.
func (m *Manager) runBatch(ctx context.Context) (BatchResult, error) {
	start := m.now()

	ids, err := m.store.ListJudgeIDs(ctx, m.cfg.Sync.BatchSize)
	if err != nil {
		return BatchResult{}, fmt.Errorf("pick sync batch: %w", err)
	}
	if len(ids) == 0 {
		return BatchResult{}, nil
	}

	result := m.SyncJudges(ctx, ids)

	elapsed := m.now().Sub(start)
	metrics.SyncDuration.WithLabelValues("judges").Observe(elapsed.Seconds())
	outcome := "success"
	if len(result.Failed) > 0 {
		outcome = "partial"
	}
	metrics.SyncBatchesTotal.WithLabelValues("judges", outcome).Inc()

	m.mu.Lock()
	m.lastSync = m.now()
	m.mu.Unlock()

	logging.Ctx(ctx).Info().
		Int("succeeded", len(result.Succeeded)).
		Int("failed", len(result.Failed)).
		Int("rate_limited", len(result.RateLimited)).
		Dur("elapsed", elapsed).
		Msg("sync batch completed")

	return result, nil
}

// pace waits for the inter-item delay, cancellable.
func (m *Manager) pace(ctx context.Context) error {
	return m.limiter.Wait(ctx)
}
