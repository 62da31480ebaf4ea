// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package api

import (
	"net/http"
	"time"

	"github.com/judgefinder/judgefinder/internal/models"
)

// Health handles GET /api/health: dependency probes rolled up into
// healthy, degraded or unhealthy.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	checks := make(map[string]models.HealthCheck)

	dbCheck := models.HealthCheck{Healthy: true}
	if err := h.store.Ping(ctx); err != nil {
		dbCheck = models.HealthCheck{Healthy: false, Error: err.Error()}
	}
	checks["database"] = dbCheck

	if h.redisPing != nil {
		redisCheck := models.HealthCheck{Healthy: true}
		if err := h.redisPing(ctx); err != nil {
			redisCheck = models.HealthCheck{Healthy: false, Error: err.Error()}
		}
		checks["redis"] = redisCheck
	}

	if h.sync != nil {
		syncCheck := models.HealthCheck{Healthy: true}
		if last := h.sync.LastSyncTime(); !last.IsZero() && time.Since(last) > 24*time.Hour {
			syncCheck = models.HealthCheck{Healthy: false, Error: "last sync more than 24h ago"}
		}
		checks["sync"] = syncCheck
	}

	// The database is load-bearing; everything else degrades.
	status := "healthy"
	for name, c := range checks {
		if c.Healthy {
			continue
		}
		if name == "database" {
			status = "unhealthy"
			break
		}
		status = "degraded"
	}

	rw.Success(models.HealthStatus{
		Status: status,
		Checks: checks,
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// HealthLive handles GET /api/health/live: alive as long as the
// process answers, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/health/ready: 200 only when the
// service can answer real traffic. Reports how many judges have
// analytics-ready case data.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	if err := h.store.Ping(ctx); err != nil {
		rw.ServiceUnavailable("database not reachable")
		return
	}

	ready, err := h.store.CountAnalyticsReady(ctx)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{
		"ready_to_serve":        true,
		"analytics_ready_count": ready,
		"uptime":                time.Since(h.startTime).Seconds(),
	})
}
