// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

// Package config provides layered configuration loading for JudgeFinder.
//
// Configuration is loaded via Koanf v2 with three layers (highest wins):
//  1. Built-in defaults
//  2. Optional YAML config file (CONFIG_PATH or well-known locations)
//  3. Environment variables
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Redis         RedisConfig         `koanf:"redis"`
	CourtListener CourtListenerConfig `koanf:"courtlistener"`
	Sync          SyncConfig          `koanf:"sync"`
	Cache         CacheConfig         `koanf:"cache"`
	Search        SearchConfig        `koanf:"search"`
	Analytics     AnalyticsConfig     `koanf:"analytics"`
	API           APIConfig           `koanf:"api"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url" validate:"required"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
}

// RedisConfig holds settings for the distributed cache and the shared
// rate-limit counter. When URL is empty both degrade: the cache
// coordinator skips the Redis tier and the quota falls back to the
// in-process sliding window.
type RedisConfig struct {
	URL string `koanf:"url"`
}

// CourtListenerConfig holds settings for the external court-records API.
type CourtListenerConfig struct {
	BaseURL        string        `koanf:"base_url" validate:"required"`
	APIKey         string        `koanf:"api_key"`
	HourlyQuota    int64         `koanf:"hourly_quota" validate:"min=1"`
	Timeout        time.Duration `koanf:"timeout"`
	MaxRetries     int           `koanf:"max_retries" validate:"min=0,max=10"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
}

// SyncConfig holds batch sync settings.
type SyncConfig struct {
	Interval       time.Duration `koanf:"interval"`
	BatchSize      int           `koanf:"batch_size" validate:"min=1,max=100"`
	ItemDelay      time.Duration `koanf:"item_delay"`
	CaseLimit      int           `koanf:"case_limit"`
	LookbackYears  int           `koanf:"lookback_years"`
	ReadyCaseCount int64         `koanf:"ready_case_count"`
}

// CacheConfig holds multi-tier cache settings.
type CacheConfig struct {
	MemoryCapacity int           `koanf:"memory_capacity"`
	MemoryTTL      time.Duration `koanf:"memory_ttl"`
	RedisTTL       time.Duration `koanf:"redis_ttl"`
	StaleAfter     time.Duration `koanf:"stale_after"`
	JanitorPeriod  time.Duration `koanf:"janitor_period"`
}

// SearchConfig holds search ranking settings.
type SearchConfig struct {
	TrigramThreshold float64 `koanf:"trigram_threshold" validate:"min=0,max=1"`
	DefaultLimit     int     `koanf:"default_limit"`
	MaxLimit         int     `koanf:"max_limit"`
}

// AnalyticsConfig holds analytics generation thresholds.
//
// These values are operationally tuned; treat them as configuration,
// not as validated constants.
type AnalyticsConfig struct {
	MinSampleSize      int  `koanf:"min_sample_size" validate:"min=1"`
	GoodSampleSize     int  `koanf:"good_sample_size" validate:"min=1"`
	HideSampleBelowMin bool `koanf:"hide_sample_below_min"`
	Version            int  `koanf:"version"`
}

// APIConfig holds API surface settings.
type APIConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Analytics.GoodSampleSize < c.Analytics.MinSampleSize {
		return fmt.Errorf("analytics.good_sample_size (%d) must be >= analytics.min_sample_size (%d)",
			c.Analytics.GoodSampleSize, c.Analytics.MinSampleSize)
	}
	if c.Cache.StaleAfter > c.Cache.RedisTTL {
		return fmt.Errorf("cache.stale_after (%s) must not exceed cache.redis_ttl (%s)",
			c.Cache.StaleAfter, c.Cache.RedisTTL)
	}
	return nil
}
