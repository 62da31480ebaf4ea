// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/judgefinder/config.yaml",
	"/etc/judgefinder/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			URL:             "postgres://localhost:5432/judgefinder",
			MaxConns:        16,
			MinConns:        2,
			ConnMaxLifetime: time.Hour,
			QueryTimeout:    10 * time.Second,
		},
		Redis: RedisConfig{
			URL: "",
		},
		CourtListener: CourtListenerConfig{
			BaseURL:        "https://www.courtlistener.com",
			APIKey:         "",
			HourlyQuota:    5000,
			Timeout:        30 * time.Second,
			MaxRetries:     5,
			RetryBaseDelay: time.Second,
		},
		Sync: SyncConfig{
			Interval:       6 * time.Hour,
			BatchSize:      10,
			ItemDelay:      500 * time.Millisecond,
			CaseLimit:      2000,
			LookbackYears:  5,
			ReadyCaseCount: 500,
		},
		Cache: CacheConfig{
			MemoryCapacity: 10000,
			MemoryTTL:      5 * time.Minute,
			RedisTTL:       90 * 24 * time.Hour,
			StaleAfter:     45 * 24 * time.Hour,
			JanitorPeriod:  time.Minute,
		},
		Search: SearchConfig{
			TrigramThreshold: 0.3,
			DefaultLimit:     20,
			MaxLimit:         100,
		},
		Analytics: AnalyticsConfig{
			MinSampleSize:      15,
			GoodSampleSize:     40,
			HideSampleBelowMin: true,
			Version:            2,
		},
		API: APIConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, env override first.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which paths are parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated env strings to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Operationally established names (MIN_SAMPLE_SIZE, CASE_LIMIT, ...) are
// kept working alongside the canonical SECTION_FIELD form.
//
// Examples:
//   - DATABASE_URL -> database.url
//   - COURTLISTENER_API_KEY -> courtlistener.api_key
//   - MIN_SAMPLE_SIZE -> analytics.min_sample_size
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",

		// Stores
		"database_url": "database.url",
		"redis_url":    "redis.url",

		// External court-records API
		"courtlistener_base_url":     "courtlistener.base_url",
		"courtlistener_api_key":      "courtlistener.api_key",
		"courtlistener_hourly_quota": "courtlistener.hourly_quota",

		// Sync
		"sync_interval":    "sync.interval",
		"batch_size":       "sync.batch_size",
		"case_limit":       "sync.case_limit",
		"lookback_years":   "sync.lookback_years",
		"ready_case_count": "sync.ready_case_count",

		// Analytics thresholds (legacy flat names)
		"min_sample_size":       "analytics.min_sample_size",
		"good_sample_size":      "analytics.good_sample_size",
		"hide_sample_below_min": "analytics.hide_sample_below_min",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Generic fallback: SECTION_SOME_FIELD -> section.some_field for known
	// sections; anything else is dropped to avoid polluting the config tree.
	for _, section := range []string{"server", "database", "redis", "courtlistener", "sync", "cache", "search", "analytics", "api", "logging"} {
		prefix := section + "_"
		if strings.HasPrefix(key, prefix) {
			return section + "." + strings.TrimPrefix(key, prefix)
		}
	}

	return ""
}
