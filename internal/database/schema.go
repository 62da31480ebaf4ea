// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package database

import (
	"context"
	"fmt"
	"time"
)

// InitSchema creates extensions, tables and indexes. Idempotent; runs
// at startup so a fresh database is usable without a separate
// migration step.
//
// Requires a role allowed to CREATE EXTENSION, or the pg_trgm and
// unaccent extensions pre-installed by the operator.
func (s *Store) InitSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	for i := 0; i < len(stmt); i++ {
		if stmt[i] == '\n' {
			return stmt[:i]
		}
	}
	return stmt
}

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	`CREATE EXTENSION IF NOT EXISTS unaccent`,

	`CREATE TABLE IF NOT EXISTS courts (
		id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		external_id  TEXT NOT NULL UNIQUE,
		name         TEXT NOT NULL,
		slug         TEXT NOT NULL,
		type         TEXT NOT NULL DEFAULT 'local',
		jurisdiction TEXT NOT NULL DEFAULT '',
		county       TEXT NOT NULL DEFAULT '',
		judge_count  BIGINT NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS judges (
		id                    BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		external_id           TEXT NOT NULL UNIQUE,
		name                  TEXT NOT NULL,
		slug                  TEXT NOT NULL,
		court_id              BIGINT REFERENCES courts(id),
		jurisdiction          TEXT NOT NULL DEFAULT '',
		county                TEXT NOT NULL DEFAULT '',
		total_cases           BIGINT NOT NULL DEFAULT 0,
		position_end          TIMESTAMPTZ,
		education             TEXT,
		political_affiliation TEXT,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS decisions (
		id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		external_id   TEXT NOT NULL UNIQUE,
		judge_id      BIGINT NOT NULL REFERENCES judges(id),
		case_type     TEXT NOT NULL DEFAULT 'other',
		outcome       TEXT NOT NULL DEFAULT '',
		filing_date   TIMESTAMPTZ,
		decision_date TIMESTAMPTZ,
		value         DOUBLE PRECISION NOT NULL DEFAULT 0,
		flagged       BOOLEAN NOT NULL DEFAULT false,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS judge_analytics_cache (
		cache_key    TEXT PRIMARY KEY,
		payload      BYTEA NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL,
		tags         TEXT[] NOT NULL DEFAULT '{}',
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS sync_progress (
		judge_id                   BIGINT PRIMARY KEY REFERENCES judges(id),
		has_positions              BOOLEAN NOT NULL DEFAULT false,
		has_education              BOOLEAN NOT NULL DEFAULT false,
		has_political_affiliations BOOLEAN NOT NULL DEFAULT false,
		opinions_count             BIGINT NOT NULL DEFAULT 0,
		dockets_count              BIGINT NOT NULL DEFAULT 0,
		is_analytics_ready         BOOLEAN NOT NULL DEFAULT false,
		sync_phase                 TEXT NOT NULL DEFAULT 'discovered',
		last_synced_at             TIMESTAMPTZ,
		error_count                INT NOT NULL DEFAULT 0,
		last_error                 TEXT
	)`,

	// Search: trigram index on names for similarity(), btree for the
	// browse ordering.
	`CREATE INDEX IF NOT EXISTS idx_judges_name_trgm
		ON judges USING gin (name gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_judges_total_cases
		ON judges (total_cases DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_judges_slug ON judges (slug)`,
	`CREATE INDEX IF NOT EXISTS idx_courts_name_trgm
		ON courts USING gin (name gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_judges_court ON judges (court_id)`,

	`CREATE INDEX IF NOT EXISTS idx_decisions_judge_date
		ON decisions (judge_id, decision_date DESC)`,

	`CREATE INDEX IF NOT EXISTS idx_analytics_cache_tags
		ON judge_analytics_cache USING gin (tags)`,

	`CREATE INDEX IF NOT EXISTS idx_sync_progress_last_synced
		ON sync_progress (last_synced_at ASC NULLS FIRST)`,
}
