// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/judgefinder/judgefinder/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("database: not found")

const judgeColumns = `id, external_id, name, slug, court_id, jurisdiction, county,
	total_cases, position_end, education, political_affiliation, created_at, updated_at`

func scanJudge(row pgx.Row) (*models.Judge, error) {
	var j models.Judge
	err := row.Scan(&j.ID, &j.ExternalID, &j.Name, &j.Slug, &j.CourtID, &j.Jurisdiction,
		&j.County, &j.TotalCases, &j.PositionEnd, &j.Education, &j.PoliticalAffiliation,
		&j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan judge: %w", err)
	}
	return &j, nil
}

// UpsertJudge inserts or updates a judge keyed by external ID and
// returns the stored row. Identity fields update on conflict; counters
// maintained elsewhere (total_cases) are left alone.
func (s *Store) UpsertJudge(ctx context.Context, j *models.Judge) (judge *models.Judge, err error) {
	defer track("upsert", "judges", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.pool.QueryRow(ctx, `
		INSERT INTO judges (external_id, name, slug, court_id, jurisdiction, county,
			position_end, education, political_affiliation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			court_id = COALESCE(EXCLUDED.court_id, judges.court_id),
			jurisdiction = EXCLUDED.jurisdiction,
			county = EXCLUDED.county,
			position_end = EXCLUDED.position_end,
			education = COALESCE(EXCLUDED.education, judges.education),
			political_affiliation = COALESCE(EXCLUDED.political_affiliation, judges.political_affiliation),
			updated_at = now()
		RETURNING `+judgeColumns,
		j.ExternalID, j.Name, j.Slug, j.CourtID, j.Jurisdiction, j.County,
		j.PositionEnd, j.Education, j.PoliticalAffiliation)

	return scanJudge(row)
}

// GetJudge fetches a judge by internal ID.
func (s *Store) GetJudge(ctx context.Context, id int64) (judge *models.Judge, err error) {
	defer track("select", "judges", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return scanJudge(s.pool.QueryRow(ctx,
		`SELECT `+judgeColumns+` FROM judges WHERE id = $1`, id))
}

// GetJudgeBySlug fetches a judge by URL slug.
func (s *Store) GetJudgeBySlug(ctx context.Context, slug string) (judge *models.Judge, err error) {
	defer track("select", "judges", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return scanJudge(s.pool.QueryRow(ctx,
		`SELECT `+judgeColumns+` FROM judges WHERE slug = $1`, slug))
}

// GetJudgeByExternalID fetches a judge by its source-system ID.
func (s *Store) GetJudgeByExternalID(ctx context.Context, externalID string) (judge *models.Judge, err error) {
	defer track("select", "judges", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return scanJudge(s.pool.QueryRow(ctx,
		`SELECT `+judgeColumns+` FROM judges WHERE external_id = $1`, externalID))
}

// ListJudgeIDs returns all judge IDs ordered by least recently synced,
// bounded by limit. The sync scheduler uses this to pick its next
// batch.
func (s *Store) ListJudgeIDs(ctx context.Context, limit int) (ids []int64, err error) {
	defer track("select", "judges", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT j.id
		FROM judges j
		LEFT JOIN sync_progress sp ON sp.judge_id = j.id
		ORDER BY sp.last_synced_at ASC NULLS FIRST, j.id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list judge ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan judge id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateJudgeCaseCount recomputes the denormalized decision count.
func (s *Store) UpdateJudgeCaseCount(ctx context.Context, judgeID int64) (total int64, err error) {
	defer track("update", "judges", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.pool.QueryRow(ctx, `
		UPDATE judges SET
			total_cases = (SELECT count(*) FROM decisions WHERE judge_id = $1),
			updated_at = now()
		WHERE id = $1
		RETURNING total_cases`, judgeID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update judge case count: %w", err)
	}
	return total, nil
}

// UpsertCourt inserts or updates a court keyed by external ID and
// returns the stored row.
func (s *Store) UpsertCourt(ctx context.Context, c *models.Court) (court *models.Court, err error) {
	defer track("upsert", "courts", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.pool.QueryRow(ctx, `
		INSERT INTO courts (external_id, name, slug, type, jurisdiction, county)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			type = EXCLUDED.type,
			jurisdiction = EXCLUDED.jurisdiction,
			county = EXCLUDED.county,
			updated_at = now()
		RETURNING id, external_id, name, slug, type, jurisdiction, county, judge_count,
			created_at, updated_at`,
		c.ExternalID, c.Name, c.Slug, c.Type, c.Jurisdiction, c.County)

	var out models.Court
	err = row.Scan(&out.ID, &out.ExternalID, &out.Name, &out.Slug, &out.Type,
		&out.Jurisdiction, &out.County, &out.JudgeCount, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert court: %w", err)
	}
	return &out, nil
}

// GetCourt fetches a court by internal ID.
func (s *Store) GetCourt(ctx context.Context, id int64) (court *models.Court, err error) {
	defer track("select", "courts", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var c models.Court
	err = s.pool.QueryRow(ctx, `
		SELECT id, external_id, name, slug, type, jurisdiction, county, judge_count,
			created_at, updated_at
		FROM courts WHERE id = $1`, id).
		Scan(&c.ID, &c.ExternalID, &c.Name, &c.Slug, &c.Type, &c.Jurisdiction,
			&c.County, &c.JudgeCount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get court: %w", err)
	}
	return &c, nil
}

// GetCourtByExternalID fetches a court by its source-system ID.
func (s *Store) GetCourtByExternalID(ctx context.Context, externalID string) (court *models.Court, err error) {
	defer track("select", "courts", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var c models.Court
	err = s.pool.QueryRow(ctx, `
		SELECT id, external_id, name, slug, type, jurisdiction, county, judge_count,
			created_at, updated_at
		FROM courts WHERE external_id = $1`, externalID).
		Scan(&c.ID, &c.ExternalID, &c.Name, &c.Slug, &c.Type, &c.Jurisdiction,
			&c.County, &c.JudgeCount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get court by external id: %w", err)
	}
	return &c, nil
}

// FindCourtByName fetches the best fuzzy match for a court name within
// a jurisdiction, or ErrNotFound when nothing clears the similarity
// threshold.
func (s *Store) FindCourtByName(ctx context.Context, name, jurisdiction string, threshold float64) (court *models.Court, err error) {
	defer track("select", "courts", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var c models.Court
	err = s.pool.QueryRow(ctx, `
		SELECT id, external_id, name, slug, type, jurisdiction, county, judge_count,
			created_at, updated_at
		FROM courts
		WHERE ($2 = '' OR jurisdiction = $2)
		  AND similarity(name, $1) >= $3
		ORDER BY similarity(name, $1) DESC, name ASC
		LIMIT 1`, name, jurisdiction, threshold).
		Scan(&c.ID, &c.ExternalID, &c.Name, &c.Slug, &c.Type, &c.Jurisdiction,
			&c.County, &c.JudgeCount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find court by name: %w", err)
	}
	return &c, nil
}

// RefreshCourtJudgeCounts recomputes the denormalized judge_count for
// every court.
func (s *Store) RefreshCourtJudgeCounts(ctx context.Context) (err error) {
	defer track("update", "courts", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.pool.Exec(ctx, `
		UPDATE courts c SET judge_count = sub.n
		FROM (SELECT court_id, count(*) AS n FROM judges WHERE court_id IS NOT NULL GROUP BY court_id) sub
		WHERE sub.court_id = c.id AND c.judge_count <> sub.n`)
	if err != nil {
		return fmt.Errorf("refresh court judge counts: %w", err)
	}
	return nil
}
