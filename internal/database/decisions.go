// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/models"
)

// UpsertDecisions inserts or updates a batch of decisions in one
// round trip. Rows violating the decision-date invariant are stored
// flagged rather than dropped, so a later source correction can
// unflag them.
//
// Returns the number of rows written and the number flagged.
func (s *Store) UpsertDecisions(ctx context.Context, decisions []models.Decision) (written, flagged int, err error) {
	if len(decisions) == 0 {
		return 0, 0, nil
	}
	defer track("upsert", "decisions", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	batch := &pgx.Batch{}
	for i := range decisions {
		d := &decisions[i]
		d.Flagged = !d.DatesConsistent()
		if d.Flagged {
			flagged++
			logging.Ctx(ctx).Warn().
				Str("external_id", d.ExternalID).
				Int64("judge_id", d.JudgeID).
				Msg("decision date precedes filing date, storing flagged")
		}
		batch.Queue(`
			INSERT INTO decisions (external_id, judge_id, case_type, outcome,
				filing_date, decision_date, value, flagged)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (external_id) DO UPDATE SET
				judge_id = EXCLUDED.judge_id,
				case_type = EXCLUDED.case_type,
				outcome = EXCLUDED.outcome,
				filing_date = EXCLUDED.filing_date,
				decision_date = EXCLUDED.decision_date,
				value = EXCLUDED.value,
				flagged = EXCLUDED.flagged`,
			d.ExternalID, d.JudgeID, d.CaseType, d.Outcome,
			d.FilingDate, d.DecisionDate, d.Value, d.Flagged)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, execErr := br.Exec(); execErr != nil {
			return written, flagged, fmt.Errorf("upsert decision %d: %w", i, execErr)
		}
		written++
	}
	return written, flagged, nil
}

// ListDecisions returns all unflagged decisions for a judge within the
// lookback window, newest first. Flagged rows are excluded from
// analytics input.
func (s *Store) ListDecisions(ctx context.Context, judgeID int64, since time.Time) (out []models.Decision, err error) {
	defer track("select", "decisions", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, external_id, judge_id, case_type, outcome, filing_date,
			decision_date, value, flagged, created_at
		FROM decisions
		WHERE judge_id = $1
		  AND NOT flagged
		  AND (decision_date IS NULL OR decision_date >= $2)
		ORDER BY decision_date DESC NULLS LAST`, judgeID, since)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.Decision
		if err := rows.Scan(&d.ID, &d.ExternalID, &d.JudgeID, &d.CaseType, &d.Outcome,
			&d.FilingDate, &d.DecisionDate, &d.Value, &d.Flagged, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountDecisions returns the number of stored decisions for a judge.
func (s *Store) CountDecisions(ctx context.Context, judgeID int64) (n int64, err error) {
	defer track("select", "decisions", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.pool.QueryRow(ctx,
		`SELECT count(*) FROM decisions WHERE judge_id = $1`, judgeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	return n, nil
}
