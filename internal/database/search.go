// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/judgefinder/judgefinder/internal/models"
)

// SearchParams are the inputs to the ranked judge search.
type SearchParams struct {
	Query        string
	Jurisdiction string
	CourtType    string

	// TrigramThreshold is the minimum pg_trgm similarity for a fuzzy
	// match to count at all.
	TrigramThreshold float64

	Limit  int
	Offset int
}

// searchJudgesSQL ranks name matches in tiers so an exact name always
// beats a prefix, a prefix beats a word-boundary hit, and so on down
// to trigram similarity. Ties within a tier break by activity
// (ln(total_cases)) and then name for a stable order.
//
// Tiers:
//
//	exact match        1000
//	prefix match        800
//	word boundary       600
//	substring           400
//	trigram           0-300 (similarity * 300)
//
// A query that also appears in the judge's jurisdiction code or court
// name adds a flat 100. Jurisdiction and court type are hard filters,
// not score inputs. Comparisons run through unaccent so "Muñoz" and
// "Munoz" meet in the middle. The headline uses plainto_tsquery, which
// tolerates any input instead of erroring on tsquery syntax.
const searchJudgesSQL = `
WITH scored AS (
	SELECT j.id, j.external_id, j.name, j.slug, j.court_id, j.jurisdiction, j.county,
		j.total_cases, j.position_end, j.education, j.political_affiliation,
		j.created_at, j.updated_at,
		c.name AS court_name,
		ts_headline('simple', j.name, plainto_tsquery('simple', $1),
			'StartSel=<mark>, StopSel=</mark>') AS headline,
		GREATEST(
			CASE WHEN lower(unaccent(j.name)) = lower(unaccent($1)) THEN 1000.0 ELSE 0 END,
			CASE WHEN unaccent(j.name) ILIKE unaccent($1) || '%' THEN 800.0 ELSE 0 END,
			CASE WHEN unaccent(j.name) ~* ('\m' || unaccent($4)) THEN 600.0 ELSE 0 END,
			CASE WHEN unaccent(j.name) ILIKE '%' || unaccent($1) || '%' THEN 400.0 ELSE 0 END,
			CASE WHEN similarity(unaccent(j.name), unaccent($1)) >= $2
				THEN similarity(unaccent(j.name), unaccent($1)) * 300.0 ELSE 0 END
		)
		+ CASE WHEN (j.jurisdiction ILIKE '%' || $1 || '%'
			OR unaccent(coalesce(c.name, '')) ILIKE '%' || unaccent($1) || '%')
			THEN 100.0 ELSE 0 END
		+ ln(GREATEST(j.total_cases, 1)) AS score
	FROM judges j
	LEFT JOIN courts c ON c.id = j.court_id
	WHERE ($3 = '' OR j.jurisdiction = $3)
	  AND ($5 = '' OR c.type = $5)
	  AND (unaccent(j.name) ILIKE '%' || unaccent($1) || '%'
	   OR unaccent(j.name) ~* ('\m' || unaccent($4))
	   OR similarity(unaccent(j.name), unaccent($1)) >= $2
	   OR to_tsvector('simple', j.name) @@ plainto_tsquery('simple', $1))
)
SELECT *, count(*) OVER () AS total_count
FROM scored
ORDER BY score DESC, name ASC
LIMIT $6 OFFSET $7`

// browseJudgesSQL is the empty-query listing: most active judges
// first.
const browseJudgesSQL = `
SELECT j.id, j.external_id, j.name, j.slug, j.court_id, j.jurisdiction, j.county,
	j.total_cases, j.position_end, j.education, j.political_affiliation,
	j.created_at, j.updated_at,
	c.name AS court_name,
	'' AS headline,
	0.0 AS score,
	count(*) OVER () AS total_count
FROM judges j
LEFT JOIN courts c ON c.id = j.court_id
WHERE ($1 = '' OR j.jurisdiction = $1)
  AND ($2 = '' OR c.type = $2)
ORDER BY j.total_cases DESC, j.name ASC
LIMIT $3 OFFSET $4`

// SearchJudges runs the ranked name search. An empty query lists the
// most active judges instead of matching nothing. Returns the page of
// results and the total number of matches for pagination.
func (s *Store) SearchJudges(ctx context.Context, p SearchParams) (results []models.SearchResult, total int64, err error) {
	defer track("search", "judges", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := sanitizeSearchQuery(p.Query)
	if query == "" {
		return s.scanSearchRows(ctx, browseJudgesSQL, p.Jurisdiction, p.CourtType, p.Limit, p.Offset)
	}
	return s.scanSearchRows(ctx, searchJudgesSQL,
		query, p.TrigramThreshold, p.Jurisdiction, regexpEscape(query), p.CourtType, p.Limit, p.Offset)
}

func (s *Store) scanSearchRows(ctx context.Context, sql string, args ...interface{}) (results []models.SearchResult, total int64, err error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search judges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r models.SearchResult
		var courtName *string
		if err := rows.Scan(&r.ID, &r.ExternalID, &r.Name, &r.Slug, &r.CourtID,
			&r.Jurisdiction, &r.County, &r.TotalCases, &r.PositionEnd,
			&r.Education, &r.PoliticalAffiliation, &r.CreatedAt, &r.UpdatedAt,
			&courtName, &r.Headline, &r.Score, &total); err != nil {
			return nil, 0, fmt.Errorf("scan search result: %w", err)
		}
		if courtName != nil {
			r.CourtName = *courtName
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// sanitizeSearchQuery normalizes user input for the search SQL:
// collapses whitespace and strips characters with meaning to ILIKE
// patterns. Apostrophes survive, judge names carry them. Degenerate
// input sanitizes to "" and falls back to the browse listing.
func sanitizeSearchQuery(q string) string {
	q = strings.TrimSpace(q)
	var b strings.Builder
	lastSpace := false
	for _, r := range q {
		switch {
		case r == '%' || r == '_' || r == '\\':
			// ILIKE metacharacters
		case r == ' ' || r == '\t' || r == '\n':
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

// regexpEscape escapes POSIX regexp metacharacters for the
// word-boundary match tier.
func regexpEscape(q string) string {
	var b strings.Builder
	for _, r := range q {
		if strings.ContainsRune(`.^$*+?()[]{}|\`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
