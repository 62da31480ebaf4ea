// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/judgefinder/judgefinder/internal/courtlistener"
	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/metrics"
	"github.com/judgefinder/judgefinder/internal/models"
)

// DiscoverJudges pulls the judge roster for a court and creates any
// judges not seen before, each with a fresh sync_progress row in the
// discovered phase.
func (m *Manager) DiscoverJudges(ctx context.Context, courtExternalID string) (BatchResult, error) {
	var result BatchResult
	pageURL := ""

	for {
		if err := m.pace(ctx); err != nil {
			return result, err
		}

		page, err := m.client.ListPeople(ctx, courtExternalID, pageURL)
		if err != nil {
			if errors.Is(err, courtlistener.ErrRateLimited) {
				return result, nil
			}
			return result, err
		}

		for i := range page.Results {
			person := &page.Results[i]
			judge, err := m.discoverOne(ctx, person)
			if err != nil {
				result.Failed = append(result.Failed, ItemError{ID: person.ID, Err: err})
				metrics.SyncItemsTotal.WithLabelValues("judges", "failed").Inc()
				continue
			}
			result.Succeeded = append(result.Succeeded, judge.ID)
			metrics.SyncItemsTotal.WithLabelValues("judges", "succeeded").Inc()
		}

		if page.Next == "" {
			return result, nil
		}
		pageURL = page.Next
	}
}

func (m *Manager) discoverOne(ctx context.Context, person *courtlistener.Person) (*models.Judge, error) {
	name := person.FullName()
	judge, err := m.store.UpsertJudge(ctx, &models.Judge{
		ExternalID:   fmt.Sprintf("%d", person.ID),
		Name:         name,
		Slug:         slug.Make(name),
		Jurisdiction: "CA",
	})
	if err != nil {
		return nil, fmt.Errorf("upsert judge %d: %w", person.ID, err)
	}
	if err := m.store.EnsureSyncProgress(ctx, judge.ID); err != nil {
		return nil, err
	}
	return judge, nil
}

// SyncJudges runs the enrichment phases for each judge in ids.
// Items fail independently: an error is recorded in sync_progress and
// the batch moves on. Quota exhaustion stops the batch early and
// reports the untouched remainder as RateLimited.
func (m *Manager) SyncJudges(ctx context.Context, ids []int64) BatchResult {
	var result BatchResult

	for i, id := range ids {
		if ctx.Err() != nil {
			result.RateLimited = append(result.RateLimited, ids[i:]...)
			return result
		}
		if err := m.pace(ctx); err != nil {
			result.RateLimited = append(result.RateLimited, ids[i:]...)
			return result
		}

		err := m.syncJudge(ctx, id)
		switch {
		case err == nil:
			result.Succeeded = append(result.Succeeded, id)
			metrics.SyncItemsTotal.WithLabelValues("judges", "succeeded").Inc()
		case errors.Is(err, courtlistener.ErrRateLimited):
			result.RateLimited = append(result.RateLimited, ids[i:]...)
			metrics.SyncItemsTotal.WithLabelValues("judges", "rate_limited").Inc()
			logging.Ctx(ctx).Warn().Int64("judge_id", id).
				Msg("judge sync stopped by quota, deferring remainder")
			return result
		default:
			result.Failed = append(result.Failed, ItemError{ID: id, Err: err})
			metrics.SyncItemsTotal.WithLabelValues("judges", "failed").Inc()
			logging.Ctx(ctx).Error().Err(err).Int64("judge_id", id).Msg("judge sync failed")
			if recErr := m.store.RecordSyncError(ctx, id, err); recErr != nil {
				logging.Ctx(ctx).Warn().Err(recErr).Int64("judge_id", id).
					Msg("failed to record sync error")
			}
		}
	}
	return result
}

// syncJudge advances one judge through its remaining phases in order.
// Each phase persists progress on completion, so a failure mid-pipeline
// resumes where it stopped.
func (m *Manager) syncJudge(ctx context.Context, judgeID int64) error {
	judge, err := m.store.GetJudge(ctx, judgeID)
	if err != nil {
		return fmt.Errorf("load judge: %w", err)
	}
	progress, err := m.store.GetSyncProgress(ctx, judgeID)
	if err != nil {
		return fmt.Errorf("load sync progress: %w", err)
	}

	if !progress.HasPositions {
		if err := m.syncPositions(ctx, judge, progress); err != nil {
			return err
		}
	}
	if !progress.HasEducation {
		if err := m.syncEducation(ctx, judge, progress); err != nil {
			return err
		}
	}
	if err := m.syncCases(ctx, judge, progress); err != nil {
		return err
	}
	return nil
}

// syncPositions resolves the judge's court and county from its
// position history.
func (m *Manager) syncPositions(ctx context.Context, judge *models.Judge, progress *models.SyncProgress) error {
	externalID, err := parseExternalID(judge.ExternalID)
	if err != nil {
		return err
	}

	page, err := m.client.ListPositions(ctx, externalID, "")
	if err != nil {
		return fmt.Errorf("list positions: %w", err)
	}

	latest := latestPosition(page.Results)
	res := m.resolver.Resolve(ctx, judge, latest)

	judge.CourtID = res.CourtID
	if res.County != "" {
		judge.County = res.County
	}
	if latest != nil {
		judge.PositionEnd = parseDate(latest.DateTermination)
	}
	if _, err := m.store.UpsertJudge(ctx, judge); err != nil {
		return fmt.Errorf("store positions: %w", err)
	}

	logging.Ctx(ctx).Debug().
		Int64("judge_id", judge.ID).
		Str("method", res.Method).
		Str("confidence", string(res.Confidence)).
		Msg("court resolution")

	progress.HasPositions = true
	progress.SyncPhase = models.PhasePositionsSynced
	return m.store.UpdateSyncProgress(ctx, progress, m.cfg.Sync.ReadyCaseCount)
}

// syncEducation pulls the full person record for education and
// political affiliation.
func (m *Manager) syncEducation(ctx context.Context, judge *models.Judge, progress *models.SyncProgress) error {
	externalID, err := parseExternalID(judge.ExternalID)
	if err != nil {
		return err
	}

	person, err := m.client.GetPerson(ctx, externalID)
	if err != nil {
		return fmt.Errorf("get person: %w", err)
	}

	if edu := formatEducation(person.Educations); edu != "" {
		judge.Education = &edu
	}
	if aff := latestAffiliation(person.PoliticalAffiliations); aff != "" {
		judge.PoliticalAffiliation = &aff
	}
	if _, err := m.store.UpsertJudge(ctx, judge); err != nil {
		return fmt.Errorf("store education: %w", err)
	}

	progress.HasEducation = true
	progress.HasPoliticalAffiliations = len(person.PoliticalAffiliations) > 0
	progress.SyncPhase = models.PhaseEducationSynced
	return m.store.UpdateSyncProgress(ctx, progress, m.cfg.Sync.ReadyCaseCount)
}

// syncCases pulls dockets within the lookback window, stores them as
// decisions, and refreshes the judge's denormalized counts and cached
// analytics.
func (m *Manager) syncCases(ctx context.Context, judge *models.Judge, progress *models.SyncProgress) error {
	externalID, err := parseExternalID(judge.ExternalID)
	if err != nil {
		return err
	}

	since := m.now().AddDate(-m.cfg.Sync.LookbackYears, 0, 0).Format("2006-01-02")
	fetched := 0
	pageURL := ""

	for {
		page, err := m.client.ListDockets(ctx, externalID, since, pageURL)
		if err != nil {
			return fmt.Errorf("list dockets: %w", err)
		}

		decisions := make([]models.Decision, 0, len(page.Results))
		for i := range page.Results {
			decisions = append(decisions, decisionFromDocket(judge.ID, &page.Results[i]))
		}
		written, flagged, err := m.store.UpsertDecisions(ctx, decisions)
		if err != nil {
			return fmt.Errorf("store decisions: %w", err)
		}
		fetched += written
		if flagged > 0 {
			logging.Ctx(ctx).Warn().
				Int64("judge_id", judge.ID).
				Int("flagged", flagged).
				Msg("decisions flagged for date inconsistency")
		}

		if page.Next == "" || (m.cfg.Sync.CaseLimit > 0 && fetched >= m.cfg.Sync.CaseLimit) {
			break
		}
		pageURL = page.Next
		if err := m.pace(ctx); err != nil {
			return err
		}
	}

	total, err := m.store.UpdateJudgeCaseCount(ctx, judge.ID)
	if err != nil {
		return fmt.Errorf("update case count: %w", err)
	}

	// One page is enough for the opinion count, the envelope carries
	// the total.
	if err := m.pace(ctx); err != nil {
		return err
	}
	opinions, err := m.client.ListOpinions(ctx, externalID, since, "")
	if err != nil {
		return fmt.Errorf("list opinions: %w", err)
	}
	progress.OpinionsCount = int64(opinions.Count)

	progress.DocketsCount = total
	progress.SyncPhase = models.PhaseCasesSynced
	if total >= m.cfg.Sync.ReadyCaseCount {
		progress.SyncPhase = models.PhaseAnalyticsReady
	}
	if err := m.store.UpdateSyncProgress(ctx, progress, m.cfg.Sync.ReadyCaseCount); err != nil {
		return err
	}

	if m.analytics != nil && fetched > 0 {
		if err := m.analytics.Refresh(ctx, judge.ID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("judge_id", judge.ID).
				Msg("analytics refresh after sync failed")
		}
	}
	return nil
}

func parseExternalID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, fmt.Errorf("malformed external id %q: %w", s, err)
	}
	return id, nil
}

// latestPosition picks the current seat: the most recently started
// position without a termination date. Fully terminated careers fall
// back to the most recent position overall.
func latestPosition(positions []courtlistener.Position) *courtlistener.Position {
	var active, latest *courtlistener.Position
	for i := range positions {
		p := &positions[i]
		if p.DateTermination == "" && (active == nil || p.DateStart > active.DateStart) {
			active = p
		}
		if latest == nil || p.DateStart > latest.DateStart {
			latest = p
		}
	}
	if active != nil {
		return active
	}
	return latest
}

// parseDate reads a YYYY-MM-DD source date, nil when absent or
// malformed.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// formatEducation flattens education records into a display string,
// e.g. "J.D., Stanford Law School (1994); B.A., UCLA (1991)".
func formatEducation(educations []courtlistener.Education) string {
	parts := make([]string, 0, len(educations))
	for _, e := range educations {
		if e.School.Name == "" {
			continue
		}
		p := e.School.Name
		if e.Degree != "" {
			p = e.Degree + ", " + p
		}
		if e.DegreeYear > 0 {
			p = fmt.Sprintf("%s (%d)", p, e.DegreeYear)
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "; ")
}

// latestAffiliation picks the most recent political affiliation.
func latestAffiliation(affiliations []courtlistener.PoliticalAffiliation) string {
	best := ""
	bestDate := ""
	for _, a := range affiliations {
		if a.PoliticalParty == "" {
			continue
		}
		if best == "" || a.DateStart > bestDate {
			best = a.PoliticalParty
			bestDate = a.DateStart
		}
	}
	return best
}

// decisionFromDocket maps a docket onto the local decision model.
func decisionFromDocket(judgeID int64, d *courtlistener.Docket) models.Decision {
	return models.Decision{
		ExternalID:   fmt.Sprintf("docket-%d", d.ID),
		JudgeID:      judgeID,
		CaseType:     normalizeCaseType(d.NatureOfSuit),
		Outcome:      normalizeOutcome(d),
		FilingDate:   parseDate(d.DateFiled),
		DecisionDate: parseDate(d.DateTerminated),
	}
}

// normalizeCaseType collapses free-text nature-of-suit values into the
// coarse taxonomy analytics groups by.
func normalizeCaseType(natureOfSuit string) string {
	s := strings.ToLower(natureOfSuit)
	switch {
	case s == "":
		return "other"
	case strings.Contains(s, "criminal"):
		return "criminal"
	case strings.Contains(s, "family") || strings.Contains(s, "custody") || strings.Contains(s, "divorce"):
		return "family"
	case strings.Contains(s, "probate") || strings.Contains(s, "estate"):
		return "probate"
	case strings.Contains(s, "contract") || strings.Contains(s, "tort") || strings.Contains(s, "civil"):
		return "civil"
	default:
		return "other"
	}
}

// normalizeOutcome derives the decision outcome from docket
// disposition text. Open cases have no outcome yet.
func normalizeOutcome(d *courtlistener.Docket) string {
	if d.DateTerminated == "" {
		return ""
	}
	s := strings.ToLower(d.Disposition)
	switch {
	case strings.Contains(s, "grant"):
		return "granted"
	case strings.Contains(s, "dismiss"):
		return "dismissed"
	case strings.Contains(s, "settl"):
		return "settled"
	case strings.Contains(s, "appeal"):
		return "appealed"
	case strings.Contains(s, "den"):
		return "denied"
	default:
		return ""
	}
}
