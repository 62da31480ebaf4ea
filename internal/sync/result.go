// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

// Package sync pulls courts, judges, and decisions from CourtListener
// into the local store in rate-limited batches. Each judge moves
// through an enrichment phase machine (discovered, positions_synced,
// education_synced, cases_synced, analytics_ready); phases are
// independently retryable and one failing item never aborts its batch.
package sync

import "fmt"

// ItemError records one failed item inside a batch.
type ItemError struct {
	ID  int64
	Err error
}

func (e ItemError) String() string {
	return fmt.Sprintf("item %d: %v", e.ID, e.Err)
}

// BatchResult summarizes one sync batch. RateLimited items were
// skipped because the hourly quota ran out mid-batch; they are not
// failures and re-enter the next batch unchanged.
type BatchResult struct {
	Succeeded   []int64
	Failed      []ItemError
	RateLimited []int64
}

// Merge folds other into r.
func (r *BatchResult) Merge(other BatchResult) {
	r.Succeeded = append(r.Succeeded, other.Succeeded...)
	r.Failed = append(r.Failed, other.Failed...)
	r.RateLimited = append(r.RateLimited, other.RateLimited...)
}

// Total returns the number of items the batch touched.
func (r *BatchResult) Total() int {
	return len(r.Succeeded) + len(r.Failed) + len(r.RateLimited)
}
