// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

// Package courtlistener is the HTTP client for the CourtListener REST
// API. Every outbound request first consumes a unit of the shared
// hourly quota; transient upstream failures are retried with
// exponential backoff, honoring Retry-After on HTTP 429.
package courtlistener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/judgefinder/judgefinder/internal/config"
	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/metrics"
	"github.com/judgefinder/judgefinder/internal/ratelimit"
)

// maxErrorBodySize limits how much of an error response body is read
// for diagnostics.
const maxErrorBodySize = 64 * 1024 // 64KB

var (
	// ErrRateLimited is returned in FailFast mode when the hourly
	// quota is exhausted. Callers inspect it with errors.Is and defer
	// the work.
	ErrRateLimited = errors.New("courtlistener: hourly quota exhausted")

	// ErrExhausted is returned when the upstream kept failing after
	// all retry attempts.
	ErrExhausted = errors.New("courtlistener: retries exhausted")
)

// WaitMode controls what happens when the quota has no budget left.
type WaitMode int

const (
	// WaitForBudget blocks until the hour window rolls over (or the
	// context is cancelled). Used by background sync workers.
	WaitForBudget WaitMode = iota

	// FailFast returns ErrRateLimited immediately. Used by anything
	// on a request path.
	FailFast
)

// Client calls the CourtListener API with quota enforcement and retry.
//
// Thread safety: safe for concurrent use. The quota is the shared
// coordination point; the client itself keeps no mutable state.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	quota          ratelimit.Quota
	waitMode       WaitMode
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient builds a client from cfg, drawing request budget from
// quota.
func NewClient(cfg *config.CourtListenerConfig, quota ratelimit.Quota, mode WaitMode) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		quota:          quota,
		waitMode:       mode,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// acquireBudget takes one quota unit, waiting or failing per the
// client's mode.
func (c *Client) acquireBudget(ctx context.Context) error {
	for {
		granted, retryAfter, err := c.quota.TryAcquire(ctx, 1)
		if err != nil {
			return fmt.Errorf("quota check: %w", err)
		}
		if granted {
			return nil
		}
		if c.waitMode == FailFast {
			return ErrRateLimited
		}

		logging.Ctx(ctx).Info().
			Dur("retry_after", retryAfter).
			Msg("hourly quota exhausted, waiting for window rollover")
		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// get performs a quota-checked GET with retry and decodes the JSON
// body into result.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return c.getURL(ctx, endpoint, reqURL, result)
}

// getURL is the raw fetch used both for endpoint calls and for
// following pagination cursor URLs returned by the API.
func (c *Client) getURL(ctx context.Context, endpoint, reqURL string, result interface{}) error {
	resp, err := c.doWithRetry(ctx, endpoint, reqURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// doWithRetry performs the request, retrying 429 and 5xx responses
// and transport errors with exponential backoff. Other 4xx responses
// are fatal: retrying a bad request burns quota for nothing.
//
// Every attempt consumes one quota unit before its request goes out,
// so retries count against the hourly cap like first tries do and the
// number of issued requests never exceeds it.
func (c *Client) doWithRetry(ctx context.Context, endpoint, reqURL string) (*http.Response, error) {
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt > 0 {
			metrics.UpstreamRetries.Inc()
		}
		if err := c.acquireBudget(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create %s request: %w", endpoint, err)
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Token "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport failure or timeout, retryable.
			lastErr = err
			c.observe(endpoint, "transport_error", start)
			if waitErr := c.backoff(ctx, attempt, 0); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			c.observe(endpoint, "200", start)
			return resp, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("%s: HTTP 429", endpoint)
			c.observe(endpoint, "429", start)
			logging.Ctx(ctx).Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Dur("elapsed", time.Since(start)).
				Msg("upstream rate limited, backing off")
			if waitErr := c.backoff(ctx, attempt, retryAfter); waitErr != nil {
				return nil, waitErr
			}

		case resp.StatusCode >= 500:
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("%s: HTTP %d", endpoint, resp.StatusCode)
			c.observe(endpoint, strconv.Itoa(resp.StatusCode), start)
			if waitErr := c.backoff(ctx, attempt, 0); waitErr != nil {
				return nil, waitErr
			}

		default:
			// Remaining 4xx: the request itself is wrong, do not
			// retry.
			body := readBodyForError(resp.Body)
			_ = resp.Body.Close()
			c.observe(endpoint, strconv.Itoa(resp.StatusCode), start)
			return nil, fmt.Errorf("%s request failed with status %d: %s", endpoint, resp.StatusCode, string(body))
		}
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrExhausted, endpoint, c.maxRetries+1, lastErr)
}

// backoff waits the jittered exponential delay for attempt, or
// retryAfter when the server asked for a specific wait. The wait is
// cancellable.
func (c *Client) backoff(ctx context.Context, attempt int, retryAfter time.Duration) error {
	select {
	case <-time.After(c.backoffDelay(attempt, retryAfter)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// backoffDelay doubles the base delay per attempt and adds up to 50%
// random jitter so synchronized workers spread their retries. A larger
// server-requested Retry-After wins over the computed delay.
func (c *Client) backoffDelay(attempt int, retryAfter time.Duration) time.Duration {
	delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
	delay += rand.N(delay/2 + 1)
	if retryAfter > delay {
		delay = retryAfter
	}
	return delay
}

func (c *Client) observe(endpoint, status string, start time.Time) {
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
}

// parseRetryAfter reads the RFC 6585 Retry-After header as seconds.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

// readBodyForError reads up to maxErrorBodySize of a response body for
// diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
