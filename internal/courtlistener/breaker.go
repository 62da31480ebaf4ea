// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package courtlistener

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/judgefinder/judgefinder/internal/logging"
	"github.com/judgefinder/judgefinder/internal/metrics"
)

// API is the surface the sync pipeline consumes. Implemented by
// CircuitBreakerClient for production and by mocks in tests.
type API interface {
	ListCourts(ctx context.Context, jurisdiction, pageURL string) (*Page[Court], error)
	ListPeople(ctx context.Context, courtID, pageURL string) (*Page[Person], error)
	GetPerson(ctx context.Context, personID int64) (*Person, error)
	ListPositions(ctx context.Context, personID int64, pageURL string) (*Page[Position], error)
	ListOpinions(ctx context.Context, authorID int64, since, pageURL string) (*Page[Opinion], error)
	ListDockets(ctx context.Context, judgeID int64, since, pageURL string) (*Page[Docket], error)
}

// CircuitBreakerClient wraps Client with the circuit breaker pattern
// so a CourtListener outage stops burning quota on requests that will
// fail anyway.
//
// The breaker uses real time for its interval and timeout; tests mock
// the underlying client rather than the breaker.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient wraps client with a breaker that opens at a
// 60% failure rate over at least 10 requests and probes again after
// two minutes.
func NewCircuitBreakerClient(client *Client) *CircuitBreakerClient {
	cbName := "courtlistener-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		// Quota rejections and cancelled contexts are our own doing,
		// not upstream health; they must not trip the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrRateLimited) || errors.Is(err, context.Canceled)
		},

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: cbName}
}

// execute wraps an API call with breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	return result, nil
}

// castResult safely type-casts the breaker result.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// ListCourts fetches courts with breaker protection.
func (cbc *CircuitBreakerClient) ListCourts(ctx context.Context, jurisdiction, pageURL string) (*Page[Court], error) {
	return castResult[Page[Court]](cbc.execute(func() (interface{}, error) {
		return cbc.client.ListCourts(ctx, jurisdiction, pageURL)
	}))
}

// ListPeople fetches judges with breaker protection.
func (cbc *CircuitBreakerClient) ListPeople(ctx context.Context, courtID, pageURL string) (*Page[Person], error) {
	return castResult[Page[Person]](cbc.execute(func() (interface{}, error) {
		return cbc.client.ListPeople(ctx, courtID, pageURL)
	}))
}

// GetPerson fetches one judge with breaker protection.
func (cbc *CircuitBreakerClient) GetPerson(ctx context.Context, personID int64) (*Person, error) {
	return castResult[Person](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetPerson(ctx, personID)
	}))
}

// ListPositions fetches positions with breaker protection.
func (cbc *CircuitBreakerClient) ListPositions(ctx context.Context, personID int64, pageURL string) (*Page[Position], error) {
	return castResult[Page[Position]](cbc.execute(func() (interface{}, error) {
		return cbc.client.ListPositions(ctx, personID, pageURL)
	}))
}

// ListOpinions fetches opinions with breaker protection.
func (cbc *CircuitBreakerClient) ListOpinions(ctx context.Context, authorID int64, since, pageURL string) (*Page[Opinion], error) {
	return castResult[Page[Opinion]](cbc.execute(func() (interface{}, error) {
		return cbc.client.ListOpinions(ctx, authorID, since, pageURL)
	}))
}

// ListDockets fetches dockets with breaker protection.
func (cbc *CircuitBreakerClient) ListDockets(ctx context.Context, judgeID int64, since, pageURL string) (*Page[Docket], error) {
	return castResult[Page[Docket]](cbc.execute(func() (interface{}, error) {
		return cbc.client.ListDockets(ctx, judgeID, since, pageURL)
	}))
}
