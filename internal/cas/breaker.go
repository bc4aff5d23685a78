// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package cas

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/campwatch/campwatch/internal/logging"
	"github.com/campwatch/campwatch/internal/metrics"
)

// BreakerStore wraps a Store with a circuit breaker so a flapping store
// fails fast instead of stalling every consolidation cycle. A tripped
// breaker surfaces as an Uploading-stage failure, which the consolidator
// already treats as retryable.
type BreakerStore struct {
	inner Store
	put   *gobreaker.CircuitBreaker[string]
	get   *gobreaker.CircuitBreaker[[]byte]
}

// breakerSettings builds the shared breaker configuration.
func breakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	}
}

// NewBreakerStore wraps inner with circuit breakers for Put and Get.
func NewBreakerStore(inner Store) *BreakerStore {
	return &BreakerStore{
		inner: inner,
		put:   gobreaker.NewCircuitBreaker[string](breakerSettings("cas-put")),
		get:   gobreaker.NewCircuitBreaker[[]byte](breakerSettings("cas-get")),
	}
}

// Put stores data through the breaker.
func (s *BreakerStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	return s.put.Execute(func() (string, error) {
		return s.inner.Put(ctx, name, data)
	})
}

// Get retrieves a blob through the breaker.
func (s *BreakerStore) Get(ctx context.Context, cid string) ([]byte, error) {
	return s.get.Execute(func() ([]byte, error) {
		return s.inner.Get(ctx, cid)
	})
}

// Stat delegates to the inner store; existence checks are cheap local
// operations and do not trip the breaker.
func (s *BreakerStore) Stat(ctx context.Context, cid string) (bool, error) {
	return s.inner.Stat(ctx, cid)
}
