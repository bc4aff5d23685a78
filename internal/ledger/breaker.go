// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package ledger

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/campwatch/campwatch/internal/logging"
	"github.com/campwatch/campwatch/internal/metrics"
)

// BreakerAnchorer wraps an Anchorer with a circuit breaker. A tripped
// breaker surfaces as an Anchoring-stage failure, which the consolidator
// treats as retryable; the buffer stays untouched.
type BreakerAnchorer struct {
	inner Anchorer
	cb    *gobreaker.CircuitBreaker[string]
}

// NewBreakerAnchorer wraps inner with a circuit breaker.
func NewBreakerAnchorer(inner Anchorer) *BreakerAnchorer {
	return &BreakerAnchorer{
		inner: inner,
		cb: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:    "ledger-anchor",
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
		}),
	}
}

// Anchor records the pair through the breaker.
func (a *BreakerAnchorer) Anchor(ctx context.Context, cid, label string) (string, error) {
	return a.cb.Execute(func() (string, error) {
		return a.inner.Anchor(ctx, cid, label)
	})
}
