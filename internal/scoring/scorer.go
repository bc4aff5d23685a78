// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

// Package scoring provides the risk scorer applied to every ingested event.
//
// The pipeline treats the scorer as a black box whose only contract is a
// score in [0,1]: any model satisfying the Scorer interface can be swapped
// in. The heuristic scorer here weighs severity, event type, and off-hours
// timing; it exists so the system is useful without an external model.
package scoring

import (
	"context"
	"strings"

	"github.com/campwatch/campwatch/internal/models"
)

// Scorer computes a risk score in [0,1] for an event.
type Scorer interface {
	Score(ctx context.Context, ev *models.LogEvent) (float64, error)
}

// Clamp forces a score into [0,1]. The ingestion service applies it to
// every scorer output so an out-of-contract model cannot poison records.
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Heuristic is the built-in severity/type/timing scorer.
type Heuristic struct{}

// NewHeuristic returns the default scorer.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// severityBase maps severity to the score floor.
var severityBase = map[models.Severity]float64{
	models.SeverityInfo:     0.10,
	models.SeverityWarning:  0.45,
	models.SeverityCritical: 0.80,
}

// typeWeights bumps the score for event types that historically precede
// incidents. Matched as substrings of the lowercased event type.
var typeWeights = map[string]float64{
	"intrusion":  0.15,
	"malware":    0.15,
	"exfil":      0.15,
	"brute":      0.10,
	"scan":       0.08,
	"unauthoriz": 0.10,
	"login_fail": 0.08,
	"ddos":       0.12,
	"anomal":     0.05,
}

// Score implements Scorer.
func (h *Heuristic) Score(ctx context.Context, ev *models.LogEvent) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	score := severityBase[ev.Severity]

	eventType := strings.ToLower(ev.EventType)
	for needle, weight := range typeWeights {
		if strings.Contains(eventType, needle) {
			score += weight
		}
	}

	// Activity between 22:00 and 06:00 camp-local (approximated as UTC)
	// is weighted up: legitimate traffic at the camps is daytime-heavy.
	hour := ev.Timestamp.UTC().Hour()
	if hour >= 22 || hour < 6 {
		score += 0.05
	}

	return Clamp(score), nil
}
