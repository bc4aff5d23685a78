// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

// Package ingest accepts security events and fans them out to the
// per-location buffer, the aggregate buffer, and the durable store.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/campwatch/campwatch/internal/buffer"
	"github.com/campwatch/campwatch/internal/logging"
	"github.com/campwatch/campwatch/internal/metrics"
	"github.com/campwatch/campwatch/internal/models"
	"github.com/campwatch/campwatch/internal/scoring"
	"github.com/campwatch/campwatch/internal/store"
	"github.com/campwatch/campwatch/internal/validation"
)

// ErrUnknownUser is returned when event attribution names a user the
// directory has never seen.
var ErrUnknownUser = store.ErrUnknownUser

// ErrDurableWrite is returned when the event reached both buffers but the
// durable store write failed. The buffered copies are not rolled back; the
// archival path remains intact.
var ErrDurableWrite = errors.New("durable store write failed")

// Service is the ingestion front door.
type Service struct {
	arena  *buffer.Arena
	store  *store.Store
	scorer scoring.Scorer
}

// NewService builds an ingestion service over its collaborators.
func NewService(arena *buffer.Arena, st *store.Store, scorer scoring.Scorer) *Service {
	return &Service{arena: arena, store: st, scorer: scorer}
}

// IngestSingle validates, attributes, scores, and records one event.
//
// Write order is fixed: location buffer, aggregate buffer, durable store.
// A buffer failure aborts before the store write; a store failure returns
// ErrDurableWrite with the event already buffered.
func (s *Service) IngestSingle(ctx context.Context, req *models.AddLogRequest) (*models.LogEvent, error) {
	if verr := validation.ValidateStruct(req); verr != nil {
		metrics.RecordIngestError("validation")
		return nil, verr
	}

	if _, err := s.store.ResolveUser(ctx, req.User); err != nil {
		if errors.Is(err, store.ErrUnknownUser) {
			metrics.RecordIngestError("unknown_user")
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, req.User)
		}
		metrics.RecordIngestError("durable")
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	ev := &models.LogEvent{
		ID:          uuid.New().String(),
		Timestamp:   req.Timestamp.UTC(),
		Source:      req.Source,
		Destination: req.Destination,
		User:        req.User,
		Device:      req.Device,
		EventType:   req.EventType,
		Description: req.Description,
		Severity:    models.Severity(req.Severity),
		Location:    req.Location,
	}

	score, err := s.scorer.Score(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("score event: %w", err)
	}
	ev.RiskScore = scoring.Clamp(score)

	line := []byte(ev.Line())
	if err := s.appendBoth(ctx, ev.Location, line); err != nil {
		metrics.RecordIngestError("buffer")
		return nil, err
	}

	if err := s.store.SaveEvent(ctx, ev); err != nil {
		metrics.RecordIngestError("durable")
		logging.Err(err).
			Str("event_id", ev.ID).
			Str("location", ev.Location).
			Msg("event buffered but durable write failed")
		return nil, fmt.Errorf("%w: %v", ErrDurableWrite, err)
	}

	metrics.RecordIngest(ev.Location, string(ev.Severity))
	s.updateBufferGauges(ctx, ev.Location)
	return ev, nil
}

// IngestBatch generates count synthetic events for location and appends
// them to the buffers in a single write per file. Synthetic events are load
// and drill traffic; they skip the durable store.
func (s *Service) IngestBatch(ctx context.Context, req *models.AddLogsRequest) (int, error) {
	if verr := validation.ValidateStruct(req); verr != nil {
		metrics.RecordIngestError("validation")
		return 0, verr
	}

	events := generate(req.Count, req.Location)
	var payload []byte
	for _, ev := range events {
		payload = append(payload, ev.Line()...)
	}

	if err := s.appendBoth(ctx, req.Location, payload); err != nil {
		metrics.RecordIngestError("buffer")
		return 0, err
	}

	metrics.RecordBatch(len(events))
	for _, ev := range events {
		metrics.RecordIngest(ev.Location, string(ev.Severity))
	}
	s.updateBufferGauges(ctx, req.Location)

	logging.Info().
		Int("count", len(events)).
		Str("location", req.Location).
		Msg("synthetic batch ingested")
	return len(events), nil
}

// appendBoth writes the payload to the location buffer and then the
// aggregate buffer, each as one atomic append.
func (s *Service) appendBoth(ctx context.Context, location string, payload []byte) error {
	if err := s.arena.Append(ctx, location, payload); err != nil {
		return fmt.Errorf("append %s buffer: %w", location, err)
	}
	if err := s.arena.Append(ctx, buffer.Aggregate, payload); err != nil {
		return fmt.Errorf("append aggregate buffer: %w", err)
	}
	return nil
}

func (s *Service) updateBufferGauges(ctx context.Context, location string) {
	for _, loc := range []string{location, buffer.Aggregate} {
		if size, err := s.arena.Size(ctx, loc); err == nil {
			metrics.SetBufferBytes(loc, size)
		}
	}
}
