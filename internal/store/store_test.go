// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campwatch/campwatch/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		ev := &models.LogEvent{
			ID:          uuid.New().String(),
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Source:      fmt.Sprintf("10.0.0.%d", i),
			Destination: "203.0.113.7",
			User:        "ops@delhi.camp",
			Device:      "gateway-01",
			EventType:   "port_scan",
			Description: "probe",
			Severity:    models.SeverityInfo,
			Location:    "Delhi",
			RiskScore:   0.3,
		}
		if err := s.SaveEvent(ctx, ev); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	events, err := s.ListEvents(ctx, 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	// Most recent first.
	if events[0].Source != "10.0.0.4" {
		t.Errorf("expected most recent event first, got source %s", events[0].Source)
	}
	if !events[0].Timestamp.After(events[1].Timestamp) {
		t.Error("events should be ordered recent-first")
	}

	count, err := s.CountEvents(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 events, got %d", count)
	}
}

func TestSaveEventRequiresID(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveEvent(context.Background(), &models.LogEvent{Timestamp: time.Now()})
	if err == nil {
		t.Error("expected error for event without ID")
	}
}

func TestUserDirectory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.PutUser(ctx, "ops@delhi.camp", "Delhi Ops")
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a durable ID")
	}

	resolved, err := s.ResolveUser(ctx, "ops@delhi.camp")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.ID != created.ID {
		t.Errorf("resolve returned different ID: %s vs %s", resolved.ID, created.ID)
	}

	// Re-registering keeps the durable ID, updates the name.
	updated, err := s.PutUser(ctx, "ops@delhi.camp", "Delhi Operations")
	if err != nil {
		t.Fatalf("second put failed: %v", err)
	}
	if updated.ID != created.ID {
		t.Error("re-registering must keep the durable ID")
	}
	if updated.Name != "Delhi Operations" {
		t.Errorf("expected updated name, got %q", updated.Name)
	}
}

func TestResolveUnknownUser(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ResolveUser(context.Background(), "nobody@nowhere")
	if !errors.Is(err, ErrUnknownUser) {
		t.Errorf("expected ErrUnknownUser, got %v", err)
	}
}

func TestArchiveRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rec := &models.ArchiveRecord{
			ID:        uuid.New().String(),
			Location:  "Delhi",
			CID:       fmt.Sprintf("bafk%064d", i),
			LedgerRef: fmt.Sprintf("ref-%d", i),
			MergedAt:  base.Add(time.Duration(i) * time.Hour),
			Bytes:     100,
		}
		if err := s.SaveArchiveRecord(ctx, rec); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	records, err := s.ListArchiveRecords(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].LedgerRef != "ref-2" {
		t.Errorf("expected most recent record first, got %s", records[0].LedgerRef)
	}
}
