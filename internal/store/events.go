// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package store

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/campwatch/campwatch/internal/models"
)

// eventKey orders events by timestamp with the ID as tie-breaker.
// Nanosecond timestamps are zero-padded so byte order equals time order.
func eventKey(ev *models.LogEvent) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixEvent, ev.Timestamp.UnixNano(), ev.ID))
}

// SaveEvent persists the canonical copy of an ingested event.
func (s *Store) SaveEvent(ctx context.Context, ev *models.LogEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.ID == "" {
		return fmt.Errorf("event has no ID")
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(ev), data)
	})
	if err != nil {
		return fmt.Errorf("save event %s: %w", ev.ID, err)
	}
	return nil
}

// ListEvents returns up to limit events, most recent first.
func (s *Store) ListEvents(ctx context.Context, limit int) ([]models.LogEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	var events []models.LogEvent
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefixEvent)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must seek past the last possible event key.
		seek := append([]byte(prefixEvent), 0xFF)
		for it.Seek(seek); it.Valid() && len(events) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var ev models.LogEvent
				if err := json.Unmarshal(val, &ev); err != nil {
					return fmt.Errorf("unmarshal event: %w", err)
				}
				events = append(events, ev)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// CountEvents returns the number of stored events.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixEvent)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}
