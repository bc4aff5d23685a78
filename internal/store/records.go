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

// SaveArchiveRecord appends the proof record of one consolidation cycle.
func (s *Store) SaveArchiveRecord(ctx context.Context, rec *models.ArchiveRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		return fmt.Errorf("archive record has no ID")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal archive record: %w", err)
	}

	key := []byte(fmt.Sprintf("%s%020d:%s", prefixArchive, rec.MergedAt.UnixNano(), rec.ID))
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("save archive record %s: %w", rec.ID, err)
	}
	return nil
}

// ListArchiveRecords returns up to limit archive records, most recent first.
func (s *Store) ListArchiveRecords(ctx context.Context, limit int) ([]models.ArchiveRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	var records []models.ArchiveRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefixArchive)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append([]byte(prefixArchive), 0xFF)
		for it.Seek(seek); it.Valid() && len(records) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec models.ArchiveRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("unmarshal archive record: %w", err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list archive records: %w", err)
	}
	return records, nil
}
