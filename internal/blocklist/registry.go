// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

// Package blocklist maintains the registry of blocked destinations.
//
// The registry enforces at most one active entry per destination with a
// compare-and-insert inside a single BadgerDB transaction, so concurrent
// block requests for the same destination converge on one winner.
package blocklist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/campwatch/campwatch/internal/logging"
	"github.com/campwatch/campwatch/internal/metrics"
	"github.com/campwatch/campwatch/internal/models"
)

// Key layout. The destination key holds the entry; the id key is an index
// pointing back at the destination so unblock can work from the entry ID.
const (
	prefixDest = "block:dest:"
	prefixID   = "block:id:"
)

// conflictRetries bounds retries after optimistic transaction conflicts.
const conflictRetries = 3

// ErrNotFound is returned when an unblock names an unknown block ID.
var ErrNotFound = errors.New("block entry not found")

// Registry is the blocked-destination registry backed by BadgerDB.
type Registry struct {
	db *badger.DB
}

// New creates a registry over a shared database handle.
func New(db *badger.DB) *Registry {
	return &Registry{db: db}
}

// Block records a block on destination. If an active entry already exists,
// the existing entry is returned with created=false and nothing is written.
func (r *Registry) Block(ctx context.Context, destination, location, source, blockedBy string, at time.Time) (*models.BlockedDestination, bool, error) {
	if destination == "" {
		return nil, false, errors.New("destination must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	candidate := &models.BlockedDestination{
		ID:          uuid.New().String(),
		Destination: destination,
		Location:    location,
		Source:      source,
		BlockedBy:   blockedBy,
		BlockedAt:   at.UTC(),
	}

	var winner *models.BlockedDestination
	var created bool

	op := func(txn *badger.Txn) error {
		winner, created = nil, false

		destKey := []byte(prefixDest + destination)
		item, err := txn.Get(destKey)
		switch {
		case err == nil:
			// Existing active entry wins.
			existing := &models.BlockedDestination{}
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, existing)
			}); verr != nil {
				return fmt.Errorf("decode existing block: %w", verr)
			}
			winner = existing
			return nil
		case errors.Is(err, badger.ErrKeyNotFound):
			// Fall through to insert.
		default:
			return fmt.Errorf("read block entry: %w", err)
		}

		data, err := json.Marshal(candidate)
		if err != nil {
			return fmt.Errorf("encode block entry: %w", err)
		}
		if err := txn.Set(destKey, data); err != nil {
			return fmt.Errorf("write block entry: %w", err)
		}
		if err := txn.Set([]byte(prefixID+candidate.ID), []byte(destination)); err != nil {
			return fmt.Errorf("write block index: %w", err)
		}
		winner, created = candidate, true
		return nil
	}

	err := r.update(op)
	metrics.RecordBlocklistOp("block", err)
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.BlocklistActiveEntries.Inc()
		logging.Info().
			Str("destination", destination).
			Str("location", location).
			Str("block_id", winner.ID).
			Msg("destination blocked")
	}
	return winner, created, nil
}

// Unblock removes the block entry identified by blockID. An unknown ID
// returns ErrNotFound.
func (r *Registry) Unblock(ctx context.Context, blockID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	op := func(txn *badger.Txn) error {
		idKey := []byte(prefixID + blockID)
		item, err := txn.Get(idKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read block index: %w", err)
		}

		var destination string
		if err := item.Value(func(val []byte) error {
			destination = string(val)
			return nil
		}); err != nil {
			return fmt.Errorf("read block index value: %w", err)
		}

		if err := txn.Delete([]byte(prefixDest + destination)); err != nil {
			return fmt.Errorf("delete block entry: %w", err)
		}
		if err := txn.Delete(idKey); err != nil {
			return fmt.Errorf("delete block index: %w", err)
		}
		return nil
	}

	err := r.update(op)
	metrics.RecordBlocklistOp("unblock", err)
	if err != nil {
		return err
	}

	metrics.BlocklistActiveEntries.Dec()
	logging.Info().Str("block_id", blockID).Msg("destination unblocked")
	return nil
}

// ListActive returns all active block entries ordered by destination.
func (r *Registry) ListActive(ctx context.Context) ([]*models.BlockedDestination, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []*models.BlockedDestination
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixDest)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefixDest)); it.ValidForPrefix([]byte(prefixDest)); it.Next() {
			entry := &models.BlockedDestination{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, entry)
			}); err != nil {
				return fmt.Errorf("decode block entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Destination < entries[j].Destination
	})
	return entries, nil
}

// IsBlocked reports whether destination currently has an active entry.
func (r *Registry) IsBlocked(ctx context.Context, destination string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	blocked := false
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(prefixDest + destination))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		blocked = true
		return nil
	})
	return blocked, err
}

// update runs fn in an Update transaction, retrying on optimistic conflicts.
func (r *Registry) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = r.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
