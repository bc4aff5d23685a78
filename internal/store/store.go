// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

// Package store provides the BadgerDB-backed durable record store: the
// canonical queryable copy of ingested events, the user attribution
// directory, and the archive record log.
//
// The buffer+archive chain is authoritative for audit; this store is the
// advisory copy used for queries, so a failed write here is surfaced but
// never rolls back buffer state.
package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/campwatch/campwatch/internal/logging"
)

// Key prefixes for the record types sharing the database.
const (
	prefixEvent   = "event:"
	prefixUser    = "user:"
	prefixArchive = "archive:"
)

// Config holds store settings.
type Config struct {
	// Path is the BadgerDB directory.
	Path string

	// SyncWrites enables fsync on every write.
	SyncWrites bool

	// InMemory runs the store without disk persistence (tests).
	InMemory bool
}

// Store owns the shared BadgerDB handle.
type Store struct {
	db *badger.DB
}

// Open creates or opens the store.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
		opts.SyncWrites = cfg.SyncWrites
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Bool("in_memory", cfg.InMemory).
		Msg("record store opened")

	return &Store{db: db}, nil
}

// DB exposes the underlying handle for collaborators sharing the database,
// such as the block registry.
func (s *Store) DB() *badger.DB {
	return s.db
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
