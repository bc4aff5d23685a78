// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package models

import "time"

// ArchiveRecord is the proof that one consolidation cycle for a location
// completed: the buffered batch was uploaded to the content-addressed store
// and its CID anchored on the ledger. Records are append-only, one per
// successful cycle per location.
type ArchiveRecord struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	CID       string    `json:"cid"`
	LedgerRef string    `json:"ledger_ref"`
	MergedAt  time.Time `json:"merged_at"`

	// Bytes is the size of the consolidated batch.
	Bytes int64 `json:"bytes"`
}
