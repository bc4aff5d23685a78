// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package models

import "time"

// BlockedDestination is an active block on a destination observed in the
// event stream. At most one active entry exists per destination value; the
// registry enforces this with a compare-and-insert at write time.
type BlockedDestination struct {
	// ID identifies this block entry for unblock operations.
	ID string `json:"id"`

	Destination string `json:"destination"`
	Location    string `json:"location"`
	Source      string `json:"source"`

	// BlockedBy is the attribution reference of the operator who blocked.
	BlockedBy string `json:"blocked_by"`

	BlockedAt time.Time `json:"blocked_at"`
}
