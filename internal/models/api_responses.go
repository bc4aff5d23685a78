// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package models

import "time"

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "partial": request completed with per-item failures, see Data
//   - "error": request failed, see Error
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError carries structured error details.
//
// Common codes:
//   - VALIDATION_ERROR: invalid input (HTTP 400)
//   - UNKNOWN_USER: event attribution failed (HTTP 404)
//   - NOT_FOUND: referenced entity does not exist (HTTP 404)
//   - STORAGE_UPLOAD_ERROR, LEDGER_ANCHOR_ERROR, ARCHIVE_MERGE_ERROR:
//     stage-scoped consolidation failures, retryable (HTTP 500)
//   - INTERNAL_ERROR: unexpected failure (HTTP 500)
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// AddLogRequest is the body of POST /api/v1/logs.
// The delimiter exclusion (0x2C = comma) keeps field values compatible with
// the buffer line format, which has no escaping.
type AddLogRequest struct {
	Timestamp   time.Time `json:"timestamp" validate:"required"`
	Source      string    `json:"source" validate:"required,excludesall=0x2C"`
	Destination string    `json:"destination" validate:"required,excludesall=0x2C"`
	User        string    `json:"user" validate:"required,excludesall=0x2C"`
	Device      string    `json:"device" validate:"required,excludesall=0x2C"`
	EventType   string    `json:"event_type" validate:"required,excludesall=0x2C"`
	Description string    `json:"description" validate:"required,excludesall=0x2C"`
	Severity    string    `json:"severity" validate:"required,oneof=info warning critical"`
	Location    string    `json:"location" validate:"required,excludesall=0x2C"`
}

// AddLogsRequest is the body of POST /api/v1/logs/batch.
type AddLogsRequest struct {
	Count    int    `json:"count" validate:"required,gt=0,lte=10000"`
	Location string `json:"location" validate:"required,excludesall=0x2C"`
}

// AddLogsResponse reports the outcome of a batch ingestion.
type AddLogsResponse struct {
	Message    string `json:"message"`
	AddedCount int    `json:"added_count"`
	Location   string `json:"location"`
}

// BlockRequest is the body of POST /api/v1/blocklist.
type BlockRequest struct {
	Destination string    `json:"destination" validate:"required"`
	Location    string    `json:"location" validate:"required"`
	Source      string    `json:"source" validate:"required"`
	UserID      string    `json:"user_id" validate:"required"`
	Timestamp   time.Time `json:"timestamp" validate:"required"`
}

// BlockResponse reports the outcome of a block operation.
type BlockResponse struct {
	Message        string              `json:"message"`
	AlreadyBlocked bool                `json:"already_blocked"`
	Entry          *BlockedDestination `json:"entry,omitempty"`
}

// UnblockRequest is the body of POST /api/v1/blocklist/unblock.
type UnblockRequest struct {
	BlockID string `json:"block_id" validate:"required,uuid4"`
}

// AddUserRequest is the body of POST /api/v1/users.
type AddUserRequest struct {
	UserRef string `json:"user_ref" validate:"required,excludesall=0x2C"`
	Name    string `json:"name" validate:"required"`
}

// CycleResultView is the per-location entry in the consolidation trigger
// response. Failures are surfaced per location, never folded into a single
// boolean.
type CycleResultView struct {
	Location  string `json:"location"`
	Stage     string `json:"stage"`
	Skipped   bool   `json:"skipped,omitempty"`
	CID       string `json:"cid,omitempty"`
	LedgerRef string `json:"ledger_ref,omitempty"`
	Bytes     int64  `json:"bytes,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}
