// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

/*
Package api provides HTTP routing and handlers using the Chi router.

# Endpoints

Event ingestion:

	POST /api/v1/logs        ingest one event
	POST /api/v1/logs/batch  generate and buffer synthetic events
	GET  /api/v1/logs        list recent durable events

Consolidation:

	POST /api/v1/archive/trigger  consolidate all locations and the aggregate
	GET  /api/v1/archive/records  list archive records

Block registry:

	POST /api/v1/blocklist          block a destination
	POST /api/v1/blocklist/unblock  remove a block entry
	GET  /api/v1/blocklist          list active blocks

User directory:

	POST /api/v1/users  register or update a user

Operational:

	GET /api/v1/health  liveness and dependency status
	GET /metrics        Prometheus exposition

All /api/v1 responses use the envelope in models.APIResponse with status
"success", "partial", or "error". CORS, rate limiting, and panic recovery
come from the go-chi ecosystem; request identity, logging, and Prometheus
instrumentation from the middleware package.
*/
package api
