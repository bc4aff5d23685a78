// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

/*
Package metrics provides Prometheus metrics collection and export.

The package instruments the ingestion path, the per-location buffers, the
consolidation pipeline, the block registry, and the HTTP API. Metrics are
exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:5001/metrics

# Available Metrics

Ingestion:
  - events_ingested_total: Ingested events (counter)
    Labels: location, severity
  - ingest_errors_total: Failed ingestions (counter)
    Labels: error_type
  - ingest_batch_size: Synthetic batch sizes (histogram)

Buffers:
  - buffer_bytes: Current buffer file size (gauge)
    Labels: location

Consolidation:
  - consolidation_cycles_total: Completed cycles (counter)
    Labels: location, result ("archived", "skipped", "failed")
  - consolidation_duration_seconds: Cycle duration (histogram)
    Labels: location
  - consolidation_stage_failures_total: Per-stage failures (counter)
    Labels: location, stage
  - consolidation_bytes_total: Bytes moved to the central archive (counter)
    Labels: location

Block registry:
  - blocklist_operations_total: Block/unblock operations (counter)
    Labels: operation, result
  - blocklist_active_entries: Active block entries (gauge)

HTTP:
  - api_requests_total, api_request_duration_seconds, api_active_requests

Circuit breakers:
  - circuit_breaker_state, circuit_breaker_state_transitions_total

All metrics use promauto and register on the default registry at package
initialization.
*/
package metrics
