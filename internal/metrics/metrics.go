// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion Metrics
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_ingested_total",
			Help: "Total number of events accepted by the ingestion service",
		},
		[]string{"location", "severity"},
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_errors_total",
			Help: "Total number of rejected or failed ingestions",
		},
		[]string{"error_type"}, // "validation", "unknown_user", "buffer", "durable"
	)

	IngestBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_size",
			Help:    "Number of synthetic events per batch ingestion",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000, 10000},
		},
	)

	// Buffer Metrics
	BufferBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "buffer_bytes",
			Help: "Current size of the per-location buffer file in bytes",
		},
		[]string{"location"},
	)

	// Consolidation Metrics
	ConsolidationCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consolidation_cycles_total",
			Help: "Total number of completed consolidation cycles",
		},
		[]string{"location", "result"}, // result: "archived", "skipped", "failed"
	)

	ConsolidationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "consolidation_duration_seconds",
			Help:    "Duration of consolidation cycles in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 120},
		},
		[]string{"location"},
	)

	ConsolidationStageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consolidation_stage_failures_total",
			Help: "Total number of consolidation failures by pipeline stage",
		},
		[]string{"location", "stage"}, // stage: "uploading", "anchoring", "merging"
	)

	ConsolidationBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consolidation_bytes_total",
			Help: "Total bytes moved from buffers into the central archive",
		},
		[]string{"location"},
	)

	// Block Registry Metrics
	BlocklistOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blocklist_operations_total",
			Help: "Total number of block registry operations",
		},
		[]string{"operation", "result"}, // operation: "block", "unblock"
	)

	BlocklistActiveEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blocklist_active_entries",
			Help: "Current number of active block entries",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordIngest records one accepted event.
func RecordIngest(location, severity string) {
	EventsIngested.WithLabelValues(location, severity).Inc()
}

// RecordIngestError records a rejected or failed ingestion.
func RecordIngestError(errorType string) {
	IngestErrors.WithLabelValues(errorType).Inc()
}

// RecordBatch records the size of a synthetic batch ingestion.
func RecordBatch(size int) {
	IngestBatchSize.Observe(float64(size))
}

// SetBufferBytes updates the buffer size gauge for a location.
func SetBufferBytes(location string, size int64) {
	BufferBytes.WithLabelValues(location).Set(float64(size))
}

// RecordCycle records a finished consolidation cycle.
func RecordCycle(location, result string, duration time.Duration) {
	ConsolidationCycles.WithLabelValues(location, result).Inc()
	ConsolidationDuration.WithLabelValues(location).Observe(duration.Seconds())
}

// RecordStageFailure records a consolidation failure at a pipeline stage.
func RecordStageFailure(location, stage string) {
	ConsolidationStageFailures.WithLabelValues(location, stage).Inc()
}

// RecordArchivedBytes records bytes merged into the central archive.
func RecordArchivedBytes(location string, n int64) {
	ConsolidationBytes.WithLabelValues(location).Add(float64(n))
}

// RecordBlocklistOp records a block registry operation outcome.
func RecordBlocklistOp(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	BlocklistOperations.WithLabelValues(operation, result).Inc()
}

// RecordAPIRequest records a completed HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBreakerTransition records a circuit breaker state change. The state
// gauge encodes closed=0, half-open=1, open=2.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()

	var state float64
	switch to {
	case "half-open":
		state = 1
	case "open":
		state = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(state)
}
