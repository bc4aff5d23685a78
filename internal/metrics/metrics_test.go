// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordIngest(t *testing.T) {
	before := testutil.ToFloat64(EventsIngested.WithLabelValues("Delhi", "warning"))
	RecordIngest("Delhi", "warning")
	after := testutil.ToFloat64(EventsIngested.WithLabelValues("Delhi", "warning"))
	if after != before+1 {
		t.Errorf("expected counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestRecordIngestError(t *testing.T) {
	before := testutil.ToFloat64(IngestErrors.WithLabelValues("validation"))
	RecordIngestError("validation")
	after := testutil.ToFloat64(IngestErrors.WithLabelValues("validation"))
	if after != before+1 {
		t.Errorf("expected counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestSetBufferBytes(t *testing.T) {
	SetBufferBytes("Mumbai", 4096)
	got := testutil.ToFloat64(BufferBytes.WithLabelValues("Mumbai"))
	if got != 4096 {
		t.Errorf("expected gauge 4096, got %v", got)
	}

	SetBufferBytes("Mumbai", 0)
	got = testutil.ToFloat64(BufferBytes.WithLabelValues("Mumbai"))
	if got != 0 {
		t.Errorf("expected gauge 0 after reset, got %v", got)
	}
}

func TestRecordCycle(t *testing.T) {
	before := testutil.ToFloat64(ConsolidationCycles.WithLabelValues("Delhi", "archived"))
	RecordCycle("Delhi", "archived", 250*time.Millisecond)
	after := testutil.ToFloat64(ConsolidationCycles.WithLabelValues("Delhi", "archived"))
	if after != before+1 {
		t.Errorf("expected cycle counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestRecordStageFailure(t *testing.T) {
	before := testutil.ToFloat64(ConsolidationStageFailures.WithLabelValues("Bangalore", "anchoring"))
	RecordStageFailure("Bangalore", "anchoring")
	after := testutil.ToFloat64(ConsolidationStageFailures.WithLabelValues("Bangalore", "anchoring"))
	if after != before+1 {
		t.Errorf("expected failure counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestRecordArchivedBytes(t *testing.T) {
	before := testutil.ToFloat64(ConsolidationBytes.WithLabelValues("Delhi"))
	RecordArchivedBytes("Delhi", 1024)
	after := testutil.ToFloat64(ConsolidationBytes.WithLabelValues("Delhi"))
	if after != before+1024 {
		t.Errorf("expected byte counter to increase by 1024, got %v -> %v", before, after)
	}
}

func TestRecordBlocklistOp(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
		result    string
	}{
		{name: "successful block", operation: "block", err: nil, result: "success"},
		{name: "failed block", operation: "block", err: errors.New("conflict"), result: "failure"},
		{name: "successful unblock", operation: "unblock", err: nil, result: "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(BlocklistOperations.WithLabelValues(tt.operation, tt.result))
			RecordBlocklistOp(tt.operation, tt.err)
			after := testutil.ToFloat64(BlocklistOperations.WithLabelValues(tt.operation, tt.result))
			if after != before+1 {
				t.Errorf("expected counter to increase by 1, got %v -> %v", before, after)
			}
		})
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != base+1 {
		t.Errorf("expected gauge %v, got %v", base+1, got)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Errorf("expected gauge %v, got %v", base, got)
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	tests := []struct {
		to    string
		state float64
	}{
		{to: "open", state: 2},
		{to: "half-open", state: 1},
		{to: "closed", state: 0},
	}

	for _, tt := range tests {
		RecordBreakerTransition("test-breaker", "closed", tt.to)
		got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker"))
		if got != tt.state {
			t.Errorf("transition to %s: expected state %v, got %v", tt.to, tt.state, got)
		}
	}
}
