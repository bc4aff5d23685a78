// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package models

import (
	"strings"
	"testing"
	"time"
)

func sampleEvent() *LogEvent {
	return &LogEvent{
		Timestamp:   time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Source:      "10.1.2.3",
		Destination: "203.0.113.7",
		User:        "ops@delhi.camp",
		Device:      "gateway-01",
		EventType:   "port_scan",
		Description: "sequential SYN probes on 20 ports",
		Severity:    SeverityWarning,
		Location:    "Delhi",
		RiskScore:   0.7312,
	}
}

func TestLineFieldOrder(t *testing.T) {
	line := sampleEvent().Line()

	if !strings.HasSuffix(line, "\n") {
		t.Fatal("line must be newline-terminated")
	}

	fields := strings.Split(strings.TrimSuffix(line, "\n"), ",")
	if len(fields) != LineFieldCount {
		t.Fatalf("expected %d fields, got %d", LineFieldCount, len(fields))
	}

	want := []string{
		"Delhi",
		"2026-03-14T09:26:53Z",
		"10.1.2.3",
		"203.0.113.7",
		"ops@delhi.camp",
		"gateway-01",
		"port_scan",
		"sequential SYN probes on 20 ports",
		"warning",
		"0.7312",
	}
	for i, w := range want {
		if fields[i] != w {
			t.Errorf("field %d = %q, want %q", i, fields[i], w)
		}
	}
}

func TestParseLineRoundTrip(t *testing.T) {
	ev := sampleEvent()

	parsed, err := ParseLine(ev.Line())
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}

	if parsed.Location != ev.Location || parsed.Source != ev.Source ||
		parsed.Destination != ev.Destination || parsed.User != ev.User ||
		parsed.Device != ev.Device || parsed.EventType != ev.EventType ||
		parsed.Description != ev.Description || parsed.Severity != ev.Severity {
		t.Errorf("round trip mismatch: %+v vs %+v", parsed, ev)
	}
	if !parsed.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("timestamp mismatch: %v vs %v", parsed.Timestamp, ev.Timestamp)
	}
	if parsed.RiskScore != ev.RiskScore {
		t.Errorf("risk score mismatch: %v vs %v", parsed.RiskScore, ev.RiskScore)
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"too few fields", "Delhi,2026-03-14T09:26:53Z,10.1.2.3"},
		{"bad timestamp", "Delhi,yesterday,a,b,c,d,e,f,info,0.5"},
		{"bad score", "Delhi,2026-03-14T09:26:53Z,a,b,c,d,e,f,info,high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLine(tt.line); err == nil {
				t.Errorf("expected error for %q", tt.line)
			}
		})
	}
}

func TestSeverityValid(t *testing.T) {
	for _, s := range []Severity{SeverityInfo, SeverityWarning, SeverityCritical} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []Severity{"", "debug", "High", "CRITICAL"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}
