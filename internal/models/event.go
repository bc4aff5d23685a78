// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Severity classifies the operator-facing weight of an event.
type Severity string

// Severity levels, ordered from least to most severe.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity level.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// LogEvent is a single security-relevant network event observed at a camp.
// Events are immutable once ingested. The durable store holds the canonical
// queryable copy; the per-location buffer holds the archival copy rendered
// by Line.
//
// Field values must not contain the buffer line delimiter (comma); the
// ingestion service rejects events that violate this.
type LogEvent struct {
	// ID is assigned at ingestion time.
	ID string `json:"id,omitempty"`

	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`

	// User is the opaque attribution reference supplied by the caller,
	// resolved against the user directory at ingestion.
	User string `json:"user"`

	Device      string   `json:"device"`
	EventType   string   `json:"event_type"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Location    string   `json:"location"`

	// RiskScore is the scorer output, always in [0,1].
	RiskScore float64 `json:"risk_score"`
}

// LineFieldCount is the number of comma-delimited fields in a buffer line.
const LineFieldCount = 10

// lineTimeFormat is the timestamp rendering used in buffer lines.
const lineTimeFormat = time.RFC3339

// Line renders the event as a newline-terminated buffer line with the fixed
// field order:
//
//	location,timestamp,source,destination,user,device,eventType,description,severity,riskScore
func (e *LogEvent) Line() string {
	return strings.Join([]string{
		e.Location,
		e.Timestamp.UTC().Format(lineTimeFormat),
		e.Source,
		e.Destination,
		e.User,
		e.Device,
		e.EventType,
		e.Description,
		string(e.Severity),
		strconv.FormatFloat(e.RiskScore, 'f', 4, 64),
	}, ",") + "\n"
}

// ParseLine inverts Line. The input may carry a trailing newline.
func ParseLine(line string) (*LogEvent, error) {
	line = strings.TrimSuffix(line, "\n")
	fields := strings.Split(line, ",")
	if len(fields) != LineFieldCount {
		return nil, fmt.Errorf("buffer line has %d fields, want %d", len(fields), LineFieldCount)
	}

	ts, err := time.Parse(lineTimeFormat, fields[1])
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", fields[1], err)
	}

	score, err := strconv.ParseFloat(fields[9], 64)
	if err != nil {
		return nil, fmt.Errorf("parse risk score %q: %w", fields[9], err)
	}

	return &LogEvent{
		Location:    fields[0],
		Timestamp:   ts,
		Source:      fields[2],
		Destination: fields[3],
		User:        fields[4],
		Device:      fields[5],
		EventType:   fields[6],
		Description: fields[7],
		Severity:    Severity(fields[8]),
		RiskScore:   score,
	}, nil
}
