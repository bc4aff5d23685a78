// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package ingest

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/campwatch/campwatch/internal/models"
)

// Value pools for synthetic events. Values never contain the buffer line
// delimiter.
var (
	genEventTypes = []string{
		"intrusion_attempt",
		"malware_detected",
		"port_scan",
		"brute_force",
		"unauthorized_access",
		"login_failure",
		"data_exfiltration",
		"ddos_probe",
		"anomalous_traffic",
	}

	genDescriptions = []string{
		"repeated connection attempts on closed port",
		"signature match on inbound payload",
		"sequential probe across service ports",
		"credential stuffing against gateway",
		"access attempt outside assigned zone",
		"failed login burst from single host",
		"large outbound transfer to unknown host",
		"syn flood pattern from external range",
		"traffic volume outside baseline",
	}

	genDevices = []string{
		"gateway-01",
		"gateway-02",
		"firewall-edge",
		"camp-router",
		"sensor-node",
	}

	genUsers = []string{
		"patrol@camp.net",
		"sensor@camp.net",
		"watch@camp.net",
	}

	genSeverities = []models.Severity{
		models.SeverityInfo,
		models.SeverityInfo,
		models.SeverityWarning,
		models.SeverityWarning,
		models.SeverityCritical,
	}
)

// generate produces count synthetic events for location with timestamps
// spread over the preceding hour.
func generate(count int, location string) []*models.LogEvent {
	now := time.Now().UTC()
	events := make([]*models.LogEvent, 0, count)

	for i := 0; i < count; i++ {
		severity := genSeverities[rand.Intn(len(genSeverities))]
		events = append(events, &models.LogEvent{
			Timestamp:   now.Add(-time.Duration(rand.Intn(3600)) * time.Second),
			Source:      fmt.Sprintf("192.168.%d.%d", rand.Intn(256), 1+rand.Intn(254)),
			Destination: fmt.Sprintf("10.%d.%d.%d", rand.Intn(256), rand.Intn(256), 1+rand.Intn(254)),
			User:        genUsers[rand.Intn(len(genUsers))],
			Device:      genDevices[rand.Intn(len(genDevices))],
			EventType:   genEventTypes[rand.Intn(len(genEventTypes))],
			Description: genDescriptions[rand.Intn(len(genDescriptions))],
			Severity:    severity,
			Location:    location,
			RiskScore:   syntheticScore(severity),
		})
	}
	return events
}

// syntheticScore assigns a plausible risk score without invoking the real
// scorer; synthetic traffic is not attributed or stored durably.
func syntheticScore(severity models.Severity) float64 {
	base := 0.05
	switch severity {
	case models.SeverityWarning:
		base = 0.35
	case models.SeverityCritical:
		base = 0.70
	}
	return base + rand.Float64()*0.25
}
