// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package api

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// healthStatus is the payload of GET /api/v1/health.
type healthStatus struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

// Health handles GET /api/v1/health. The ledger chain is re-verified on
// every call; a broken chain degrades the service to "unhealthy" while
// leaving ingestion reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"store":  "ok",
		"ledger": "ok",
	}
	status := "healthy"
	httpStatus := http.StatusOK

	if _, err := h.store.CountEvents(r.Context()); err != nil {
		checks["store"] = err.Error()
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}
	if err := h.ledger.Verify(); err != nil {
		checks["ledger"] = err.Error()
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	respondJSON(w, r, httpStatus, healthStatus{
		Status:        status,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Checks:        checks,
	})
}

// HealthLive handles GET /api/v1/health/live. Always OK while the process
// serves requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready. Ready once the durable
// store answers queries.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.CountEvents(r.Context()); err != nil {
		respondJSON(w, r, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": err.Error(),
		})
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
