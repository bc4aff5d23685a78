// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/campwatch/campwatch/internal/logging"
	"github.com/campwatch/campwatch/internal/models"
)

// Envelope status values.
const (
	statusSuccess = "success"
	statusPartial = "partial"
	statusError   = "error"
)

// respondJSON writes a success envelope with the given payload.
func respondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, data interface{}) {
	respondEnvelope(w, r, httpStatus, models.APIResponse{
		Status: statusSuccess,
		Data:   data,
	})
}

// respondPartial writes a partial envelope; used when a multi-location
// operation succeeded for some locations and failed for others.
func respondPartial(w http.ResponseWriter, r *http.Request, data interface{}) {
	respondEnvelope(w, r, http.StatusMultiStatus, models.APIResponse{
		Status: statusPartial,
		Data:   data,
	})
}

// respondError writes an error envelope with a machine-readable code.
func respondError(w http.ResponseWriter, r *http.Request, httpStatus int, apiErr *models.APIError) {
	respondEnvelope(w, r, httpStatus, models.APIResponse{
		Status: statusError,
		Error:  apiErr,
	})
}

func respondEnvelope(w http.ResponseWriter, r *http.Request, httpStatus int, resp models.APIResponse) {
	resp.Metadata = models.Metadata{Timestamp: time.Now().UTC()}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

// decodeJSON parses the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
