// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package api

import (
	"errors"
	"net/http"

	"github.com/campwatch/campwatch/internal/archive"
	"github.com/campwatch/campwatch/internal/blocklist"
	"github.com/campwatch/campwatch/internal/buffer"
	"github.com/campwatch/campwatch/internal/ingest"
	"github.com/campwatch/campwatch/internal/models"
	"github.com/campwatch/campwatch/internal/validation"
)

// Error codes carried in the response envelope.
const (
	codeValidation    = "VALIDATION_ERROR"
	codeUnknownUser   = "UNKNOWN_USER"
	codeNotFound      = "NOT_FOUND"
	codeUpload        = "STORAGE_UPLOAD_ERROR"
	codeAnchor        = "LEDGER_ANCHOR_ERROR"
	codeMerge         = "ARCHIVE_MERGE_ERROR"
	codeCycleInFlight = "CYCLE_IN_FLIGHT"
	codeInternal      = "INTERNAL_ERROR"
)

// respondDomainError maps a domain error onto an HTTP status and error code.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		apiErr := verr.ToAPIError()
		respondError(w, r, http.StatusBadRequest, &models.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		})
		return
	}

	switch {
	case errors.Is(err, ingest.ErrUnknownUser):
		respondError(w, r, http.StatusNotFound, &models.APIError{
			Code:    codeUnknownUser,
			Message: err.Error(),
		})
	case errors.Is(err, blocklist.ErrNotFound):
		respondError(w, r, http.StatusNotFound, &models.APIError{
			Code:    codeNotFound,
			Message: err.Error(),
		})
	case errors.Is(err, buffer.ErrBadLocation):
		respondError(w, r, http.StatusBadRequest, &models.APIError{
			Code:    codeValidation,
			Message: err.Error(),
		})
	default:
		respondError(w, r, http.StatusInternalServerError, &models.APIError{
			Code:    codeInternal,
			Message: err.Error(),
		})
	}
}

// cycleErrorCode maps a consolidation failure to its stage-scoped code.
func cycleErrorCode(err error) string {
	switch {
	case errors.Is(err, archive.ErrUpload):
		return codeUpload
	case errors.Is(err, archive.ErrAnchor):
		return codeAnchor
	case errors.Is(err, archive.ErrMerge):
		return codeMerge
	case errors.Is(err, archive.ErrCycleInFlight):
		return codeCycleInFlight
	default:
		return codeInternal
	}
}
