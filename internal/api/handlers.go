// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package api

import (
	"net/http"
	"strconv"

	"github.com/campwatch/campwatch/internal/archive"
	"github.com/campwatch/campwatch/internal/blocklist"
	"github.com/campwatch/campwatch/internal/ingest"
	"github.com/campwatch/campwatch/internal/logging"
	"github.com/campwatch/campwatch/internal/models"
	"github.com/campwatch/campwatch/internal/store"
	"github.com/campwatch/campwatch/internal/validation"
)

// defaultListLimit bounds list endpoints when the caller does not set one.
const defaultListLimit = 100

// LedgerVerifier exposes the ledger chain check used by the health handler.
type LedgerVerifier interface {
	Verify() error
}

// Handler holds the services behind the HTTP surface.
type Handler struct {
	ingest       *ingest.Service
	consolidator *archive.Consolidator
	registry     *blocklist.Registry
	store        *store.Store
	ledger       LedgerVerifier
}

// NewHandler builds the handler set.
func NewHandler(svc *ingest.Service, c *archive.Consolidator, reg *blocklist.Registry, st *store.Store, led LedgerVerifier) *Handler {
	return &Handler{
		ingest:       svc,
		consolidator: c,
		registry:     reg,
		store:        st,
		ledger:       led,
	}
}

// AddLog handles POST /api/v1/logs.
func (h *Handler) AddLog(w http.ResponseWriter, r *http.Request) {
	var req models.AddLogRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, &models.APIError{
			Code:    codeValidation,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	ev, err := h.ingest.IngestSingle(r.Context(), &req)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, ev)
}

// AddLogs handles POST /api/v1/logs/batch.
func (h *Handler) AddLogs(w http.ResponseWriter, r *http.Request) {
	var req models.AddLogsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, &models.APIError{
			Code:    codeValidation,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	added, err := h.ingest.IngestBatch(r.Context(), &req)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, models.AddLogsResponse{
		Message:    "Success",
		AddedCount: added,
		Location:   req.Location,
	})
}

// ListLogs handles GET /api/v1/logs.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r)
	events, err := h.store.ListEvents(r.Context(), limit)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, events)
}

// TriggerArchive handles POST /api/v1/archive/trigger. The response carries
// one entry per location; failures are reported per location, and the
// envelope status degrades to "partial" when only some cycles succeed.
func (h *Handler) TriggerArchive(w http.ResponseWriter, r *http.Request) {
	results := h.consolidator.RunAll(r.Context())

	views := make([]models.CycleResultView, len(results))
	failures := 0
	for i, res := range results {
		views[i] = res.View()
		if res.Err != nil {
			views[i].ErrorCode = cycleErrorCode(res.Err)
			failures++
		}
	}

	switch {
	case failures == 0:
		respondJSON(w, r, http.StatusOK, views)
	case failures < len(results):
		respondPartial(w, r, views)
	default:
		respondEnvelope(w, r, http.StatusInternalServerError, models.APIResponse{
			Status: statusError,
			Data:   views,
			Error: &models.APIError{
				Code:    codeInternal,
				Message: "all consolidation cycles failed",
			},
		})
	}
}

// ListArchiveRecords handles GET /api/v1/archive/records.
func (h *Handler) ListArchiveRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListArchiveRecords(r.Context(), queryLimit(r))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, records)
}

// Block handles POST /api/v1/blocklist.
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	var req models.BlockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, &models.APIError{
			Code:    codeValidation,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondDomainError(w, r, verr)
		return
	}

	entry, created, err := h.registry.Block(r.Context(), req.Destination, req.Location, req.Source, req.UserID, req.Timestamp)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := models.BlockResponse{
		Message:        "destination blocked",
		AlreadyBlocked: !created,
		Entry:          entry,
	}
	if created {
		respondJSON(w, r, http.StatusCreated, resp)
		return
	}
	resp.Message = "destination already blocked"
	respondJSON(w, r, http.StatusOK, resp)
}

// Unblock handles POST /api/v1/blocklist/unblock.
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	var req models.UnblockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, &models.APIError{
			Code:    codeValidation,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondDomainError(w, r, verr)
		return
	}

	if err := h.registry.Unblock(r.Context(), req.BlockID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"message": "destination unblocked"})
}

// ListBlocklist handles GET /api/v1/blocklist.
func (h *Handler) ListBlocklist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.registry.ListActive(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*models.BlockedDestination{}
	}
	respondJSON(w, r, http.StatusOK, entries)
}

// AddUser handles POST /api/v1/users.
func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req models.AddUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, &models.APIError{
			Code:    codeValidation,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondDomainError(w, r, verr)
		return
	}

	user, err := h.store.PutUser(r.Context(), req.UserRef, req.Name)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("user_ref", req.UserRef).Msg("user registered")
	respondJSON(w, r, http.StatusCreated, user)
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}
