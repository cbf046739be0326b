package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"dealflow-hq/vega/pkg/store"
)

type overrideRequest struct {
	Reason       string `json:"override_reason"`
	Notes        string `json:"override_notes"`
	OverriddenBy string `json:"overridden_by"`
}

type overrideResponse struct {
	OverrideID int64  `json:"override_id"`
	DealID     string `json:"deal_id"`
	Message    string `json:"message"`
}

// handleOverride records a manual approval for an escalated deal. Only
// processed, escalated deals can be overridden, and the reason must come
// from the accepted set.
func (a *API) handleOverride(w http.ResponseWriter, r *http.Request) {
	dealID := r.PathValue("id")

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "request body is not valid JSON")
		return
	}
	if !store.ValidOverrideReason(req.Reason) {
		writeBadRequest(w, r, "override_reason must be one of: "+strings.Join(store.ValidOverrideReasons, ", "))
		return
	}

	record, err := a.store.GetDeal(r.Context(), dealID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w, r, "deal "+dealID+" not found")
			return
		}
		a.logger.ErrorContext(r.Context(), "fetching deal for override", "deal_id", dealID, "error", err)
		writeInternal(w, r)
		return
	}

	if record.Status != store.StatusProcessed || record.Decision == nil {
		writeBadRequest(w, r, "deal "+dealID+" has not been processed; only processed deals can be overridden")
		return
	}
	if record.Decision.AutoApproved {
		writeBadRequest(w, r, "deal "+dealID+" was auto-approved; there is no escalation to override")
		return
	}

	ov := &store.Override{
		DealID:           dealID,
		Reason:           req.Reason,
		Notes:            req.Notes,
		OverriddenBy:     req.OverriddenBy,
		OriginalDecision: *record.Decision,
	}
	if err := a.store.SaveOverride(r.Context(), ov); err != nil {
		a.logger.ErrorContext(r.Context(), "saving override", "deal_id", dealID, "error", err)
		writeInternal(w, r)
		return
	}

	if a.collector != nil {
		a.collector.RecordOverride(req.Reason)
	}
	a.logger.InfoContext(r.Context(), "deal overridden",
		"deal_id", dealID,
		"override_id", ov.ID,
		"reason", req.Reason,
	)
	writeJSON(w, http.StatusCreated, overrideResponse{
		OverrideID: ov.ID,
		DealID:     dealID,
		Message:    "Deal approved via manual override.",
	})
}
