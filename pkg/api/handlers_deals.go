package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dealflow-hq/vega/pkg/advisory"
	"dealflow-hq/vega/pkg/deal"
	"dealflow-hq/vega/pkg/routing"
	"dealflow-hq/vega/pkg/store"
)

// dealResponse is the body returned for a submitted or evaluated deal.
type dealResponse struct {
	Deal     deal.Deal          `json:"deal"`
	Decision routing.Decision   `json:"decision"`
	Advisory *advisory.Advisory `json:"advisory,omitempty"`
}

type listDealsResponse struct {
	Total int             `json:"total"`
	Deals []*store.Record `json:"deals"`
}

// handleCreateDeal runs the full pipeline for one submission: validate,
// evaluate, route, analyze the clause when present, and persist.
func (a *API) handleCreateDeal(w http.ResponseWriter, r *http.Request) {
	var in deal.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, r, "request body is not valid JSON")
		return
	}

	d, err := deal.New(in)
	if err != nil {
		var verr *deal.ValidationError
		if errors.As(err, &verr) {
			writeValidationProblem(w, r, verr)
			return
		}
		writeBadRequest(w, r, err.Error())
		return
	}

	cfg := a.policies.Current()
	start := time.Now()
	decision := routing.Decide(cfg, d)
	a.recordDecision(decision, time.Since(start))

	var adv *advisory.Advisory
	if d.ClauseText != "" && a.advisor != nil {
		result, err := a.advisor.AnalyzeClause(r.Context(), d.ClauseText)
		if err != nil {
			a.logger.ErrorContext(r.Context(), "clause analysis aborted", "deal_id", d.ID, "error", err)
			writeInternal(w, r)
			return
		}
		adv = &result
		if a.collector != nil {
			a.collector.RecordAdvisory(string(result.RiskLevel))
		}
	}

	if err := a.store.SaveDeal(r.Context(), d); err != nil {
		a.logger.ErrorContext(r.Context(), "saving deal", "deal_id", d.ID, "error", err)
		writeInternal(w, r)
		return
	}
	if err := a.store.UpdateDecision(r.Context(), d.ID, decision.RuleTriggers, decision, adv); err != nil {
		a.logger.ErrorContext(r.Context(), "recording decision", "deal_id", d.ID, "error", err)
		writeInternal(w, r)
		return
	}

	a.logger.InfoContext(r.Context(), "deal processed",
		"deal_id", d.ID,
		"approval_status", decision.ApprovalStatus,
		"priority", decision.Priority,
		"total_weight", decision.TotalWeight,
	)
	writeJSON(w, http.StatusCreated, dealResponse{Deal: d, Decision: decision, Advisory: adv})
}

// handleEvaluate runs evaluation and routing without persisting, for
// previewing how a deal would fare under the active policy.
func (a *API) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var in deal.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, r, "request body is not valid JSON")
		return
	}

	d, err := deal.New(in)
	if err != nil {
		var verr *deal.ValidationError
		if errors.As(err, &verr) {
			writeValidationProblem(w, r, verr)
			return
		}
		writeBadRequest(w, r, err.Error())
		return
	}

	decision := routing.Decide(a.policies.Current(), d)
	writeJSON(w, http.StatusOK, dealResponse{Deal: d, Decision: decision})
}

func (a *API) handleListDeals(w http.ResponseWriter, r *http.Request) {
	records, err := a.store.ListDeals(r.Context())
	if err != nil {
		a.logger.ErrorContext(r.Context(), "listing deals", "error", err)
		writeInternal(w, r)
		return
	}
	if records == nil {
		records = []*store.Record{}
	}
	writeJSON(w, http.StatusOK, listDealsResponse{Total: len(records), Deals: records})
}

func (a *API) handleGetDeal(w http.ResponseWriter, r *http.Request) {
	dealID := r.PathValue("id")
	record, err := a.store.GetDeal(r.Context(), dealID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w, r, "deal "+dealID+" not found")
			return
		}
		a.logger.ErrorContext(r.Context(), "fetching deal", "deal_id", dealID, "error", err)
		writeInternal(w, r)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (a *API) recordDecision(decision routing.Decision, elapsed time.Duration) {
	if a.collector == nil {
		return
	}
	a.collector.RecordDecision(string(decision.ApprovalStatus), string(decision.Priority), elapsed)
	for _, trigger := range decision.RuleTriggers {
		if trigger.Fired {
			a.collector.RecordRuleHit(string(trigger.RuleID))
		}
	}
}
