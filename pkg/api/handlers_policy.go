package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"dealflow-hq/vega/pkg/deal"
	"dealflow-hq/vega/pkg/policy"
	"dealflow-hq/vega/pkg/simulation"
)

type reloadResponse struct {
	Status string         `json:"status"`
	Policy *policy.Config `json:"policy"`
}

func (a *API) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.policies.Current())
}

// handleReloadPolicy re-reads the policy file. On failure the previous
// snapshot stays active and the error is reported to the caller.
func (a *API) handleReloadPolicy(w http.ResponseWriter, r *http.Request) {
	if err := a.policies.Reload(); err != nil {
		var cerr *policy.ConfigError
		if errors.As(err, &cerr) {
			writePolicyProblem(w, r, cerr.Error())
			return
		}
		writeBadRequest(w, r, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{Status: "reloaded", Policy: a.policies.Current()})
}

// handleSimulate replays the submitted deals under a hypothetical
// policy. Nothing is persisted and the live snapshot is untouched.
func (a *API) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if a.simulator == nil {
		writeBadRequest(w, r, "simulation is not enabled")
		return
	}

	var req simulation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "request body is not valid JSON")
		return
	}

	report, err := a.simulator.Simulate(r.Context(), req)
	if err != nil {
		var verr *deal.ValidationError
		if errors.As(err, &verr) {
			writeValidationProblem(w, r, verr)
			return
		}
		var cerr *policy.ConfigError
		if errors.As(err, &cerr) {
			writePolicyProblem(w, r, cerr.Error())
			return
		}
		writeBadRequest(w, r, err.Error())
		return
	}

	if a.collector != nil {
		a.collector.RecordSimulation()
	}
	writeJSON(w, http.StatusOK, report)
}
