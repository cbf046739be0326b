package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"dealflow-hq/vega/pkg/seed"
)

type seedRequest struct {
	Count       int  `json:"count"`
	AutoProcess bool `json:"auto_process"`
}

type seedResponse struct {
	Generated int      `json:"generated"`
	DealIDs   []string `json:"deal_ids"`
}

// decodeSeedRequest reads an optional JSON body; an empty body selects
// the defaults.
func decodeSeedRequest(r *http.Request) (seedRequest, error) {
	req := seedRequest{Count: seed.DefaultCount, AutoProcess: true}
	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		return req, nil
	}
	return req, err
}

func (a *API) handleSeed(w http.ResponseWriter, r *http.Request) {
	if a.seeder == nil {
		writeBadRequest(w, r, "seeding is not enabled")
		return
	}

	req, err := decodeSeedRequest(r)
	if err != nil {
		writeBadRequest(w, r, "request body is not valid JSON")
		return
	}
	if req.Count < 1 || req.Count > seed.MaxCount {
		writeBadRequest(w, r, "count must be between 1 and 500")
		return
	}

	ids, err := a.seeder.Seed(r.Context(), req.Count, req.AutoProcess)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "seeding deals", "error", err)
		writeInternal(w, r)
		return
	}
	writeJSON(w, http.StatusCreated, seedResponse{Generated: len(ids), DealIDs: ids})
}

// handleSeedReset wipes all stored deals and overrides, then seeds a
// fresh, fully processed data set.
func (a *API) handleSeedReset(w http.ResponseWriter, r *http.Request) {
	if a.seeder == nil {
		writeBadRequest(w, r, "seeding is not enabled")
		return
	}

	req, err := decodeSeedRequest(r)
	if err != nil {
		writeBadRequest(w, r, "request body is not valid JSON")
		return
	}
	if req.Count < 1 || req.Count > seed.MaxCount {
		writeBadRequest(w, r, "count must be between 1 and 500")
		return
	}

	ids, err := a.seeder.ResetAndSeed(r.Context(), req.Count)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "resetting and seeding", "error", err)
		writeInternal(w, r)
		return
	}
	writeJSON(w, http.StatusCreated, seedResponse{Generated: len(ids), DealIDs: ids})
}
