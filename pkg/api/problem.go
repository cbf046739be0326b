package api

import (
	"encoding/json"
	"net/http"

	"dealflow-hq/vega/pkg/deal"
)

// Problem is an RFC 7807 error body. Every non-2xx response uses this
// shape so clients have one error contract across the API.
type Problem struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []deal.FieldError `json:"errors,omitempty"`
}

const (
	problemTypeValidation = "urn:vega:error:validation"
	problemTypeNotFound   = "urn:vega:error:not-found"
	problemTypeBadRequest = "urn:vega:error:bad-request"
	problemTypePolicy     = "urn:vega:error:policy"
	problemTypeInternal   = "urn:vega:error:internal"
	problemTypeTimeout    = "urn:vega:error:timeout"
)

func writeProblem(w http.ResponseWriter, r *http.Request, p Problem) {
	if p.Instance == "" && r != nil {
		p.Instance = r.URL.Path
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// writeValidationProblem renders a 422 with the per-field error list.
func writeValidationProblem(w http.ResponseWriter, r *http.Request, verr *deal.ValidationError) {
	writeProblem(w, r, Problem{
		Type:   problemTypeValidation,
		Title:  "Validation Failed",
		Status: http.StatusUnprocessableEntity,
		Detail: "One or more fields failed validation.",
		Errors: verr.Errors,
	})
}

func writeNotFound(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, Problem{
		Type:   problemTypeNotFound,
		Title:  "Not Found",
		Status: http.StatusNotFound,
		Detail: detail,
	})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, Problem{
		Type:   problemTypeBadRequest,
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
		Detail: detail,
	})
}

func writePolicyProblem(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, Problem{
		Type:   problemTypePolicy,
		Title:  "Invalid Policy",
		Status: http.StatusUnprocessableEntity,
		Detail: detail,
	})
}

func writeInternal(w http.ResponseWriter, r *http.Request) {
	writeProblem(w, r, Problem{
		Type:   problemTypeInternal,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: "An internal error occurred. Please try again later.",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
