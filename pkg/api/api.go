// Package api exposes the deal evaluation pipeline over HTTP. All
// endpoints speak JSON; errors use RFC 7807 problem bodies.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"dealflow-hq/vega/pkg/advisory"
	"dealflow-hq/vega/pkg/kpi"
	"dealflow-hq/vega/pkg/policy"
	"dealflow-hq/vega/pkg/seed"
	"dealflow-hq/vega/pkg/simulation"
	"dealflow-hq/vega/pkg/store"
	"dealflow-hq/vega/pkg/telemetry/health"
	"dealflow-hq/vega/pkg/telemetry/metrics"
)

// Options wires the API's dependencies. Policies and Store are
// required; the rest may be nil and the matching endpoints adapt.
type Options struct {
	Policies  *policy.Store
	Store     store.Store
	Advisor   advisory.Client
	Simulator *simulation.Engine
	Seeder    *seed.Seeder
	Collector *metrics.Collector
	Health    *health.Checker

	// MetricsPath is where the Prometheus exposition is mounted.
	// Empty disables the endpoint.
	MetricsPath string

	// RequestTimeout bounds each request end to end. Zero defaults to
	// 60 seconds.
	RequestTimeout time.Duration

	Logger *slog.Logger
}

// API is the HTTP surface of the service.
type API struct {
	policies  *policy.Store
	store     store.Store
	advisor   advisory.Client
	simulator *simulation.Engine
	seeder    *seed.Seeder
	collector *metrics.Collector
	health    *health.Checker

	metricsPath    string
	requestTimeout time.Duration
	logger         *slog.Logger
}

// New creates the API from its dependencies.
func New(opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	checker := opts.Health
	if checker == nil {
		checker = health.New(0)
	}
	return &API{
		policies:       opts.Policies,
		store:          opts.Store,
		advisor:        opts.Advisor,
		simulator:      opts.Simulator,
		seeder:         opts.Seeder,
		collector:      opts.Collector,
		health:         checker,
		metricsPath:    opts.MetricsPath,
		requestTimeout: timeout,
		logger:         logger.With("component", "api"),
	}
}

// Routes builds the full handler tree with the middleware chain
// applied: timeout, request ID, logging, panic recovery, then routing.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/deals", a.handleCreateDeal)
	mux.HandleFunc("GET /v1/deals", a.handleListDeals)
	mux.HandleFunc("GET /v1/deals/{id}", a.handleGetDeal)
	mux.HandleFunc("POST /v1/deals/{id}/override", a.handleOverride)
	mux.HandleFunc("POST /v1/evaluate", a.handleEvaluate)

	mux.HandleFunc("GET /v1/policy", a.handleGetPolicy)
	mux.HandleFunc("POST /v1/policy/reload", a.handleReloadPolicy)

	mux.HandleFunc("POST /v1/simulations", a.handleSimulate)
	mux.HandleFunc("GET /v1/metrics/summary", a.handleKPISummary)

	mux.HandleFunc("POST /v1/seed", a.handleSeed)
	mux.HandleFunc("POST /v1/seed/reset", a.handleSeedReset)

	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /ready", a.handleReady)

	if a.collector != nil && a.metricsPath != "" {
		mux.Handle("GET "+a.metricsPath, a.collector.Handler())
	}

	var handler http.Handler = mux
	handler = Recovery(a.logger)(handler)
	handler = Logging(a.logger)(handler)
	handler = RequestID(handler)
	handler = Timeout(a.requestTimeout)(handler)
	return handler
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.health.Liveness(r.Context()))
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	status := a.health.Readiness(r.Context())
	code := http.StatusOK
	if status.Status != "ready" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (a *API) handleKPISummary(w http.ResponseWriter, r *http.Request) {
	summary, err := kpi.Compute(r.Context(), a.store)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "computing KPI summary", "error", err)
		writeInternal(w, r)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
