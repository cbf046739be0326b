package kpi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"dealflow-hq/vega/pkg/store"
	"dealflow-hq/vega/pkg/telemetry/metrics"
)

// Refresher recomputes the KPI summary on a cron schedule and pushes
// the rates into the metrics collector's gauges.
type Refresher struct {
	store     store.Store
	collector *metrics.Collector
	schedule  string
	cron      *cron.Cron
	mu        sync.Mutex
	logger    *slog.Logger
	running   bool
}

// NewRefresher creates a refresher. schedule is a standard cron
// expression; empty disables scheduling.
func NewRefresher(s store.Store, collector *metrics.Collector, schedule string, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		store:     s,
		collector: collector,
		schedule:  schedule,
		cron:      cron.New(),
		logger:    logger.With("component", "kpi.refresher"),
	}
}

// Start begins scheduled refreshes and runs one refresh immediately so
// gauges are populated at startup. With an empty schedule Start does
// nothing.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schedule == "" {
		r.logger.Info("kpi refresh schedule not configured, skipping")
		return nil
	}

	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", r.schedule, err)
	}

	if _, err := r.cron.AddFunc(r.schedule, func() {
		r.refresh(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule kpi refresh: %w", err)
	}

	r.refresh(ctx)
	r.cron.Start()
	r.running = true

	r.logger.Info("kpi refresher started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// refresh recomputes the summary and updates the gauges.
func (r *Refresher) refresh(ctx context.Context) {
	summary, err := Compute(ctx, r.store)
	if err != nil {
		r.logger.Error("kpi refresh failed", "error", err)
		return
	}
	r.collector.SetKPIRates(summary.TotalDeals,
		summary.AutoApprovalRate, summary.EscalationRate, summary.OverrideRate)
	r.logger.Debug("kpi gauges refreshed",
		"total_deals", summary.TotalDeals,
		"auto_approval_rate", summary.AutoApprovalRate)
}

// Stop halts the scheduler and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil && r.running {
		ctx := r.cron.Stop()
		<-ctx.Done()
		r.running = false
		r.logger.Info("kpi refresher stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (r *Refresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
