// Package simulation replays deals through the evaluation pipeline
// under a hypothetical policy to answer what-if questions without
// touching the live configuration.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"dealflow-hq/vega/pkg/deal"
	"dealflow-hq/vega/pkg/policy"
	"dealflow-hq/vega/pkg/routing"
)

// DeltaClass classifies how a deal's outcome changed between the base
// and hypothetical runs.
type DeltaClass string

const (
	// Unchanged means status and tier are identical in both runs.
	Unchanged DeltaClass = "unchanged"

	// Upgraded means the deal escalated in both runs at a more urgent
	// tier under the hypothetical policy.
	Upgraded DeltaClass = "upgraded"

	// Downgraded means the deal escalated in both runs at a less
	// urgent tier under the hypothetical policy.
	Downgraded DeltaClass = "downgraded"

	// NewlyEscalated means the deal was auto-approved under the base
	// policy but escalates under the hypothetical one.
	NewlyEscalated DeltaClass = "newly_escalated"

	// NewlyAutoApproved means the deal escalated under the base policy
	// but auto-approves under the hypothetical one.
	NewlyAutoApproved DeltaClass = "newly_auto_approved"
)

// Request describes one simulation run: a policy delta overlaid on the
// current snapshot, an optional set of rules to suppress in the
// hypothetical run, and the deals to replay.
type Request struct {
	Delta         policy.Delta    `json:"policy_delta"`
	DisabledRules []policy.RuleID `json:"disabled_rules,omitempty"`
	Deals         []deal.Input    `json:"deals"`
}

// Result pairs the base and hypothetical decisions for one deal.
type Result struct {
	DealID       string           `json:"deal_id"`
	Baseline     routing.Decision `json:"baseline"`
	Hypothetical routing.Decision `json:"hypothetical"`
	Change       DeltaClass       `json:"change"`
}

// RunMetrics aggregates the outcomes of one side of a simulation run.
type RunMetrics struct {
	Total             int            `json:"total_deals"`
	AutoApproved      int            `json:"auto_approved"`
	Escalated         int            `json:"escalated"`
	AutoApprovalRate  float64        `json:"auto_approval_rate"`
	EscalationRate    float64        `json:"escalation_rate"`
	EscalationsByTeam map[string]int `json:"escalations_by_team"`
	TriggersByRule    map[string]int `json:"triggers_by_rule"`
}

// BatchMetrics compares aggregate outcomes across the two runs.
type BatchMetrics struct {
	Baseline             RunMetrics `json:"baseline"`
	Hypothetical         RunMetrics `json:"hypothetical"`
	AutoApprovalRateDiff float64    `json:"auto_approval_rate_diff"`
	EscalationRateDiff   float64    `json:"escalation_rate_diff"`
}

// Report is the full output of a simulation: per-deal results in input
// order plus batch aggregates.
type Report struct {
	Results []Result     `json:"results"`
	Metrics BatchMetrics `json:"metrics"`
}

// Engine runs simulations against a policy store snapshot.
type Engine struct {
	store   *policy.Store
	workers int
	logger  *slog.Logger
}

// DefaultWorkers bounds per-deal evaluation concurrency.
const DefaultWorkers = 8

// NewEngine creates a simulation engine. workers <= 0 selects
// DefaultWorkers.
func NewEngine(store *policy.Store, workers int, logger *slog.Logger) *Engine {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   store,
		workers: workers,
		logger:  logger.With("component", "simulation.engine"),
	}
}

// Simulate validates the request, overlays the delta on the current
// policy snapshot and replays every deal through both configurations.
// The live snapshot is never modified; results preserve the order of
// the request's deals.
func (e *Engine) Simulate(ctx context.Context, req Request) (*Report, error) {
	if len(req.Deals) == 0 {
		return nil, fmt.Errorf("simulate: no deals to evaluate")
	}

	base := e.store.Current()
	hypo, err := policy.Overlay(base, req.Delta)
	if err != nil {
		return nil, fmt.Errorf("simulate: applying policy delta: %w", err)
	}

	disabled := make(map[policy.RuleID]bool, len(req.DisabledRules))
	for _, id := range req.DisabledRules {
		if _, ok := base.RuleWeights[id]; !ok {
			return nil, fmt.Errorf("simulate: unknown rule %q in disabled_rules", id)
		}
		disabled[id] = true
	}

	deals := make([]deal.Deal, len(req.Deals))
	for i, in := range req.Deals {
		if err := deal.ValidateInput(in); err != nil {
			return nil, fmt.Errorf("simulate: deal %d: %w", i, err)
		}
		deals[i] = simDeal(i, in)
	}

	results := make([]Result, len(deals))
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	for i, d := range deals {
		wg.Add(1)
		go func(i int, d deal.Deal) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			baseline := routing.Decide(base, d)
			hypothetical := routing.DecideWithout(hypo, d, disabled)
			results[i] = Result{
				DealID:       d.ID,
				Baseline:     baseline,
				Hypothetical: hypothetical,
				Change:       Classify(baseline, hypothetical),
			}
		}(i, d)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		Results: results,
		Metrics: computeMetrics(results),
	}
	e.logger.Debug("simulation complete",
		"deals", len(results),
		"auto_approval_rate_diff", report.Metrics.AutoApprovalRateDiff)
	return report, nil
}

// simDeal builds an evaluation-only deal. Simulated deals are never
// persisted, so the id derives from the request position instead of a
// fresh uuid and the creation time stays zero. Two calls over the
// same request produce identical reports.
func simDeal(index int, in deal.Input) deal.Deal {
	return deal.Deal{
		ID:                   fmt.Sprintf("sim-%d", index+1),
		DealType:             in.DealType,
		CustomerSegment:      in.CustomerSegment,
		AnnualContractValue:  in.AnnualContractValue,
		DiscountPercentage:   in.DiscountPercentage,
		PaymentTermsDays:     in.PaymentTermsDays,
		Region:               in.Region,
		CustomSecurityClause: in.CustomSecurityClause,
		ClauseText:           in.ClauseText,
	}
}

// Classify determines how the hypothetical decision differs from the
// baseline. The classification is total and symmetric: swapping the
// two decisions swaps Upgraded with Downgraded and NewlyEscalated with
// NewlyAutoApproved, and leaves Unchanged fixed.
func Classify(baseline, hypothetical routing.Decision) DeltaClass {
	switch {
	case baseline.AutoApproved && hypothetical.AutoApproved:
		return Unchanged
	case baseline.AutoApproved && !hypothetical.AutoApproved:
		return NewlyEscalated
	case !baseline.AutoApproved && hypothetical.AutoApproved:
		return NewlyAutoApproved
	}

	bt, ht := tierRank(baseline.Priority), tierRank(hypothetical.Priority)
	switch {
	case ht < bt:
		return Upgraded
	case ht > bt:
		return Downgraded
	default:
		return Unchanged
	}
}

// tierRank orders tiers by urgency, P1 most urgent.
func tierRank(t routing.Tier) int {
	switch t {
	case routing.TierP1:
		return 1
	case routing.TierP2:
		return 2
	case routing.TierP3:
		return 3
	default:
		return 4
	}
}

func computeMetrics(results []Result) BatchMetrics {
	baseline := newRunMetrics()
	hypothetical := newRunMetrics()
	for _, r := range results {
		baseline.observe(r.Baseline)
		hypothetical.observe(r.Hypothetical)
	}
	baseline.finalize()
	hypothetical.finalize()
	return BatchMetrics{
		Baseline:             baseline,
		Hypothetical:         hypothetical,
		AutoApprovalRateDiff: hypothetical.AutoApprovalRate - baseline.AutoApprovalRate,
		EscalationRateDiff:   hypothetical.EscalationRate - baseline.EscalationRate,
	}
}

func newRunMetrics() RunMetrics {
	return RunMetrics{
		EscalationsByTeam: make(map[string]int),
		TriggersByRule:    make(map[string]int),
	}
}

func (m *RunMetrics) observe(d routing.Decision) {
	m.Total++
	if d.AutoApproved {
		m.AutoApproved++
	} else {
		m.Escalated++
		for _, team := range d.EscalationPath {
			m.EscalationsByTeam[team]++
		}
	}
	for _, t := range d.RuleTriggers {
		if t.Fired {
			m.TriggersByRule[string(t.RuleID)]++
		}
	}
}

func (m *RunMetrics) finalize() {
	if m.Total == 0 {
		return
	}
	m.AutoApprovalRate = float64(m.AutoApproved) / float64(m.Total)
	m.EscalationRate = float64(m.Escalated) / float64(m.Total)
}
