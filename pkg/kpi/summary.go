// Package kpi computes operational metrics over the deal store:
// approval and escalation rates, rule trigger frequencies and override
// breakdowns.
package kpi

import (
	"context"
	"fmt"
	"sort"

	"dealflow-hq/vega/pkg/store"
)

// RuleCount is one entry in the rule trigger leaderboard.
type RuleCount struct {
	RuleID string `json:"rule_id"`
	Count  int    `json:"count"`
}

// Summary aggregates outcomes across all stored deals. Rates are
// computed over processed deals; a store with no processed deals
// reports zero rates.
type Summary struct {
	TotalDeals       int            `json:"total_deals"`
	AutoApproved     int            `json:"auto_approved"`
	Escalated        int            `json:"escalated"`
	Overridden       int            `json:"overridden"`
	AutoApprovalRate float64        `json:"auto_approval_rate"`
	EscalationRate   float64        `json:"escalation_rate"`
	OverrideRate     float64        `json:"override_rate"`
	EscalationByTeam map[string]int `json:"escalation_by_team"`
	TopRuleTriggers  []RuleCount    `json:"top_rule_triggers"`
	OverrideByReason map[string]int `json:"override_by_reason"`
	OverrideByTeam   map[string]int `json:"override_by_team"`
}

// Compute builds the summary from the store's current contents.
func Compute(ctx context.Context, s store.Store) (*Summary, error) {
	records, err := s.ListDeals(ctx)
	if err != nil {
		return nil, fmt.Errorf("kpi: listing deals: %w", err)
	}
	overrides, err := s.ListOverrides(ctx)
	if err != nil {
		return nil, fmt.Errorf("kpi: listing overrides: %w", err)
	}

	summary := &Summary{
		TotalDeals:       len(records),
		EscalationByTeam: make(map[string]int),
		OverrideByReason: make(map[string]int),
		OverrideByTeam:   make(map[string]int),
	}

	ruleCounts := make(map[string]int)
	for _, rec := range records {
		if rec.Decision == nil {
			continue
		}
		if rec.Decision.AutoApproved {
			summary.AutoApproved++
		} else {
			summary.Escalated++
			for _, team := range rec.Decision.EscalationPath {
				summary.EscalationByTeam[team]++
			}
		}
		for _, tr := range rec.Decision.RuleTriggers {
			if tr.Fired {
				ruleCounts[string(tr.RuleID)]++
			}
		}
	}

	summary.Overridden = len(overrides)
	for _, ov := range overrides {
		summary.OverrideByReason[ov.Reason]++
		for _, team := range ov.OriginalDecision.EscalationPath {
			summary.OverrideByTeam[team]++
		}
	}

	processed := summary.AutoApproved + summary.Escalated
	if processed > 0 {
		summary.AutoApprovalRate = float64(summary.AutoApproved) / float64(processed)
		summary.EscalationRate = float64(summary.Escalated) / float64(processed)
		summary.OverrideRate = float64(summary.Overridden) / float64(processed)
	}

	summary.TopRuleTriggers = make([]RuleCount, 0, len(ruleCounts))
	for id, count := range ruleCounts {
		summary.TopRuleTriggers = append(summary.TopRuleTriggers, RuleCount{RuleID: id, Count: count})
	}
	sort.Slice(summary.TopRuleTriggers, func(i, j int) bool {
		a, b := summary.TopRuleTriggers[i], summary.TopRuleTriggers[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.RuleID < b.RuleID
	})

	return summary, nil
}
