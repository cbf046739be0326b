// Package routing turns a rule trigger sequence into an approval
// decision: auto-approval when nothing fired, otherwise a priority tier
// and an ordered escalation path.
package routing

import (
	"dealflow-hq/vega/pkg/policy"
	"dealflow-hq/vega/pkg/rules"
)

// Outcome is the approval status of a routed deal.
type Outcome string

const (
	AutoApproved Outcome = "Auto-Approved"
	Escalated    Outcome = "Escalated"
)

// Tier is the escalation priority assigned to an escalated deal.
// TierNone is used for auto-approved deals only.
type Tier string

const (
	TierP1   Tier = "P1"
	TierP2   Tier = "P2"
	TierP3   Tier = "P3"
	TierNone Tier = "None"
)

// Decision is the full routing outcome for one deal.
type Decision struct {
	DealID         string          `json:"deal_id"`
	ApprovalStatus Outcome         `json:"approval_status"`
	AutoApproved   bool            `json:"auto_approved"`
	Priority       Tier            `json:"priority"`
	TotalWeight    int             `json:"total_weight"`
	EscalationPath []string        `json:"escalation_path"`
	RuleTriggers   []rules.Trigger `json:"rule_triggers"`
}

// Route computes the decision for a trigger sequence. It is total:
// any trigger slice and any validated cutoffs yield a decision, never
// an error.
//
// A deal with no fired triggers is auto-approved. Otherwise it is
// escalated at the highest tier whose cutoff the total weight meets,
// checked P1 first; a positive weight below every cutoff still
// escalates at P3.
func Route(dealID string, triggers []rules.Trigger, order []string, cutoffs policy.Cutoffs) Decision {
	d := Decision{
		DealID:         dealID,
		EscalationPath: []string{},
		RuleTriggers:   triggers,
	}

	total := rules.TotalWeight(triggers)
	if !anyFired(triggers) {
		d.ApprovalStatus = AutoApproved
		d.AutoApproved = true
		d.Priority = TierNone
		return d
	}

	d.ApprovalStatus = Escalated
	d.TotalWeight = total
	d.Priority = tierFor(total, cutoffs)
	d.EscalationPath = escalationPath(triggers, order)
	return d
}

func anyFired(triggers []rules.Trigger) bool {
	for _, t := range triggers {
		if t.Fired {
			return true
		}
	}
	return false
}

func tierFor(weight int, cutoffs policy.Cutoffs) Tier {
	switch {
	case weight >= cutoffs.P1:
		return TierP1
	case weight >= cutoffs.P2:
		return TierP2
	default:
		return TierP3
	}
}

// escalationPath returns the teams owning fired triggers as a
// deduplicated subsequence of the configured escalation order.
func escalationPath(triggers []rules.Trigger, order []string) []string {
	targeted := make(map[string]bool, len(triggers))
	for _, t := range triggers {
		if t.Fired {
			targeted[t.Owner] = true
		}
	}
	path := make([]string, 0, len(targeted))
	for _, team := range order {
		if targeted[team] {
			path = append(path, team)
			delete(targeted, team)
		}
	}
	return path
}
