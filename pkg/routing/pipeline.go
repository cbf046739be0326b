package routing

import (
	"dealflow-hq/vega/pkg/deal"
	"dealflow-hq/vega/pkg/policy"
	"dealflow-hq/vega/pkg/rules"
)

// Decide runs the full resolver, rule engine and routing pipeline for
// one deal under the given policy snapshot. Live evaluation and
// what-if simulation both go through this path so their semantics
// cannot drift apart.
func Decide(cfg *policy.Config, d deal.Deal) Decision {
	return DecideWithout(cfg, d, nil)
}

// DecideWithout is Decide with a set of rules suppressed: triggers for
// the disabled rules are forced to unfired with zero weight before
// routing. A nil or empty set behaves exactly like Decide.
func DecideWithout(cfg *policy.Config, d deal.Deal, disabled map[policy.RuleID]bool) Decision {
	th := cfg.ResolveThresholds(string(d.CustomerSegment))
	triggers := rules.Evaluate(d, th, cfg.RuleWeights)
	if len(disabled) > 0 {
		for i, t := range triggers {
			if disabled[t.RuleID] {
				triggers[i].Fired = false
				triggers[i].Weight = 0
				triggers[i].Reason = "Rule disabled for this run"
			}
		}
	}
	return Route(d.ID, triggers, cfg.EscalationOrder, cfg.PriorityCutoffs)
}
