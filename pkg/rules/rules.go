// Package rules implements the deal rule engine: five independent
// predicates evaluated in a fixed order against a validated deal and an
// effective threshold set.
//
// The engine is pure and deterministic. Identical inputs always yield an
// identical trigger sequence; no rule's outcome affects another's
// evaluation, and the inputs are never mutated.
package rules

import (
	"fmt"

	"dealflow-hq/vega/pkg/deal"
	"dealflow-hq/vega/pkg/policy"
)

// Trigger is the result of evaluating one rule against one deal.
type Trigger struct {
	// RuleID identifies the rule that produced this trigger.
	RuleID policy.RuleID `json:"rule_id"`

	// Fired reports whether the rule's predicate held.
	Fired bool `json:"triggered"`

	// Weight is the rule's configured weight when fired, zero otherwise.
	Weight int `json:"weight"`

	// Owner is the escalation team the rule targets.
	Owner string `json:"owner"`

	// Reason is a human-readable explanation of the outcome.
	Reason string `json:"reason"`
}

// ruleFunc evaluates one predicate. weight is the configured weight for
// the rule; implementations contribute it only when the predicate holds.
type ruleFunc func(d deal.Deal, th policy.Thresholds, weight int) Trigger

// ruleTable binds each identifier to its predicate in canonical
// evaluation order. The set is closed; only parameters are configurable.
var ruleTable = []struct {
	id policy.RuleID
	fn ruleFunc
}{
	{policy.RuleDiscount, evalDiscount},
	{policy.RuleACVExec, evalACV},
	{policy.RuleEULegal, evalEULegal},
	{policy.RulePaymentTerms, evalPaymentTerms},
	{policy.RuleSecurityClause, evalSecurityClause},
}

// Evaluate runs all five rules against the deal in canonical order and
// returns their triggers. Every rule is evaluated regardless of prior
// outcomes; the returned sequence always has one entry per rule, in
// policy.RuleOrder position.
func Evaluate(d deal.Deal, th policy.Thresholds, weights map[policy.RuleID]int) []Trigger {
	triggers := make([]Trigger, 0, len(ruleTable))
	for _, entry := range ruleTable {
		triggers = append(triggers, entry.fn(d, th, weights[entry.id]))
	}
	return triggers
}

// TotalWeight sums the weights of fired triggers.
func TotalWeight(triggers []Trigger) int {
	total := 0
	for _, t := range triggers {
		if t.Fired {
			total += t.Weight
		}
	}
	return total
}

func evalDiscount(d deal.Deal, th policy.Thresholds, weight int) Trigger {
	fired := d.DiscountPercentage > th.DiscountThreshold
	reason := "Discount within threshold"
	if fired {
		reason = fmt.Sprintf("Discount %g%% exceeds threshold %g%%",
			d.DiscountPercentage, th.DiscountThreshold)
	}
	return trigger(policy.RuleDiscount, fired, weight, reason)
}

func evalACV(d deal.Deal, th policy.Thresholds, weight int) Trigger {
	fired := d.AnnualContractValue > th.ACVExecThreshold
	reason := "ACV within threshold"
	if fired {
		reason = fmt.Sprintf("ACV $%.0f exceeds threshold $%.0f",
			d.AnnualContractValue, th.ACVExecThreshold)
	}
	return trigger(policy.RuleACVExec, fired, weight, reason)
}

func evalEULegal(d deal.Deal, th policy.Thresholds, weight int) Trigger {
	fired := d.Region == deal.RegionEU && th.EURequiresLegal
	reason := "Region does not require legal review"
	if fired {
		reason = "EU region requires legal review"
	}
	return trigger(policy.RuleEULegal, fired, weight, reason)
}

func evalPaymentTerms(d deal.Deal, th policy.Thresholds, weight int) Trigger {
	fired := d.PaymentTermsDays > th.PaymentTermsLimit
	reason := "Payment terms within limit"
	if fired {
		reason = fmt.Sprintf("Payment terms %d days exceeds limit of %d days",
			d.PaymentTermsDays, th.PaymentTermsLimit)
	}
	return trigger(policy.RulePaymentTerms, fired, weight, reason)
}

func evalSecurityClause(d deal.Deal, _ policy.Thresholds, weight int) Trigger {
	fired := d.CustomSecurityClause
	reason := "No custom security clause"
	if fired {
		reason = "Custom security clause requires review"
	}
	return trigger(policy.RuleSecurityClause, fired, weight, reason)
}

func trigger(id policy.RuleID, fired bool, weight int, reason string) Trigger {
	t := Trigger{
		RuleID: id,
		Fired:  fired,
		Owner:  id.Owner(),
		Reason: reason,
	}
	if fired {
		t.Weight = weight
	}
	return t
}
