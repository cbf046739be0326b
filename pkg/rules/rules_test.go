package rules

import (
	"reflect"
	"strings"
	"testing"

	"dealflow-hq/vega/pkg/deal"
	"dealflow-hq/vega/pkg/policy"
)

func defaultPolicy() *policy.Config {
	return policy.Default()
}

func baseDeal() deal.Deal {
	return deal.Deal{
		ID:                  "deal-1",
		DealType:            deal.TypeNew,
		CustomerSegment:     deal.SegmentMidMarket,
		AnnualContractValue: 100000,
		DiscountPercentage:  10,
		PaymentTermsDays:    30,
		Region:              deal.RegionNA,
	}
}

func TestEvaluateAllRulesFired(t *testing.T) {
	cfg := defaultPolicy()
	d := baseDeal()
	d.AnnualContractValue = 500000
	d.DiscountPercentage = 30
	d.PaymentTermsDays = 60
	d.Region = deal.RegionEU
	d.CustomSecurityClause = true

	triggers := Evaluate(d, cfg.ResolveThresholds(string(d.CustomerSegment)), cfg.RuleWeights)

	if len(triggers) != len(policy.RuleOrder) {
		t.Fatalf("got %d triggers, want %d", len(triggers), len(policy.RuleOrder))
	}
	wantWeights := []int{2, 3, 2, 1, 3}
	for i, tr := range triggers {
		if tr.RuleID != policy.RuleOrder[i] {
			t.Errorf("trigger %d: rule %s, want %s", i, tr.RuleID, policy.RuleOrder[i])
		}
		if !tr.Fired {
			t.Errorf("rule %s: not fired", tr.RuleID)
		}
		if tr.Weight != wantWeights[i] {
			t.Errorf("rule %s: weight %d, want %d", tr.RuleID, tr.Weight, wantWeights[i])
		}
		if tr.Owner != tr.RuleID.Owner() {
			t.Errorf("rule %s: owner %q, want %q", tr.RuleID, tr.Owner, tr.RuleID.Owner())
		}
	}
	if got := TotalWeight(triggers); got != 11 {
		t.Errorf("total weight %d, want 11", got)
	}
}

func TestEvaluateNoneFired(t *testing.T) {
	cfg := defaultPolicy()
	d := baseDeal()
	d.DealType = deal.TypeRenewal
	d.CustomerSegment = deal.SegmentSMB
	d.AnnualContractValue = 40000
	d.DiscountPercentage = 10
	d.PaymentTermsDays = 30

	triggers := Evaluate(d, cfg.ResolveThresholds(string(d.CustomerSegment)), cfg.RuleWeights)
	for _, tr := range triggers {
		if tr.Fired {
			t.Errorf("rule %s fired unexpectedly: %s", tr.RuleID, tr.Reason)
		}
		if tr.Weight != 0 {
			t.Errorf("rule %s: weight %d for unfired rule", tr.RuleID, tr.Weight)
		}
	}
	if got := TotalWeight(triggers); got != 0 {
		t.Errorf("total weight %d, want 0", got)
	}
}

func TestBoundaryExactness(t *testing.T) {
	cfg := defaultPolicy()
	th := cfg.Defaults

	tests := []struct {
		name   string
		mutate func(*deal.Deal)
		rule   policy.RuleID
		fired  bool
	}{
		{"discount equal", func(d *deal.Deal) { d.DiscountPercentage = th.DiscountThreshold }, policy.RuleDiscount, false},
		{"discount above", func(d *deal.Deal) { d.DiscountPercentage = th.DiscountThreshold + 0.1 }, policy.RuleDiscount, true},
		{"acv equal", func(d *deal.Deal) { d.AnnualContractValue = th.ACVExecThreshold }, policy.RuleACVExec, false},
		{"acv above", func(d *deal.Deal) { d.AnnualContractValue = th.ACVExecThreshold + 1 }, policy.RuleACVExec, true},
		{"payment equal", func(d *deal.Deal) { d.PaymentTermsDays = th.PaymentTermsLimit }, policy.RulePaymentTerms, false},
		{"payment above", func(d *deal.Deal) { d.PaymentTermsDays = th.PaymentTermsLimit + 1 }, policy.RulePaymentTerms, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := baseDeal()
			tc.mutate(&d)
			triggers := Evaluate(d, th, cfg.RuleWeights)
			got := findTrigger(t, triggers, tc.rule)
			if got.Fired != tc.fired {
				t.Errorf("rule %s fired=%v, want %v (reason: %s)", tc.rule, got.Fired, tc.fired, got.Reason)
			}
		})
	}
}

func TestEULegalRequiresBothConditions(t *testing.T) {
	cfg := defaultPolicy()

	d := baseDeal()
	d.Region = deal.RegionEU
	triggers := Evaluate(d, cfg.Defaults, cfg.RuleWeights)
	if tr := findTrigger(t, triggers, policy.RuleEULegal); !tr.Fired {
		t.Error("EU deal with eu_requires_legal=true did not fire legal rule")
	}

	th := cfg.Defaults
	th.EURequiresLegal = false
	triggers = Evaluate(d, th, cfg.RuleWeights)
	if tr := findTrigger(t, triggers, policy.RuleEULegal); tr.Fired {
		t.Error("legal rule fired with eu_requires_legal=false")
	}

	d.Region = deal.RegionUK
	triggers = Evaluate(d, cfg.Defaults, cfg.RuleWeights)
	if tr := findTrigger(t, triggers, policy.RuleEULegal); tr.Fired {
		t.Error("legal rule fired for non-EU region")
	}
}

func TestReasonsMentionValues(t *testing.T) {
	cfg := defaultPolicy()
	d := baseDeal()
	d.DiscountPercentage = 30

	triggers := Evaluate(d, cfg.Defaults, cfg.RuleWeights)
	tr := findTrigger(t, triggers, policy.RuleDiscount)
	if !strings.Contains(tr.Reason, "30") || !strings.Contains(tr.Reason, "20") {
		t.Errorf("discount reason %q does not mention observed and threshold values", tr.Reason)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	cfg := defaultPolicy()
	d := baseDeal()
	d.DiscountPercentage = 25
	d.Region = deal.RegionEU

	first := Evaluate(d, cfg.Defaults, cfg.RuleWeights)
	for i := 0; i < 10; i++ {
		next := Evaluate(d, cfg.Defaults, cfg.RuleWeights)
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("run %d differs from first run", i)
		}
	}
}

func TestEvaluateDoesNotMutateInputs(t *testing.T) {
	cfg := defaultPolicy()
	d := baseDeal()
	d.DiscountPercentage = 30
	before := d
	weightsBefore := make(map[policy.RuleID]int, len(cfg.RuleWeights))
	for k, v := range cfg.RuleWeights {
		weightsBefore[k] = v
	}

	Evaluate(d, cfg.Defaults, cfg.RuleWeights)

	if d != before {
		t.Error("deal mutated during evaluation")
	}
	if !reflect.DeepEqual(cfg.RuleWeights, weightsBefore) {
		t.Error("weights mutated during evaluation")
	}
}

func findTrigger(t *testing.T, triggers []Trigger, id policy.RuleID) Trigger {
	t.Helper()
	for _, tr := range triggers {
		if tr.RuleID == id {
			return tr
		}
	}
	t.Fatalf("no trigger for rule %s", id)
	return Trigger{}
}
