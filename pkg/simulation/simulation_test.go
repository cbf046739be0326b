package simulation

import (
	"context"
	"reflect"
	"testing"

	"dealflow-hq/vega/pkg/deal"
	"dealflow-hq/vega/pkg/policy"
	"dealflow-hq/vega/pkg/routing"
)

func newEngine(t *testing.T) (*Engine, *policy.Store) {
	t.Helper()
	store := policy.NewStore(policy.Default(), "", nil)
	return NewEngine(store, 4, nil), store
}

func floatPtr(v float64) *float64 { return &v }

func dealInput(mutate func(*deal.Input)) deal.Input {
	in := deal.Input{
		DealType:            deal.TypeNew,
		CustomerSegment:     deal.SegmentMidMarket,
		AnnualContractValue: 100000,
		DiscountPercentage:  10,
		PaymentTermsDays:    30,
		Region:              deal.RegionNA,
	}
	if mutate != nil {
		mutate(&in)
	}
	return in
}

func TestSimulateThresholdTightening(t *testing.T) {
	eng, _ := newEngine(t)

	// Discount 35% fires under both the default 20% threshold and the
	// tightened 15% one; 18% fires only under the tightened one.
	req := Request{
		Delta: policy.Delta{
			Defaults: &policy.ThresholdOverride{DiscountThreshold: floatPtr(15)},
		},
		Deals: []deal.Input{
			dealInput(func(in *deal.Input) { in.DiscountPercentage = 18 }),
			dealInput(func(in *deal.Input) { in.DiscountPercentage = 35 }),
			dealInput(nil),
		},
	}

	report, err := eng.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(report.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(report.Results))
	}

	if got := report.Results[0].Change; got != NewlyEscalated {
		t.Errorf("deal 0 change %s, want %s", got, NewlyEscalated)
	}
	if got := report.Results[1].Change; got != Unchanged {
		t.Errorf("deal 1 change %s, want %s", got, Unchanged)
	}
	if got := report.Results[2].Change; got != Unchanged {
		t.Errorf("deal 2 change %s, want %s", got, Unchanged)
	}
}

func TestSimulateDeltaLeavesOtherThresholdsAtBase(t *testing.T) {
	eng, store := newEngine(t)

	// A deal that trips only the ACV rule must be unaffected by a
	// discount-only delta.
	req := Request{
		Delta: policy.Delta{
			Defaults: &policy.ThresholdOverride{DiscountThreshold: floatPtr(35)},
		},
		Deals: []deal.Input{
			dealInput(func(in *deal.Input) { in.AnnualContractValue = 200000 }),
		},
	}

	report, err := eng.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	r := report.Results[0]
	if r.Baseline.TotalWeight != 3 || r.Hypothetical.TotalWeight != 3 {
		t.Errorf("weights %d/%d, want 3/3", r.Baseline.TotalWeight, r.Hypothetical.TotalWeight)
	}
	if r.Change != Unchanged {
		t.Errorf("change %s, want %s", r.Change, Unchanged)
	}

	// Discount 35% is over the base threshold but under the raised one.
	req.Deals = []deal.Input{
		dealInput(func(in *deal.Input) { in.DiscountPercentage = 35 }),
	}
	report, err = eng.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if got := report.Results[0].Change; got != NewlyAutoApproved {
		t.Errorf("change %s, want %s", got, NewlyAutoApproved)
	}

	if !reflect.DeepEqual(store.Current(), policy.Default()) {
		t.Error("live snapshot modified by simulation")
	}
}

func TestSimulateDisabledRules(t *testing.T) {
	eng, _ := newEngine(t)

	req := Request{
		DisabledRules: []policy.RuleID{policy.RuleACVExec},
		Deals: []deal.Input{
			dealInput(func(in *deal.Input) { in.AnnualContractValue = 500000 }),
		},
	}
	report, err := eng.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	r := report.Results[0]
	if r.Baseline.AutoApproved {
		t.Errorf("baseline auto-approved, want escalated")
	}
	if !r.Hypothetical.AutoApproved {
		t.Errorf("hypothetical escalated with only fired rule disabled")
	}
	if r.Change != NewlyAutoApproved {
		t.Errorf("change %s, want %s", r.Change, NewlyAutoApproved)
	}
}

func TestSimulateUnknownDisabledRule(t *testing.T) {
	eng, _ := newEngine(t)
	req := Request{
		DisabledRules: []policy.RuleID{"NO_SUCH_RULE"},
		Deals:         []deal.Input{dealInput(nil)},
	}
	if _, err := eng.Simulate(context.Background(), req); err == nil {
		t.Fatal("expected error for unknown disabled rule")
	}
}

func TestSimulateRejectsEmptyAndInvalid(t *testing.T) {
	eng, _ := newEngine(t)

	if _, err := eng.Simulate(context.Background(), Request{}); err == nil {
		t.Error("expected error for empty deal list")
	}

	req := Request{
		Deals: []deal.Input{dealInput(func(in *deal.Input) { in.DiscountPercentage = 150 })},
	}
	if _, err := eng.Simulate(context.Background(), req); err == nil {
		t.Error("expected error for invalid deal input")
	}

	req = Request{
		Delta: policy.Delta{RuleWeights: map[policy.RuleID]int{policy.RuleDiscount: 2}},
		Deals: []deal.Input{dealInput(nil)},
	}
	if _, err := eng.Simulate(context.Background(), req); err == nil {
		t.Error("expected error for invalid policy delta")
	}
}

func TestSimulatePreservesInputOrder(t *testing.T) {
	eng, _ := newEngine(t)

	var inputs []deal.Input
	for i := 0; i < 40; i++ {
		acv := float64(10000 * (i + 1))
		inputs = append(inputs, dealInput(func(in *deal.Input) { in.AnnualContractValue = acv }))
	}
	req := Request{Deals: inputs}

	report, err := eng.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	for i, r := range report.Results {
		want := inputs[i].AnnualContractValue > 150000
		got := !r.Baseline.AutoApproved
		if got != want {
			t.Fatalf("result %d out of order: escalated=%v, want %v", i, got, want)
		}
	}
}

func TestSimulateIdempotent(t *testing.T) {
	eng, _ := newEngine(t)
	req := Request{
		Delta: policy.Delta{
			Defaults: &policy.ThresholdOverride{DiscountThreshold: floatPtr(15)},
		},
		Deals: []deal.Input{
			dealInput(func(in *deal.Input) { in.DiscountPercentage = 18 }),
			dealInput(func(in *deal.Input) { in.AnnualContractValue = 300000 }),
		},
	}

	first, err := eng.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	second, err := eng.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical requests produced different reports:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if got := first.Results[0].DealID; got != "sim-1" {
		t.Errorf("deal id %q, want position-derived sim-1", got)
	}
	if got := first.Results[0].Baseline.DealID; got != "sim-1" {
		t.Errorf("baseline decision deal id %q, want sim-1", got)
	}
}

func TestSimulateRelaxedDiscountKeepsTierUntilCutoffsRise(t *testing.T) {
	eng, _ := newEngine(t)

	// All five rules fire: 2+3+2+1+3 = 11, P1. Raising the discount
	// threshold past 30% drops the discount trigger, leaving weight 9.
	in := deal.Input{
		DealType:             deal.TypeNew,
		CustomerSegment:      deal.SegmentEnterprise,
		AnnualContractValue:  250000,
		DiscountPercentage:   30,
		PaymentTermsDays:     60,
		Region:               deal.RegionEU,
		CustomSecurityClause: true,
	}
	delta := policy.Delta{
		Defaults: &policy.ThresholdOverride{DiscountThreshold: floatPtr(35)},
	}

	report, err := eng.Simulate(context.Background(), Request{Delta: delta, Deals: []deal.Input{in}})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	r := report.Results[0]
	if r.Baseline.TotalWeight != 11 || r.Baseline.Priority != routing.TierP1 {
		t.Fatalf("baseline weight %d tier %s, want 11 P1", r.Baseline.TotalWeight, r.Baseline.Priority)
	}
	if r.Hypothetical.TotalWeight != 9 || r.Hypothetical.Priority != routing.TierP1 {
		t.Errorf("hypothetical weight %d tier %s, want 9 P1", r.Hypothetical.TotalWeight, r.Hypothetical.Priority)
	}
	if r.Change != Unchanged {
		t.Errorf("change %s, want %s: weight 9 still clears the P1 cutoff", r.Change, Unchanged)
	}

	// With the P1 cutoff raised above 9 the same deal lands at P2.
	delta.PriorityCutoffs = &policy.Cutoffs{P1: 10, P2: 3, P3: 1}
	report, err = eng.Simulate(context.Background(), Request{Delta: delta, Deals: []deal.Input{in}})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	r = report.Results[0]
	if r.Hypothetical.Priority != routing.TierP2 {
		t.Errorf("hypothetical tier %s, want P2", r.Hypothetical.Priority)
	}
	if r.Change != Downgraded {
		t.Errorf("change %s, want %s", r.Change, Downgraded)
	}
}

func TestClassifySymmetry(t *testing.T) {
	auto := routing.Decision{ApprovalStatus: routing.AutoApproved, AutoApproved: true, Priority: routing.TierNone}
	p1 := routing.Decision{ApprovalStatus: routing.Escalated, Priority: routing.TierP1}
	p2 := routing.Decision{ApprovalStatus: routing.Escalated, Priority: routing.TierP2}
	p3 := routing.Decision{ApprovalStatus: routing.Escalated, Priority: routing.TierP3}

	swap := map[DeltaClass]DeltaClass{
		Unchanged:         Unchanged,
		Upgraded:          Downgraded,
		Downgraded:        Upgraded,
		NewlyEscalated:    NewlyAutoApproved,
		NewlyAutoApproved: NewlyEscalated,
	}

	decisions := []routing.Decision{auto, p1, p2, p3}
	for _, a := range decisions {
		for _, b := range decisions {
			fwd := Classify(a, b)
			rev := Classify(b, a)
			if swap[fwd] != rev {
				t.Errorf("Classify(%s,%s)=%s but reverse=%s", a.Priority, b.Priority, fwd, rev)
			}
		}
	}

	if got := Classify(p2, p1); got != Upgraded {
		t.Errorf("P2->P1 = %s, want %s", got, Upgraded)
	}
	if got := Classify(p1, p3); got != Downgraded {
		t.Errorf("P1->P3 = %s, want %s", got, Downgraded)
	}
}

func TestBatchMetrics(t *testing.T) {
	eng, _ := newEngine(t)
	req := Request{
		Delta: policy.Delta{
			Defaults: &policy.ThresholdOverride{DiscountThreshold: floatPtr(15)},
		},
		Deals: []deal.Input{
			dealInput(func(in *deal.Input) { in.DiscountPercentage = 18 }),
			dealInput(nil),
			dealInput(nil),
			dealInput(nil),
		},
	}
	report, err := eng.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	m := report.Metrics
	if m.Baseline.AutoApproved != 4 || m.Baseline.Escalated != 0 {
		t.Errorf("baseline %d/%d, want 4 auto 0 escalated", m.Baseline.AutoApproved, m.Baseline.Escalated)
	}
	if m.Hypothetical.AutoApproved != 3 || m.Hypothetical.Escalated != 1 {
		t.Errorf("hypothetical %d/%d, want 3 auto 1 escalated", m.Hypothetical.AutoApproved, m.Hypothetical.Escalated)
	}
	if m.AutoApprovalRateDiff != -0.25 {
		t.Errorf("auto approval rate diff %v, want -0.25", m.AutoApprovalRateDiff)
	}
	if m.Hypothetical.EscalationsByTeam["Finance"] != 1 {
		t.Errorf("finance escalations %d, want 1", m.Hypothetical.EscalationsByTeam["Finance"])
	}
	if m.Hypothetical.TriggersByRule[string(policy.RuleDiscount)] != 1 {
		t.Errorf("discount triggers %d, want 1", m.Hypothetical.TriggersByRule[string(policy.RuleDiscount)])
	}
}
