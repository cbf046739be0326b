package policy

// RuleID identifies one of the five deal-review rules.
//
// The rule set is closed: identifiers are fixed in code and only their
// parameters (thresholds, weights) are configurable. RuleOrder is the
// canonical evaluation order and is part of the observable contract.
type RuleID string

const (
	RuleDiscount       RuleID = "DISCOUNT_THRESHOLD"
	RuleACVExec        RuleID = "ACV_EXEC_THRESHOLD"
	RuleEULegal        RuleID = "EU_LEGAL_REVIEW"
	RulePaymentTerms   RuleID = "PAYMENT_TERMS_LIMIT"
	RuleSecurityClause RuleID = "CUSTOM_SECURITY_CLAUSE"
)

// RuleOrder is the fixed rule-evaluation order.
var RuleOrder = []RuleID{
	RuleDiscount,
	RuleACVExec,
	RuleEULegal,
	RulePaymentTerms,
	RuleSecurityClause,
}

// ruleOwners maps each rule to the team that reviews deals it escalates.
var ruleOwners = map[RuleID]string{
	RuleDiscount:       "Finance",
	RuleACVExec:        "Exec",
	RuleEULegal:        "Legal",
	RulePaymentTerms:   "Finance",
	RuleSecurityClause: "Security",
}

// Owner returns the escalation team that reviews deals flagged by r.
// It returns an empty string for an unknown rule identifier.
func (r RuleID) Owner() string {
	return ruleOwners[r]
}

// Thresholds is a fully resolved threshold set for one evaluation.
// Values are owned by the evaluation that resolved them and are passed
// by value, so callers can never mutate a shared snapshot.
type Thresholds struct {
	// DiscountThreshold is the discount percentage above which a deal
	// requires Finance review.
	DiscountThreshold float64 `yaml:"discount_threshold" json:"discount_threshold"`

	// ACVExecThreshold is the annual contract value above which a deal
	// requires Exec review.
	ACVExecThreshold float64 `yaml:"acv_exec_threshold" json:"acv_exec_threshold"`

	// PaymentTermsLimit is the net payment terms (days) above which a
	// deal requires Finance review.
	PaymentTermsLimit int `yaml:"payment_terms_limit" json:"payment_terms_limit"`

	// EURequiresLegal controls whether EU-region deals require Legal review.
	EURequiresLegal bool `yaml:"eu_requires_legal" json:"eu_requires_legal"`
}

// ThresholdOverride is a partial threshold set. Nil fields inherit the
// default value; set fields replace it wholesale (field-by-field
// replacement, never a deep merge).
type ThresholdOverride struct {
	DiscountThreshold *float64 `yaml:"discount_threshold,omitempty" json:"discount_threshold,omitempty"`
	ACVExecThreshold  *float64 `yaml:"acv_exec_threshold,omitempty" json:"acv_exec_threshold,omitempty"`
	PaymentTermsLimit *int     `yaml:"payment_terms_limit,omitempty" json:"payment_terms_limit,omitempty"`
	EURequiresLegal   *bool    `yaml:"eu_requires_legal,omitempty" json:"eu_requires_legal,omitempty"`
}

// apply returns base with the override's set fields applied.
func (o ThresholdOverride) apply(base Thresholds) Thresholds {
	if o.DiscountThreshold != nil {
		base.DiscountThreshold = *o.DiscountThreshold
	}
	if o.ACVExecThreshold != nil {
		base.ACVExecThreshold = *o.ACVExecThreshold
	}
	if o.PaymentTermsLimit != nil {
		base.PaymentTermsLimit = *o.PaymentTermsLimit
	}
	if o.EURequiresLegal != nil {
		base.EURequiresLegal = *o.EURequiresLegal
	}
	return base
}

// Cutoffs holds the minimum cumulative trigger weight for each priority
// tier. Values must be strictly decreasing from P1 to P3.
type Cutoffs struct {
	P1 int `yaml:"P1" json:"P1"`
	P2 int `yaml:"P2" json:"P2"`
	P3 int `yaml:"P3" json:"P3"`
}

// Config is one immutable policy snapshot.
//
// Construct a Config through Load, Parse, Default, or Overlay; all four
// validate before returning, so holding a *Config implies the snapshot
// is known good. Treat all fields as read-only.
type Config struct {
	// Defaults is the base threshold set applied to every segment.
	Defaults Thresholds `yaml:"defaults" json:"defaults"`

	// SegmentOverrides maps customer segment names to partial threshold
	// overrides. Segments are open-ended labels; a segment with no entry
	// resolves to Defaults unchanged.
	SegmentOverrides map[string]ThresholdOverride `yaml:"segment_overrides" json:"segment_overrides"`

	// RuleWeights maps every rule to its positive escalation weight.
	RuleWeights map[RuleID]int `yaml:"rule_weights" json:"rule_weights"`

	// EscalationOrder is the canonical notification sequence. Escalation
	// paths are always a subsequence of this list.
	EscalationOrder []string `yaml:"escalation_order" json:"escalation_order"`

	// PriorityCutoffs maps cumulative weight to priority tiers.
	PriorityCutoffs Cutoffs `yaml:"priority_cutoffs" json:"priority_cutoffs"`
}

// Default returns the built-in policy configuration, matching the
// documented defaults for deployments that ship without a policy file.
func Default() *Config {
	return &Config{
		Defaults: Thresholds{
			DiscountThreshold: 20,
			ACVExecThreshold:  150_000,
			PaymentTermsLimit: 45,
			EURequiresLegal:   true,
		},
		SegmentOverrides: map[string]ThresholdOverride{},
		RuleWeights: map[RuleID]int{
			RuleDiscount:       2,
			RuleACVExec:        3,
			RuleEULegal:        2,
			RulePaymentTerms:   1,
			RuleSecurityClause: 3,
		},
		EscalationOrder: []string{"Finance", "Legal", "Security", "Exec"},
		PriorityCutoffs: Cutoffs{P1: 5, P2: 3, P3: 1},
	}
}

// ResolveThresholds merges the defaults with the named segment's override
// into one effective threshold set. Unknown segments resolve to the
// defaults unchanged. Pure; the returned value is owned by the caller.
func (c *Config) ResolveThresholds(segment string) Thresholds {
	override, ok := c.SegmentOverrides[segment]
	if !ok {
		return c.Defaults
	}
	return override.apply(c.Defaults)
}

// Clone returns a deep copy of the config. Overlay uses it so that a
// hypothetical config never aliases the base snapshot's maps or slices.
func (c *Config) Clone() *Config {
	clone := &Config{
		Defaults:         c.Defaults,
		SegmentOverrides: make(map[string]ThresholdOverride, len(c.SegmentOverrides)),
		RuleWeights:      make(map[RuleID]int, len(c.RuleWeights)),
		EscalationOrder:  append([]string(nil), c.EscalationOrder...),
		PriorityCutoffs:  c.PriorityCutoffs,
	}
	for segment, override := range c.SegmentOverrides {
		clone.SegmentOverrides[segment] = override
	}
	for id, weight := range c.RuleWeights {
		clone.RuleWeights[id] = weight
	}
	return clone
}

// Delta is a partial policy change overlaid onto a base config, typically
// for what-if simulation. Nil fields keep the base value. Defaults is
// applied field-by-field; the remaining fields replace the base field
// wholesale when present.
type Delta struct {
	Defaults         *ThresholdOverride           `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	SegmentOverrides map[string]ThresholdOverride `yaml:"segment_overrides,omitempty" json:"segment_overrides,omitempty"`
	RuleWeights      map[RuleID]int               `yaml:"rule_weights,omitempty" json:"rule_weights,omitempty"`
	EscalationOrder  []string                     `yaml:"escalation_order,omitempty" json:"escalation_order,omitempty"`
	PriorityCutoffs  *Cutoffs                     `yaml:"priority_cutoffs,omitempty" json:"priority_cutoffs,omitempty"`
}

// IsZero reports whether the delta changes nothing.
func (d Delta) IsZero() bool {
	return d.Defaults == nil &&
		d.SegmentOverrides == nil &&
		d.RuleWeights == nil &&
		d.EscalationOrder == nil &&
		d.PriorityCutoffs == nil
}

// Overlay builds a hypothetical config from base and delta. The base is
// never mutated; the result is validated like any loaded config, so a
// delta that would produce a self-inconsistent policy fails here with a
// *ConfigError rather than during replay.
func Overlay(base *Config, delta Delta) (*Config, error) {
	cfg := base.Clone()

	if delta.Defaults != nil {
		cfg.Defaults = delta.Defaults.apply(cfg.Defaults)
	}
	if delta.SegmentOverrides != nil {
		cfg.SegmentOverrides = make(map[string]ThresholdOverride, len(delta.SegmentOverrides))
		for segment, override := range delta.SegmentOverrides {
			cfg.SegmentOverrides[segment] = override
		}
	}
	if delta.RuleWeights != nil {
		cfg.RuleWeights = make(map[RuleID]int, len(delta.RuleWeights))
		for id, weight := range delta.RuleWeights {
			cfg.RuleWeights[id] = weight
		}
	}
	if delta.EscalationOrder != nil {
		cfg.EscalationOrder = append([]string(nil), delta.EscalationOrder...)
	}
	if delta.PriorityCutoffs != nil {
		cfg.PriorityCutoffs = *delta.PriorityCutoffs
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
