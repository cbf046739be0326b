package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rawConfig is the on-disk document shape. Defaults use pointer fields so
// a missing required threshold is distinguishable from a zero value.
type rawConfig struct {
	Defaults         *ThresholdOverride           `yaml:"defaults"`
	SegmentOverrides map[string]ThresholdOverride `yaml:"segment_overrides"`
	RuleWeights      map[RuleID]int               `yaml:"rule_weights"`
	EscalationOrder  []string                     `yaml:"escalation_order"`
	PriorityCutoffs  *Cutoffs                     `yaml:"priority_cutoffs"`
}

// Load reads and validates a policy document from path. The document may
// be YAML or JSON (YAML is a superset). A malformed or self-inconsistent
// document fails with a *ConfigError; I/O failures are returned wrapped.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse parses and validates a policy document.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse policy document: %w", err)
	}

	var errs []FieldError

	cfg := &Config{
		SegmentOverrides: raw.SegmentOverrides,
		RuleWeights:      raw.RuleWeights,
		EscalationOrder:  raw.EscalationOrder,
	}
	if cfg.SegmentOverrides == nil {
		cfg.SegmentOverrides = map[string]ThresholdOverride{}
	}

	errs = append(errs, resolveDefaults(raw.Defaults, &cfg.Defaults)...)

	if raw.PriorityCutoffs == nil {
		errs = append(errs, FieldError{Field: "priority_cutoffs", Message: "section is required"})
	} else {
		cfg.PriorityCutoffs = *raw.PriorityCutoffs
	}

	if raw.RuleWeights == nil {
		errs = append(errs, FieldError{Field: "rule_weights", Message: "section is required"})
	}

	if len(errs) > 0 {
		return nil, &ConfigError{Errors: errs}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveDefaults requires every threshold field to be present in the
// document's defaults section.
func resolveDefaults(raw *ThresholdOverride, out *Thresholds) []FieldError {
	if raw == nil {
		return []FieldError{{Field: "defaults", Message: "section is required"}}
	}

	var errs []FieldError
	missing := func(field string) {
		errs = append(errs, FieldError{Field: "defaults." + field, Message: "field is required"})
	}

	if raw.DiscountThreshold == nil {
		missing("discount_threshold")
	} else {
		out.DiscountThreshold = *raw.DiscountThreshold
	}
	if raw.ACVExecThreshold == nil {
		missing("acv_exec_threshold")
	} else {
		out.ACVExecThreshold = *raw.ACVExecThreshold
	}
	if raw.PaymentTermsLimit == nil {
		missing("payment_terms_limit")
	} else {
		out.PaymentTermsLimit = *raw.PaymentTermsLimit
	}
	if raw.EURequiresLegal == nil {
		missing("eu_requires_legal")
	} else {
		out.EURequiresLegal = *raw.EURequiresLegal
	}

	return errs
}
