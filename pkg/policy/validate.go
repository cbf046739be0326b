package policy

import (
	"fmt"
	"strings"
)

// FieldError describes a single policy configuration problem.
type FieldError struct {
	// Field is the dotted path to the offending field
	// (e.g. "rule_weights.DISCOUNT_THRESHOLD").
	Field string

	// Message is a human-readable description of the problem.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigError reports a malformed or self-inconsistent policy
// configuration. It is raised once, at load or overlay time, and never
// during per-deal evaluation.
type ConfigError struct {
	// Errors contains every problem found in the document.
	Errors []FieldError
}

// Error returns a formatted string containing all configuration errors.
func (e *ConfigError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "policy configuration invalid"
	case 1:
		return fmt.Sprintf("policy configuration invalid: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "policy configuration invalid with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks a policy config for self-consistency and returns a
// *ConfigError listing every violation, or nil if the config is valid.
//
// A config that passes Validate guarantees the evaluation path is total:
// rule evaluation, routing, and simulation cannot fail at runtime.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateWeights(cfg)...)
	errs = append(errs, validateEscalationOrder(cfg)...)
	errs = append(errs, validateCutoffs(cfg.PriorityCutoffs)...)

	if len(errs) > 0 {
		return &ConfigError{Errors: errs}
	}
	return nil
}

// validateWeights requires a positive weight for every known rule and
// rejects unknown rule identifiers.
func validateWeights(cfg *Config) []FieldError {
	var errs []FieldError

	for _, id := range RuleOrder {
		weight, ok := cfg.RuleWeights[id]
		if !ok {
			errs = append(errs, FieldError{
				Field:   "rule_weights." + string(id),
				Message: "weight is required",
			})
			continue
		}
		if weight <= 0 {
			errs = append(errs, FieldError{
				Field:   "rule_weights." + string(id),
				Message: fmt.Sprintf("weight must be positive, got %d", weight),
			})
		}
	}

	for id := range cfg.RuleWeights {
		if _, known := ruleOwners[id]; !known {
			errs = append(errs, FieldError{
				Field:   "rule_weights." + string(id),
				Message: "unknown rule identifier",
			})
		}
	}

	return errs
}

// validateEscalationOrder requires a non-empty list of distinct team
// names covering every rule's escalation target.
func validateEscalationOrder(cfg *Config) []FieldError {
	var errs []FieldError

	if len(cfg.EscalationOrder) == 0 {
		return append(errs, FieldError{
			Field:   "escalation_order",
			Message: "at least one team is required",
		})
	}

	seen := make(map[string]bool, len(cfg.EscalationOrder))
	for _, team := range cfg.EscalationOrder {
		if team == "" {
			errs = append(errs, FieldError{
				Field:   "escalation_order",
				Message: "team name must not be empty",
			})
			continue
		}
		if seen[team] {
			errs = append(errs, FieldError{
				Field:   "escalation_order",
				Message: fmt.Sprintf("duplicate team %q", team),
			})
		}
		seen[team] = true
	}

	for _, id := range RuleOrder {
		if owner := id.Owner(); !seen[owner] {
			errs = append(errs, FieldError{
				Field:   "escalation_order",
				Message: fmt.Sprintf("rule %s escalates to %q, which is not in the escalation order", id, owner),
			})
		}
	}

	return errs
}

// validateCutoffs requires strictly decreasing positive cutoffs so that
// tier selection is unambiguous.
func validateCutoffs(c Cutoffs) []FieldError {
	var errs []FieldError

	if c.P3 <= 0 {
		errs = append(errs, FieldError{
			Field:   "priority_cutoffs.P3",
			Message: fmt.Sprintf("cutoff must be positive, got %d", c.P3),
		})
	}
	if c.P2 <= c.P3 {
		errs = append(errs, FieldError{
			Field:   "priority_cutoffs.P2",
			Message: fmt.Sprintf("cutoff must be greater than P3 (%d), got %d", c.P3, c.P2),
		})
	}
	if c.P1 <= c.P2 {
		errs = append(errs, FieldError{
			Field:   "priority_cutoffs.P1",
			Message: fmt.Sprintf("cutoff must be greater than P2 (%d), got %d", c.P2, c.P1),
		})
	}

	return errs
}
