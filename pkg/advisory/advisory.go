// Package advisory produces structured risk assessments of custom
// contract clauses using Anthropic's Messages API, with a
// deterministic mock client for tests and offline use.
package advisory

import (
	"fmt"
	"strings"
)

// RiskLevel grades a clause's risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Category classifies the obligations a clause imposes.
type Category string

const (
	CategoryAudit         Category = "Audit"
	CategoryDataResidency Category = "Data Residency"
	CategoryIP            Category = "IP"
	CategoryOther         Category = "Other"
)

// ReviewThreshold is the confidence below which an advisory always
// requires human review.
const ReviewThreshold = 0.75

// Advisory is the structured result of a clause analysis.
type Advisory struct {
	Summary        string     `json:"summary"`
	RiskLevel      RiskLevel  `json:"risk_level"`
	Categories     []Category `json:"categories"`
	Confidence     float64    `json:"confidence"`
	ReviewRequired bool       `json:"review_required"`
	RawClause      string     `json:"raw_clause"`
	ModelUsed      string     `json:"model_used"`
	Error          string     `json:"error,omitempty"`
}

// Validate checks the structural constraints of an advisory.
func (a Advisory) Validate() error {
	switch a.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		return fmt.Errorf("invalid risk_level %q", a.RiskLevel)
	}
	if len(a.Categories) == 0 {
		return fmt.Errorf("categories must contain at least one value")
	}
	for _, c := range a.Categories {
		switch c {
		case CategoryAudit, CategoryDataResidency, CategoryIP, CategoryOther:
		default:
			return fmt.Errorf("invalid category %q", c)
		}
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", a.Confidence)
	}
	if strings.TrimSpace(a.Summary) == "" {
		return fmt.Errorf("summary must not be empty")
	}
	return nil
}

// fallback is the advisory returned when analysis cannot complete.
// It fails safe: medium risk, zero confidence, review required.
func fallback(clause, model, lastErr string) Advisory {
	return Advisory{
		Summary:        "Unable to analyze clause; flagged for manual review.",
		RiskLevel:      RiskMedium,
		Categories:     []Category{CategoryOther},
		Confidence:     0,
		ReviewRequired: true,
		RawClause:      clause,
		ModelUsed:      model,
		Error:          lastErr,
	}
}
