package deal

import (
	"fmt"
	"strings"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError reports a malformed deal submission. All field problems
// are collected and returned together.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "deal validation failed"
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Error()
	}
	return "deal validation failed: " + strings.Join(parts, "; ")
}

var (
	validTypes    = map[Type]bool{TypeNew: true, TypeRenewal: true, TypeExpansion: true, TypePilot: true}
	validSegments = map[Segment]bool{SegmentEnterprise: true, SegmentMidMarket: true, SegmentSMB: true, SegmentStrategic: true}
	validRegions  = map[Region]bool{RegionNA: true, RegionEU: true, RegionUK: true, RegionAPAC: true, RegionLATAM: true, RegionMEA: true}
)

// ValidateInput checks a raw submission and returns a *ValidationError
// listing every problem, or nil if the input is well-formed.
func ValidateInput(in Input) error {
	var errs []FieldError

	if !validTypes[in.DealType] {
		errs = append(errs, FieldError{
			Field:   "deal_type",
			Message: fmt.Sprintf("unknown deal type %q", in.DealType),
		})
	}
	if !validSegments[in.CustomerSegment] {
		errs = append(errs, FieldError{
			Field:   "customer_segment",
			Message: fmt.Sprintf("unknown customer segment %q", in.CustomerSegment),
		})
	}
	if !validRegions[in.Region] {
		errs = append(errs, FieldError{
			Field:   "region",
			Message: fmt.Sprintf("unknown region %q", in.Region),
		})
	}
	if in.AnnualContractValue <= 0 {
		errs = append(errs, FieldError{
			Field:   "annual_contract_value",
			Message: "must be positive",
		})
	}
	if in.DiscountPercentage < 0 || in.DiscountPercentage > 100 {
		errs = append(errs, FieldError{
			Field:   "discount_percentage",
			Message: "must be between 0 and 100",
		})
	}
	if in.PaymentTermsDays <= 0 {
		errs = append(errs, FieldError{
			Field:   "payment_terms_days",
			Message: "must be positive",
		})
	}
	if in.ClauseText != "" && strings.TrimSpace(in.ClauseText) == "" {
		errs = append(errs, FieldError{
			Field:   "clause_text",
			Message: "must not be blank when provided",
		})
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
