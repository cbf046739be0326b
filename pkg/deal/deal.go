// Package deal defines the deal record and its intake validation.
//
// Validation happens once, on ingestion; the evaluation core consumes the
// resulting Deal as already well-formed and never re-checks field ranges.
package deal

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies the commercial shape of a deal.
type Type string

const (
	TypeNew       Type = "New"
	TypeRenewal   Type = "Renewal"
	TypeExpansion Type = "Expansion"
	TypePilot     Type = "Pilot"
)

// Segment is the customer classification used to select threshold
// overrides. The intake layer validates against the known segments; the
// policy layer treats segment names as open-ended labels.
type Segment string

const (
	SegmentEnterprise Segment = "Enterprise"
	SegmentMidMarket  Segment = "Mid-Market"
	SegmentSMB        Segment = "SMB"
	SegmentStrategic  Segment = "Strategic"
)

// Region is the customer's operating region.
type Region string

const (
	RegionNA    Region = "NA"
	RegionEU    Region = "EU"
	RegionUK    Region = "UK"
	RegionAPAC  Region = "APAC"
	RegionLATAM Region = "LATAM"
	RegionMEA   Region = "MEA"
)

// Input is a raw deal submission, validated on ingestion.
type Input struct {
	DealType             Type    `json:"deal_type"`
	CustomerSegment      Segment `json:"customer_segment"`
	AnnualContractValue  float64 `json:"annual_contract_value"`
	DiscountPercentage   float64 `json:"discount_percentage"`
	PaymentTermsDays     int     `json:"payment_terms_days"`
	Region               Region  `json:"region"`
	CustomSecurityClause bool    `json:"custom_security_clause"`
	ClauseText           string  `json:"clause_text,omitempty"`
}

// Deal is a validated deal record. It is immutable for the duration of
// an evaluation call and is passed by value through the pipeline.
type Deal struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	DealType             Type    `json:"deal_type"`
	CustomerSegment      Segment `json:"customer_segment"`
	AnnualContractValue  float64 `json:"annual_contract_value"`
	DiscountPercentage   float64 `json:"discount_percentage"`
	PaymentTermsDays     int     `json:"payment_terms_days"`
	Region               Region  `json:"region"`
	CustomSecurityClause bool    `json:"custom_security_clause"`
	ClauseText           string  `json:"clause_text,omitempty"`
}

// New validates the input and mints a Deal with a fresh identifier and
// UTC creation time. It fails with a *ValidationError on any malformed
// field.
func New(in Input) (Deal, error) {
	if err := ValidateInput(in); err != nil {
		return Deal{}, err
	}
	return Deal{
		ID:                   uuid.NewString(),
		CreatedAt:            time.Now().UTC(),
		DealType:             in.DealType,
		CustomerSegment:      in.CustomerSegment,
		AnnualContractValue:  in.AnnualContractValue,
		DiscountPercentage:   in.DiscountPercentage,
		PaymentTermsDays:     in.PaymentTermsDays,
		Region:               in.Region,
		CustomSecurityClause: in.CustomSecurityClause,
		ClauseText:           in.ClauseText,
	}, nil
}
