package deal

import (
	"errors"
	"testing"
)

func validInput() Input {
	return Input{
		DealType:            TypeNew,
		CustomerSegment:     SegmentEnterprise,
		AnnualContractValue: 120_000,
		DiscountPercentage:  15,
		PaymentTermsDays:    30,
		Region:              RegionNA,
	}
}

func TestNew_AssignsIdentity(t *testing.T) {
	a, err := New(validInput())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, err := New(validInput())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if a.ID == "" || b.ID == "" {
		t.Fatal("deal id must be assigned")
	}
	if a.ID == b.ID {
		t.Error("two deals should not share an id")
	}
	if a.CreatedAt.IsZero() {
		t.Error("created_at must be set")
	}
	if a.CreatedAt.Location() != a.CreatedAt.UTC().Location() {
		t.Error("created_at must be UTC")
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Input)
		wantField string
	}{
		{"unknown deal type", func(in *Input) { in.DealType = "Freebie" }, "deal_type"},
		{"unknown segment", func(in *Input) { in.CustomerSegment = "Micro" }, "customer_segment"},
		{"unknown region", func(in *Input) { in.Region = "MOON" }, "region"},
		{"zero acv", func(in *Input) { in.AnnualContractValue = 0 }, "annual_contract_value"},
		{"negative acv", func(in *Input) { in.AnnualContractValue = -10 }, "annual_contract_value"},
		{"discount above 100", func(in *Input) { in.DiscountPercentage = 101 }, "discount_percentage"},
		{"negative discount", func(in *Input) { in.DiscountPercentage = -1 }, "discount_percentage"},
		{"zero payment terms", func(in *Input) { in.PaymentTermsDays = 0 }, "payment_terms_days"},
		{"blank clause text", func(in *Input) { in.ClauseText = "   " }, "clause_text"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			err := ValidateInput(in)
			if err == nil {
				t.Fatal("expected validation to fail")
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			found := false
			for _, fe := range vErr.Errors {
				if fe.Field == tc.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tc.wantField, vErr.Errors)
			}
		})
	}
}

func TestValidateInput_BoundaryValues(t *testing.T) {
	in := validInput()
	in.DiscountPercentage = 0
	if err := ValidateInput(in); err != nil {
		t.Errorf("0%% discount is valid, got: %v", err)
	}

	in.DiscountPercentage = 100
	if err := ValidateInput(in); err != nil {
		t.Errorf("100%% discount is valid, got: %v", err)
	}
}

func TestValidateInput_CollectsAllErrors(t *testing.T) {
	err := ValidateInput(Input{})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(vErr.Errors) < 5 {
		t.Errorf("expected every invalid field to be reported, got %d: %v", len(vErr.Errors), vErr.Errors)
	}
}
