// Package seed generates randomized demo deals and runs them through the
// full evaluation pipeline so a fresh deployment has data to explore.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"dealflow-hq/vega/pkg/advisory"
	"dealflow-hq/vega/pkg/deal"
	"dealflow-hq/vega/pkg/policy"
	"dealflow-hq/vega/pkg/routing"
	"dealflow-hq/vega/pkg/store"
)

// DefaultCount is the number of deals generated when no count is given.
const DefaultCount = 50

// MaxCount bounds a single seeding request.
const MaxCount = 500

var dealTypes = []deal.Type{deal.TypeNew, deal.TypeRenewal, deal.TypeExpansion, deal.TypePilot}

var segments = []deal.Segment{deal.SegmentEnterprise, deal.SegmentMidMarket, deal.SegmentSMB, deal.SegmentStrategic}

var regions = []deal.Region{deal.RegionNA, deal.RegionEU, deal.RegionUK, deal.RegionAPAC, deal.RegionLATAM, deal.RegionMEA}

// acvRanges gives realistic contract value bounds per customer segment.
var acvRanges = map[deal.Segment][2]float64{
	deal.SegmentSMB:        {5_000, 50_000},
	deal.SegmentMidMarket:  {25_000, 200_000},
	deal.SegmentEnterprise: {75_000, 500_000},
	deal.SegmentStrategic:  {150_000, 1_000_000},
}

var paymentTermsChoices = []int{15, 30, 45, 60, 90}

// sampleClauses mixes real-looking contract language with empty entries so
// only a fraction of seeded deals carry a clause for advisory analysis.
var sampleClauses = []string{
	"All data must be stored within the European Union at all times.",
	"Vendor shall provide annual SOC 2 Type II audit reports.",
	"All intellectual property created during the engagement belongs to the customer.",
	"Customer retains the right to conduct on-site security audits quarterly.",
	"Data must not be transferred outside of the originating jurisdiction.",
	"Vendor indemnifies customer against all third-party IP infringement claims.",
	"Source code shall be placed in escrow with a neutral third party.",
	"Customer may terminate for convenience with 30 days written notice.",
	"",
	"",
	"",
	"",
}

// RandomInput generates one random but plausible deal submission.
func RandomInput() deal.Input {
	segment := segments[rand.IntN(len(segments))]
	bounds := acvRanges[segment]
	acv := bounds[0] + rand.Float64()*(bounds[1]-bounds[0])
	acv = float64(int64(acv/1000+0.5)) * 1000 // round to nearest 1000

	return deal.Input{
		DealType:             dealTypes[rand.IntN(len(dealTypes))],
		CustomerSegment:      segment,
		AnnualContractValue:  acv,
		DiscountPercentage:   float64(int(rand.Float64()*35*10)) / 10,
		PaymentTermsDays:     paymentTermsChoices[rand.IntN(len(paymentTermsChoices))],
		Region:               regions[rand.IntN(len(regions))],
		CustomSecurityClause: rand.Float64() < 0.3,
		ClauseText:           sampleClauses[rand.IntN(len(sampleClauses))],
	}
}

// Seeder generates deals and writes them through the regular pipeline.
type Seeder struct {
	store    store.Store
	policies *policy.Store
	advisor  advisory.Client
	logger   *slog.Logger
}

// New creates a seeder. advisor may be nil; seeded deals then skip clause
// analysis even when auto-processing.
func New(s store.Store, policies *policy.Store, advisor advisory.Client, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		store:    s,
		policies: policies,
		advisor:  advisor,
		logger:   logger.With("component", "seed"),
	}
}

// Seed generates count random deals and persists them. With autoProcess
// each deal is evaluated, routed, and (when it carries a clause) analyzed
// before storage, just like a live submission. It returns the new deal IDs.
func (s *Seeder) Seed(ctx context.Context, count int, autoProcess bool) ([]string, error) {
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxCount {
		return nil, fmt.Errorf("seed count %d exceeds maximum %d", count, MaxCount)
	}

	cfg := s.policies.Current()
	ids := make([]string, 0, count)

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return ids, err
		}

		d, err := deal.New(RandomInput())
		if err != nil {
			return ids, fmt.Errorf("generating deal: %w", err)
		}
		if err := s.store.SaveDeal(ctx, d); err != nil {
			return ids, fmt.Errorf("saving deal %s: %w", d.ID, err)
		}
		ids = append(ids, d.ID)

		if !autoProcess {
			continue
		}

		decision := routing.Decide(cfg, d)
		var adv *advisory.Advisory
		if d.ClauseText != "" && s.advisor != nil {
			result, err := s.advisor.AnalyzeClause(ctx, d.ClauseText)
			if err != nil {
				return ids, fmt.Errorf("analyzing clause for deal %s: %w", d.ID, err)
			}
			adv = &result
		}
		if err := s.store.UpdateDecision(ctx, d.ID, decision.RuleTriggers, decision, adv); err != nil {
			return ids, fmt.Errorf("recording decision for deal %s: %w", d.ID, err)
		}
	}

	s.logger.Info("seeded deals", "count", len(ids), "auto_process", autoProcess)
	return ids, nil
}

// ResetAndSeed clears all stored deals and overrides, then seeds count
// fully processed deals.
func (s *Seeder) ResetAndSeed(ctx context.Context, count int) ([]string, error) {
	if err := s.store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("resetting store: %w", err)
	}
	return s.Seed(ctx, count, true)
}
