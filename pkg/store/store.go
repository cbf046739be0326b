// Package store persists deals, their evaluation outcomes and manual
// overrides. A SQLite backend provides durability for single-instance
// deployments; an in-memory backend serves tests and ephemeral runs.
package store

import (
	"context"
	"errors"
	"time"

	"dealflow-hq/vega/pkg/advisory"
	"dealflow-hq/vega/pkg/deal"
	"dealflow-hq/vega/pkg/routing"
	"dealflow-hq/vega/pkg/rules"
)

// Status tracks a deal's position in its lifecycle.
type Status string

const (
	// StatusValidated means the deal passed intake validation and is
	// stored, but has not been evaluated.
	StatusValidated Status = "validated"

	// StatusProcessed means evaluation and routing have completed.
	StatusProcessed Status = "processed"

	// StatusOverridden means a manual override superseded the routed
	// decision.
	StatusOverridden Status = "overridden"
)

// ErrNotFound is returned when a deal does not exist.
var ErrNotFound = errors.New("deal not found")

// ErrNotProcessed is returned when an operation requires a routed
// decision that the deal does not yet have.
var ErrNotProcessed = errors.New("deal has not been processed")

// Record is a persisted deal together with its evaluation outcome.
// Triggers, Decision and Advisory are nil until the deal is processed.
type Record struct {
	Deal     deal.Deal          `json:"deal"`
	Status   Status             `json:"status"`
	Triggers []rules.Trigger    `json:"rule_triggers,omitempty"`
	Decision *routing.Decision  `json:"decision,omitempty"`
	Advisory *advisory.Advisory `json:"advisory,omitempty"`
}

// Override records a manual decision override for an escalated deal.
type Override struct {
	ID               int64            `json:"override_id"`
	DealID           string           `json:"deal_id"`
	Reason           string           `json:"override_reason"`
	Notes            string           `json:"override_notes,omitempty"`
	OverriddenBy     string           `json:"overridden_by"`
	CreatedAt        time.Time        `json:"created_at"`
	OriginalDecision routing.Decision `json:"original_decision"`
}

// Store persists deals and overrides.
type Store interface {
	// SaveDeal inserts a validated deal.
	SaveDeal(ctx context.Context, d deal.Deal) error

	// UpdateDecision attaches the evaluation outcome to a deal and
	// marks it processed. advisory may be nil.
	UpdateDecision(ctx context.Context, dealID string, triggers []rules.Trigger, decision routing.Decision, adv *advisory.Advisory) error

	// GetDeal returns one record, or ErrNotFound.
	GetDeal(ctx context.Context, dealID string) (*Record, error)

	// ListDeals returns all records, newest first.
	ListDeals(ctx context.Context) ([]*Record, error)

	// SaveOverride records a manual override and marks the deal
	// overridden. The override's ID field is assigned on return.
	SaveOverride(ctx context.Context, ov *Override) error

	// ListOverrides returns all overrides, newest first.
	ListOverrides(ctx context.Context) ([]*Override, error)

	// ListOverridesForDeal returns the overrides for one deal,
	// newest first.
	ListOverridesForDeal(ctx context.Context, dealID string) ([]*Override, error)

	// Reset deletes all deals and overrides.
	Reset(ctx context.Context) error

	// Close releases backend resources. Close is idempotent.
	Close() error
}

// ValidOverrideReasons is the closed set of accepted override reasons.
var ValidOverrideReasons = []string{
	"Strategic deal",
	"Pre-approved by VP",
	"Customer relationship",
	"Competitive pressure",
	"One-time exception",
	"Other",
}

// ValidOverrideReason reports whether reason is in the accepted set.
func ValidOverrideReason(reason string) bool {
	for _, r := range ValidOverrideReasons {
		if r == reason {
			return true
		}
	}
	return false
}
