package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"dealflow-hq/vega/pkg/advisory"
	"dealflow-hq/vega/pkg/deal"
	"dealflow-hq/vega/pkg/routing"
	"dealflow-hq/vega/pkg/rules"
)

// MemoryStore implements Store in process memory. State is lost on
// restart; use it for tests and ephemeral runs.
type MemoryStore struct {
	mu        sync.RWMutex
	deals     map[string]*Record
	order     []string
	overrides []*Override
	nextID    int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		deals:  make(map[string]*Record),
		nextID: 1,
	}
}

// SaveDeal inserts a validated deal.
func (s *MemoryStore) SaveDeal(_ context.Context, d deal.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deals[d.ID] = &Record{Deal: d, Status: StatusValidated}
	s.order = append(s.order, d.ID)
	return nil
}

// UpdateDecision attaches the evaluation outcome to a deal and marks
// it processed.
func (s *MemoryStore) UpdateDecision(_ context.Context, dealID string, triggers []rules.Trigger, decision routing.Decision, adv *advisory.Advisory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.deals[dealID]
	if !ok {
		return ErrNotFound
	}
	rec.Triggers = triggers
	rec.Decision = &decision
	rec.Advisory = adv
	rec.Status = StatusProcessed
	return nil
}

// GetDeal returns one record, or ErrNotFound.
func (s *MemoryStore) GetDeal(_ context.Context, dealID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.deals[dealID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// ListDeals returns all records, newest first.
func (s *MemoryStore) ListDeals(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*Record, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.deals[id]
		records = append(records, &cp)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Deal.CreatedAt.After(records[j].Deal.CreatedAt)
	})
	return records, nil
}

// SaveOverride records a manual override and marks the deal
// overridden.
func (s *MemoryStore) SaveOverride(_ context.Context, ov *Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.deals[ov.DealID]
	if !ok {
		return ErrNotFound
	}
	if ov.CreatedAt.IsZero() {
		ov.CreatedAt = time.Now().UTC()
	}
	if ov.OverriddenBy == "" {
		ov.OverriddenBy = "approver"
	}
	ov.ID = s.nextID
	s.nextID++

	cp := *ov
	s.overrides = append(s.overrides, &cp)
	rec.Status = StatusOverridden
	return nil
}

// ListOverrides returns all overrides, newest first.
func (s *MemoryStore) ListOverrides(_ context.Context) ([]*Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Override, 0, len(s.overrides))
	for i := len(s.overrides) - 1; i >= 0; i-- {
		cp := *s.overrides[i]
		out = append(out, &cp)
	}
	return out, nil
}

// ListOverridesForDeal returns the overrides for one deal, newest
// first.
func (s *MemoryStore) ListOverridesForDeal(_ context.Context, dealID string) ([]*Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Override
	for i := len(s.overrides) - 1; i >= 0; i-- {
		if s.overrides[i].DealID == dealID {
			cp := *s.overrides[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Reset deletes all deals and overrides.
func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deals = make(map[string]*Record)
	s.order = nil
	s.overrides = nil
	s.nextID = 1
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
