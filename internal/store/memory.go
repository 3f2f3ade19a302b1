package store

import (
	"context"
	"sync"
)

// MemoryStore is the in-process authoritative store. A single RWMutex
// guards both maps; every operation is a short synchronous computation, so
// per-experiment sharding has not been worth the complexity.
type MemoryStore struct {
	mu          sync.RWMutex
	experiments map[string]*Experiment
	metrics     map[string]map[string]*VariantMetrics // experimentID -> variantID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		experiments: make(map[string]*Experiment),
		metrics:     make(map[string]map[string]*VariantMetrics),
	}
}

func (s *MemoryStore) CreateExperiment(ctx context.Context, exp *Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneExperiment(exp)
	s.experiments[cp.ID] = cp
	s.metrics[cp.ID] = zeroedMetrics(cp)
	return nil
}

func (s *MemoryStore) GetExperiment(ctx context.Context, id, tenantID string) (*Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.experiments[id]
	if !ok || !tenantVisible(exp, tenantID) {
		return nil, ErrNotFound
	}
	return cloneExperiment(exp), nil
}

func (s *MemoryStore) ListExperiments(ctx context.Context, tenantID string, filter ListFilter) ([]*Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Experiment
	for _, exp := range s.experiments {
		if !tenantVisible(exp, tenantID) {
			continue
		}
		if filter.Status != "" && exp.Status != filter.Status {
			continue
		}
		out = append(out, cloneExperiment(exp))
	}
	return out, nil
}

func (s *MemoryStore) UpdateExperiment(ctx context.Context, exp *Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.experiments[exp.ID]
	if !ok || !tenantVisible(existing, exp.TenantID) {
		return ErrNotFound
	}

	cp := cloneExperiment(exp)
	s.experiments[cp.ID] = cp

	// Variants added in draft get a zeroed metrics row; existing rows keep
	// their counters.
	rows := s.metrics[cp.ID]
	if rows == nil {
		rows = make(map[string]*VariantMetrics)
		s.metrics[cp.ID] = rows
	}
	for _, v := range cp.Variants {
		if _, ok := rows[v.ID]; !ok {
			rows[v.ID] = &VariantMetrics{VariantID: v.ID, VariantName: v.Name, Price: v.Price}
		}
	}
	return nil
}

func (s *MemoryStore) DeleteExperiment(ctx context.Context, id, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.experiments[id]
	if !ok || !tenantVisible(exp, tenantID) {
		return ErrNotFound
	}
	delete(s.experiments, id)
	delete(s.metrics, id)
	return nil
}

func (s *MemoryStore) RecordView(ctx context.Context, experimentID, variantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.metrics[experimentID][variantID]
	if !ok {
		return nil
	}
	m.Views++
	m.Recalculate()
	return nil
}

func (s *MemoryStore) RecordConversion(ctx context.Context, experimentID, variantID string, revenue float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.metrics[experimentID][variantID]
	if !ok {
		return nil
	}
	m.Conversions++
	m.Revenue += revenue
	m.Recalculate()
	return nil
}

func (s *MemoryStore) GetResults(ctx context.Context, id, tenantID string) (*ExperimentResults, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.experiments[id]
	if !ok || !tenantVisible(exp, tenantID) {
		return nil, ErrNotFound
	}

	variants := make(map[string]VariantMetrics, len(s.metrics[id]))
	for vid, m := range s.metrics[id] {
		variants[vid] = *m
	}

	return &ExperimentResults{
		ExperimentID: id,
		Variants:     variants,
		Summary:      Summarize(variants),
	}, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func tenantVisible(exp *Experiment, tenantID string) bool {
	return tenantID == "" || exp.TenantID == tenantID
}

func cloneExperiment(exp *Experiment) *Experiment {
	cp := *exp
	cp.Variants = append([]Variant(nil), exp.Variants...)
	if exp.StartDate != nil {
		t := *exp.StartDate
		cp.StartDate = &t
	}
	if exp.EndDate != nil {
		t := *exp.EndDate
		cp.EndDate = &t
	}
	return &cp
}

func zeroedMetrics(exp *Experiment) map[string]*VariantMetrics {
	rows := make(map[string]*VariantMetrics, len(exp.Variants))
	for _, v := range exp.Variants {
		rows[v.ID] = &VariantMetrics{VariantID: v.ID, VariantName: v.Name, Price: v.Price}
	}
	return rows
}

var _ Store = (*MemoryStore)(nil)
