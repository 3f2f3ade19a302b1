// Package engine owns the experiment lifecycle: creation, the state
// machine, deterministic variant assignment, and metrics recording. It is
// written against the store port and performs no I/O of its own beyond it.
package engine

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/priceforge/priceforge/internal/apperr"
	"github.com/priceforge/priceforge/internal/signal"
	"github.com/priceforge/priceforge/internal/store"
)

const (
	weightTotal     = 100.0
	weightTolerance = 0.01
)

// transitions is the complete set of legal status edges. Anything absent
// here is a ValidationError.
var transitions = map[store.Status][]store.Status{
	store.StatusDraft:  {store.StatusActive},
	store.StatusActive: {store.StatusPaused, store.StatusCompleted},
	store.StatusPaused: {store.StatusActive, store.StatusCompleted},
}

// Engine is the experiment lifecycle manager.
type Engine struct {
	store    store.Store
	notifier signal.Notifier
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier wires an outbound signal emitter. Events are emitted
// fire-and-forget on every recorded view and conversion.
func WithNotifier(n signal.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithClock overrides the time source. Tests use this to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine on top of the given store.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		notifier: signal.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// VariantParams describes one variant at creation or addition time. A zero
// weight means "unset"; when every variant's weight is unset the engine
// assigns an equal split.
type VariantParams struct {
	Name   string
	Price  float64
	Weight float64
}

// CreateParams is the input to Create.
type CreateParams struct {
	Name        string
	Description string
	Variants    []VariantParams
}

// Create validates and persists a new draft experiment with zeroed metrics
// rows. No partial writes occur on validation failure.
func (e *Engine) Create(ctx context.Context, tenantID string, params CreateParams) (*store.Experiment, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, apperr.Validation("experiment name is required")
	}
	if len(params.Variants) < 2 {
		return nil, apperr.Validation("experiment needs at least 2 variants")
	}

	weighted := false
	weightSum := 0.0
	for _, v := range params.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return nil, apperr.Validation("variant name is required")
		}
		if v.Price <= 0 {
			return nil, apperr.Validation("variant %q price must be positive", v.Name)
		}
		if v.Weight < 0 || v.Weight > weightTotal {
			return nil, apperr.Validation("variant %q weight must be between 0 and 100", v.Name)
		}
		if v.Weight != 0 {
			weighted = true
		}
		weightSum += v.Weight
	}
	if weighted && math.Abs(weightSum-weightTotal) > weightTolerance {
		return nil, apperr.Validation("variant weights must sum to 100, got %.2f", weightSum)
	}

	now := e.now()
	exp := &store.Experiment{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Name:        params.Name,
		Description: params.Description,
		Status:      store.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	equalWeight := weightTotal / float64(len(params.Variants))
	for _, v := range params.Variants {
		weight := v.Weight
		if !weighted {
			weight = equalWeight
		}
		exp.Variants = append(exp.Variants, store.Variant{
			ID:     uuid.NewString(),
			Name:   v.Name,
			Price:  v.Price,
			Weight: weight,
		})
	}

	if err := e.store.CreateExperiment(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// Get fetches an experiment scoped by tenant.
func (e *Engine) Get(ctx context.Context, id, tenantID string) (*store.Experiment, error) {
	exp, err := e.store.GetExperiment(ctx, id, tenantID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return exp, nil
}

// List returns a tenant's experiments, optionally filtered by status.
func (e *Engine) List(ctx context.Context, tenantID string, filter store.ListFilter) ([]*store.Experiment, error) {
	return e.store.ListExperiments(ctx, tenantID, filter)
}

// AddVariant appends a variant to a draft experiment and rebalances
// weights. The returned experiment carries the rebalanced variant list:
// whenever the post-add total is off 100, every variant is reset to an
// equal split, discarding any prior custom split. Callers that need a
// custom split must set all weights before activation.
func (e *Engine) AddVariant(ctx context.Context, id, tenantID string, params VariantParams) (*store.Experiment, error) {
	exp, err := e.Get(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if exp.Status != store.StatusDraft {
		return nil, apperr.Validation("variants can only be added while the experiment is in draft")
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, apperr.Validation("variant name is required")
	}
	if params.Price <= 0 {
		return nil, apperr.Validation("variant price must be positive")
	}

	exp.Variants = append(exp.Variants, store.Variant{
		ID:     uuid.NewString(),
		Name:   params.Name,
		Price:  params.Price,
		Weight: params.Weight,
	})
	rebalance(exp)
	exp.UpdatedAt = e.now()

	if err := e.store.UpdateExperiment(ctx, exp); err != nil {
		return nil, mapNotFound(err)
	}
	return exp, nil
}

// RebalanceWeights resets every variant of a draft experiment to an equal
// split and returns the updated experiment.
func (e *Engine) RebalanceWeights(ctx context.Context, id, tenantID string) (*store.Experiment, error) {
	exp, err := e.Get(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if exp.Status != store.StatusDraft {
		return nil, apperr.Validation("weights can only be rebalanced while the experiment is in draft")
	}
	equalSplit(exp)
	exp.UpdatedAt = e.now()
	if err := e.store.UpdateExperiment(ctx, exp); err != nil {
		return nil, mapNotFound(err)
	}
	return exp, nil
}

// Activate moves a draft or paused experiment to active. The start date is
// stamped only on first activation; resuming after a pause keeps it.
func (e *Engine) Activate(ctx context.Context, id, tenantID string) (*store.Experiment, error) {
	return e.transition(ctx, id, tenantID, store.StatusActive)
}

// Pause suspends an active experiment.
func (e *Engine) Pause(ctx context.Context, id, tenantID string) (*store.Experiment, error) {
	return e.transition(ctx, id, tenantID, store.StatusPaused)
}

// Stop completes an active or paused experiment and stamps the end date.
// Completion is terminal.
func (e *Engine) Stop(ctx context.Context, id, tenantID string) (*store.Experiment, error) {
	return e.transition(ctx, id, tenantID, store.StatusCompleted)
}

// UpdateParams carries the mutable experiment fields. Nil means unchanged.
type UpdateParams struct {
	Name        *string
	Description *string
	Status      *store.Status
}

// Update edits name, description, or status. Completed experiments reject
// all mutation. A status change goes through the same transition table as
// Activate/Stop.
func (e *Engine) Update(ctx context.Context, id, tenantID string, params UpdateParams) (*store.Experiment, error) {
	exp, err := e.Get(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if exp.Status == store.StatusCompleted {
		return nil, apperr.Validation("completed experiments cannot be modified")
	}

	if params.Name != nil {
		if strings.TrimSpace(*params.Name) == "" {
			return nil, apperr.Validation("experiment name is required")
		}
		exp.Name = *params.Name
	}
	if params.Description != nil {
		exp.Description = *params.Description
	}
	if params.Status != nil {
		if err := e.applyTransition(exp, *params.Status); err != nil {
			return nil, err
		}
	}

	exp.UpdatedAt = e.now()
	if err := e.store.UpdateExperiment(ctx, exp); err != nil {
		return nil, mapNotFound(err)
	}
	return exp, nil
}

// Delete removes a draft experiment and its metrics. Any other state is a
// ValidationError.
func (e *Engine) Delete(ctx context.Context, id, tenantID string) error {
	exp, err := e.Get(ctx, id, tenantID)
	if err != nil {
		return err
	}
	if exp.Status != store.StatusDraft {
		return apperr.Validation("only draft experiments can be deleted")
	}
	if err := e.store.DeleteExperiment(ctx, id, tenantID); err != nil {
		return mapNotFound(err)
	}
	return nil
}

// RecordView increments a variant's view counter and emits a view signal.
// Unknown experiment or variant ids are silently ignored: view events race
// deletions on a hot path and must not fail traffic.
func (e *Engine) RecordView(ctx context.Context, experimentID, variantID string) error {
	if err := e.store.RecordView(ctx, experimentID, variantID); err != nil {
		return err
	}
	e.notifier.Notify(signal.Event{
		Type:         signal.EventView,
		ExperimentID: experimentID,
		VariantID:    variantID,
		OccurredAt:   e.now(),
	})
	return nil
}

// RecordConversion increments a variant's conversion counter, accumulates
// revenue, and emits a conversion signal. Unknown ids are ignored.
func (e *Engine) RecordConversion(ctx context.Context, experimentID, variantID string, revenue float64) error {
	if err := e.store.RecordConversion(ctx, experimentID, variantID, revenue); err != nil {
		return err
	}
	e.notifier.Notify(signal.Event{
		Type:         signal.EventConversion,
		ExperimentID: experimentID,
		VariantID:    variantID,
		Revenue:      revenue,
		OccurredAt:   e.now(),
	})
	return nil
}

// Results returns the read-only metrics projection for an experiment.
func (e *Engine) Results(ctx context.Context, id, tenantID string) (*store.ExperimentResults, error) {
	results, err := e.store.GetResults(ctx, id, tenantID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return results, nil
}

func (e *Engine) transition(ctx context.Context, id, tenantID string, to store.Status) (*store.Experiment, error) {
	exp, err := e.Get(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if err := e.applyTransition(exp, to); err != nil {
		return nil, err
	}
	exp.UpdatedAt = e.now()
	if err := e.store.UpdateExperiment(ctx, exp); err != nil {
		return nil, mapNotFound(err)
	}
	return exp, nil
}

func (e *Engine) applyTransition(exp *store.Experiment, to store.Status) error {
	if !to.Valid() {
		return apperr.Validation("unknown status %q", to)
	}
	if !edgeAllowed(exp.Status, to) {
		return apperr.Validation("cannot transition from %s to %s", exp.Status, to)
	}

	switch to {
	case store.StatusActive:
		if len(exp.Variants) < 2 {
			return apperr.Validation("experiment needs at least 2 variants to activate")
		}
		if exp.StartDate == nil {
			t := e.now()
			exp.StartDate = &t
		}
	case store.StatusCompleted:
		t := e.now()
		exp.EndDate = &t
	}

	exp.Status = to
	return nil
}

func edgeAllowed(from, to store.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// rebalance resets all weights to an equal split when the total drifted
// off 100 after a variant addition.
func rebalance(exp *store.Experiment) {
	sum := 0.0
	for _, v := range exp.Variants {
		sum += v.Weight
	}
	if math.Abs(sum-weightTotal) > weightTolerance {
		equalSplit(exp)
	}
}

func equalSplit(exp *store.Experiment) {
	if len(exp.Variants) == 0 {
		return
	}
	w := weightTotal / float64(len(exp.Variants))
	for i := range exp.Variants {
		exp.Variants[i].Weight = w
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("experiment")
	}
	return err
}
