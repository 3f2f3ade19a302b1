package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a referenced experiment does not exist or is
// not visible to the caller's tenant.
var ErrNotFound = errors.New("not found")

// Store is the persistence port the engine is written against. All
// operations are tenant-scoped; an empty tenantID skips the ownership
// check, which only internal callers (assignment, event intake) use.
//
// Implementations must keep RecordView/RecordConversion atomic per
// (experiment, variant) row: the counter increment and the derived-field
// recompute are one unit, and two concurrent conversions on the same
// variant must both be reflected. Across rows there is no ordering
// requirement.
type Store interface {
	CreateExperiment(ctx context.Context, exp *Experiment) error
	GetExperiment(ctx context.Context, id, tenantID string) (*Experiment, error)
	ListExperiments(ctx context.Context, tenantID string, filter ListFilter) ([]*Experiment, error)
	UpdateExperiment(ctx context.Context, exp *Experiment) error
	DeleteExperiment(ctx context.Context, id, tenantID string) error

	// RecordView and RecordConversion are no-ops for unknown experiment or
	// variant ids: late events racing a deletion must not fail.
	RecordView(ctx context.Context, experimentID, variantID string) error
	RecordConversion(ctx context.Context, experimentID, variantID string, revenue float64) error

	GetResults(ctx context.Context, id, tenantID string) (*ExperimentResults, error)

	Close() error
}
