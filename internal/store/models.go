package store

import (
	"sort"
	"time"

	"github.com/priceforge/priceforge/internal/stats"
)

// Status is the experiment lifecycle state. Transitions are enforced by the
// engine; the store only persists whatever state it is handed.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// Variant is one priced alternative within an experiment. Weights are
// percentages; the engine keeps them summing to 100.
type Variant struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Weight float64 `json:"weight"`
}

// Experiment is the authoritative record for one pricing test.
type Experiment struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenantId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Variants    []Variant  `json:"variants"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Variant returns the variant with the given id, or nil.
func (e *Experiment) Variant(variantID string) *Variant {
	for i := range e.Variants {
		if e.Variants[i].ID == variantID {
			return &e.Variants[i]
		}
	}
	return nil
}

// VariantMetrics holds the per-variant counters and the rates derived from
// them. Counters only ever increase within an experiment's life.
type VariantMetrics struct {
	VariantID         string  `json:"variantId"`
	VariantName       string  `json:"variantName"`
	Price             float64 `json:"price"`
	Views             int64   `json:"views"`
	Conversions       int64   `json:"conversions"`
	Revenue           float64 `json:"revenue"`
	ConversionRate    float64 `json:"conversionRate"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	RevenuePerView    float64 `json:"revenuePerView"`
}

// Recalculate derives the rate fields from the counters. Implementations
// must call this inside the same critical section as the increment so
// readers never observe stale derived values.
func (m *VariantMetrics) Recalculate() {
	if m.Views > 0 {
		m.ConversionRate = float64(m.Conversions) / float64(m.Views)
		m.RevenuePerView = m.Revenue / float64(m.Views)
	} else {
		m.ConversionRate = 0
		m.RevenuePerView = 0
	}
	if m.Conversions > 0 {
		m.AverageOrderValue = m.Revenue / float64(m.Conversions)
	} else {
		m.AverageOrderValue = 0
	}
}

// Sample converts the metrics row into the stats package's input shape.
func (m VariantMetrics) Sample() stats.VariantSample {
	return stats.VariantSample{Price: m.Price, Conversions: m.Conversions, Views: m.Views}
}

// ResultsSummary is the experiment-level rollup inside ExperimentResults.
type ResultsSummary struct {
	TotalViews              int64    `json:"totalViews"`
	TotalConversions        int64    `json:"totalConversions"`
	TotalRevenue            float64  `json:"totalRevenue"`
	WinningVariant          string   `json:"winningVariant,omitempty"`
	StatisticalSignificance *float64 `json:"statisticalSignificance,omitempty"`
}

// ExperimentResults is a read-only projection of an experiment's metrics.
type ExperimentResults struct {
	ExperimentID string                    `json:"experimentId"`
	Variants     map[string]VariantMetrics `json:"variants"`
	Summary      ResultsSummary            `json:"summary"`
}

// Summarize folds per-variant metrics into a ResultsSummary: totals, the
// highest-revenue variant as winner, and 1-p significance between the two
// highest-revenue variants when there are at least two.
func Summarize(variants map[string]VariantMetrics) ResultsSummary {
	var summary ResultsSummary

	rows := make([]VariantMetrics, 0, len(variants))
	for _, m := range variants {
		summary.TotalViews += m.Views
		summary.TotalConversions += m.Conversions
		summary.TotalRevenue += m.Revenue
		rows = append(rows, m)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Revenue > rows[j].Revenue })

	if len(rows) > 0 && rows[0].Revenue > 0 {
		summary.WinningVariant = rows[0].VariantID
	}
	if len(rows) >= 2 {
		sig := stats.Significance(rows[0].Conversions, rows[0].Views, rows[1].Conversions, rows[1].Views)
		summary.StatisticalSignificance = &sig
	}

	return summary
}

// ListFilter narrows ListExperiments. The zero value matches everything.
type ListFilter struct {
	Status Status
}
