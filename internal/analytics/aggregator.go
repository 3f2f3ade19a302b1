// Package analytics builds cross-experiment rollups for a tenant's
// dashboard. It composes the store, the stats helpers, and simple folds;
// it owns no state of its own.
package analytics

import (
	"context"
	"sort"

	mstats "github.com/montanaflynn/stats"

	"github.com/priceforge/priceforge/internal/store"
)

// Aggregator reads every experiment a tenant owns and folds the results.
type Aggregator struct {
	store store.Store
}

// New creates an Aggregator on top of the given store.
func New(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// ExperimentSummary is one row of the cross-experiment rollup.
type ExperimentSummary struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Status         store.Status `json:"status"`
	Variants       int          `json:"variants"`
	Views          int64        `json:"views"`
	Conversions    int64        `json:"conversions"`
	Revenue        float64      `json:"revenue"`
	ConversionRate float64      `json:"conversionRate"`
	WinningVariant string       `json:"winningVariant,omitempty"`
	Significance   *float64     `json:"statisticalSignificance,omitempty"`
}

// Overview is the tenant-wide rollup.
type Overview struct {
	TotalExperiments     int                 `json:"totalExperiments"`
	ActiveExperiments    int                 `json:"activeExperiments"`
	TotalViews           int64               `json:"totalViews"`
	TotalConversions     int64               `json:"totalConversions"`
	TotalRevenue         float64             `json:"totalRevenue"`
	MeanConversionRate   float64             `json:"meanConversionRate"`
	MedianConversionRate float64             `json:"medianConversionRate"`
	MeanRevenuePerView   float64             `json:"meanRevenuePerView"`
	Experiments          []ExperimentSummary `json:"experiments"`
}

// Overview folds every experiment the tenant owns into a single report.
// Experiments with no traffic are counted but excluded from the rate
// distributions.
func (a *Aggregator) Overview(ctx context.Context, tenantID string) (*Overview, error) {
	experiments, err := a.store.ListExperiments(ctx, tenantID, store.ListFilter{})
	if err != nil {
		return nil, err
	}

	overview := &Overview{TotalExperiments: len(experiments)}
	var rates, rpvs []float64

	for _, exp := range experiments {
		if exp.Status == store.StatusActive {
			overview.ActiveExperiments++
		}

		results, err := a.store.GetResults(ctx, exp.ID, tenantID)
		if err != nil {
			return nil, err
		}

		row := ExperimentSummary{
			ID:           exp.ID,
			Name:         exp.Name,
			Status:       exp.Status,
			Variants:     len(exp.Variants),
			Views:        results.Summary.TotalViews,
			Conversions:  results.Summary.TotalConversions,
			Revenue:      results.Summary.TotalRevenue,
			Significance: results.Summary.StatisticalSignificance,
		}
		if results.Summary.WinningVariant != "" {
			if v := exp.Variant(results.Summary.WinningVariant); v != nil {
				row.WinningVariant = v.Name
			}
		}
		if row.Views > 0 {
			row.ConversionRate = float64(row.Conversions) / float64(row.Views)
			rates = append(rates, row.ConversionRate)
			rpvs = append(rpvs, row.Revenue/float64(row.Views))
		}

		overview.TotalViews += row.Views
		overview.TotalConversions += row.Conversions
		overview.TotalRevenue += row.Revenue
		overview.Experiments = append(overview.Experiments, row)
	}

	sort.Slice(overview.Experiments, func(i, j int) bool {
		return overview.Experiments[i].Revenue > overview.Experiments[j].Revenue
	})

	if len(rates) > 0 {
		// montanaflynn returns an error only for empty input, which is
		// excluded above.
		overview.MeanConversionRate, _ = mstats.Mean(rates)
		overview.MedianConversionRate, _ = mstats.Median(rates)
		overview.MeanRevenuePerView, _ = mstats.Mean(rpvs)
	}

	return overview, nil
}
