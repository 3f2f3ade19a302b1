package recommend

import (
	"github.com/priceforge/priceforge/internal/apperr"
)

// Verdict classifies a quick analysis outcome.
type Verdict string

const (
	VerdictProceed    Verdict = "proceed"
	VerdictCaution    Verdict = "caution"
	VerdictReconsider Verdict = "reconsider"
)

// DefaultElasticity is the assumed elasticity for quick analyses when the
// caller has no experiment data. -1.5 is a conservative SaaS default.
const DefaultElasticity = -1.5

// QuickAnalysis is the stateless one-shot projection for a proposed price
// change, requiring no experiment.
type QuickAnalysis struct {
	CurrentPrice  float64 `json:"currentPrice"`
	ProposedPrice float64 `json:"proposedPrice"`
	Elasticity    float64 `json:"elasticity"`
	RevenueChange float64 `json:"revenueChange"`
	Verdict       Verdict `json:"verdict"`
}

// Quick projects the revenue impact of moving currentPrice to
// proposedPrice under the given elasticity (0 means DefaultElasticity) and
// classifies it: proceed above +5%, reconsider below -5%, caution between.
func Quick(currentPrice, proposedPrice, elasticity float64) (*QuickAnalysis, error) {
	if currentPrice <= 0 || proposedPrice <= 0 {
		return nil, apperr.Validation("prices must be positive")
	}
	if elasticity == 0 {
		elasticity = DefaultElasticity
	}

	priceChange := (proposedPrice - currentPrice) / currentPrice
	revenueChange := ((1 + priceChange) * (1 + priceChange*elasticity) - 1) * 100

	verdict := VerdictCaution
	if revenueChange > 5 {
		verdict = VerdictProceed
	} else if revenueChange < -5 {
		verdict = VerdictReconsider
	}

	return &QuickAnalysis{
		CurrentPrice:  currentPrice,
		ProposedPrice: proposedPrice,
		Elasticity:    elasticity,
		RevenueChange: revenueChange,
		Verdict:       verdict,
	}, nil
}
