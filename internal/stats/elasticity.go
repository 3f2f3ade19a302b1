// Package stats implements the pure statistical functions behind pricing
// recommendations: price-elasticity estimation, two-proportion significance
// testing, and price heuristics. Nothing in here touches storage or I/O.
package stats

import (
	"math"

	"github.com/priceforge/priceforge/internal/apperr"
)

// Interpretation classifies an elasticity estimate.
type Interpretation string

const (
	Elastic     Interpretation = "elastic"
	Inelastic   Interpretation = "inelastic"
	UnitElastic Interpretation = "unit_elastic"
)

// The 0.95-1.05 band around unity is treated as unit elastic so noisy
// estimates near 1 don't flip between interpretations.
const (
	elasticThreshold   = 1.05
	inelasticThreshold = 0.95
)

// minPriceDelta is the relative price change below which elasticity is
// reported as 0 rather than dividing by a near-zero denominator.
const minPriceDelta = 0.0001

// VariantSample is the minimal per-variant input for elasticity and
// significance calculations.
type VariantSample struct {
	Price       float64
	Conversions int64
	Views       int64
}

// ConversionRate returns conversions/views, or 0 when there are no views.
func (s VariantSample) ConversionRate() float64 {
	if s.Views <= 0 {
		return 0
	}
	return float64(s.Conversions) / float64(s.Views)
}

// ElasticityAnalysis is the derived elasticity report. It is never persisted.
type ElasticityAnalysis struct {
	Elasticity         float64            `json:"elasticity"`
	Interpretation     Interpretation     `json:"interpretation"`
	ConfidenceInterval ConfidenceInterval `json:"confidenceInterval"`
	SampleSize         int64              `json:"sampleSize"`
}

type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Elasticity computes the price elasticity of demand between a control and
// an experiment variant: the relative change in conversion rate divided by
// the relative change in price. Negligible price moves (<0.01% relative)
// return 0 rather than amplifying noise.
func Elasticity(control, experiment VariantSample) (float64, error) {
	if control.Price <= 0 || experiment.Price <= 0 {
		return 0, apperr.Validation("prices must be positive")
	}
	if control.Views <= 0 || experiment.Views <= 0 {
		return 0, apperr.Validation("both variants need at least one view")
	}

	r1 := control.ConversionRate()
	r2 := experiment.ConversionRate()

	priceChange := (experiment.Price - control.Price) / control.Price
	if math.Abs(priceChange) < minPriceDelta {
		return 0, nil
	}
	if r1 == 0 {
		// No baseline demand to measure a relative change against.
		return 0, nil
	}

	rateChange := (r2 - r1) / r1
	return rateChange / priceChange, nil
}

// Analyze wraps Elasticity with an interpretation and a 95% confidence
// interval. The interval uses SE = 1/sqrt(n1+n2), a coarse heuristic that
// ignores the elasticity variance structure; it is a known approximation.
func Analyze(control, experiment VariantSample) (*ElasticityAnalysis, error) {
	e, err := Elasticity(control, experiment)
	if err != nil {
		return nil, err
	}

	n := control.Views + experiment.Views
	se := 1 / math.Sqrt(float64(n))

	return &ElasticityAnalysis{
		Elasticity:     e,
		Interpretation: Interpret(e),
		ConfidenceInterval: ConfidenceInterval{
			Lower: e - 1.96*se,
			Upper: e + 1.96*se,
		},
		SampleSize: n,
	}, nil
}

// Interpret classifies an elasticity value.
func Interpret(elasticity float64) Interpretation {
	abs := math.Abs(elasticity)
	switch {
	case abs > elasticThreshold:
		return Elastic
	case abs < inelasticThreshold:
		return Inelastic
	default:
		return UnitElastic
	}
}

// Width returns the width of the interval.
func (ci ConfidenceInterval) Width() float64 {
	return ci.Upper - ci.Lower
}
