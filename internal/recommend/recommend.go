// Package recommend turns experiment results into a structured pricing
// recommendation: a winning variant per business objective, an elasticity
// driven price, a confidence score, and human-readable rationale.
package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/priceforge/priceforge/internal/apperr"
	"github.com/priceforge/priceforge/internal/stats"
	"github.com/priceforge/priceforge/internal/store"
)

// Objective is the closed set of business objectives a recommendation can
// optimize for. Parsing rejects unknown strings instead of silently
// falling back to revenue.
type Objective int

const (
	ObjectiveRevenue Objective = iota
	ObjectiveConversion
	ObjectiveProfit
	ObjectiveMarketShare
)

var objectiveNames = map[Objective]string{
	ObjectiveRevenue:     "revenue",
	ObjectiveConversion:  "conversion",
	ObjectiveProfit:      "profit",
	ObjectiveMarketShare: "market_share",
}

func (o Objective) String() string {
	return objectiveNames[o]
}

// ParseObjective maps the wire name to an Objective.
func ParseObjective(s string) (Objective, error) {
	for o, name := range objectiveNames {
		if name == s {
			return o, nil
		}
	}
	return 0, apperr.Validation("unknown objective %q", s)
}

// Goals constrains a recommendation. Zero MinPrice/MaxPrice/TargetMargin
// mean unconstrained.
type Goals struct {
	Objective    Objective
	MinPrice     float64
	MaxPrice     float64
	TargetMargin float64
}

// ExpectedImpact projects the effect of adopting the recommended price.
type ExpectedImpact struct {
	RevenueChange    float64 `json:"revenueChange"`
	ConversionChange float64 `json:"conversionChange"`
	Elasticity       float64 `json:"elasticity"`
}

// Recommendation is the derived output shape. It is never persisted.
type Recommendation struct {
	CurrentPrice     float64        `json:"currentPrice"`
	RecommendedPrice float64        `json:"recommendedPrice"`
	Confidence       float64        `json:"confidence"`
	Reasoning        []string       `json:"reasoning"`
	ExpectedImpact   ExpectedImpact `json:"expectedImpact"`
	NextSteps        []string       `json:"nextSteps"`
}

// Generate produces a recommendation from experiment results. Elasticity is
// always computed between the price extremes: the cheapest variant as
// control and the most expensive as experiment, regardless of traffic. The
// winning variant is selected per the objective and anchors the price.
func Generate(results *store.ExperimentResults, goals Goals) (*Recommendation, error) {
	if results == nil || len(results.Variants) < 2 {
		return nil, apperr.Validation("recommendation needs metrics for at least 2 variants")
	}

	metrics := make([]store.VariantMetrics, 0, len(results.Variants))
	for _, m := range results.Variants {
		metrics = append(metrics, m)
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Price < metrics[j].Price })

	control := metrics[0]
	experiment := metrics[len(metrics)-1]

	analysis, err := stats.Analyze(control.Sample(), experiment.Sample())
	if err != nil {
		return nil, err
	}

	winner := selectWinner(metrics, goals.Objective)

	recommended, err := stats.OptimalPrice(winner.Price, analysis.Elasticity, goals.TargetMargin)
	if err != nil {
		return nil, err
	}
	if clamped := clamp(recommended, goals.MinPrice, goals.MaxPrice); clamped != recommended {
		recommended = stats.PsychologicalPrice(clamped)
	}

	significance := 0.0
	if results.Summary.StatisticalSignificance != nil {
		significance = *results.Summary.StatisticalSignificance
	}

	priceChange := 0.0
	if winner.Price > 0 {
		priceChange = (recommended - winner.Price) / winner.Price
	}

	rec := &Recommendation{
		CurrentPrice:     winner.Price,
		RecommendedPrice: recommended,
		Confidence:       confidenceScore(analysis, significance),
		Reasoning:        buildReasoning(analysis, winner, goals.Objective, recommended),
		ExpectedImpact: ExpectedImpact{
			RevenueChange:    stats.RevenueImpact(winner.Price, recommended, winner.Conversions, analysis.Elasticity),
			ConversionChange: priceChange * analysis.Elasticity * 100,
			Elasticity:       analysis.Elasticity,
		},
		NextSteps: buildNextSteps(analysis, recommended, significance),
	}
	return rec, nil
}

// selectWinner picks the reference variant for the stated objective.
func selectWinner(metrics []store.VariantMetrics, objective Objective) store.VariantMetrics {
	winner := metrics[0]
	for _, m := range metrics[1:] {
		if metricValue(m, objective) > metricValue(winner, objective) {
			winner = m
		}
	}
	return winner
}

func metricValue(m store.VariantMetrics, objective Objective) float64 {
	switch objective {
	case ObjectiveConversion:
		return m.ConversionRate
	case ObjectiveProfit:
		return m.RevenuePerView
	case ObjectiveMarketShare:
		return float64(m.Conversions)
	default:
		return m.Revenue
	}
}

func buildReasoning(analysis *stats.ElasticityAnalysis, winner store.VariantMetrics, objective Objective, recommended float64) []string {
	reasoning := make([]string, 0, 4)

	switch analysis.Interpretation {
	case stats.Elastic:
		reasoning = append(reasoning, fmt.Sprintf(
			"Demand is elastic (E=%.2f): conversions respond strongly to price changes, so price moves carry real volume risk.",
			analysis.Elasticity))
	case stats.Inelastic:
		reasoning = append(reasoning, fmt.Sprintf(
			"Demand is inelastic (E=%.2f): conversions barely respond to price changes, leaving room to capture more value.",
			analysis.Elasticity))
	default:
		reasoning = append(reasoning, fmt.Sprintf(
			"Demand is roughly unit elastic (E=%.2f): revenue is nearly flat across the tested price range.",
			analysis.Elasticity))
	}

	reasoning = append(reasoning, fmt.Sprintf(
		"Variant %q leads on the %s objective at $%.2f.",
		winner.VariantName, objective, winner.Price))

	if math.Abs(recommended-winner.Price) > 0.005 {
		reasoning = append(reasoning, fmt.Sprintf(
			"The recommended price of $%.2f adjusts the winning variant's price based on the measured elasticity.",
			recommended))
	}

	if analysis.SampleSize < 1000 {
		reasoning = append(reasoning, fmt.Sprintf(
			"Sample size is small (%d views): treat this recommendation as directional until more data arrives.",
			analysis.SampleSize))
	}

	return reasoning
}

func buildNextSteps(analysis *stats.ElasticityAnalysis, recommended, significance float64) []string {
	steps := make([]string, 0, 5)

	steps = append(steps, fmt.Sprintf("Roll out $%.2f as the new price for all traffic.", recommended))

	if significance < 0.95 {
		steps = append(steps, "Re-validate with a follow-up experiment: the current result is not statistically significant at 95%.")
	}

	steps = append(steps, "Set monitoring alerts on conversion rate and revenue per view to catch regressions early.")

	switch analysis.Interpretation {
	case stats.Inelastic:
		steps = append(steps, "Test higher price points: inelastic demand suggests customers will tolerate further increases.")
	case stats.Elastic:
		steps = append(steps, "Test bundling or packaging changes: elastic demand responds better to added value than to price moves.")
	default:
		steps = append(steps, "Hold the price band steady and widen the tested range in the next experiment.")
	}

	return steps
}

func clamp(price, min, max float64) float64 {
	if min > 0 && price < min {
		return min
	}
	if max > 0 && price > max {
		return max
	}
	return price
}
