package recommend

import "github.com/priceforge/priceforge/internal/stats"

// confidenceScore grades a recommendation 0-100. The increments are
// heuristic: sample size dominates, statistical significance and the
// tightness of the elasticity interval refine it.
func confidenceScore(analysis *stats.ElasticityAnalysis, significance float64) float64 {
	score := 50.0

	switch {
	case analysis.SampleSize >= 10000:
		score += 25
	case analysis.SampleSize >= 5000:
		score += 20
	case analysis.SampleSize >= 1000:
		score += 10
	}
	if analysis.SampleSize < 500 {
		score -= 20
	}

	switch {
	case significance >= 0.95:
		score += 15
	case significance >= 0.90:
		score += 10
	}
	if significance < 0.80 {
		score -= 15
	}

	width := analysis.ConfidenceInterval.Width()
	if width < 0.5 {
		score += 10
	} else if width > 1.0 {
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
