package stats

import "math"

// WilsonInterval calculates the Wilson score confidence interval for a
// variant's conversion rate. It behaves better than the normal
// approximation at the small sample sizes early experiments run at.
func WilsonInterval(conversions, views int64, confidence float64) (lower, upper float64) {
	if views == 0 {
		return 0, 0
	}

	z := ZScore(confidence)
	p := float64(conversions) / float64(views)
	n := float64(views)

	denominator := 1 + z*z/n
	center := (p + z*z/(2*n)) / denominator
	spread := (z / denominator) * math.Sqrt(p*(1-p)/n+z*z/(4*n*n))

	lower = center - spread
	upper = center + spread

	if lower < 0 {
		lower = 0
	}
	if upper > 1 {
		upper = 1
	}

	return lower, upper
}

// ZScore returns the two-tailed z-score for the confidence levels the
// engine actually uses.
func ZScore(confidence float64) float64 {
	switch {
	case confidence >= 0.99:
		return 2.576
	case confidence >= 0.95:
		return 1.96
	case confidence >= 0.90:
		return 1.645
	default:
		return 1.28
	}
}
