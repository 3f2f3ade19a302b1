package stats

import "math"

// PValue performs a two-proportion z-test between a control and an
// experiment variant and returns the two-tailed p-value.
//
// Degenerate inputs return 1 (not significant) rather than NaN: zero views
// on either side, or a zero standard error from a pooled proportion of 0
// or 1.
func PValue(controlConversions, controlViews, experimentConversions, experimentViews int64) float64 {
	if controlViews == 0 || experimentViews == 0 {
		return 1
	}

	p1 := float64(controlConversions) / float64(controlViews)
	p2 := float64(experimentConversions) / float64(experimentViews)

	// Pooled proportion under the null hypothesis p1 == p2.
	pooled := float64(controlConversions+experimentConversions) / float64(controlViews+experimentViews)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(controlViews) + 1/float64(experimentViews)))
	if se == 0 {
		return 1
	}

	z := (p2 - p1) / se

	// Two-tailed: probability of a |Z| at least this extreme.
	return 2 * (1 - normalCDF(math.Abs(z)))
}

// Significance returns 1-p for the two-proportion z-test, a 0-1 confidence
// that the two variants convert at different rates.
func Significance(controlConversions, controlViews, experimentConversions, experimentViews int64) float64 {
	return 1 - PValue(controlConversions, controlViews, experimentConversions, experimentViews)
}

// normalCDF approximates the cumulative distribution function of the
// standard normal distribution using Abramowitz and Stegun formula 7.1.26,
// accurate to about 1e-7.
func normalCDF(x float64) float64 {
	a1 := 0.254829592
	a2 := -0.284496736
	a3 := 1.421413741
	a4 := -1.453152027
	a5 := 1.061405429
	p := 0.3275911

	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x) / math.Sqrt(2)

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)

	return 0.5 * (1.0 + sign*y)
}
