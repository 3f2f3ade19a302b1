package stats

import (
	"math"

	"github.com/priceforge/priceforge/internal/apperr"
)

// OptimalPrice derives a price to test next from the current price and an
// elasticity estimate. The |elasticity| bands and their multipliers are
// heuristic constants; they are not derived from a demand model.
//
// A targetMargin in (0,1) floors the result at currentPrice*(1-targetMargin).
// Pass 0 to leave the floor unset. The returned price has psychological
// rounding applied.
func OptimalPrice(currentPrice, elasticity, targetMargin float64) (float64, error) {
	if currentPrice <= 0 {
		return 0, apperr.Validation("current price must be positive")
	}

	abs := math.Abs(elasticity)
	var multiplier float64
	switch {
	case abs < 0.5:
		multiplier = 1.15
	case abs < 1.0:
		multiplier = 1.08
	case abs < 1.5:
		multiplier = 1.00
	case abs < 2.0:
		multiplier = 0.95
	default:
		multiplier = 0.90
	}

	price := currentPrice * multiplier

	if targetMargin > 0 && targetMargin < 1 {
		floor := currentPrice * (1 - targetMargin)
		if price < floor {
			price = floor
		}
	}

	return PsychologicalPrice(price), nil
}

// PsychologicalPrice rounds a price to a consumer-friendly ending:
// under 10 to x.99, under 100 to the nearest whole minus a cent, and 100
// or more to the nearest multiple of 5 minus 1. Non-positive input passes
// through unchanged.
func PsychologicalPrice(price float64) float64 {
	switch {
	case price <= 0:
		return price
	case price < 10:
		return math.Floor(price) + 0.99
	case price < 100:
		return math.Round(price) - 0.01
	default:
		return math.Round(price/5)*5 - 1
	}
}

// RevenueImpact projects the percentage revenue change from moving
// currentPrice to newPrice, assuming conversions scale linearly with the
// price change times elasticity. Returns 0 for degenerate baselines.
func RevenueImpact(currentPrice, newPrice float64, currentConversions int64, elasticity float64) float64 {
	if currentPrice <= 0 || currentConversions <= 0 {
		return 0
	}

	priceChange := (newPrice - currentPrice) / currentPrice
	newConversions := float64(currentConversions) * (1 + priceChange*elasticity)

	currentRevenue := currentPrice * float64(currentConversions)
	newRevenue := newPrice * newConversions

	return (newRevenue - currentRevenue) / currentRevenue * 100
}
