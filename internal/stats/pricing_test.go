package stats

import (
	"math"
	"testing"

	"github.com/priceforge/priceforge/internal/apperr"
)

func TestPsychologicalPrice(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{5.50, 5.99},
		{9.10, 9.99},
		{29.50, 29.99},
		{10.00, 9.99},
		{47.20, 46.99},
		{103.00, 104},
		{100.00, 99},
		{252.00, 249},
		{0, 0},
		{-3.50, -3.50},
	}

	for _, tc := range cases {
		if got := PsychologicalPrice(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("PsychologicalPrice(%.2f) = %.2f, want %.2f", tc.in, got, tc.want)
		}
	}
}

func TestOptimalPrice_ElasticityBands(t *testing.T) {
	// Expected values are the banded multiple of 100.00 after
	// psychological rounding: 115->114, 108->109, 100->99, 95->94, 90->89.
	cases := []struct {
		name       string
		elasticity float64
		want       float64
	}{
		{"very inelastic raises 15%", -0.3, 114},
		{"inelastic raises 8%", -0.8, 109},
		{"unit holds", -1.2, 99},
		{"elastic cuts 5%", -1.7, 94},
		{"very elastic cuts 10%", -2.5, 89},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := OptimalPrice(100.00, tc.elasticity, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("OptimalPrice(100, %f) = %f, want %f", tc.elasticity, got, tc.want)
			}
		})
	}
}

func TestOptimalPrice_TargetMarginFloor(t *testing.T) {
	// Very elastic would cut to 90, but a 5% target margin floors at 95.
	got, err := OptimalPrice(100.00, -2.5, 0.05)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 94 { // 95 -> psychological 94
		t.Errorf("expected the margin floor (95 -> 94), got %f", got)
	}
}

func TestOptimalPrice_RejectsNonPositivePrice(t *testing.T) {
	if _, err := OptimalPrice(0, -1.5, 0); !apperr.IsValidation(err) {
		t.Errorf("expected ValidationError for zero price, got %v", err)
	}
}

func TestRevenueImpact(t *testing.T) {
	// Price cut of 10% with E=-0.9 lifts conversions 9%: revenue dips.
	got := RevenueImpact(29.99, 26.991, 100, -0.9)

	want := (26.991*109 - 29.99*100) / (29.99 * 100) * 100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("RevenueImpact = %f, want %f", got, want)
	}
	if got >= 0 {
		t.Errorf("expected a revenue dip, got %+f%%", got)
	}
}

func TestRevenueImpact_DegenerateBaselines(t *testing.T) {
	if got := RevenueImpact(0, 10, 100, -1.5); got != 0 {
		t.Errorf("expected 0 for zero current price, got %f", got)
	}
	if got := RevenueImpact(10, 12, 0, -1.5); got != 0 {
		t.Errorf("expected 0 for zero conversions, got %f", got)
	}
}

func TestWilsonInterval_Bounds(t *testing.T) {
	lower, upper := WilsonInterval(10, 100, 0.95)

	if lower <= 0 || upper >= 1 {
		t.Errorf("interval [%f, %f] should be strictly inside (0,1) for 10/100", lower, upper)
	}
	rate := 0.10
	if lower >= rate || upper <= rate {
		t.Errorf("interval [%f, %f] should bracket the observed rate %f", lower, upper, rate)
	}

	if l, u := WilsonInterval(0, 0, 0.95); l != 0 || u != 0 {
		t.Errorf("expected [0,0] for no trials, got [%f, %f]", l, u)
	}
}
