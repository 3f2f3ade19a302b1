package stats

import (
	"math"
	"testing"

	"github.com/priceforge/priceforge/internal/apperr"
)

func TestElasticity_PriceUpDemandDown(t *testing.T) {
	control := VariantSample{Price: 29.99, Conversions: 100, Views: 1000}
	experiment := VariantSample{Price: 39.99, Conversions: 70, Views: 1000}

	e, err := Elasticity(control, experiment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e >= 0 {
		t.Errorf("expected negative elasticity when a price increase lowers conversion, got %f", e)
	}

	// dr/r = -0.3, dp/p = 10/29.99
	want := -0.3 / (10.0 / 29.99)
	if math.Abs(e-want) > 1e-9 {
		t.Errorf("elasticity = %f, want %f", e, want)
	}
}

func TestElasticity_InvalidInputs(t *testing.T) {
	ok := VariantSample{Price: 10, Conversions: 5, Views: 100}

	cases := []struct {
		name                string
		control, experiment VariantSample
	}{
		{"zero control price", VariantSample{Price: 0, Views: 100}, ok},
		{"negative experiment price", ok, VariantSample{Price: -1, Views: 100}},
		{"zero control views", VariantSample{Price: 10, Views: 0}, ok},
		{"zero experiment views", ok, VariantSample{Price: 10, Views: 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Elasticity(tc.control, tc.experiment); !apperr.IsValidation(err) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestElasticity_NegligiblePriceChange(t *testing.T) {
	control := VariantSample{Price: 100.00, Conversions: 50, Views: 1000}
	experiment := VariantSample{Price: 100.001, Conversions: 80, Views: 1000}

	e, err := Elasticity(control, experiment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e != 0 {
		t.Errorf("expected 0 for a negligible price move, got %f", e)
	}
}

func TestElasticity_ZeroBaselineRate(t *testing.T) {
	control := VariantSample{Price: 10, Conversions: 0, Views: 1000}
	experiment := VariantSample{Price: 20, Conversions: 50, Views: 1000}

	e, err := Elasticity(control, experiment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e != 0 {
		t.Errorf("expected 0 when the control never converts, got %f", e)
	}
}

func TestInterpret_DeadZone(t *testing.T) {
	cases := []struct {
		elasticity float64
		want       Interpretation
	}{
		{-2.0, Elastic},
		{-1.06, Elastic},
		{-1.05, UnitElastic},
		{-1.0, UnitElastic},
		{-0.95, UnitElastic},
		{-0.94, Inelastic},
		{-0.3, Inelastic},
		{0.0, Inelastic},
		{1.2, Elastic},
	}

	for _, tc := range cases {
		if got := Interpret(tc.elasticity); got != tc.want {
			t.Errorf("Interpret(%f) = %s, want %s", tc.elasticity, got, tc.want)
		}
	}
}

func TestAnalyze_ConfidenceInterval(t *testing.T) {
	control := VariantSample{Price: 29.99, Conversions: 100, Views: 1000}
	experiment := VariantSample{Price: 39.99, Conversions: 70, Views: 1000}

	analysis, err := Analyze(control, experiment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if analysis.SampleSize != 2000 {
		t.Errorf("sample size = %d, want 2000", analysis.SampleSize)
	}
	if analysis.Interpretation != Inelastic {
		t.Errorf("interpretation = %s, want inelastic", analysis.Interpretation)
	}

	se := 1 / math.Sqrt(2000)
	wantWidth := 2 * 1.96 * se
	if math.Abs(analysis.ConfidenceInterval.Width()-wantWidth) > 1e-9 {
		t.Errorf("CI width = %f, want %f", analysis.ConfidenceInterval.Width(), wantWidth)
	}
	if analysis.ConfidenceInterval.Lower >= analysis.Elasticity ||
		analysis.ConfidenceInterval.Upper <= analysis.Elasticity {
		t.Errorf("interval [%f, %f] does not bracket the estimate %f",
			analysis.ConfidenceInterval.Lower, analysis.ConfidenceInterval.Upper, analysis.Elasticity)
	}
}
