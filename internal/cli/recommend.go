package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/priceforge/priceforge/internal/engine"
	"github.com/priceforge/priceforge/internal/recommend"
	"github.com/priceforge/priceforge/internal/store"
)

func init() {
	rootCmd.AddCommand(newRecommendCmd())
}

func newRecommendCmd() *cobra.Command {
	var (
		objective    string
		minPrice     float64
		maxPrice     float64
		targetMargin float64
	)

	cmd := &cobra.Command{
		Use:   "recommend <experiment-id>",
		Short: "Generate a pricing recommendation from experiment results",
		Long: `Generate a pricing recommendation for a completed or running experiment.

The objective selects the winning variant: revenue (default), conversion,
profit, or market_share.

Example:
  priceforge recommend a1b2c3d4 --objective revenue --max-price 49.99`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := recommend.ParseObjective(objective)
			if err != nil {
				return err
			}

			return withEngine(func(eng *engine.Engine, _ store.Store) error {
				results, err := eng.Results(context.Background(), args[0], tenant)
				if err != nil {
					return err
				}

				rec, err := recommend.Generate(results, recommend.Goals{
					Objective:    obj,
					MinPrice:     minPrice,
					MaxPrice:     maxPrice,
					TargetMargin: targetMargin,
				})
				if err != nil {
					return err
				}

				printRecommendation(rec)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&objective, "objective", "o", "revenue", "business objective (revenue, conversion, profit, market_share)")
	cmd.Flags().Float64Var(&minPrice, "min-price", 0, "price floor constraint")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "price ceiling constraint")
	cmd.Flags().Float64Var(&targetMargin, "target-margin", 0, "target margin in (0,1); floors the price at current*(1-margin)")

	return cmd
}

func printRecommendation(rec *recommend.Recommendation) {
	fmt.Printf("CURRENT PRICE:     $%.2f\n", rec.CurrentPrice)
	fmt.Printf("RECOMMENDED PRICE: $%.2f\n", rec.RecommendedPrice)
	fmt.Printf("CONFIDENCE:        %.0f/100\n", rec.Confidence)
	fmt.Println()

	fmt.Printf("EXPECTED IMPACT: %+.1f%% revenue, %+.1f%% conversions (E=%.2f)\n",
		rec.ExpectedImpact.RevenueChange,
		rec.ExpectedImpact.ConversionChange,
		rec.ExpectedImpact.Elasticity)
	fmt.Println()

	fmt.Println("REASONING:")
	for _, r := range rec.Reasoning {
		fmt.Printf("  • %s\n", r)
	}
	fmt.Println()

	fmt.Println("NEXT STEPS:")
	for i, s := range rec.NextSteps {
		fmt.Printf("  %d. %s\n", i+1, s)
	}
}
