package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/priceforge/priceforge/internal/recommend"
)

func init() {
	rootCmd.AddCommand(newQuickCmd())
}

func newQuickCmd() *cobra.Command {
	var (
		current    float64
		proposed   float64
		elasticity float64
	)

	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Quick what-if analysis of a price change, no experiment needed",
		Long: `Project the revenue impact of a price change using an assumed
elasticity (default -1.5) and classify it as proceed, caution, or
reconsider.

Example:
  priceforge quick --current 29.99 --proposed 34.99`,
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := recommend.Quick(current, proposed, elasticity)
			if err != nil {
				return err
			}

			fmt.Printf("$%.2f → $%.2f (assumed E=%.2f)\n",
				analysis.CurrentPrice, analysis.ProposedPrice, analysis.Elasticity)
			fmt.Printf("Projected revenue change: %+.1f%%\n", analysis.RevenueChange)
			fmt.Printf("Verdict: %s\n", analysis.Verdict)
			return nil
		},
	}

	cmd.Flags().Float64Var(&current, "current", 0, "current price (required)")
	cmd.Flags().Float64Var(&proposed, "proposed", 0, "proposed price (required)")
	cmd.Flags().Float64Var(&elasticity, "elasticity", 0, "assumed elasticity (default -1.5)")
	cmd.MarkFlagRequired("current")
	cmd.MarkFlagRequired("proposed")

	return cmd
}
