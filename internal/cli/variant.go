package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/priceforge/priceforge/internal/engine"
	"github.com/priceforge/priceforge/internal/store"
)

func init() {
	variantCmd := &cobra.Command{
		Use:   "variant",
		Short: "Manage experiment variants",
	}
	variantCmd.AddCommand(newVariantAddCmd())
	rootCmd.AddCommand(variantCmd)
}

func newVariantAddCmd() *cobra.Command {
	var (
		name   string
		price  float64
		weight float64
	)

	cmd := &cobra.Command{
		Use:   "add <experiment-id>",
		Short: "Add a variant to a draft experiment",
		Long: `Add a variant to a draft experiment.

Adding a variant rebalances weights: unless the resulting weights already
sum to 100, every variant is reset to an equal split. The command prints
the rebalanced weights so the effect is visible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(eng *engine.Engine, _ store.Store) error {
				exp, err := eng.AddVariant(context.Background(), args[0], tenant, engine.VariantParams{
					Name:   name,
					Price:  price,
					Weight: weight,
				})
				if err != nil {
					return fmt.Errorf("failed to add variant: %w", err)
				}

				fmt.Printf("Added variant '%s' to '%s'. Weights after rebalance:\n", name, exp.Name)
				for _, v := range exp.Variants {
					fmt.Printf("  %-16s $%.2f  %5.1f%%\n", v.Name, v.Price, v.Weight)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "variant name (required)")
	cmd.Flags().Float64VarP(&price, "price", "p", 0, "variant price (required)")
	cmd.Flags().Float64VarP(&weight, "weight", "w", 0, "variant weight percentage (optional)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("price")

	return cmd
}
