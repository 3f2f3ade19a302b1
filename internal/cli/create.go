package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/priceforge/priceforge/internal/engine"
	"github.com/priceforge/priceforge/internal/store"
)

func init() {
	rootCmd.AddCommand(newCreateCmd())
}

func newCreateCmd() *cobra.Command {
	var (
		variants    string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new pricing experiment",
		Long: `Create a pricing experiment with the given variants.

Variants are "name:price" pairs, optionally with a weight percentage as a
third field. Omitted weights default to an equal split.

Examples:
  priceforge create checkout --variants "Standard:29.99,Premium:39.99"
  priceforge create checkout --variants "Low:19.99:60,High:24.99:40"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseVariants(variants)
			if err != nil {
				return err
			}

			return withEngine(func(eng *engine.Engine, _ store.Store) error {
				exp, err := eng.Create(context.Background(), tenant, engine.CreateParams{
					Name:        args[0],
					Description: description,
					Variants:    params,
				})
				if err != nil {
					return fmt.Errorf("failed to create experiment: %w", err)
				}

				fmt.Printf("Created experiment '%s' (%s) with %d variants:\n", exp.Name, shortID(exp.ID), len(exp.Variants))
				for _, v := range exp.Variants {
					fmt.Printf("  %-16s $%.2f  %5.1f%%\n", v.Name, v.Price, v.Weight)
				}
				fmt.Println("\nThe experiment is in draft. Run 'priceforge activate' to start it.")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&variants, "variants", "v", "", `comma-separated "name:price[:weight]" variants (required)`)
	cmd.Flags().StringVarP(&description, "description", "d", "", "experiment description")
	cmd.MarkFlagRequired("variants")

	return cmd
}

func parseVariants(raw string) ([]engine.VariantParams, error) {
	parts := strings.Split(raw, ",")
	params := make([]engine.VariantParams, 0, len(parts))

	for _, part := range parts {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("invalid variant %q: expected \"name:price\" or \"name:price:weight\"", part)
		}

		price, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price in variant %q: %w", part, err)
		}

		p := engine.VariantParams{Name: fields[0], Price: price}
		if len(fields) == 3 {
			weight, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid weight in variant %q: %w", part, err)
			}
			p.Weight = weight
		}
		params = append(params, p)
	}

	if len(params) < 2 {
		return nil, fmt.Errorf("need at least 2 variants. Example: --variants \"A:29.99,B:39.99\"")
	}
	return params, nil
}
