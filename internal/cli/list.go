package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/priceforge/priceforge/internal/engine"
	"github.com/priceforge/priceforge/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tenant's experiments",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withEngine(func(eng *engine.Engine, _ store.Store) error {
		ctx := context.Background()

		experiments, err := eng.List(ctx, tenant, store.ListFilter{})
		if err != nil {
			return fmt.Errorf("failed to list experiments: %w", err)
		}

		if len(experiments) == 0 {
			fmt.Println("No experiments yet.")
			fmt.Println()
			fmt.Println("Create one with:")
			fmt.Println("  priceforge create checkout --variants \"Standard:29.99,Premium:39.99\"")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTATUS\tVARIANTS\tVIEWS\tCONVERSIONS\tREVENUE\tCREATED")

		for _, exp := range experiments {
			results, err := eng.Results(ctx, exp.ID, tenant)
			if err != nil {
				return fmt.Errorf("failed to get results for %s: %w", exp.Name, err)
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t$%.2f\t%s\n",
				shortID(exp.ID),
				exp.Name,
				strings.ToUpper(string(exp.Status)),
				len(exp.Variants),
				results.Summary.TotalViews,
				results.Summary.TotalConversions,
				results.Summary.TotalRevenue,
				exp.CreatedAt.Format("2006-01-02"),
			)
		}

		w.Flush()
		return nil
	})
}
