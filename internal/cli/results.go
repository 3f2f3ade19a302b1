package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/priceforge/priceforge/internal/engine"
	"github.com/priceforge/priceforge/internal/stats"
	"github.com/priceforge/priceforge/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results <experiment-id>",
	Short: "Show detailed results for an experiment",
	Long:  `Show per-variant views, conversions, revenue, derived rates, and the significance of the current leader.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	return withEngine(func(eng *engine.Engine, _ store.Store) error {
		ctx := context.Background()

		exp, err := eng.Get(ctx, args[0], tenant)
		if err != nil {
			return err
		}
		results, err := eng.Results(ctx, exp.ID, tenant)
		if err != nil {
			return err
		}

		fmt.Printf("EXPERIMENT: %s\n", exp.Name)
		fmt.Printf("STATUS: %s\n", exp.Status)
		if exp.Description != "" {
			fmt.Printf("DESCRIPTION: %s\n", exp.Description)
		}
		if exp.StartDate != nil {
			fmt.Printf("STARTED: %s\n", exp.StartDate.Format("2006-01-02"))
		}
		fmt.Println()

		fmt.Println("VARIANT           PRICE    VIEWS    CONV   RATE     AOV      RPV      95% CI")
		fmt.Println(strings.Repeat("─", 80))

		for _, v := range exp.Variants {
			m := results.Variants[v.ID]

			indicator := ""
			if v.ID == results.Summary.WinningVariant {
				indicator = " ← LEADING"
			}

			ciStr := "N/A"
			if m.Views > 0 {
				lower, upper := stats.WilsonInterval(m.Conversions, m.Views, 0.95)
				ciStr = fmt.Sprintf("[%.1f%%, %.1f%%]", lower*100, upper*100)
			}

			name := v.Name
			if len(name) > 16 {
				name = name[:13] + "..."
			}

			fmt.Printf("%-16s  $%-6.2f  %-7d  %-5d  %-7s  $%-6.2f  $%-6.2f  %s%s\n",
				name, m.Price, m.Views, m.Conversions,
				formatPercent(m.ConversionRate), m.AverageOrderValue, m.RevenuePerView,
				ciStr, indicator,
			)
		}

		fmt.Println()
		fmt.Printf("TOTALS: %d views, %d conversions, $%.2f revenue\n",
			results.Summary.TotalViews, results.Summary.TotalConversions, results.Summary.TotalRevenue)

		if results.Summary.StatisticalSignificance != nil {
			sig := *results.Summary.StatisticalSignificance
			switch {
			case sig >= 0.95:
				fmt.Printf("Significance: %.1f%% confident the leader outperforms the runner-up\n", sig*100)
			case sig >= 0.90:
				fmt.Printf("Significance: %.1f%% (approaching significance, keep collecting data)\n", sig*100)
			default:
				fmt.Println("Significance: not enough data to call a winner")
			}
		}

		return nil
	})
}
