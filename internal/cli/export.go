package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/priceforge/priceforge/internal/engine"
	"github.com/priceforge/priceforge/internal/store"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <experiment-id>",
	Short: "Export per-variant metrics",
	Long: `Export an experiment's per-variant metrics in CSV or JSON format.

Examples:
  priceforge export a1b2c3d4 --format csv > results.csv
  priceforge export a1b2c3d4 --format json > results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withEngine(func(eng *engine.Engine, _ store.Store) error {
		results, err := eng.Results(context.Background(), args[0], tenant)
		if err != nil {
			return err
		}

		if exportFormat == "csv" {
			return exportCSV(results)
		}
		return exportJSON(results)
	})
}

func exportCSV(results *store.ExperimentResults) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"variant_id", "variant_name", "price", "views", "conversions", "revenue", "conversion_rate", "average_order_value", "revenue_per_view"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, m := range results.Variants {
		row := []string{
			m.VariantID,
			m.VariantName,
			strconv.FormatFloat(m.Price, 'f', 2, 64),
			strconv.FormatInt(m.Views, 10),
			strconv.FormatInt(m.Conversions, 10),
			strconv.FormatFloat(m.Revenue, 'f', 2, 64),
			strconv.FormatFloat(m.ConversionRate, 'f', 6, 64),
			strconv.FormatFloat(m.AverageOrderValue, 'f', 2, 64),
			strconv.FormatFloat(m.RevenuePerView, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return nil
}

func exportJSON(results *store.ExperimentResults) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}
