package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	dbPath string
	tenant string
)

var rootCmd = &cobra.Command{
	Use:   "priceforge",
	Short: "Priceforge - pricing A/B experiments with elasticity-driven recommendations",
	Long: `Priceforge runs pricing A/B experiments: it assigns visitors to price
variants, tracks views, conversions and revenue, estimates price
elasticity of demand, and recommends a price with a confidence score.

Single Go binary, embedded SQLite.`,
}

func Execute() error {
	// Optional .env for local development; missing files are fine.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("PF_DB_PATH", "./priceforge.db"), "database path")
	rootCmd.PersistentFlags().StringVar(&tenant, "tenant", getEnvOrDefault("PF_TENANT", "default"), "tenant id operations are scoped to")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
