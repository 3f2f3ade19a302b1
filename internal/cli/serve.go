package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/priceforge/priceforge/internal/engine"
	"github.com/priceforge/priceforge/internal/server"
	"github.com/priceforge/priceforge/internal/signal"
	"github.com/priceforge/priceforge/internal/store"
)

var (
	port      int
	apiToken  string
	signalURL string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the priceforge HTTP server.

The server provides:
  - Pricing endpoint that assigns visitors to variants and records views
  - Conversion intake endpoint
  - Results, recommendation, and analytics endpoints (token protected)
  - Health check endpoint

Example:
  priceforge serve --port 8080`,
	RunE: runServe,
}

func init() {
	defaultPort := 8080
	if p := os.Getenv("PF_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			defaultPort = parsed
		}
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", defaultPort, "port to listen on")
	serveCmd.Flags().StringVar(&apiToken, "token", os.Getenv("PF_API_TOKEN"), "API token (random if unset)")
	serveCmd.Flags().StringVar(&signalURL, "signal-url", os.Getenv("PF_SIGNAL_URL"), "webhook URL notified on views/conversions (optional)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	opts := []engine.Option{}
	if signalURL != "" {
		webhook := signal.NewWebhook(signalURL, logger)
		defer webhook.Close()
		opts = append(opts, engine.WithNotifier(webhook))
	}

	eng := engine.New(s, opts...)
	srv := server.New(eng, s, port, apiToken, logger)
	return srv.Start()
}
