package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/raporkit/rapor/internal/httpapi"
	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve grade summaries over an HTTP JSON API",
	Long: `Start an HTTP server exposing the same views as the CLI.

Routes:
  GET  /health
  GET  /api/scopes/{class}/{subject}/{term}/summary
  GET  /api/scopes/{class}/{subject}/{term}/objectives
  PUT  /api/scopes/{class}/{subject}/{term}/thresholds
  GET  /api/classes/{class}/terms/{term}/summary
  GET  /api/classes/{class}/terms/{term}/distribution
  PUT  /api/classes/{class}/terms/{term}/thresholds
  GET  /api/trend?student=|class=|cohort=&subject=
  POST /api/grades

The server stops gracefully on SIGINT or SIGTERM.

Examples:
  rapor serve --addr :8080
  rapor serve --allowed-origins http://localhost:5173`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return httpapi.ListenAndServe(ctx, cfg, storeManager)
	},
}

