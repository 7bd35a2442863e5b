package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ebilling/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "ebilling",
	Short: "e-Billing - create, list and print bills",
	Long: `e-Billing is a thin client for the billing API. It creates bills with
computed totals and amounts in words, lists and previews stored bills, exports
them as PDF or Excel, imports scanned bills, and serves the same screens to a
browser.

Common environment variables:
  BACKEND_BASE_URL       - Billing API address (default: http://localhost:5000)
  REQUEST_TIMEOUT        - Per request timeout (default: 15s)
  ISSUER_NAME            - Shop name printed on every invoice
  ISSUER_ADDRESS         - Shop address lines separated by "|"
  ISSUER_TERMS           - Terms and conditions separated by "|"
  LOG_LEVEL, LOG_FORMAT  - Logging (info, console)`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("e-Billing CLI executed")

		fmt.Println("Welcome to e-Billing!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Debug().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}
