package cmd

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"ebilling/internal/logger"
	"ebilling/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the billing web UI",
	Long: `Serve the bill form, the bill list and the invoice preview over HTTP. The
UI talks to the billing API configured by BACKEND_BASE_URL. One form is shared
by every browser, so run one server per counter.

Environment variables:
  PORT - Listen port (default: 8080)
  BACKEND_BASE_URL - Billing API base URL (default: http://localhost:5000)
  GIN_MODE - gin mode (default: release unless LOG_LEVEL=debug)`,
	Example: `  ebilling serve
  ebilling serve --port 3000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("port", "", "Listen port (default: PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	port, _ := cmd.Flags().GetString("port")

	a, err := newApp(log)
	if err != nil {
		return err
	}
	if port == "" {
		port = a.cfg.Port
	}
	if os.Getenv(gin.EnvGinMode) == "" && a.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := web.NewHandler(a.form(), a.list, a.exporter(), a.htmlRenderer(), a.cfg.PreviewConfig())
	srv := web.NewServer(":"+port, h)

	ctx, cancel := commandContext(0, log)
	defer cancel()

	log.Info().Str("port", port).Str("backend", a.cfg.BackendBaseURL).Msg("Starting billing UI")
	return srv.Start(ctx)
}
