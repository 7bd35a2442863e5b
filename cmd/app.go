package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ebilling/internal/backend"
	"ebilling/internal/billing"
	"ebilling/internal/config"
	"ebilling/internal/controller"
	"ebilling/internal/pdf"
	"ebilling/internal/preview"
)

// app holds the pieces every bill command needs.
type app struct {
	cfg     *config.Config
	client  *backend.Client
	builder *preview.Builder
	calc    *billing.Calculator
}

func newApp(log zerolog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return nil, fmt.Errorf("invalid configuration. Please check your .env file: %w", err)
	}

	client, err := backend.NewClient(cfg.BackendConfig())
	if err != nil {
		log.Error().Err(err).Str("base_url", cfg.BackendBaseURL).Msg("Failed to create backend client")
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	calc := cfg.Calculator()
	builder, err := preview.NewBuilder(cfg.PreviewConfig(), calc)
	if err != nil {
		return nil, fmt.Errorf("invalid preview layout: %w", err)
	}

	return &app{cfg: cfg, client: client, builder: builder, calc: calc}, nil
}

func (a *app) form() *controller.FormController {
	return controller.NewFormController(a.client, a.builder, a.calc, a.cfg.Rules())
}

func (a *app) list() *controller.ListController {
	return controller.NewListController(a.client, a.builder)
}

func (a *app) exporter() *pdf.Exporter {
	return pdf.NewExporter(a.client, a.builder, pdf.NewRenderer(a.cfg.PDFCurrencyLabel))
}

func (a *app) htmlRenderer() *preview.Renderer {
	return preview.NewRenderer(a.cfg.CurrencySymbol)
}

// commandContext is cancelled on SIGINT/SIGTERM and, when timeout is
// positive, after timeout.
func commandContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleBillError turns backend and validation failures into messages for
// the terminal.
func handleBillError(err error, log zerolog.Logger) error {
	if verr, ok := billing.IsValidationError(err); ok {
		log.Debug().Str("field", verr.Field).Msg("Bill rejected by validation")
		return errors.New(verr.Message)
	}

	log.Error().Err(err).Msg("Billing request failed")

	switch {
	case errors.Is(err, backend.ErrInvalidConfiguration):
		return fmt.Errorf("invalid backend configuration. Please check BACKEND_BASE_URL: %w", err)
	case errors.Is(err, backend.ErrNetwork):
		return fmt.Errorf("%s (is BACKEND_BASE_URL correct?)", backend.UserMessage(err))
	case errors.Is(err, controller.ErrStale):
		return fmt.Errorf("request was replaced by a newer one")
	default:
		return errors.New(backend.UserMessage(err))
	}
}
