package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"ebilling/internal/logger"
	"ebilling/internal/preview"
	"ebilling/pkg/models"
)

// BillGetter fetches one stored bill.
type BillGetter interface {
	GetBill(ctx context.Context, id string) (*models.Bill, error)
}

// Exporter turns stored bills into PDF files.
type Exporter struct {
	bills    BillGetter
	builder  *preview.Builder
	renderer preview.DocumentRenderer
	logger   zerolog.Logger
}

// NewExporter wires an exporter.
func NewExporter(bills BillGetter, builder *preview.Builder, renderer preview.DocumentRenderer) *Exporter {
	return &Exporter{
		bills:    bills,
		builder:  builder,
		renderer: renderer,
		logger:   logger.WithComponent("pdf"),
	}
}

// Render fetches bill id, recomputes it and returns the download name and PDF bytes.
func (e *Exporter) Render(ctx context.Context, id string) (string, []byte, error) {
	const op = "pdf.Render"

	bill, err := e.bills.GetBill(ctx, id)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	model := e.builder.FromBill(bill)
	data, err := e.renderer.ExportAsDocument(ctx, model)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	name := FileName(model.InvoiceNo, id)
	log := logger.WithBill("pdf", id)
	log.Debug().
		Str("file", name).
		Int("bytes", len(data)).
		Msg("Rendered bill PDF")

	return name, data, nil
}

// Export writes bill id as a PDF into dir and returns the file path. The
// document is written to a scratch file first; the scratch file is always
// removed unless it was renamed into place.
func (e *Exporter) Export(ctx context.Context, id, dir string) (path string, err error) {
	const op = "pdf.Export"

	if dir == "" {
		dir = "."
	}

	scratch, err := os.CreateTemp(dir, ".bill-*.pdf.part")
	if err != nil {
		return "", fmt.Errorf("%s: failed to create scratch file: %w", op, err)
	}
	scratchPath := scratch.Name()
	renamed := false
	defer func() {
		scratch.Close()
		if !renamed {
			if rmErr := os.Remove(scratchPath); rmErr != nil && !os.IsNotExist(rmErr) {
				e.logger.Warn().Err(rmErr).Str("file", scratchPath).Msg("Failed to remove scratch file")
			}
		}
	}()

	name, data, err := e.Render(ctx, id)
	if err != nil {
		return "", err
	}

	if _, err := scratch.Write(data); err != nil {
		return "", fmt.Errorf("%s: failed to write PDF: %w", op, err)
	}
	if err := scratch.Close(); err != nil {
		return "", fmt.Errorf("%s: failed to close PDF: %w", op, err)
	}

	path = filepath.Join(dir, name)
	if err := os.Rename(scratchPath, path); err != nil {
		return "", fmt.Errorf("%s: failed to move PDF into place: %w", op, err)
	}
	renamed = true

	log := logger.WithBill("pdf", id)
	log.Info().Str("file", path).Msg("Bill exported as PDF")
	return path, nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName is bill_<invoiceNo>.pdf with unsafe characters replaced. The
// fallback is used when the invoice number is blank.
func FileName(invoiceNo, fallback string) string {
	base := strings.TrimSpace(invoiceNo)
	if base == "" {
		base = strings.TrimSpace(fallback)
	}
	base = strings.Trim(unsafeFileChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "unnumbered"
	}
	return "bill_" + base + ".pdf"
}
