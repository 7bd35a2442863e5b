package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ebilling/internal/billing"
	"ebilling/internal/logger"
	"ebilling/internal/pdf"
	"ebilling/internal/preview"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a bill and print its invoice number",
	Long: `Create a bill on the billing API. The total is computed locally from the
line items and sent with the bill; the API assigns the invoice number.

Line items are given as "Name,quantity,price" or "Name,quantity,price,unit".
Names containing commas can be quoted CSV style. A draft saved by
'ebilling import' can be submitted with --draft instead.`,
	Example: `  # Two items
  ebilling create --biller "Ravi Kumar" --contact 9876543210 \
    --item "Pen,2,10" --item "Book,1,150"

  # Save the printable preview and a PDF copy
  ebilling create --biller Ravi --contact 9876543210 --item "Cable,3,99" \
    --html bill.html --pdf bill.pdf

  # Submit a scanned draft
  ebilling create --draft draft.json`,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().String("biller", "", "Biller name")
	createCmd.Flags().String("contact", "", "Biller contact number")
	createCmd.Flags().String("address", "", "Bill-to address")
	createCmd.Flags().String("city", "", "Bill-to city")
	createCmd.Flags().StringArray("item", nil, `Line item "Name,quantity,price[,unit]" (repeatable)`)
	createCmd.Flags().String("draft", "", "JSON draft file (as written by 'ebilling import')")
	createCmd.Flags().String("html", "", "Write the printable invoice preview to this file")
	createCmd.Flags().String("pdf", "", "Write the invoice as PDF to this file")
}

func runCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("create")

	draftPath, _ := cmd.Flags().GetString("draft")
	htmlPath, _ := cmd.Flags().GetString("html")
	pdfPath, _ := cmd.Flags().GetString("pdf")

	var in billing.DraftInput
	if draftPath != "" {
		loaded, err := readDraft(draftPath)
		if err != nil {
			return err
		}
		in = loaded
	}

	if err := applyDraftFlags(cmd, &in); err != nil {
		return err
	}

	a, err := newApp(log)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(0, log)
	defer cancel()

	form := a.form()
	if err := form.Load(in); err != nil {
		return err
	}

	model, err := form.Submit(ctx)
	if err != nil {
		return handleBillError(err, log)
	}

	fmt.Printf("Invoice No.: %s\n", model.InvoiceNo)
	fmt.Printf("Date:        %s\n", model.Date)
	fmt.Printf("Total:       %s %s\n", a.cfg.PDFCurrencyLabel, preview.Money(model.TotalAmount))
	fmt.Printf("In words:    %s\n", preview.Capitalize(model.AmountInWords))

	if htmlPath != "" {
		if err := writeHTML(htmlPath, a.htmlRenderer(), model); err != nil {
			return err
		}
		log.Info().Str("file", htmlPath).Msg("Invoice preview written")
	}
	if pdfPath != "" {
		if err := writePDF(ctx, pdfPath, pdf.NewRenderer(a.cfg.PDFCurrencyLabel), model, log); err != nil {
			return err
		}
	}

	return nil
}

// applyDraftFlags overlays the biller and item flags on in. Items given on
// the command line replace those of a loaded draft.
func applyDraftFlags(cmd *cobra.Command, in *billing.DraftInput) error {
	for flag, dst := range map[string]*string{
		"biller":  &in.BillerName,
		"contact": &in.BillerContact,
		"address": &in.BillerAddress,
		"city":    &in.BillerCity,
	} {
		if cmd.Flags().Changed(flag) {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}

	rawItems, _ := cmd.Flags().GetStringArray("item")
	if len(rawItems) == 0 {
		return nil
	}
	in.Items = in.Items[:0]
	for _, raw := range rawItems {
		item, err := parseItemFlag(raw)
		if err != nil {
			return err
		}
		in.Items = append(in.Items, item)
	}
	return nil
}

// parseItemFlag reads "Name,quantity,price[,unit]". The values are checked
// later by the form, the same way typed values are.
func parseItemFlag(raw string) (billing.ItemInput, error) {
	fields, err := splitCSV(raw)
	if err != nil || len(fields) < 3 || len(fields) > 4 {
		return billing.ItemInput{}, fmt.Errorf("invalid --item %q: expected \"Name,quantity,price[,unit]\"", raw)
	}
	item := billing.ItemInput{
		Name:     strings.TrimSpace(fields[0]),
		Quantity: strings.TrimSpace(fields[1]),
		Price:    strings.TrimSpace(fields[2]),
	}
	if len(fields) == 4 {
		item.Unit = strings.TrimSpace(fields[3])
	}
	return item, nil
}

func splitCSV(s string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(s))
	r.TrimLeadingSpace = true
	return r.Read()
}

func readDraft(path string) (billing.DraftInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return billing.DraftInput{}, fmt.Errorf("failed to read draft: %w", err)
	}
	var in billing.DraftInput
	if err := json.Unmarshal(data, &in); err != nil {
		return billing.DraftInput{}, fmt.Errorf("draft %s is not valid JSON: %w", path, err)
	}
	return in, nil
}

func writeHTML(path string, r *preview.Renderer, m preview.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := r.Render(f, m, preview.Options{Media: preview.MediaPrint}); err != nil {
		f.Close()
		return fmt.Errorf("failed to render preview: %w", err)
	}
	return f.Close()
}

func writePDF(ctx context.Context, path string, r preview.DocumentRenderer, m preview.Model, log zerolog.Logger) error {
	data, err := r.ExportAsDocument(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Info().Str("file", path).Int("bytes", len(data)).Msg("Invoice PDF written")
	return nil
}
