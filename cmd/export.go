package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ebilling/internal/export"
	"ebilling/internal/logger"
	"ebilling/internal/sheets"
	"ebilling/pkg/models"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download every bill as an Excel workbook",
	Long: `Download the spreadsheet of all bills from the billing API and check that
it opens as a workbook before saving it.

With --url only the download link is printed. With --local the workbook is
built here from each bill's products, so totals are recomputed rather than
taken from the server.`,
	Example: `  ebilling export -o bills.xlsx

  # Just the link
  ebilling export --url

  # Recomputed workbook for January
  ebilling export --local --from 2024-01-01 --to 2024-01-31 -o january.xlsx`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "bills.xlsx", "Output file path")
	exportCmd.Flags().Bool("url", false, "Print the download link and exit")
	exportCmd.Flags().Bool("local", false, "Build the workbook locally from recomputed bills")
	exportCmd.Flags().String("from", "", "First bill date for --local (YYYY-MM-DD)")
	exportCmd.Flags().String("to", "", "Last bill date for --local (YYYY-MM-DD)")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	output, _ := cmd.Flags().GetString("output")
	urlOnly, _ := cmd.Flags().GetBool("url")
	local, _ := cmd.Flags().GetBool("local")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	a, err := newApp(log)
	if err != nil {
		return err
	}
	list := a.list()

	if urlOnly {
		fmt.Println(list.ExportURL())
		return nil
	}

	ctx, cancel := commandContext(0, log)
	defer cancel()

	var buf bytes.Buffer
	if local {
		filter, err := models.ParseFilter(from, to)
		if err != nil {
			return fmt.Errorf("dates must look like 2024-01-31: %w", err)
		}
		rows, err := collectBillRows(ctx, a, filter, log)
		if err != nil {
			return err
		}
		if err := export.Build(&buf, rows); err != nil {
			return err
		}
	} else {
		n, err := list.ExportAll(ctx, &buf)
		if err != nil {
			return handleBillError(err, log)
		}
		log.Debug().Int64("bytes", n).Msg("Workbook downloaded")
	}

	summary, err := export.Inspect(bytes.NewReader(buf.Bytes()))
	if err != nil {
		log.Error().Err(err).Msg("Downloaded file is not a workbook")
		return fmt.Errorf("the billing server did not send a valid Excel file: %w", err)
	}

	if err := writeFileAtomic(output, buf.Bytes()); err != nil {
		return err
	}

	log.Info().
		Str("file", output).
		Strs("sheets", summary.Sheets).
		Int("rows", summary.DataRows()).
		Msg("Workbook saved")
	fmt.Printf("%s: %d bill row(s) in %d sheet(s)\n", output, summary.DataRows(), len(summary.Sheets))
	return nil
}

// writeFileAtomic writes data to a scratch file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	scratch, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.part")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer os.Remove(scratch.Name())

	if _, err := scratch.Write(data); err != nil {
		scratch.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := scratch.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(scratch.Name(), path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// collectBillRows fetches every bill inside filter and flattens its
// recomputed preview into a row.
func collectBillRows(ctx context.Context, a *app, filter models.BillFilter, log zerolog.Logger) ([]sheets.BillRow, error) {
	summaries, err := a.client.ListBills(ctx, filter)
	if err != nil {
		return nil, handleBillError(err, log)
	}

	now := time.Now()
	rows := make([]sheets.BillRow, 0, len(summaries))
	for _, s := range summaries {
		bill, err := a.client.GetBill(ctx, s.ID)
		if err != nil {
			return nil, handleBillError(err, logger.WithBill("export", s.ID))
		}
		rows = append(rows, sheets.NewBillRow(bill, a.builder.FromBill(bill), now))
	}

	log.Info().Int("bills", len(rows)).Msg("Collected bills")
	return rows, nil
}
