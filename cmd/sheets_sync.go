package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ebilling/internal/logger"
	"ebilling/internal/sheets"
	"ebilling/pkg/models"
)

var sheetsSyncCmd = &cobra.Command{
	Use:   "sheets-sync",
	Short: "Append stored bills to a Google Sheet",
	Long: `Fetch the bills inside a date range, recompute their totals and append one
row per bill to a worksheet. The worksheet is created with a header row when it
does not exist yet. Bills already present in the worksheet are skipped unless
--all is given. Bills whose stored total disagrees with the recomputed one
are flagged in the "Total Mismatch" column.

Required environment variables:
  GOOGLE_SHEET_URL - URL of the target spreadsheet
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string

Optional environment variables:
  GOOGLE_SHEET_WORKSHEET - Worksheet name (default: Bills)`,
	Example: `  # January 2024
  ebilling sheets-sync --from 2024-01-01 --to 2024-01-31

  # Into another worksheet
  ebilling sheets-sync --from 2024-02-01 --worksheet February`,
	RunE: runSheetsSync,
}

func init() {
	rootCmd.AddCommand(sheetsSyncCmd)

	sheetsSyncCmd.Flags().String("from", "", "First bill date (YYYY-MM-DD)")
	sheetsSyncCmd.Flags().String("to", "", "Last bill date (YYYY-MM-DD)")
	sheetsSyncCmd.Flags().String("worksheet", "", "Worksheet name (default: GOOGLE_SHEET_WORKSHEET)")
	sheetsSyncCmd.Flags().Bool("all", false, "Append bills even when they are already in the worksheet")
}

func runSheetsSync(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("sheets-sync")

	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	worksheet, _ := cmd.Flags().GetString("worksheet")
	all, _ := cmd.Flags().GetBool("all")

	filter, err := models.ParseFilter(from, to)
	if err != nil {
		return fmt.Errorf("dates must look like 2024-01-31: %w", err)
	}

	a, err := newApp(log)
	if err != nil {
		return err
	}
	if a.cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL is not set")
	}
	if worksheet == "" {
		worksheet = a.cfg.GoogleSheetWorksheet
	}

	ctx, cancel := commandContext(0, log)
	defer cancel()

	svc, err := sheets.NewSheetsService(ctx, a.cfg.GoogleSheetURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to Google Sheets")
		return fmt.Errorf("failed to connect to Google Sheets: %w", err)
	}

	rows, err := collectBillRows(ctx, a, filter, log)
	if err != nil {
		return err
	}
	if !all {
		synced, err := svc.SyncedIDs(ctx, worksheet)
		if err != nil {
			return fmt.Errorf("failed to read worksheet %q: %w", worksheet, err)
		}
		rows = unsyncedRows(rows, synced)
	}
	if len(rows) == 0 {
		fmt.Println("No bills to sync")
		return nil
	}

	if err := svc.WriteBills(ctx, rows, worksheet); err != nil {
		log.Error().Err(err).Str("worksheet", worksheet).Msg("Failed to write bills")
		return fmt.Errorf("failed to write bills to Google Sheets: %w", err)
	}

	var mismatched int
	for _, r := range rows {
		if r.StoredDiff {
			mismatched++
		}
	}
	fmt.Printf("Appended %d bill(s) to %q", len(rows), worksheet)
	if mismatched > 0 {
		fmt.Printf(" (%d with a stored total that disagrees)", mismatched)
	}
	fmt.Println()
	return nil
}

func unsyncedRows(rows []sheets.BillRow, synced map[string]bool) []sheets.BillRow {
	out := rows[:0:0]
	for _, r := range rows {
		if !synced[r.ID] {
			out = append(out, r)
		}
	}
	return out
}
