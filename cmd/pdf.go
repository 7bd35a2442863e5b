package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ebilling/internal/logger"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf <bill-id>...",
	Short: "Export stored bills as PDF files",
	Long: `Fetch each bill, recompute its totals and write it as an A4 PDF named
bill_<invoice number>.pdf. A failed export never leaves a partial file.`,
	Example: `  ebilling pdf 65a1f0c2e4b0a1b2c3d4e5f6

  # Several bills into a folder
  ebilling pdf 65a1f0c2e4b0a1b2c3d4e5f6 65a1f0c2e4b0a1b2c3d4e5f7 -d invoices/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPDF,
}

func init() {
	rootCmd.AddCommand(pdfCmd)

	pdfCmd.Flags().StringP("dir", "d", ".", "Output directory")
}

func runPDF(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("pdf")

	dir, _ := cmd.Flags().GetString("dir")

	a, err := newApp(log)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(0, log)
	defer cancel()

	exporter := a.exporter()
	var failed int
	for _, id := range args {
		path, err := exporter.Export(ctx, id, dir)
		if err != nil {
			failed++
			fmt.Printf("%s: %v\n", id, handleBillError(err, logger.WithBill("pdf", id)))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		fmt.Println(path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d bill(s) could not be exported", failed, len(args))
	}
	return nil
}
