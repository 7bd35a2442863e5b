package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ebilling/internal/logger"
	"ebilling/internal/preview"
)

var showCmd = &cobra.Command{
	Use:   "show <bill-id>",
	Short: "Show one stored bill",
	Long: `Fetch one bill and print it as it appears on the invoice. The total and
the amount in words are recomputed from the bill's products; a stored total
that disagrees is logged as a warning.`,
	Example: `  ebilling show 65a1f0c2e4b0a1b2c3d4e5f6

  # Save the printable page
  ebilling show 65a1f0c2e4b0a1b2c3d4e5f6 --html bill.html`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().String("html", "", "Write the printable invoice preview to this file")
}

func runShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("show")

	htmlPath, _ := cmd.Flags().GetString("html")

	a, err := newApp(log)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(0, log)
	defer cancel()

	sel, err := a.list().Select(ctx, args[0])
	if err != nil {
		return handleBillError(err, log)
	}

	printModel(sel.Model, a.cfg.PDFCurrencyLabel)

	if htmlPath != "" {
		if err := writeHTML(htmlPath, a.htmlRenderer(), sel.Model); err != nil {
			return err
		}
		log.Info().Str("file", htmlPath).Msg("Invoice preview written")
	}
	return nil
}

func printModel(m preview.Model, currency string) {
	fmt.Printf("Invoice No.: %s\n", m.InvoiceNo)
	fmt.Printf("Date:        %s\n", m.Date)
	fmt.Printf("Billed to:   %s\n", m.BillTo)
	if m.ContactNo != "" {
		fmt.Printf("Contact No.: %s\n", m.ContactNo)
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SL.\tDESCRIPTION\tQTY\tPRICE\tAMOUNT\t")
	for _, row := range m.Items() {
		fmt.Fprintf(tw, "%d\t%s\t%s %s\t%s\t%s\t\n",
			row.SlNo, row.Name, row.Quantity.String(), row.Unit, preview.Money(row.Price), preview.Money(row.Amount))
	}
	tw.Flush()

	if m.HiddenItems > 0 {
		fmt.Printf("(%d more item(s) not shown on the invoice)\n", m.HiddenItems)
	}
	fmt.Println()
	fmt.Printf("Grand Total: %s %s\n", currency, preview.Money(m.TotalAmount))
	fmt.Printf("In words:    %s\n", preview.Capitalize(m.AmountInWords))
}
