// Package pdf renders invoice previews as A4 PDF documents with maroto and
// exports stored bills to disk.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"ebilling/internal/preview"
)

// DefaultCurrencyLabel is printed before amounts. The built-in PDF fonts
// have no rupee glyph.
const DefaultCurrencyLabel = "Rs."

// Renderer implements preview.DocumentRenderer.
type Renderer struct {
	currency string
}

// NewRenderer returns a renderer printing amounts after currencyLabel.
func NewRenderer(currencyLabel string) *Renderer {
	if strings.TrimSpace(currencyLabel) == "" {
		currencyLabel = DefaultCurrencyLabel
	}
	return &Renderer{currency: currencyLabel}
}

var _ preview.DocumentRenderer = (*Renderer)(nil)

// ExportAsDocument lays out m on A4 pages and returns the PDF bytes.
func (r *Renderer) ExportAsDocument(ctx context.Context, m preview.Model) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithRightMargin(10).
		WithTopMargin(15).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	doc := maroto.New(cfg)

	// Issuer
	doc.AddRow(8, text.NewCol(12, "INVOICE", props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Center}))
	if m.Issuer.Name != "" {
		doc.AddRow(7, text.NewCol(12, strings.ToUpper(m.Issuer.Name), props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Center}))
	}
	for _, line := range m.Issuer.AddressLines {
		doc.AddRow(5, text.NewCol(12, line, props.Text{Size: 9, Align: align.Center}))
	}

	// Meta
	doc.AddRow(14,
		col.New(6).Add(
			text.New("Invoice No.:", props.Text{Size: 9, Style: fontstyle.Bold, Top: 3}),
			text.New(m.InvoiceNo, props.Text{Size: 9, Top: 8}),
		),
		col.New(6).Add(
			text.New("Date:", props.Text{Size: 9, Style: fontstyle.Bold, Top: 3}),
			text.New(m.Date, props.Text{Size: 9, Top: 8}),
		),
	)

	// Parties
	doc.AddRow(26,
		col.New(6).Add(partyBlock("Billed to", m, true)...),
		col.New(6).Add(partyBlock("Shipped to", m, false)...),
	)

	// Items
	bold := props.Text{Size: 9, Style: fontstyle.Bold, Top: 2}
	doc.AddRow(8,
		text.NewCol(1, "Sl. No.", bold),
		text.NewCol(5, "Description of Goods", bold),
		text.NewCol(2, "Qty.", bold),
		text.NewCol(2, "Price", withRight(bold)),
		text.NewCol(2, "Amount ("+r.currency+")", withRight(bold)),
	)

	cell := props.Text{Size: 9, Top: 2}
	for _, row := range m.Rows {
		if row.Blank {
			doc.AddRow(8, col.New(12))
			continue
		}
		doc.AddRow(8,
			text.NewCol(1, fmt.Sprintf("%d", row.SlNo), cell),
			text.NewCol(5, row.Name, cell),
			text.NewCol(2, row.Quantity.String()+" "+row.Unit, cell),
			text.NewCol(2, preview.Money(row.Price), withRight(cell)),
			text.NewCol(2, preview.Money(row.Amount), withRight(cell)),
		)
	}

	// Totals
	doc.AddRow(10,
		col.New(6),
		text.NewCol(3, "Grand Total :", props.Text{Size: 10, Style: fontstyle.Bold, Top: 3, Align: align.Right}),
		text.NewCol(3, r.currency+" "+preview.Money(m.TotalAmount), props.Text{Size: 10, Style: fontstyle.Bold, Top: 3, Align: align.Right}),
	)
	if m.ShowBalances {
		for _, line := range []struct {
			label string
			value string
		}{
			{"Sub Total :", preview.Money(m.SubTotal)},
			{"Received :", preview.Money(m.Received)},
			{"Balance :", preview.Money(m.Balance)},
			{"Current Balance :", preview.Money(m.CurrentBalance)},
		} {
			doc.AddRow(6,
				col.New(6),
				text.NewCol(3, line.label, props.Text{Size: 9, Align: align.Right}),
				text.NewCol(3, line.value, props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	doc.AddRow(12, text.NewCol(12, preview.Capitalize(m.AmountInWords), props.Text{Size: 10, Style: fontstyle.Bold, Top: 4}))

	// Terms and signatures
	termCol := col.New(6).Add(text.New("Terms & Conditions", props.Text{Size: 9, Style: fontstyle.Bold, Top: 2}))
	for i, term := range m.Issuer.Terms {
		termCol = termCol.Add(text.New(fmt.Sprintf("%d. %s", i+1, term), props.Text{Size: 8, Top: float64(7 + 4*i)}))
	}
	doc.AddRow(28,
		termCol,
		text.NewCol(3, "Receiver's Signature", props.Text{Size: 9, Top: 22, Align: align.Center}),
		text.NewCol(3, "Authorised Signatory", props.Text{Size: 9, Top: 22, Align: align.Center}),
	)

	out, err := doc.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return out.GetBytes(), nil
}

func partyBlock(title string, m preview.Model, withContact bool) []core.Component {
	lines := []string{m.BillTo, m.BillToAddress, m.BillToCity}
	if withContact && m.ContactNo != "" {
		lines = append(lines, "Contact No.: "+m.ContactNo)
	}

	components := []core.Component{
		text.New(title, props.Text{Size: 9, Style: fontstyle.Bold, Top: 2}),
	}
	top := 7.0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		components = append(components, text.New(line, props.Text{Size: 9, Top: top}))
		top += 4.5
	}
	return components
}

func withRight(p props.Text) props.Text {
	p.Align = align.Right
	return p
}
