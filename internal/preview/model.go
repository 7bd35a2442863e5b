// Package preview turns drafts and stored bills into one printable invoice
// shape and renders it as HTML or, through a DocumentRenderer, as a document.
package preview

import (
	"context"

	"github.com/shopspring/decimal"
)

// Issuer is the shop printed at the top of every invoice.
type Issuer struct {
	Name         string
	AddressLines []string
	Terms        []string
}

// Row is one line of the item table. Blank rows pad the table to a fixed height.
type Row struct {
	SlNo     int
	Name     string
	Quantity decimal.Decimal
	Unit     string
	Price    decimal.Decimal
	Amount   decimal.Decimal
	Blank    bool
}

// Model is the renderer-facing invoice. Drafts and fetched bills both
// flatten into it.
type Model struct {
	InvoiceNo     string
	Date          string
	Issuer        Issuer
	BillTo        string
	BillToAddress string
	BillToCity    string
	ContactNo     string

	// Rows holds at most the configured cap of items followed by blank rows.
	Rows []Row
	// HiddenItems counts items that did not fit under the cap.
	HiddenItems int

	TotalAmount    decimal.Decimal
	SubTotal       decimal.Decimal
	Received       decimal.Decimal
	Balance        decimal.Decimal
	CurrentBalance decimal.Decimal
	ShowBalances   bool

	// AmountInWords is stored as computed; capitalisation happens at render time.
	AmountInWords string
}

// Items returns the non-blank rows.
func (m Model) Items() []Row {
	items := make([]Row, 0, len(m.Rows))
	for _, r := range m.Rows {
		if !r.Blank {
			items = append(items, r)
		}
	}
	return items
}

// DocumentRenderer exports a model as a standalone document such as a PDF.
type DocumentRenderer interface {
	ExportAsDocument(ctx context.Context, m Model) ([]byte, error)
}
