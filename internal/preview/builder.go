package preview

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ebilling/internal/billing"
	"ebilling/internal/logger"
	"ebilling/pkg/models"
)

// Config controls how models are built.
type Config struct {
	Issuer Issuer

	// LineItemCap is the most items a single page shows. Default: 6.
	LineItemCap int

	// Rows is the fixed height of the item table. Default: 8.
	Rows int

	// DateLayout formats the invoice date. Default: 02/01/2006.
	DateLayout string

	// Location is the time zone dates are shown in. Default: time.Local.
	Location *time.Location

	// ShowBalances prints received, balance and current balance.
	ShowBalances bool
}

// DefaultConfig returns the one-page layout with an unnamed issuer.
func DefaultConfig() Config {
	return Config{
		LineItemCap: 6,
		Rows:        8,
		DateLayout:  "02/01/2006",
		Location:    time.Local,
	}
}

// ErrInvalidLayout is returned when the item cap does not fit the table.
var ErrInvalidLayout = errors.New("invalid preview layout")

// Builder flattens drafts and stored bills into Models.
type Builder struct {
	cfg    Config
	calc   *billing.Calculator
	logger zerolog.Logger
}

// NewBuilder validates cfg and returns a builder. A nil calculator uses
// billing.DefaultCalculator.
func NewBuilder(cfg Config, calc *billing.Calculator) (*Builder, error) {
	if cfg.LineItemCap <= 0 {
		return nil, fmt.Errorf("%w: line item cap must be positive, got %d", ErrInvalidLayout, cfg.LineItemCap)
	}
	if cfg.Rows < cfg.LineItemCap {
		return nil, fmt.Errorf("%w: %d rows cannot hold %d items", ErrInvalidLayout, cfg.Rows, cfg.LineItemCap)
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = DefaultConfig().DateLayout
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if calc == nil {
		calc = billing.DefaultCalculator()
	}

	return &Builder{
		cfg:    cfg,
		calc:   calc,
		logger: logger.WithComponent("preview"),
	}, nil
}

// Config returns the builder configuration.
func (b *Builder) Config() Config {
	return b.cfg
}

// FromDraft builds the model of a just-created bill. c must come from
// computing d.Items.
func (b *Builder) FromDraft(d billing.Draft, c *billing.Computation, invoiceNo string) Model {
	if c == nil {
		c = b.calc.Summarize(d.Items)
	}

	m := Model{
		InvoiceNo:     invoiceNo,
		Date:          b.formatDate(d.Date),
		Issuer:        b.cfg.Issuer,
		BillTo:        d.Biller.Name,
		BillToAddress: d.Biller.Address,
		BillToCity:    d.Biller.City,
		ContactNo:     d.Biller.Contact,
		AmountInWords: c.AmountInWords,
	}
	b.fill(&m, d.Items, c.TotalAmount, decimal.NullDecimal{}, decimal.NullDecimal{})
	return m
}

// FromBill builds the model of a stored bill. The total is recomputed from
// its products; a disagreeing stored total is logged and ignored.
func (b *Builder) FromBill(bill *models.Bill) Model {
	items := make([]billing.LineItem, 0, len(bill.Products))
	for _, p := range bill.Products {
		items = append(items, billing.LineItem{
			Name:     p.Name,
			Quantity: p.Quantity,
			Price:    p.Price,
			Unit:     p.Unit,
		})
	}
	c := b.calc.Summarize(items)

	log := logger.WithBill("preview", bill.ID)
	if !bill.TotalAmount.IsZero() && !bill.TotalAmount.Equal(c.TotalAmount) {
		log.Warn().
			Str("stored_total", bill.TotalAmount.StringFixed(2)).
			Str("computed_total", c.TotalAmount.StringFixed(2)).
			Msg("Stored total disagrees with products, using computed total")
	}

	invoiceNo := strings.TrimSpace(bill.Serial.String())
	if invoiceNo == "" {
		invoiceNo = bill.ID
	}
	billTo := strings.TrimSpace(bill.BillTo)
	if billTo == "" {
		billTo = bill.BillerName
	}
	address := bill.BillToAddress
	if address == "" {
		address = bill.Address
	}

	m := Model{
		InvoiceNo:     invoiceNo,
		Date:          b.formatDate(bill.ParsedDate()),
		Issuer:        b.cfg.Issuer,
		BillTo:        billTo,
		BillToAddress: address,
		BillToCity:    bill.BillToCity,
		ContactNo:     bill.BillerNumber,
		AmountInWords: c.AmountInWords,
	}
	b.fill(&m, items, c.TotalAmount, bill.Received, bill.CurrentBalance)
	return m
}

func (b *Builder) fill(m *Model, items []billing.LineItem, total decimal.Decimal, received, current decimal.NullDecimal) {
	m.TotalAmount = total
	m.SubTotal = total
	m.ShowBalances = b.cfg.ShowBalances

	m.Received = decimal.Zero
	if received.Valid {
		m.Received = received.Decimal
	}
	m.Balance = total.Sub(m.Received)
	m.CurrentBalance = decimal.Zero
	if current.Valid {
		m.CurrentBalance = current.Decimal
	}

	m.Rows, m.HiddenItems = b.rows(items)
	if m.HiddenItems > 0 {
		b.logger.Debug().
			Str("invoice_no", m.InvoiceNo).
			Int("items", len(items)).
			Int("hidden", m.HiddenItems).
			Msg("Item table truncated to fit one page")
	}
}

func (b *Builder) rows(items []billing.LineItem) ([]Row, int) {
	shown := items
	hidden := 0
	if len(shown) > b.cfg.LineItemCap {
		hidden = len(shown) - b.cfg.LineItemCap
		shown = shown[:b.cfg.LineItemCap]
	}

	rows := make([]Row, 0, b.cfg.Rows)
	for i, item := range shown {
		unit := item.Unit
		if unit == "" {
			unit = billing.DefaultUnit
		}
		rows = append(rows, Row{
			SlNo:     i + 1,
			Name:     item.Name,
			Quantity: item.Quantity,
			Unit:     unit,
			Price:    item.Price,
			Amount:   item.Amount(),
		})
	}
	for len(rows) < b.cfg.Rows {
		rows = append(rows, Row{Blank: true})
	}
	return rows, hidden
}

func (b *Builder) formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(b.cfg.Location).Format(b.cfg.DateLayout)
}
