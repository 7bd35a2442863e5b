package preview

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebilling/internal/billing"
	"ebilling/pkg/models"
)

func testBuilder(t *testing.T, mutate ...func(*Config)) *Builder {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Location = time.UTC
	cfg.Issuer = Issuer{
		Name:         "Rajasthan Mobile Shop",
		AddressLines: []string{"Main Market, Mirzewala", "Sri Ganganagar, 335038"},
		Terms:        []string{"Goods once sold will not be taken back."},
	}
	for _, m := range mutate {
		m(&cfg)
	}

	b, err := NewBuilder(cfg, nil)
	require.NoError(t, err)
	return b
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewBuilder_RejectsCapAboveRows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LineItemCap = 9

	_, err := NewBuilder(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	cfg.LineItemCap = 0
	_, err = NewBuilder(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestFromDraft(t *testing.T) {
	b := testBuilder(t)
	draft := billing.Draft{
		Biller: billing.Biller{Name: "Ravi", Contact: "9876543210", City: "Sri Ganganagar"},
		Date:   time.Date(2024, 1, 5, 18, 30, 0, 0, time.UTC),
		Items: []billing.LineItem{
			{Name: "Pen", Quantity: dec("2"), Price: dec("10")},
			{Name: "Book", Quantity: dec("1"), Price: dec("150"), Unit: "Nos."},
		},
	}
	comp, err := billing.DefaultCalculator().Compute(draft.Items)
	require.NoError(t, err)

	m := b.FromDraft(draft, comp, "INV-7")

	assert.Equal(t, "INV-7", m.InvoiceNo)
	assert.Equal(t, "05/01/2024", m.Date)
	assert.Equal(t, "Ravi", m.BillTo)
	assert.Equal(t, "9876543210", m.ContactNo)
	assert.Equal(t, "170.00", m.TotalAmount.StringFixed(2))
	assert.True(t, m.SubTotal.Equal(m.TotalAmount))
	assert.True(t, m.Received.IsZero())
	assert.True(t, m.Balance.Equal(m.TotalAmount))
	assert.True(t, m.CurrentBalance.IsZero())
	assert.Equal(t, "one hundred and seventy rupees only", m.AmountInWords)

	require.Len(t, m.Rows, 8)
	assert.Equal(t, billing.DefaultUnit, m.Rows[0].Unit)
	assert.Equal(t, "Nos.", m.Rows[1].Unit)
	assert.Equal(t, 2, m.Rows[1].SlNo)
	assert.Len(t, m.Items(), 2)
	for _, r := range m.Rows[2:] {
		assert.True(t, r.Blank)
	}
}

func TestFromDraft_CapsItems(t *testing.T) {
	b := testBuilder(t)

	items := make([]billing.LineItem, 9)
	for i := range items {
		items[i] = billing.LineItem{Name: fmt.Sprintf("Item %d", i+1), Quantity: dec("1"), Price: dec("10")}
	}
	comp, err := billing.DefaultCalculator().Compute(items)
	require.NoError(t, err)

	m := b.FromDraft(billing.Draft{Items: items}, comp, "INV-9")

	require.Len(t, m.Rows, 8)
	assert.Len(t, m.Items(), 6)
	assert.Equal(t, 3, m.HiddenItems)
	assert.Equal(t, "Item 6", m.Rows[5].Name)
	assert.True(t, m.Rows[6].Blank)
	// the total still covers every item
	assert.Equal(t, "90.00", m.TotalAmount.StringFixed(2))
}

func TestFromBill_RecomputesTotal(t *testing.T) {
	b := testBuilder(t)
	bill := &models.Bill{
		ID:         "abc",
		BillerName: "Ravi",
		Date:       "2024-01-05T10:00:00.000Z",
		Products: []models.BillProduct{
			{Name: "Pen", Quantity: dec("2"), Price: dec("10")},
			{Name: "Book", Quantity: dec("1"), Price: dec("150")},
		},
		TotalAmount: dec("999"),
	}

	m := b.FromBill(bill)

	assert.Equal(t, "170.00", m.TotalAmount.StringFixed(2))
	assert.Equal(t, "170.00", m.SubTotal.StringFixed(2))
	assert.Equal(t, "abc", m.InvoiceNo, "falls back to the id without a serial")
	assert.Equal(t, "Ravi", m.BillTo)
	assert.Equal(t, "05/01/2024", m.Date)
}

func TestFromBill_Balances(t *testing.T) {
	b := testBuilder(t, func(c *Config) { c.ShowBalances = true })
	bill := &models.Bill{
		ID:             "b1",
		Serial:         "12",
		BillerName:     "Ravi",
		BillTo:         "Asha",
		Products:       []models.BillProduct{{Name: "Pen", Quantity: dec("2"), Price: dec("10")}},
		Received:       decimal.NewNullDecimal(dec("5")),
		CurrentBalance: decimal.NewNullDecimal(dec("40")),
	}

	m := b.FromBill(bill)

	assert.Equal(t, "12", m.InvoiceNo)
	assert.Equal(t, "Asha", m.BillTo)
	assert.True(t, m.ShowBalances)
	assert.Equal(t, "5.00", m.Received.StringFixed(2))
	assert.Equal(t, "15.00", m.Balance.StringFixed(2))
	assert.Equal(t, "40.00", m.CurrentBalance.StringFixed(2))
	assert.Empty(t, m.Date)
}

func TestDraftAndFetchedBillAgreeOnTotal(t *testing.T) {
	b := testBuilder(t)
	input := billing.DraftInput{
		BillerName:    "Ravi",
		BillerContact: "9876543210",
		Items: []billing.ItemInput{
			{Name: "Cable", Quantity: "3", Price: "0.10"},
			{Name: "Cover", Quantity: "7", Price: "19.95"},
		},
	}
	draft, err := billing.ParseDraft(input, billing.DefaultRules())
	require.NoError(t, err)
	comp, err := billing.DefaultCalculator().Compute(draft.Items)
	require.NoError(t, err)

	fromDraft := b.FromDraft(draft, comp, "INV-1")

	stored := &models.Bill{ID: "x", Serial: "INV-1", BillerName: "Ravi", TotalAmount: dec("139.94")}
	for _, it := range draft.Items {
		stored.Products = append(stored.Products, models.BillProduct{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	fromBill := b.FromBill(stored)

	assert.True(t, fromDraft.TotalAmount.Equal(fromBill.TotalAmount))
	assert.Equal(t, fromDraft.AmountInWords, fromBill.AmountInWords)
	assert.Equal(t, fromDraft.Rows, fromBill.Rows)
}
