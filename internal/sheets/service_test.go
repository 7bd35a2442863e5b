package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebilling/internal/preview"
	"ebilling/pkg/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_9", id)

	_, err = extractSpreadsheetID("https://example.com/sheet")
	assert.Error(t, err)
}

func TestNewBillRow(t *testing.T) {
	bill := &models.Bill{
		ID:           "b1",
		BillerName:   "Ravi",
		BillerNumber: "9876543210",
		Products:     make([]models.BillProduct, 3),
		TotalAmount:  decimal.NewFromInt(100),
	}
	m := preview.Model{InvoiceNo: "12", Date: "05/01/2024", TotalAmount: decimal.RequireFromString("99.5")}

	row := NewBillRow(bill, m, time.Date(2024, 1, 6, 8, 0, 0, 0, time.UTC))

	assert.Equal(t, "12", row.Serial)
	assert.Equal(t, 3, row.Items)
	assert.True(t, row.StoredDiff)
	assert.Equal(t, "06/01/2024 08:00:00", row.SyncedAt)

	values := RowValues(row)
	require.Len(t, values, len(headers))
	assert.Equal(t, 99.5, values[6])
	assert.Equal(t, "yes", values[7])
}

func TestNewBillRow_MatchingTotal(t *testing.T) {
	bill := &models.Bill{ID: "b1", TotalAmount: decimal.NewFromInt(20)}
	m := preview.Model{TotalAmount: decimal.RequireFromString("20.00")}

	row := NewBillRow(bill, m, time.Now())
	assert.False(t, row.StoredDiff)
	assert.Equal(t, "", RowValues(row)[7])
}

func TestIDsFromColumn(t *testing.T) {
	ids := idsFromColumn([][]interface{}{
		{"Id"},
		{"b1"},
		{},
		{" b2 "},
		{""},
	})
	assert.Equal(t, map[string]bool{"b1": true, "b2": true}, ids)

	assert.Empty(t, idsFromColumn(nil))
	assert.Empty(t, idsFromColumn([][]interface{}{{"Id"}}))
}
