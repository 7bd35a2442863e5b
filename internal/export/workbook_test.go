package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ebilling/internal/sheets"
)

func TestBuildThenInspect(t *testing.T) {
	rows := []sheets.BillRow{
		{Serial: "1", ID: "a", Biller: "Ravi", Date: "05/01/2024", Items: 2, Total: decimal.RequireFromString("170")},
		{Serial: "2", ID: "b", Biller: "Sita", Date: "06/01/2024", Items: 1, Total: decimal.RequireFromString("99.5")},
	}

	var buf bytes.Buffer
	require.NoError(t, Build(&buf, rows))

	summary, err := Inspect(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{SheetName}, summary.Sheets)
	assert.Equal(t, 3, summary.Rows[SheetName])
	assert.Equal(t, 2, summary.DataRows())
}

func TestBuild_CellValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Build(&buf, []sheets.BillRow{
		{Serial: "INV-7", ID: "b7", Biller: "Ravi", Total: decimal.RequireFromString("170.5")},
	}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Serial", header)

	serial, err := f.GetCellValue(SheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "INV-7", serial)

	biller, err := f.GetCellValue(SheetName, "C2")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", biller)
}

func TestInspect_MultipleSheets(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Summary")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Serial", "Total"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"1", 10}))

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	summary, err := Inspect(&buf)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Sheet1", "Summary"}, summary.Sheets)
	assert.Equal(t, 2, summary.Rows["Sheet1"])
	assert.Equal(t, 0, summary.Rows["Summary"])
	assert.Equal(t, 1, summary.DataRows())
}

func TestInspect_NotAWorkbook(t *testing.T) {
	_, err := Inspect(strings.NewReader("<html>login required</html>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open workbook")
}
