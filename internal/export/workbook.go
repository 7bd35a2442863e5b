// Package export checks bill workbooks downloaded from the backend and can
// build the same workbook locally from recomputed bills.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ebilling/internal/sheets"
)

// SheetName is the sheet written by Build.
const SheetName = "Bills"

// ErrEmptyWorkbook is returned when a workbook has no sheets.
var ErrEmptyWorkbook = errors.New("workbook has no sheets")

// Summary describes a workbook.
type Summary struct {
	Sheets []string
	// Rows counts every row of each sheet, header included.
	Rows map[string]int
}

// DataRows is the total row count over all sheets without one header row per
// non-empty sheet.
func (s Summary) DataRows() int {
	total := 0
	for _, n := range s.Rows {
		if n > 0 {
			total += n - 1
		}
	}
	return total
}

// Inspect opens an xlsx stream and counts the rows of every sheet.
func Inspect(r io.Reader) (Summary, error) {
	const op = "export.Inspect"

	f, err := excelize.OpenReader(r)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: failed to open workbook: %w", op, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return Summary{}, fmt.Errorf("%s: %w", op, ErrEmptyWorkbook)
	}

	summary := Summary{Sheets: names, Rows: make(map[string]int, len(names))}
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return Summary{}, fmt.Errorf("%s: failed to read sheet %q: %w", op, name, err)
		}
		summary.Rows[name] = len(rows)
	}
	return summary, nil
}

// Build writes rows as a single sheet xlsx workbook to w.
func Build(w io.Writer, rows []sheets.BillRow) error {
	const op = "export.Build"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := sw.SetRow("A1", sheets.Headers()); err != nil {
		return fmt.Errorf("%s: failed to write header: %w", op, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := sw.SetRow(cell, sheets.RowValues(row)); err != nil {
			return fmt.Errorf("%s: failed to write row %d: %w", op, i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_ = f.SetColWidth(SheetName, "A", "B", 26)
	_ = f.SetColWidth(SheetName, "C", "C", 28)
	_ = f.SetColWidth(SheetName, "D", "E", 14)

	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 2})
	_ = f.SetColStyle(SheetName, "G", moneyStyle)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%s: failed to write workbook: %w", op, err)
	}
	return nil
}
