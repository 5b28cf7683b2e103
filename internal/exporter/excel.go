package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"studentpulse/pkg/contracts/domain"
)

// SheetName is the only sheet of an exported workbook
const SheetName = "Sheet1"

// WriteWorkbook writes ds as a single-sheet workbook: a header row, then
// one row per record. Numeric cells are stored as numbers and missing
// cells are left blank.
func WriteWorkbook(w io.Writer, ds domain.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	header := make([]interface{}, ds.Width())
	for i, name := range ds.Names() {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	cols := ds.Columns()
	for i := 0; i < ds.Rows(); i++ {
		row := make([]interface{}, len(cols))
		for j, col := range cols {
			v := col.Values[i]
			switch {
			case v.Null:
				row[j] = nil
			case col.Kind == domain.KindNumeric:
				row[j] = v.Num
			default:
				row[j] = v.Str
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
