package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hyperifyio/gorate/internal/table"
)

const (
	summarySheet  = "Summary"
	selectedSheet = "Selected"
)

// WriteXLSX saves a workbook with the bilingual summary on one sheet and the
// selected transactions on another.
func WriteXLSX(run Run, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	res := run.Result
	rows := [][]any{
		{"English", res.English},
		{"Marathi", res.Marathi},
		{"Selected rows", res.Summary.Count},
		{"Run ID", run.Meta.RunID},
		{"Input SHA-256", run.Meta.InputSHA256},
	}
	if res.Summary.OK {
		rows = append(rows, []any{"Mean per sq. m.", res.Summary.Mean})
	}
	for i, r := range rows {
		for j, v := range r {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
		}
	}

	if _, err := f.NewSheet(selectedSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	if err := writeSheet(f, selectedSheet, res.Table); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t *table.Table) error {
	if t == nil {
		return nil
	}
	for j, c := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, c); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	for i, row := range t.Rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			var val any = v
			// only lossless conversions; "012" stays text
			if n, ok := table.ParseNumber(v); ok && table.FormatNumber(n) == v {
				val = n
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
		}
	}
	return nil
}
