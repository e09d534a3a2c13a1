package pipeline

import (
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// excelize rejects wider columns.
const maxColumnWidth = 255

type ExportOptions struct {
	SheetName   string
	WidthFactor float64
}

// ExportRowsToXLSX writes a grid of string cells to a single-sheet workbook.
// The first row is styled as a header; each column is sized to its longest
// cell times WidthFactor.
func ExportRowsToXLSX(rows [][]string, outputPath string, opts ExportOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if opts.SheetName != "" && opts.SheetName != sheet {
		if err := f.SetSheetName(sheet, opts.SheetName); err != nil {
			return err
		}
		sheet = opts.SheetName
	}

	for i, row := range rows {
		r := i + 1
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r)
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return err
		}
	}

	for c, width := range ColumnWidths(rows, opts.WidthFactor) {
		if width <= 0 {
			continue
		}
		col, _ := excelize.ColumnNumberToName(c + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// ColumnWidths returns longest-cell-length * factor per column, capped at the
// widest column excelize accepts.
func ColumnWidths(rows [][]string, factor float64) []float64 {
	if factor <= 0 {
		factor = 1
	}
	var widths []float64
	for _, row := range rows {
		for c, value := range row {
			for len(widths) <= c {
				widths = append(widths, 0)
			}
			w := float64(utf8.RuneCountInString(value)) * factor
			if w > maxColumnWidth {
				w = maxColumnWidth
			}
			if w > widths[c] {
				widths[c] = w
			}
		}
	}
	return widths
}
