package spreadsheet

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"excellerator/internal/domain"
)

// SheetName is the single worksheet written on export.
const SheetName = "Sheet1"

// XLSXContentType is the MIME type of an exported workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteXLSX writes the table as a one-sheet workbook: a header row from the
// table columns followed by one row per record in column order.
func WriteXLSX(w io.Writer, table domain.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if len(header) > 0 {
		if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
			return fmt.Errorf("writing header row: %w", err)
		}
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("creating header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
			return fmt.Errorf("styling header row: %w", err)
		}
	}

	for i, row := range table.Rows {
		cells := make([]any, len(table.Columns))
		for j, c := range table.Columns {
			v, _ := row.Get(c)
			cells[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// cellValue keeps numbers numeric in the workbook when the numeric cell
// reproduces the exact text. Other numbers and booleans are written as text.
func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case json.Number:
		text := val.String()
		if n, err := val.Int64(); err == nil && strconv.FormatInt(n, 10) == text {
			return n
		}
		if f, err := val.Float64(); err == nil && strconv.FormatFloat(f, 'f', -1, 64) == text {
			return f
		}
		return text
	case bool:
		return strconv.FormatBool(val)
	case string, int, int32, int64, float32, float64:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// Import reads the first sheet of a workbook. The first row supplies the
// column names and each following non-blank row becomes a record with the
// stored cell text. Number formats are not applied. Blank header cells are
// named after their column letter and duplicated names get a numeric suffix.
func Import(r io.Reader) ([]domain.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %v: %w", err, domain.ErrInvalidDataset)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets: %w", domain.ErrEmptyTable)
	}
	grid, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %v: %w", sheets[0], err, domain.ErrInvalidDataset)
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("sheet %q is empty: %w", sheets[0], domain.ErrEmptyTable)
	}

	headers := headerNames(grid[0])
	if len(headers) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row: %w", sheets[0], domain.ErrEmptyTable)
	}

	rows := make([]domain.Row, 0, len(grid)-1)
	for _, line := range grid[1:] {
		if isBlank(line) {
			continue
		}
		row := domain.Row{}
		for i, h := range headers {
			v := ""
			if i < len(line) {
				v = line[i]
			}
			row.Set(h, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func headerNames(cells []string) []string {
	last := len(cells)
	for last > 0 && strings.TrimSpace(cells[last-1]) == "" {
		last--
	}
	seen := make(map[string]int, last)
	out := make([]string, 0, last)
	for i := 0; i < last; i++ {
		name := strings.TrimSpace(cells[i])
		if name == "" {
			col, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				col = strconv.Itoa(i + 1)
			}
			name = "Column " + col
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = name + " (" + strconv.Itoa(n) + ")"
		}
		out = append(out, name)
	}
	return out
}

func isBlank(line []string) bool {
	for _, c := range line {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
