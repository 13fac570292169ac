package domain

import "fmt"

// Table is the working dataset of a session. Columns are derived from the
// keys of the first row and recomputed on every wholesale replacement.
type Table struct {
	Rows    []Row    `json:"rows"`
	Columns []string `json:"columns"`
}

// NewTable builds a table from rows, deriving its columns.
func NewTable(rows []Row) Table {
	t := Table{}
	t.Replace(rows)
	return t
}

// ColumnsOf returns the keys of the first row, or an empty list.
// Keys that only appear in later rows are not surfaced.
func ColumnsOf(rows []Row) []string {
	if len(rows) == 0 {
		return []string{}
	}
	return rows[0].Keys()
}

// Replace swaps the whole dataset and recomputes the columns.
func (t *Table) Replace(rows []Row) {
	if rows == nil {
		rows = []Row{}
	}
	t.Rows = rows
	t.Columns = ColumnsOf(rows)
}

// Clear empties the table.
func (t *Table) Clear() {
	t.Replace(nil)
}

// SetCell assigns one cell in place. The column list never changes.
func (t *Table) SetCell(row int, column string, value any) error {
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("row %d of %d: %w", row, len(t.Rows), ErrRowOutOfRange)
	}
	if !t.HasColumn(column) {
		return fmt.Errorf("%q: %w", column, ErrUnknownColumn)
	}
	if !IsScalar(value) {
		return ErrInvalidCellValue
	}
	t.Rows[row].Set(column, value)
	return nil
}

// HasColumn reports whether column is part of the derived column list.
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.Clone()
	}
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	return Table{Rows: rows, Columns: cols}
}

// ConformToHeaders projects rows onto a fixed header list: keys follow the
// header order, other keys are dropped and missing keys are filled with "".
func ConformToHeaders(rows []Row, headers []string) []Row {
	if len(headers) == 0 {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		projected := Row{}
		for _, h := range headers {
			v, ok := r.Get(h)
			if !ok {
				v = ""
			}
			projected.Set(h, v)
		}
		out = append(out, projected)
	}
	return out
}
