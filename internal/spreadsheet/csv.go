package spreadsheet

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"excellerator/internal/domain"
)

// BOM is the UTF-8 byte order mark, written first so spreadsheet apps detect
// the encoding of the CSV.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVContentType is the MIME type of a CSV export.
const CSVContentType = "text/csv; charset=utf-8"

// WriteCSV writes the BOM, a header row and one line per record.
func WriteCSV(w io.Writer, table domain.Table) error {
	if _, err := w.Write(BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, row := range table.Rows {
		record := make([]string, len(table.Columns))
		for j, c := range table.Columns {
			v, _ := row.Get(c)
			record[j] = cellText(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
