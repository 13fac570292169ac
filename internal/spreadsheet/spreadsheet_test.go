package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"excellerator/internal/domain"
)

func sampleTable() domain.Table {
	return domain.NewTable([]domain.Row{
		domain.NewRow("Item", "Widget", "Qty", json.Number("3"), "Price", json.Number("4.5"), "Paid", true),
		domain.NewRow("Item", "Gadget, large", "Qty", json.Number("5"), "Price", json.Number("10"), "Paid", false),
	})
}

func exportXLSX(t *testing.T, table domain.Table) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, table))
	return buf.Bytes()
}

func TestWriteXLSX_HeaderAndTypedCells(t *testing.T) {
	data := exportXLSX(t, sampleTable())

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Item", "Qty", "Price", "Paid"}, rows[0])
	assert.Equal(t, []string{"Widget", "3", "4.5", "true"}, rows[1])

	typ, err := f.GetCellType(SheetName, "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
}

func TestWriteXLSX_EmptyTable(t *testing.T) {
	data := exportXLSX(t, domain.NewTable(nil))
	assert.NotEmpty(t, data)
}

func TestXLSX_RoundTrip(t *testing.T) {
	tbl := sampleTable()
	rows, err := Import(bytes.NewReader(exportXLSX(t, tbl)))
	require.NoError(t, err)
	require.Len(t, rows, len(tbl.Rows))

	got := domain.NewTable(rows)
	assert.Equal(t, tbl.Columns, got.Columns)
	for i := range tbl.Rows {
		for _, c := range tbl.Columns {
			want, _ := tbl.Rows[i].Get(c)
			have, _ := got.Rows[i].Get(c)
			assert.Equal(t, cellText(want), have, "row %d column %s", i, c)
		}
	}
}

func TestXLSX_RoundTrip_KeepsPreciseNumbers(t *testing.T) {
	values := []json.Number{
		"12345678901234567",
		"1234567890.123456789",
		"0.30000000000000004",
		"1e3",
		"-42",
	}
	input := make([]domain.Row, len(values))
	for i, v := range values {
		input[i] = domain.NewRow("ID", v)
	}

	rows, err := Import(bytes.NewReader(exportXLSX(t, domain.NewTable(input))))
	require.NoError(t, err)
	require.Len(t, rows, len(values))
	for i, v := range values {
		have, _ := rows[i].Get("ID")
		assert.Equal(t, v.String(), have)
	}
}

func TestCellValue_NumericOnlyWhenExact(t *testing.T) {
	assert.Equal(t, int64(12345678901234567), cellValue(json.Number("12345678901234567")))
	assert.Equal(t, 0.30000000000000004, cellValue(json.Number("0.30000000000000004")))
	assert.Equal(t, "1234567890.123456789", cellValue(json.Number("1234567890.123456789")))
	assert.Equal(t, "007", cellValue(json.Number("007")))
}

func TestImport_PadsShortRowsAndSkipsBlankLines(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "", "Name"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Jane"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"John", "x", "Doe"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Import(buf)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Name", "Column B", "Name (2)"}, rows[0].Keys())
	v, _ := rows[0].Get("Name (2)")
	assert.Equal(t, "", v)
	v, _ = rows[1].Get("Column B")
	assert.Equal(t, "x", v)
}

func TestImport_EmptySheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = Import(buf)
	assert.ErrorIs(t, err, domain.ErrEmptyTable)
}

func TestImport_NotAWorkbook(t *testing.T) {
	_, err := Import(bytes.NewReader([]byte("Item,Qty\nWidget,3\n")))
	assert.ErrorIs(t, err, domain.ErrInvalidDataset)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable()))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, BOM))

	records, err := csv.NewReader(bytes.NewReader(out[len(BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Item", "Qty", "Price", "Paid"}, records[0])
	assert.Equal(t, []string{"Gadget, large", "5", "10", "false"}, records[2])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Invoice March", "Invoice_March"},
		{"  q3 / report!! ", "q3_report"},
		{"a--b__c", "a--b_c"},
		{"***", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
	assert.Len(t, SanitizeFilename(string(bytes.Repeat([]byte("a"), 150))), 100)
}

func TestBuildFilename(t *testing.T) {
	assert.Equal(t, "receipt_scan.xlsx", BuildFilename("receipt scan.pdf", domain.ExportFormatXLSX))
	assert.Equal(t, "receipt_scan.csv", BuildFilename("receipt scan.pdf", domain.ExportFormatCSV))
	assert.Equal(t, "excellerator-export.xlsx", BuildFilename("", ""))
	assert.Equal(t, "excellerator-export.xlsx", BuildFilename(".png", domain.ExportFormatXLSX))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, CSVContentType, ContentType(domain.ExportFormatCSV))
	assert.Equal(t, XLSXContentType, ContentType(domain.ExportFormatXLSX))
}
