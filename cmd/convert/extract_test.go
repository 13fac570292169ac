package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"excellerator/internal/domain"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, out string
		wantPath   string
		wantFormat domain.ExportFormat
	}{
		{"scans/March receipts.png", "", "March_receipts.xlsx", domain.ExportFormatXLSX},
		{"invoice.pdf", "out/invoice.CSV", "out/invoice.CSV", domain.ExportFormatCSV},
		{"invoice.pdf", "table.xlsx", "table.xlsx", domain.ExportFormatXLSX},
		{"invoice.pdf", "table", "table", domain.ExportFormatXLSX},
	}
	for _, tt := range tests {
		path, format := outputPath(tt.input, tt.out)
		assert.Equal(t, tt.wantPath, path, tt.input)
		assert.Equal(t, tt.wantFormat, format, tt.input)
	}
}
