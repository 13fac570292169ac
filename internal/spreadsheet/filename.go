package spreadsheet

import (
	"regexp"
	"strings"

	"excellerator/internal/domain"
)

// DefaultBaseName is used when a download has no usable name.
const DefaultBaseName = "excellerator-export"

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	multiUnderscore = regexp.MustCompile(`_{2,}`)
)

// SanitizeFilename replaces non-alphanumeric characters (except - and _)
// with underscores, collapses runs, trims edges and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns the download name for a table in the given format.
// The extension of the source document, if any, is dropped.
func BuildFilename(name string, format domain.ExportFormat) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[:i]
	}
	base := SanitizeFilename(name)
	if base == "" {
		base = DefaultBaseName
	}
	if format == "" {
		format = domain.ExportFormatXLSX
	}
	return base + "." + string(format)
}

// ContentType returns the MIME type for an export format.
func ContentType(format domain.ExportFormat) string {
	if format == domain.ExportFormatCSV {
		return CSVContentType
	}
	return XLSXContentType
}
