package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"excellerator/internal/document"
	"excellerator/internal/domain"
	"excellerator/internal/gateway"
	_ "excellerator/internal/gateway/claude"
	_ "excellerator/internal/gateway/gemini"
	_ "excellerator/internal/gateway/openai"
	"excellerator/internal/service"
	"excellerator/internal/spreadsheet"
)

var (
	extractHint    string
	extractHeaders []string
	extractOut     string
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Extract a table from an image or PDF and save it as a spreadsheet",
	Example: `  convert extract receipt.png
  convert extract invoice.pdf --headers Item,Qty,Price --out invoice.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractHint, "hint", "", "extra extraction instructions")
	extractCmd.Flags().StringSliceVar(&extractHeaders, "headers", nil, "required column names, comma-separated")
	extractCmd.Flags().StringVarP(&extractOut, "out", "O", "", "output file, .xlsx or .csv (default: <input name>.xlsx)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	model, err := gateway.Build(&cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to initialize model gateway: %w", err)
	}
	extraction := service.NewExtractionService(document.NewInspector(&cfg.Upload), model, logger)

	out, err := extraction.Extract(cmd.Context(), service.ExtractInput{
		FileName: filepath.Base(path),
		Data:     data,
		Hint:     extractHint,
		Headers:  extractHeaders,
	})
	if err != nil {
		return err
	}

	dest, format := outputPath(path, extractOut)
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer f.Close()

	table := domain.NewTable(out.Rows)
	if format == domain.ExportFormatCSV {
		err = spreadsheet.WriteCSV(f, table)
	} else {
		err = spreadsheet.WriteXLSX(f, table)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows x %d columns to %s (model %s)\n",
		len(table.Rows), len(table.Columns), dest, out.Model)
	return nil
}

// outputPath resolves the destination and its format from --out, defaulting
// to <input name>.xlsx in the working directory.
func outputPath(input, out string) (string, domain.ExportFormat) {
	if out == "" {
		return spreadsheet.BuildFilename(filepath.Base(input), domain.ExportFormatXLSX), domain.ExportFormatXLSX
	}
	if strings.EqualFold(filepath.Ext(out), ".csv") {
		return out, domain.ExportFormatCSV
	}
	return out, domain.ExportFormatXLSX
}
