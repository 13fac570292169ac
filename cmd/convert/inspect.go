package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"excellerator/internal/document"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Report the detected type and page count of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		info, err := document.NewInspector(&cfg.Upload).Inspect(filepath.Base(args[0]), data)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "file:         %s\n", info.FileName)
		fmt.Fprintf(w, "type:         %s\n", info.FileType)
		fmt.Fprintf(w, "content type: %s\n", info.ContentType)
		fmt.Fprintf(w, "size:         %d bytes\n", info.Size)
		if info.PageCount > 0 {
			fmt.Fprintf(w, "pages:        %d\n", info.PageCount)
		}
		return nil
	},
}
