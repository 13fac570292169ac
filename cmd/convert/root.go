package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"excellerator/internal/config"
	"excellerator/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "convert",
	Short: "Turn images and PDFs into spreadsheets from the command line",
	Long: `convert runs the Excellerator extraction flow locally.

It uses the same model provider settings as the server (EXCELLERATOR_*
environment variables or a config file) and writes the result as xlsx or csv.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: EXCELLERATOR_CONFIG_FILE)",
	)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(inspectCmd)
}

// loadConfig reads settings and installs a stderr logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	if cfgFile != "" {
		if err := os.Setenv(config.EnvName("config_file"), cfgFile); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level, "console")
	slog.SetDefault(logger)
	return cfg, logger, nil
}
