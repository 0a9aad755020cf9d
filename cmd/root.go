package cmd

import (
	"fmt"
	"os"

	"github.com/resolv-libs/resolv-data/internal/config"
	"github.com/resolv-libs/resolv-data/internal/logging"
	"github.com/spf13/cobra"
)

var flagLogLevel string

var rootCmd = &cobra.Command{
	Use:          "resolv-data",
	Short:        "Versioned catalogs for music datasets",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `resolv-data builds, validates and verifies dataset catalogs: one index file
per dataset version listing every entry, its metadata and its checksummed files.`,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
}

// setupLogging installs the stderr logger before any command runs.
func setupLogging(_ *cobra.Command, _ []string) error {
	level := flagLogLevel
	if level == "" {
		if cfg, err := config.Load(); err == nil {
			level = cfg.LogLevel
		}
	}
	if err := logging.Setup(os.Stderr, level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return nil
}

// loadConfig loads the effective configuration with a hint on failure.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'resolv-data init' to write a fresh one.", err)
	}
	return cfg, nil
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
