package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/milestonehq/milestone/internal/app"
	"github.com/milestonehq/milestone/internal/config"
	"github.com/milestonehq/milestone/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "dev" // set by build flags: -ldflags="-X main.version=1.0.0"
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "milestone",
		Short: "Local media-library inventory and redundancy manager",
		Long: `Milestone catalogs the media files spread across your drives, tracks
which logical title each copy belongs to, and helps you find, verify, and
safely thin out redundant copies.

Milestone never deletes a file outright: redundant copies are quarantined
(moved aside, restorable) rather than removed.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/milestone/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDrivesCmd())
	rootCmd.AddCommand(newRootsCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newHashCmd())
	rootCmd.AddCommand(newItemsCmd())
	rootCmd.AddCommand(newOpsCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSetupCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadApp reads configuration from cfgFile (or the default location) and
// wires a full App around it. Every subcommand but `config`, `setup` and
// `version` needs one.
func loadApp() (*app.App, error) {
	cfg, err := config.LoadFrom(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return a, nil
}

// parseID parses a decimal command-line argument as a catalog row id.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("milestone %s\n", version)
		},
	}
}
