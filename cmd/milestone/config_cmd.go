package main

import (
	"fmt"

	"github.com/milestonehq/milestone/internal/config"
	"github.com/milestonehq/milestone/internal/paths"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Milestone configuration",
		Long: `Commands for managing Milestone configuration.

The config file is stored at: ~/.config/milestone/config.toml`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ConfigExists() && !force {
				path, _ := paths.ConfigPath()
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			path, _ := paths.ConfigPath()
			fmt.Printf("created config file: %s\n", path)
			fmt.Println("\nnext steps:")
			fmt.Println("  1. register a drive: milestone drives register /mnt/library")
			fmt.Println("  2. add a root: milestone roots add <drive-id> /mnt/library/movies")
			fmt.Println("  3. run a scan: milestone scan start")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Printf("write_mode:       %v\n", cfg.WriteMode)
			fmt.Printf("data_dir:         %s\n", cfg.DataDir)
			fmt.Printf("api address:      %s\n", cfg.Addr())
			fmt.Printf("logging level:    %s\n", cfg.Logging.Level)
			fmt.Printf("scan throttle:    %s\n", cfg.Scan.DefaultThrottle)
			fmt.Printf("queue concurrency: %d\n", cfg.Queue.Concurrency)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := paths.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}
