package main

import (
	"context"
	"fmt"
	"time"

	"github.com/milestonehq/milestone/internal/opsqueue"
	"github.com/milestonehq/milestone/internal/ui"
	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Find and safely thin out redundant copies",
	}

	cmd.AddCommand(newCleanupRecommendationsCmd())
	cmd.AddCommand(newCleanupQuarantineCmd())
	cmd.AddCommand(newCleanupRestoreCmd())

	return cmd
}

func newCleanupRecommendationsCmd() *cobra.Command {
	var minCopies int
	var limit int

	cmd := &cobra.Command{
		Use:   "recommendations",
		Short: "List items with at least min-copies surviving copies",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Catalog.CleanupRecommendations(context.Background(), minCopies, limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				ui.InfoMsg("no items at or above %d copies", minCopies)
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, it := range items {
				title := ""
				if it.Title != nil {
					title = *it.Title
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", it.ID),
					string(it.Type),
					title,
					fmt.Sprintf("%d", it.Copies),
				})
			}
			ui.CompactTable([]string{"Item ID", "Type", "Title", "Copies"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&minCopies, "min-copies", 2, "minimum surviving copy count")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows to return")
	return cmd
}

func newCleanupQuarantineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quarantine <file-id>",
		Short: "Move a file aside into quarantine, restorable later",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileID, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Config.WriteMode {
				return fmt.Errorf("write_mode is disabled in config; enable it to quarantine files")
			}

			if err := opsqueue.Quarantine(context.Background(), a.Catalog, fileID, time.Now()); err != nil {
				return err
			}
			ui.SuccessMsg("quarantined file %d", fileID)
			return nil
		},
	}
}

func newCleanupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file-id>",
		Short: "Restore a quarantined file to its original location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileID, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Config.WriteMode {
				return fmt.Errorf("write_mode is disabled in config; enable it to restore files")
			}

			if err := opsqueue.Restore(context.Background(), a.Catalog, fileID); err != nil {
				return err
			}
			ui.SuccessMsg("restored file %d", fileID)
			return nil
		},
	}
}
