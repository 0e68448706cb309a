package main

import (
	"context"
	"fmt"
	"time"

	"github.com/milestonehq/milestone/internal/hasher"
	"github.com/milestonehq/milestone/internal/ui"
	"github.com/spf13/cobra"
)

func newHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Compute quick and full fingerprints for catalogued files",
	}

	cmd.AddCommand(newHashComputeCmd())
	cmd.AddCommand(newHashStatusCmd())
	cmd.AddCommand(newHashStopCmd())

	return cmd
}

func newHashComputeCmd() *cobra.Command {
	var background bool

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Enqueue every pending file and fingerprint them",
		Long: `Enqueue every file whose hash status is pending or error and fingerprint them.

Like 'scan start', this blocks by default polling status until the queue
drains, since hashing runs on a background goroutine tied to this
process. Pass --background to return immediately.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Hasher.EnqueuePending(context.Background())
			if err != nil {
				return err
			}
			if n == 0 {
				ui.InfoMsg("no pending files to hash")
				return nil
			}
			if !a.Hasher.Start(nil) {
				return fmt.Errorf("hashing is already running")
			}
			ui.SuccessMsg("hashing %d files", n)

			if background {
				return nil
			}

			for {
				time.Sleep(500 * time.Millisecond)
				status := a.Hasher.Status()
				if status.State != hasher.StateRunning {
					fmt.Printf("hashing %s: %d/%d processed\n", status.State, status.FilesProcessed, status.FilesTotal)
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVar(&background, "background", false, "start hashing and return immediately")
	return cmd
}

func newHashStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show fingerprinting progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			status := a.Hasher.Status()
			rows := [][]string{
				{"State", string(status.State)},
				{"Processed", fmt.Sprintf("%d/%d", status.FilesProcessed, status.FilesTotal)},
				{"Queue Size", fmt.Sprintf("%d", status.QueueSize)},
			}
			ui.CompactTable([]string{"Field", "Value"}, rows)
			return nil
		},
	}
}

func newHashStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop hashing, preserving the remaining queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()
			a.Hasher.Stop()
			ui.SuccessMsg("hashing stopped")
			return nil
		},
	}
}
