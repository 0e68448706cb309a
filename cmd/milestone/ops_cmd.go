package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/milestonehq/milestone/internal/catalog"
	"github.com/milestonehq/milestone/internal/destination"
	"github.com/milestonehq/milestone/internal/ui"
	"github.com/spf13/cobra"
)

func newOpsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "Manage copy operations and the operations queue",
	}

	cmd.AddCommand(newOpsListCmd())
	cmd.AddCommand(newOpsDestinationsCmd())
	cmd.AddCommand(newOpsCopyCmd())
	cmd.AddCommand(newOpsQueueCmd())

	return cmd
}

func newOpsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued and completed copy operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ops, err := a.Catalog.ListOperations(context.Background(), nil)
			if err != nil {
				return err
			}
			if len(ops) == 0 {
				ui.InfoMsg("no operations")
				return nil
			}

			rows := make([][]string, 0, len(ops))
			for _, op := range ops {
				rows = append(rows, []string{
					fmt.Sprintf("%d", op.ID),
					fmt.Sprintf("%d", op.SourceFileID),
					fmt.Sprintf("%d", op.DestDriveID),
					op.DestPath,
					string(op.Status),
					ui.FormatBytes(op.Progress) + "/" + ui.FormatBytes(op.TotalSize),
				})
			}
			ui.CompactTable([]string{"ID", "Source File", "Dest Drive", "Dest Path", "Status", "Progress"}, rows)
			return nil
		},
	}
}

func newOpsDestinationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destinations <file-id>",
		Short: "Show ranked destination candidates for a file",
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

			ctx := context.Background()
			mediaType := catalog.MediaUnknown
			if item, err := a.Catalog.ItemForFile(ctx, fileID); err == nil {
				mediaType = item.Type
			}

			candidates, err := destination.Pick(ctx, a.Catalog, fileID, mediaType)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				ui.InfoMsg("no eligible destination drives")
				return nil
			}

			rows := make([][]string, 0, len(candidates))
			for _, c := range candidates {
				rows = append(rows, []string{
					fmt.Sprintf("%d", c.Drive.ID),
					c.Drive.MountPath,
					ui.FormatBytes(c.FreeSpace),
					fmt.Sprintf("%v", c.Preferred),
					fmt.Sprintf("%d", c.Score),
				})
			}
			ui.CompactTable([]string{"Drive ID", "Mount Path", "Free Space", "Preferred", "Score"}, rows)
			return nil
		},
	}
}

func newOpsCopyCmd() *cobra.Command {
	var destDriveID int64
	var destPath string
	var verifyHash bool

	cmd := &cobra.Command{
		Use:   "copy <file-id>",
		Short: "Enqueue a copy of a file to another drive",
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
				return fmt.Errorf("write_mode is disabled in config; enable it to queue copies")
			}

			ctx := context.Background()
			f, err := a.Catalog.GetFile(ctx, fileID)
			if err != nil {
				return err
			}

			op, err := a.Catalog.EnqueueOperation(ctx, fileID, destDriveID, destPath, f.Size, verifyHash)
			if err != nil {
				return err
			}
			ui.SuccessMsg("queued operation %d", op.ID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&destDriveID, "dest-drive", 0, "destination drive id")
	cmd.Flags().StringVar(&destPath, "dest-path", "", "destination path relative to the drive's root")
	cmd.Flags().BoolVar(&verifyHash, "verify", true, "verify the copy's hash matches the source after completion")
	cmd.MarkFlagRequired("dest-drive")
	cmd.MarkFlagRequired("dest-path")
	return cmd
}

func newOpsQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Control the operations queue's worker pool",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			status := a.Ops.Status()
			rows := [][]string{
				{"Running", fmt.Sprintf("%v", status.Running)},
				{"Paused", fmt.Sprintf("%v", status.Paused)},
				{"Concurrency", fmt.Sprintf("%d", status.Concurrency)},
				{"Active", fmt.Sprintf("%d", status.Active)},
			}
			ui.CompactTable([]string{"Field", "Value"}, rows)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the queue's worker pool and block until interrupted",
		Long: `Start the queue's worker pool and block until interrupted.

The queue drains operations on a background goroutine tied to this
process, so this command blocks on Ctrl+C (or SIGTERM) rather than
returning immediately; killing the process would otherwise stop the
queue along with it. Run 'milestone serve' instead if the queue should
run alongside the HTTP API in one long-lived process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if !a.Ops.Start() {
				return fmt.Errorf("queue is already running")
			}
			ui.SuccessMsg("queue started, press Ctrl+C to stop")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh
			a.Ops.Stop()
			ui.InfoMsg("queue stopped")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the queue's worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()
			a.Ops.Stop()
			ui.SuccessMsg("queue stopped")
			return nil
		},
	})

	return cmd
}
