package main

import (
	"fmt"
	"time"

	"github.com/milestonehq/milestone/internal/scanner"
	"github.com/milestonehq/milestone/internal/ui"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Walk registered roots and reconcile the catalog against disk",
	}

	cmd.AddCommand(newScanStartCmd())
	cmd.AddCommand(newScanStatusCmd())
	cmd.AddCommand(newScanPauseCmd())
	cmd.AddCommand(newScanResumeCmd())
	cmd.AddCommand(newScanCancelCmd())

	return cmd
}

func newScanStartCmd() *cobra.Command {
	var driveIDFlag int64
	var throttleFlag string
	var background bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a scan of one drive or every registered drive",
		Long: `Start a scan of one drive or every registered drive.

By default this command blocks, polling scan status until the scan
finishes, since the scan itself runs on a background goroutine that
would otherwise be killed when the process exits. Pass --background to
start the scan and return immediately instead (useful when 'milestone
serve' is already running as the long-lived process).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var driveID *int64
			if driveIDFlag != 0 {
				driveID = &driveIDFlag
			}

			throttle := scanner.Throttle(throttleFlag)
			if !a.Scanner.Start(driveID, throttle) {
				return fmt.Errorf("a scan is already running")
			}
			ui.SuccessMsg("scan started (throttle=%s)", throttle)

			if background {
				return nil
			}

			for {
				time.Sleep(500 * time.Millisecond)
				status := a.Scanner.Status()
				if status.State != scanner.StateRunning && status.State != scanner.StatePaused {
					fmt.Printf("scan %s: %d new, %d updated, %d unchanged, %d missing, %d errored\n",
						status.State, status.FilesNew, status.FilesUpdated, status.FilesUnchanged, status.FilesMissing, status.FilesErrored)
					return nil
				}
			}
		},
	}

	cmd.Flags().Int64Var(&driveIDFlag, "drive-id", 0, "scan only this drive (default: every drive)")
	cmd.Flags().StringVar(&throttleFlag, "throttle", string(scanner.ThrottleNormal), "low, normal, or fast")
	cmd.Flags().BoolVar(&background, "background", false, "start the scan and return immediately")
	return cmd
}

func newScanStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the status of the current or most recent scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			status := a.Scanner.Status()
			rows := [][]string{
				{"State", string(status.State)},
				{"Current Root", status.CurrentRoot},
				{"Current File", status.CurrentFile},
				{"New", fmt.Sprintf("%d", status.FilesNew)},
				{"Updated", fmt.Sprintf("%d", status.FilesUpdated)},
				{"Unchanged", fmt.Sprintf("%d", status.FilesUnchanged)},
				{"Missing", fmt.Sprintf("%d", status.FilesMissing)},
				{"Errored", fmt.Sprintf("%d", status.FilesErrored)},
			}
			if status.Error != "" {
				rows = append(rows, []string{"Error", status.Error})
			}
			ui.CompactTable([]string{"Field", "Value"}, rows)
			return nil
		},
	}
}

func newScanPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if !a.Scanner.Pause() {
				return fmt.Errorf("scan is not running")
			}
			ui.SuccessMsg("scan paused")
			return nil
		},
	}
}

func newScanResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if !a.Scanner.Resume() {
				return fmt.Errorf("scan is not paused")
			}
			ui.SuccessMsg("scan resumed")
			return nil
		},
	}
}

func newScanCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the running or paused scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if !a.Scanner.Cancel() {
				return fmt.Errorf("scan is not running or paused")
			}
			ui.SuccessMsg("scan cancelled")
			return nil
		},
	}
}
