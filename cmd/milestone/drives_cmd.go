package main

import (
	"context"
	"fmt"

	"github.com/milestonehq/milestone/internal/ui"
	"github.com/spf13/cobra"
)

func newDrivesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drives",
		Short: "Manage registered storage volumes",
	}

	cmd.AddCommand(newDrivesRegisterCmd())
	cmd.AddCommand(newDrivesListCmd())
	cmd.AddCommand(newDrivesRemoveCmd())

	return cmd
}

func newDrivesRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <mount-path>",
		Short: "Register a storage volume at the given mount path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			drive, err := a.Catalog.RegisterDrive(context.Background(), args[0], nil, nil)
			if err != nil {
				return err
			}
			ui.SuccessMsg("registered drive %d at %s", drive.ID, drive.MountPath)
			return nil
		},
	}
}

func newDrivesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered drives",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			drives, err := a.Catalog.ListDrives(context.Background())
			if err != nil {
				return err
			}
			if len(drives) == 0 {
				ui.InfoMsg("no drives registered")
				return nil
			}

			rows := make([][]string, 0, len(drives))
			for _, d := range drives {
				rows = append(rows, []string{fmt.Sprintf("%d", d.ID), d.MountPath})
			}
			ui.CompactTable([]string{"ID", "Mount Path"}, rows)
			return nil
		},
	}
}

func newDrivesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <drive-id>",
		Short: "Remove a registered drive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Catalog.DeleteDrive(context.Background(), id); err != nil {
				return err
			}
			ui.SuccessMsg("removed drive %d", id)
			return nil
		},
	}
}
