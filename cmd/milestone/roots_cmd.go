package main

import (
	"context"
	"fmt"

	"github.com/milestonehq/milestone/internal/ui"
	"github.com/spf13/cobra"
)

func newRootsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roots",
		Short: "Manage indexed subtrees of registered drives",
	}

	cmd.AddCommand(newRootsAddCmd())
	cmd.AddCommand(newRootsListCmd())
	cmd.AddCommand(newRootsExcludeCmd())
	cmd.AddCommand(newRootsRemoveCmd())

	return cmd
}

func newRootsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <drive-id> <path>",
		Short: "Add a root directory to scan under a registered drive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			driveID, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			root, err := a.Catalog.AddRoot(context.Background(), driveID, args[1])
			if err != nil {
				return err
			}
			ui.SuccessMsg("added root %d: %s", root.ID, root.Path)
			return nil
		},
	}
}

func newRootsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List indexed roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			roots, err := a.Catalog.ListRoots(context.Background(), nil)
			if err != nil {
				return err
			}
			if len(roots) == 0 {
				ui.InfoMsg("no roots configured")
				return nil
			}

			rows := make([][]string, 0, len(roots))
			for _, r := range roots {
				rows = append(rows, []string{
					fmt.Sprintf("%d", r.ID),
					fmt.Sprintf("%d", r.DriveID),
					r.Path,
					fmt.Sprintf("%v", r.Excluded),
				})
			}
			ui.CompactTable([]string{"ID", "Drive", "Path", "Excluded"}, rows)
			return nil
		},
	}
}

func newRootsExcludeCmd() *cobra.Command {
	var excluded bool

	cmd := &cobra.Command{
		Use:   "exclude <root-id>",
		Short: "Set whether a root is excluded from scans and the live watch",
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

			if err := a.Catalog.SetRootExcluded(context.Background(), id, excluded); err != nil {
				return err
			}
			ui.SuccessMsg("root %d excluded=%v", id, excluded)
			return nil
		},
	}

	cmd.Flags().BoolVar(&excluded, "excluded", true, "exclude (true) or re-include (false) the root")
	return cmd
}

func newRootsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <root-id>",
		Short: "Remove a root",
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

			if err := a.Catalog.DeleteRoot(context.Background(), id); err != nil {
				return err
			}
			ui.SuccessMsg("removed root %d", id)
			return nil
		},
	}
}
