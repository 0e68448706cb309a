package main

import (
	"context"
	"fmt"

	"github.com/milestonehq/milestone/internal/catalog"
	"github.com/milestonehq/milestone/internal/ui"
	"github.com/spf13/cobra"
)

func newItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Inspect and curate media items (logical titles grouping one or more files)",
	}

	cmd.AddCommand(newItemsListCmd())
	cmd.AddCommand(newItemsShowCmd())
	cmd.AddCommand(newItemsProcessUnlinkedCmd())
	cmd.AddCommand(newItemsMergeCmd())
	cmd.AddCommand(newItemsSplitCmd())

	return cmd
}

func newItemsListCmd() *cobra.Command {
	var minCopies int
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List media items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			filter := catalog.ItemFilter{Search: search, Page: 1, PageSize: 100}
			if minCopies > 0 {
				filter.MinCopies = &minCopies
			}

			items, total, err := a.Catalog.ListItemsFiltered(context.Background(), filter)
			if err != nil {
				return err
			}
			if total == 0 {
				ui.InfoMsg("no items found")
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
					string(it.Status),
					fmt.Sprintf("%d", it.Copies),
				})
			}
			ui.CompactTable([]string{"ID", "Type", "Title", "Status", "Copies"}, rows)
			fmt.Printf("\n%d of %d items shown\n", len(items), total)
			return nil
		},
	}

	cmd.Flags().IntVar(&minCopies, "min-copies", 0, "only show items with at least this many copies")
	cmd.Flags().StringVar(&search, "search", "", "filter by title substring")
	return cmd
}

func newItemsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show an item and its linked files",
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

			ctx := context.Background()
			item, err := a.Catalog.GetItem(ctx, id)
			if err != nil {
				return err
			}
			files, err := a.Catalog.ItemFiles(ctx, id)
			if err != nil {
				return err
			}

			title := ""
			if item.Title != nil {
				title = *item.Title
			}
			fmt.Printf("item %d: %s (%s) [%s]\n\n", item.ID, title, item.Type, item.Status)

			rows := make([][]string, 0, len(files))
			for _, f := range files {
				rows = append(rows, []string{
					fmt.Sprintf("%d", f.ID),
					f.Path,
					ui.FormatBytes(f.Size),
					string(f.HashStatus),
					fmt.Sprintf("%v", f.Missing()),
				})
			}
			ui.CompactTable([]string{"File ID", "Path", "Size", "Hash Status", "Missing"}, rows)
			return nil
		},
	}
}

func newItemsProcessUnlinkedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process-unlinked",
		Short: "Group every present file that has no item yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Matcher.ProcessUnlinked(context.Background())
			if err != nil {
				return err
			}
			ui.SuccessMsg("linked %d files", n)
			return nil
		},
	}
}

func newItemsMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <target-item-id> <source-item-id>...",
		Short: "Merge one or more items into a target item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetID, err := parseID(args[0])
			if err != nil {
				return err
			}
			sourceIDs := make([]int64, 0, len(args)-1)
			for _, s := range args[1:] {
				id, err := parseID(s)
				if err != nil {
					return err
				}
				sourceIDs = append(sourceIDs, id)
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Matcher.Merge(context.Background(), targetID, sourceIDs); err != nil {
				return err
			}
			ui.SuccessMsg("merged %d item(s) into %d", len(sourceIDs), targetID)
			return nil
		},
	}
}

func newItemsSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <file-id>",
		Short: "Split a file out of its current item into a new item of its own",
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

			if err := a.Matcher.Split(context.Background(), fileID); err != nil {
				return err
			}
			ui.SuccessMsg("split file %d into a new item", fileID)
			return nil
		},
	}
}
