package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/shoppinglist"
)

func (a *app) itemsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage the items of shopping lists",
	}
	cmd.AddCommand(
		a.itemsAddCommand(),
		a.itemsListCommand(),
		a.itemsCheckCommand(),
		a.itemsDeleteCommand(),
	)
	return cmd
}

func (a *app) itemsAddCommand() *cobra.Command {
	var checked bool
	cmd := &cobra.Command{
		Use:   "add LIST_ID TITLE...",
		Short: "Add items to a shopping list",
		Long: `Add items to a shopping list in one batch.

Every item of the batch gets the same timestamps. An item that fails is
reported without affecting the others.`,
		Example: `  shoppinglist items add list:0Lx... Mangos Oranges Pears`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.repo.Read(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}

			items := make([]shoppinglist.Item, 0, len(args)-1)
			for _, title := range args[1:] {
				items = append(items, a.factory.NewShoppingListItem(shoppinglist.ItemFields{Title: title, Checked: checked}, list))
			}
			results, err := a.repo.CreateItemsBulk(cmd.Context(), a.factory.NewListOfShoppingListItems(items...))
			if err != nil {
				return describe(err)
			}

			type result struct {
				Item  any    `json:"item,omitempty"`
				Error string `json:"error,omitempty"`
			}
			out := make([]result, len(results))
			var errs []error
			for i, res := range results {
				if res.Err != nil {
					out[i].Error = res.Err.Error()
					errs = append(errs, fmt.Errorf("%q: %w", args[i+1], res.Err))
					continue
				}
				out[i].Item = res.Record.Document()
			}
			if err := a.print(out); err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&checked, "checked", false, "add the items already checked")
	return cmd
}

func (a *app) itemsListCommand() *cobra.Command {
	var q shoppinglist.ItemQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Example: `  shoppinglist items list --list list:0Lx...
  shoppinglist items list --checked=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkedFilter(cmd, &q); err != nil {
				return err
			}
			items, err := a.repo.FindItems(cmd.Context(), q)
			if err != nil {
				return describe(err)
			}
			return a.print(documents(items, shoppinglist.Item.Document))
		},
	}
	cmd.Flags().StringVar(&q.ListID, "list", "", "only items of this list")
	cmd.Flags().Bool("checked", false, "only checked (or, with =false, unchecked) items")
	cmd.Flags().StringSliceVar(&q.Fields, "fields", nil, "attributes to fetch besides the record fields")
	return cmd
}

func (a *app) itemsCheckCommand() *cobra.Command {
	var unchecked bool
	cmd := &cobra.Command{
		Use:   "check ID",
		Short: "Check off an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.repo.ReadItem(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			updated, err := a.repo.UpdateItem(cmd.Context(), item.WithChecked(!unchecked))
			if err != nil {
				return describe(err)
			}
			return a.print(updated.Document())
		},
	}
	cmd.Flags().BoolVar(&unchecked, "unchecked", false, "clear the check instead")
	return cmd
}

func (a *app) itemsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.repo.ReadItem(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			deleted, err := a.repo.DeleteItem(cmd.Context(), item)
			if err != nil {
				return describe(err)
			}
			return a.print(deleted.Document())
		},
	}
}

// checkedFilter sets q.Checked when --checked was given.
func checkedFilter(cmd *cobra.Command, q *shoppinglist.ItemQuery) error {
	if !cmd.Flags().Changed("checked") {
		return nil
	}
	checked, err := cmd.Flags().GetBool("checked")
	if err != nil {
		return err
	}
	q.Checked = &checked
	return nil
}
