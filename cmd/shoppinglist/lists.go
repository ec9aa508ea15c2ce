package main

import (
	"github.com/spf13/cobra"

	"github.com/jacentio/shoppinglist"
)

func (a *app) listsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Create, read, update and delete shopping lists",
	}
	cmd.AddCommand(
		a.listsCreateCommand(),
		a.listsGetCommand(),
		a.listsUpdateCommand(),
		a.listsDeleteCommand(),
		a.listsFindCommand(),
	)
	return cmd
}

func (a *app) listsCreateCommand() *cobra.Command {
	var fields shoppinglist.ListFields
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a shopping list",
		Example: `  shoppinglist lists create --title Groceries
  shoppinglist lists create --title "Camping Supplies" --place "Outdoor Shop"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.repo.Create(cmd.Context(), a.factory.NewShoppingList(fields))
			if err != nil {
				return describe(err)
			}
			return a.print(list.Document())
		},
	}
	cmd.Flags().StringVar(&fields.Title, "title", "", "list title")
	cmd.Flags().StringVar(&fields.Place, "place", "", "where to shop")
	cmd.Flags().BoolVar(&fields.Checked, "checked", false, "mark the list as done")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (a *app) listsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a shopping list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.repo.Read(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			return a.print(list.Document())
		},
	}
}

func (a *app) listsUpdateCommand() *cobra.Command {
	var rev string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a shopping list",
		Long: `Change a shopping list.

With --rev the update only succeeds if the list is still at that revision.
Without it the current revision is used.`,
		Example: `  shoppinglist lists update list:0Lx... --title "Weekly Groceries"
  shoppinglist lists update list:0Lx... --checked --rev 2-4f9c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.readList(cmd, args[0], rev)
			if err != nil {
				return describe(err)
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				title, _ := flags.GetString("title")
				list = list.WithTitle(title)
			}
			if flags.Changed("place") {
				place, _ := flags.GetString("place")
				list = list.WithPlace(place)
			}
			if flags.Changed("checked") {
				checked, _ := flags.GetBool("checked")
				list = list.WithChecked(checked)
			}

			updated, err := a.repo.Update(cmd.Context(), list)
			if err != nil {
				return describe(err)
			}
			return a.print(updated.Document())
		},
	}
	cmd.Flags().StringVar(&rev, "rev", "", "expected revision")
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("place", "", "new place")
	cmd.Flags().Bool("checked", false, "mark the list as done")
	return cmd
}

func (a *app) listsDeleteCommand() *cobra.Command {
	var rev string
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a shopping list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.readList(cmd, args[0], rev)
			if err != nil {
				return describe(err)
			}
			deleted, err := a.repo.Delete(cmd.Context(), list)
			if err != nil {
				return describe(err)
			}
			return a.print(deleted.Document())
		},
	}
	cmd.Flags().StringVar(&rev, "rev", "", "expected revision")
	return cmd
}

func (a *app) listsFindCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "find",
		Short: "List every shopping list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lists, err := a.repo.Find(cmd.Context())
			if err != nil {
				return describe(err)
			}
			return a.print(documents(lists, shoppinglist.ShoppingList.Document))
		},
	}
}

// readList reads a list and, when rev is set, pins it to that revision so
// the following write fails on a concurrent change.
func (a *app) readList(cmd *cobra.Command, id, rev string) (shoppinglist.ShoppingList, error) {
	list, err := a.repo.Read(cmd.Context(), id)
	if err != nil || rev == "" {
		return list, err
	}
	doc := list.Document()
	doc.Rev = rev
	return shoppinglist.ListFromDocument(doc)
}

func documents[R any, D any](records []R, document func(R) D) []D {
	out := make([]D, 0, len(records))
	for _, rec := range records {
		out = append(out, document(rec))
	}
	return out
}
