package main

import (
	"github.com/spf13/cobra"

	"github.com/jacentio/shoppinglist"
)

func (a *app) countCommand() *cobra.Command {
	var q shoppinglist.ItemQuery
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count items per list",
		Long:  `Count items per list id. Lists without a matching item are left out.`,
		Example: `  shoppinglist count
  shoppinglist count --checked`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkedFilter(cmd, &q); err != nil {
				return err
			}
			counts, err := a.repo.CountItemsByList(cmd.Context(), q)
			if err != nil {
				return describe(err)
			}
			return a.print(counts)
		},
	}
	cmd.Flags().StringVar(&q.ListID, "list", "", "only items of this list")
	cmd.Flags().Bool("checked", false, "only checked (or, with =false, unchecked) items")
	return cmd
}

func (a *app) indexesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the type and list indexes if missing",
		Long: `Create the type and list indexes if missing and wait until they are
active. Queries fall back to table scans until then.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.repo.EnsureIndexes(cmd.Context()); err != nil {
				return describe(err)
			}
			a.logger.Info("indexes ready", "table", a.cfg.Table)
			return nil
		},
	}
}
