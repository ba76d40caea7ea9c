package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts by lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			health, err := store.Health(cmd.Context())
			if err != nil {
				return err
			}

			t := newTable()
			t.AppendHeader(table.Row{"State", "Count"})
			t.AppendRows([]table.Row{
				{"pending", health.Pending},
				{"processing", health.Processing},
				{"completed", health.Completed},
				{"failed", health.Failed},
				{"no_match", health.NoMatch},
				{"conflict", health.Conflict},
			})
			t.AppendFooter(table.Row{"total", health.Total})
			t.Render()
			return nil
		},
	}
}
