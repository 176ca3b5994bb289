package snapshot

import (
	"time"
	"wastenot-e2e/cmd/wastenot/globals"
	"wastenot-e2e/cmd/wastenot/utils"
	snap "wastenot-e2e/internal/snapshot"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g := globals.Get(cmd.Context())

		store, err := snap.NewStore(g.Config.Snapshots.Dir)
		if err != nil {
			return err
		}
		entries, err := store.List()
		if err != nil {
			return err
		}

		t := utils.NewTable()
		t.SetTitle(store.Dir())
		t.AppendHeader(table.Row{"Name", "Size", "Modified"})
		for _, e := range entries {
			t.AppendRow(table.Row{e.Name, e.Size, e.ModTime.Format(time.DateTime)})
		}
		t.Render()
		return nil
	},
}
