package snapshot

import (
	"fmt"
	"wastenot-e2e/cmd/wastenot/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type step int

const (
	stepSave step = 1 << iota
	stepValidate
)

// runSteps runs the requested steps for every resource, save and validate of
// one resource always run in that order.
func runSteps(cmd *cobra.Command, args []string, steps step) error {
	t, err := resolve(cmd, args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	out := utils.NewTable()
	out.AppendHeader(table.Row{"Resource", "Step", "Result", "Detail"})
	failed := 0
	for _, q := range t.queries {
		if steps&stepSave != 0 {
			s, err := t.verifier.Save(ctx, q)
			if err != nil {
				failed++
				out.AppendRow(table.Row{q.Name, "save", "FAIL", err.Error()})
				// a failed save leaves nothing to validate against
				continue
			}
			detail := s.Path
			if s.Records >= 0 {
				detail = fmt.Sprintf("%s (%d records, %d checked)", s.Path, s.Records, len(s.Checked))
			}
			out.AppendRow(table.Row{q.Name, "save", "ok", detail})
		}
		if steps&stepValidate != 0 {
			err := t.verifier.Validate(ctx, q)
			if err != nil {
				failed++
				out.AppendRow(table.Row{q.Name, "validate", "FAIL", err.Error()})
				continue
			}
			out.AppendRow(table.Row{q.Name, "validate", "ok", ""})
		}
	}
	out.Render()
	return utils.Failed(failed)
}

var saveCmd = &cobra.Command{
	Use:   "save <suite> [resource...]",
	Short: "Fetch each resource and overwrite its snapshot.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSteps(cmd, args, stepSave)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <suite> [resource...]",
	Short: "Compare each live resource against its saved snapshot.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSteps(cmd, args, stepValidate)
	},
}

var runCmd = &cobra.Command{
	Use:   "run <suite> [resource...]",
	Short: "Save then validate each resource.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSteps(cmd, args, stepSave|stepValidate)
	},
}
