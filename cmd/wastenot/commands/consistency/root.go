package consistency

import (
	"fmt"
	"wastenot-e2e/cmd/wastenot/globals"
	"wastenot-e2e/cmd/wastenot/utils"
	"wastenot-e2e/internal/catalog"
	checks "wastenot-e2e/internal/consistency"
	"wastenot-e2e/internal/dbexec"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const defaultProfile = "production-read"

var RootCmd = &cobra.Command{
	Use:   "consistency",
	Short: "Read-only kitchen/campus consistency checks.",
}

var profileFlag string

func init() {
	checkCmd.Flags().StringVar(&profileFlag, "profile", "", "database profile (defaults to consistency.profile, then "+defaultProfile+")")
	RootCmd.AddCommand(checkCmd)
	RootCmd.AddCommand(suitesCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <suite>",
	Short: "Run every check of a consistency suite.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)
		cfg := g.Config.Consistency

		suite, err := catalog.LookupConsistency(args[0])
		if err != nil {
			return err
		}

		profileName := profileFlag
		if profileName == "" {
			profileName = cfg.Profile
		}
		if profileName == "" {
			profileName = defaultProfile
		}
		profile, err := g.Config.Databases.Lookup(profileName)
		if err != nil {
			return err
		}
		exec, closeExec, err := dbexec.Open(ctx, profile, g.Tel)
		if err != nil {
			return err
		}
		defer closeExec()

		style, err := dbexec.ParseCSVStyle(cfg.CSVStyle)
		if err != nil {
			return err
		}
		artifacts, err := dbexec.NewDirArtifacts(cfg.ArtifactDir, style, g.Tel)
		if err != nil {
			return err
		}

		checker, err := checks.NewChecker(checks.CheckerParams{
			Executor:  exec,
			Artifacts: artifacts,
			Clock:     g.Clock,
			Tables:    globals.TablesOrDefault(cfg.Tables),
			Tel:       g.Tel,
		})
		if err != nil {
			return err
		}

		results := checker.RunSuite(ctx, suite)

		t := utils.NewTable()
		t.SetTitle(fmt.Sprintf("%s on %s", suite.Name, profileName))
		t.AppendHeader(table.Row{"Check", "Result", "Detail"})
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				t.AppendRow(table.Row{r.Name, "FAIL", r.Err.Error()})
				continue
			}
			t.AppendRow(table.Row{r.Name, "ok", ""})
		}
		t.Render()
		return utils.Failed(failed)
	},
}

var suitesCmd = &cobra.Command{
	Use:   "suites",
	Short: "List the built-in consistency suites.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := utils.NewTable()
		t.AppendHeader(table.Row{"Suite", "Kitchens", "Campus data required", "Empty campuses"})
		for _, name := range []string{"wnug-438", "wnug-550"} {
			suite, err := catalog.LookupConsistency(name)
			if err != nil {
				return err
			}
			t.AppendRow(table.Row{suite.Name, len(suite.Kitchens), suite.RequireCampusData, len(suite.EmptyCampuses)})
		}
		t.Render()
		return nil
	},
}
