package correct

import (
	"bytes"
	"fmt"
	"os"
	"wastenot-e2e/cmd/wastenot/globals"
	"wastenot-e2e/cmd/wastenot/utils"
	devenv "wastenot-e2e/dev/env"
	"wastenot-e2e/internal/catalog"
	"wastenot-e2e/internal/correction"
	"wastenot-e2e/internal/dbexec"
	"wastenot-e2e/internal/notify"

	"github.com/spf13/cobra"
)

const report_correct_divergence = "correct.divergence"

const defaultProfile = "production-write"

var (
	profileFlag     string
	setFlag         string
	mappingFlag     string
	dryRunFlag      bool
	concurrencyFlag int
	jsonFlag        string
	notifyFlag      bool
)

func init() {
	runCmd.Flags().StringVar(&profileFlag, "profile", "", "database profile (defaults to correction.profile, then "+defaultProfile+")")
	runCmd.Flags().StringVar(&setFlag, "set", "", "built-in correction set (defaults to correction.set, then wnug-438)")
	runCmd.Flags().StringVar(&mappingFlag, "mapping", "", "yaml mapping file used instead of a built-in set")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "run every check but skip the update")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", 0, "tasks run in parallel (defaults to 1)")
	runCmd.Flags().StringVar(&jsonFlag, "json", "", "write the machine readable report to this path")
	runCmd.Flags().BoolVar(&notifyFlag, "notify", false, "mail the summary using the notify config")
	RootCmd.AddCommand(runCmd)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func loadTasks(cfg globals.CorrectionConfig) (string, []correction.Task, error) {
	mapping := firstNonEmpty(mappingFlag, cfg.Mapping)
	if mapping != "" {
		path, err := devenv.ResolvePath(mapping)
		if err != nil {
			return "", nil, err
		}
		tasks, err := correction.LoadMapping(path)
		return "", tasks, err
	}
	set := firstNonEmpty(setFlag, cfg.Set, "wnug-438")
	tasks, err := catalog.LookupCorrection(set)
	return set, tasks, err
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every correction task and print the final summary.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)
		cfg := g.Config.Correction

		set, tasks, err := loadTasks(cfg)
		if err != nil {
			return err
		}

		// the read-only suite of the same name is expected to agree with the
		// write mapping, disagreements are flagged and the run proceeds
		if suite, ok := catalog.ConsistencySuites()[set]; ok {
			for _, d := range correction.Divergences(correction.ExpectedByKey(tasks), suite.Kitchens) {
				g.Tel.ReportWarning(report_correct_divergence, set, d.String())
			}
		}

		profileName := firstNonEmpty(profileFlag, cfg.Profile, defaultProfile)
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

		daysAhead := cfg.DaysAhead
		if daysAhead == 0 {
			daysAhead = correction.DefaultDaysAhead
		}
		workflow, err := correction.NewWorkflow(correction.WorkflowParams{
			Executor:  exec,
			Artifacts: artifacts,
			Clock:     g.Clock,
			Tel:       g.Tel,
		}, correction.Options{
			Tables:    globals.TablesOrDefault(cfg.Tables),
			DaysAhead: daysAhead,
			TimeOfDay: cfg.TimeOfDay,
			DryRun:    dryRunFlag,
		})
		if err != nil {
			return err
		}

		metrics, err := correction.NewMetrics(nil)
		if err != nil {
			return err
		}

		concurrency := cfg.Concurrency
		if concurrencyFlag > 0 {
			concurrency = concurrencyFlag
		}
		runner := correction.NewRunner(correction.RunnerParams{
			Workflow:    workflow,
			Clock:       g.Clock,
			Metrics:     metrics,
			Concurrency: concurrency,
			Tel:         g.Tel,
		})
		summary := runner.Run(ctx, tasks)

		var text bytes.Buffer
		err = correction.WriteText(&text, summary)
		if err != nil {
			return err
		}
		fmt.Print(text.String())

		reportPath := firstNonEmpty(jsonFlag, cfg.ReportPath)
		if reportPath != "" {
			err = writeReport(reportPath, correction.NewReport(summary, correction.RunInfo{
				Profile: profileName,
				DryRun:  dryRunFlag,
			}))
			if err != nil {
				return err
			}
		}

		if notifyFlag {
			mailer, err := notify.NewMailer(g.Config.Notify, g.Tel)
			if err != nil {
				return err
			}
			subject := fmt.Sprintf("WasteNot correction on %s: %s", profileName, summary.Counts())
			err = mailer.Send(ctx, subject, text.String())
			if err != nil {
				return fmt.Errorf("send summary: %w", err)
			}
		}

		return exitFor(summary)
	},
}

func exitFor(summary correction.Summary) error {
	code := correction.ExitCode(summary)
	if code == 0 {
		return nil
	}
	return utils.ExitError{Code: code}
}

func writeReport(path string, report correction.Report) error {
	path, err := devenv.ResolvePath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return correction.WriteJSON(f, report)
}
