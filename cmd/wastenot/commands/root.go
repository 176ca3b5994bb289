package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"wastenot-e2e/cmd/wastenot/commands/consistency"
	"wastenot-e2e/cmd/wastenot/commands/correct"
	"wastenot-e2e/cmd/wastenot/commands/snapshot"
	"wastenot-e2e/cmd/wastenot/commands/ui"
	"wastenot-e2e/cmd/wastenot/globals"
	"wastenot-e2e/cmd/wastenot/utils"
	devenv "wastenot-e2e/dev/env"
	"wastenot-e2e/internal/components/chrono"
	comptel "wastenot-e2e/internal/components/telemetry"
	"wastenot-e2e/lib/configutil"
	"wastenot-e2e/lib/restyutil"
	"wastenot-e2e/lib/telemetry"

	"github.com/spf13/cobra"
)

const httpDumpDir = "<dev_state>/http"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "wastenot",
	Short:         "wastenot verifies the WasteNot API, database and UI end to end.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context(), globals.Get(cmd.Context()))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", fmt.Sprintf("config file (defaults to $%s, then %s found upward from the cwd)", devenv.ConfigEnvVar, devenv.DefaultConfigName))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level and dump every HTTP message to "+httpDumpDir)

	rootCmd.AddCommand(snapshot.RootCmd)
	rootCmd.AddCommand(correct.RootCmd)
	rootCmd.AddCommand(consistency.RootCmd)
	rootCmd.AddCommand(ui.RootCmd)
}

func readConfig() (globals.Config, error) {
	if configPath == "" {
		return devenv.ReadSuiteConfig[globals.Config]()
	}
	path, err := devenv.ResolvePath(configPath)
	if err != nil {
		return globals.Config{}, err
	}
	return configutil.ReadConfig[globals.Config](path)
}

func setup(ctx context.Context, value *globals.Value) error {
	config, err := readConfig()
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if verbose {
		config.Telemetry.LogLevel = "debug"
	}

	logger := telemetry.InitSlog(config.Telemetry)
	tel := comptel.SlogAPI{Logger: logger}

	otel, err := telemetry.Setup(ctx, "wastenot-e2e", config.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	if otel.MeterProvider != nil {
		err = telemetry.InstrumentPerfStats(ctx, otel.MeterProvider, telemetry.DefaultPerfInterval)
		if err != nil {
			tel.ReportWarning("root.perf-stats", err)
		}
	}

	clock, err := chrono.NewStandardImpl(config.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	value.Config = config
	value.Tel = tel
	value.Clock = clock
	value.Verbose = verbose
	value.Telemetry = otel

	if verbose {
		output, err := restyutil.NewFilesystemOutput(httpDumpDir, tel)
		if err != nil {
			tel.ReportWarning("root.http-dump", err)
		} else {
			value.HTTPOutput = output
		}
	}
	return nil
}

// ExecuteContext runs the command tree and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	value := &globals.Value{}
	err := rootCmd.ExecuteContext(globals.Set(ctx, value))

	shutdownErr := value.Telemetry.Shutdown(context.Background())
	if shutdownErr != nil {
		fmt.Fprintln(os.Stderr, "telemetry shutdown:", shutdownErr)
	}

	if err != nil {
		var exit utils.ExitError
		if !errors.As(err, &exit) || exit.Err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	return utils.ExitCode(err)
}
