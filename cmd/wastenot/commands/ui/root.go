package ui

import (
	"fmt"
	"wastenot-e2e/cmd/wastenot/globals"
	"wastenot-e2e/internal/uicheck"
	"wastenot-e2e/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "ui",
	Short: "Browser checks of the Café Manager web UI.",
}

var (
	driverFlag string
	urlFlag    string
)

func init() {
	loginCheckCmd.Flags().StringVar(&driverFlag, "driver", "", "rod (headless chrome) or static (served html only)")
	loginCheckCmd.Flags().StringVar(&urlFlag, "url", "", "login page url (defaults to ui.login_url)")
	RootCmd.AddCommand(loginCheckCmd)
}

func openDriver(cmd *cobra.Command, g *globals.Value) (uicheck.Driver, error) {
	name := driverFlag
	if name == "" {
		name = g.Config.UI.Driver
	}
	switch name {
	case "", "rod":
		return uicheck.NewRodDriver(cmd.Context(), g.Config.UI.Rod, g.Tel)
	case "static":
		client := resty.New()
		restyutil.InstrumentClient(client, g.Tel, nil, g.HTTPOutput)
		return uicheck.NewStaticDriver(client, g.Tel), nil
	default:
		return nil, fmt.Errorf("unknown ui driver %q (want rod or static)", name)
	}
}

var loginCheckCmd = &cobra.Command{
	Use:   "login-check",
	Short: "Check that the login page renders its heading and links.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		url := urlFlag
		if url == "" {
			url = g.Config.UI.LoginURL
		}
		if url == "" {
			url = uicheck.DefaultLoginURL
		}

		driver, err := openDriver(cmd, g)
		if err != nil {
			return err
		}
		defer driver.Close()

		page, err := driver.Open(ctx)
		if err != nil {
			return err
		}
		defer page.Close()

		err = uicheck.Check(ctx, page, url, uicheck.LoginPage())
		if err != nil {
			return err
		}
		fmt.Printf("login page ok: %s\n", url)
		return nil
	},
}
