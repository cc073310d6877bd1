package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDarkModeCmd(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:       "darkmode [on|off|toggle]",
		Short:     "Show or change the dark mode preference",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off", "toggle"},
		RunE: withApp(holder, func(cmd *cobra.Command, app *app, args []string) error {
			ctx := cmd.Context()

			var (
				enabled bool
				err     error
			)
			switch {
			case len(args) == 0:
				enabled, err = app.prefs.DarkMode(ctx)
			case args[0] == "toggle":
				enabled, err = app.prefs.ToggleDarkMode(ctx)
			default:
				enabled = args[0] == "on"
				err = app.prefs.SetDarkMode(ctx, enabled)
			}
			if err != nil {
				return err
			}

			state := "off"
			if enabled {
				state = "on"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "dark mode: %s\n", state)
			return err
		}),
	}
}
