package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var errAppNotWired = errors.New("application is not wired")

func Execute() error {
	return newRootCmd().Execute()
}

// appHolder is filled in by the root PersistentPreRunE once flags are parsed.
type appHolder struct {
	app *app
}

func (h *appHolder) get() (*app, error) {
	if h.app == nil {
		return nil, errAppNotWired
	}
	return h.app, nil
}

func newRootCmd() *cobra.Command {
	holder := &appHolder{}

	rootCmd := &cobra.Command{
		Use:           "atlas",
		Short:         "Atlas CRM client: leads, dialogs, calls and broadcasts from the terminal",
		Long:          "atlas talks to an Atlas CRM server: it keeps your session, lists and edits leads, dialogs, calls and broadcasts, and can watch live push events.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipsWiring(cmd) {
				return nil
			}

			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolve home directory: %w", err)
			}
			cfg, err := loadConfig(home, cmd)
			if err != nil {
				return err
			}

			app, err := wireApp(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			holder.app = app
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if holder.app != nil {
				holder.app.close()
				holder.app = nil
			}
		},
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "Log requests and push activity to stderr")
	rootCmd.PersistentFlags().Duration("timeout", defaultTimeout, "Per-request timeout")
	rootCmd.PersistentFlags().String("server", "", "Server URL (overrides server.url / ATLAS_SERVER_URL)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(holder),
		newLogoutCmd(holder),
		newSessionCmd(holder),
		newLeadsCmd(holder),
		newDialogsCmd(holder),
		newMessagesCmd(holder),
		newChatCmd(holder),
		newCallsCmd(holder),
		newBroadcastsCmd(holder),
		newPipelinesCmd(holder),
		newStagesCmd(holder),
		newUsersCmd(holder),
		newRulesCmd(holder),
		newAnalyticsCmd(holder),
		newDarkModeCmd(holder),
		newWatchCmd(holder),
	)

	return rootCmd
}

func skipsWiring(cmd *cobra.Command) bool {
	return cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion"
}

// withApp adapts a RunE that needs the wired application.
func withApp(holder *appHolder, run func(cmd *cobra.Command, app *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := holder.get()
		if err != nil {
			return err
		}
		return run(cmd, app, args)
	}
}

// withSession is withApp for commands that need a stored access token.
func withSession(holder *appHolder, run func(cmd *cobra.Command, app *app, args []string) error) func(*cobra.Command, []string) error {
	return withApp(holder, func(cmd *cobra.Command, app *app, args []string) error {
		if err := app.requireSession(); err != nil {
			return err
		}
		return run(cmd, app, args)
	})
}
