package cmd

import (
	"github.com/bnema/atlas-crm-cli/internal/adapters/render/views"
	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/spf13/cobra"
)

func newAnalyticsCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show the dashboard summary",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			summary, err := refreshOnce(cmd, "Fetching analytics...", application.NewDashboardBinding(app.api, bindingOptions(app)...))
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, summary, func(opts views.Options) string {
				return views.Analytics(summary, opts)
			})
		}),
	}
	addJSONFlag(cmd)

	return cmd
}
