package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bnema/atlas-crm-cli/internal/adapters/render/views"
	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newCallsCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "Call log and click-to-call",
	}

	cmd.AddCommand(newCallsListCmd(holder), newCallsClickCmd(holder))

	return cmd
}

func newCallsListCmd(holder *appHolder) *cobra.Command {
	var (
		leadID    int64
		direction string
		filter    domain.CallFilter
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List calls",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			switch domain.CallDirection(direction) {
			case "", domain.CallInbound, domain.CallOutbound:
			default:
				return fmt.Errorf("invalid --direction %q (want in or out)", direction)
			}
			filter.LeadID = domain.LeadID(leadID)
			filter.Direction = domain.CallDirection(direction)

			calls, err := refreshOnce(cmd, "Fetching calls...", application.NewCallsBinding(app.api, filter, bindingOptions(app)...))
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, calls, func(opts views.Options) string {
				return views.Calls(calls, opts)
			})
		}),
	}

	cmd.Flags().Int64Var(&leadID, "lead", 0, "Only calls with this lead")
	cmd.Flags().StringVar(&direction, "direction", "", "Only inbound (in) or outbound (out) calls")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum number of calls")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "Skip this many calls")
	addJSONFlag(cmd)

	return cmd
}

func newCallsClickCmd(holder *appHolder) *cobra.Command {
	var (
		phone  string
		leadID int64
	)

	cmd := &cobra.Command{
		Use:   "click",
		Short: "Ask the telephony bridge to dial a number",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			phone = strings.TrimSpace(phone)
			if phone == "" {
				return errors.New("--phone is required")
			}

			result, err := app.api.ClickToCall(cmd.Context(), phone, domain.LeadID(leadID))
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, result, func(views.Options) string {
				return formatResult("calling "+phone, result)
			})
		}),
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number to dial")
	cmd.Flags().Int64Var(&leadID, "lead", 0, "Lead the call belongs to")
	addJSONFlag(cmd)

	return cmd
}

func formatResult(title string, result map[string]any) string {
	keys := make([]string, 0, len(result))
	for key := range result {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := []string{title}
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("  %s: %v", key, result[key]))
	}
	return strings.Join(lines, "\n")
}
