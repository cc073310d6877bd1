package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/adapters/render/views"
	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newBroadcastsCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broadcasts",
		Short: "Mass WhatsApp broadcasts",
	}

	cmd.AddCommand(
		newBroadcastsListCmd(holder),
		newBroadcastsCreateCmd(holder),
		newBroadcastsScheduleCmd(holder),
	)

	return cmd
}

func newBroadcastsListCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List broadcasts",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			broadcasts, err := refreshOnce(cmd, "Fetching broadcasts...", application.NewBroadcastsBinding(app.api, bindingOptions(app)...))
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, broadcasts, func(opts views.Options) string {
				return views.Broadcasts(broadcasts, nil, opts)
			})
		}),
	}
	addJSONFlag(cmd)

	return cmd
}

func newBroadcastsCreateCmd(holder *appHolder) *cobra.Command {
	var (
		in      domain.BroadcastCreate
		segment []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft broadcast",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			if strings.TrimSpace(in.Name) == "" {
				return errors.New("--name is required")
			}
			if strings.TrimSpace(in.Body) == "" && in.TemplateName == "" {
				return errors.New("--body or --template is required")
			}
			parsed, err := parseSegment(segment)
			if err != nil {
				return err
			}
			in.Segment = parsed

			broadcast, err := app.api.CreateBroadcast(cmd.Context(), in)
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, broadcast, func(opts views.Options) string {
				return views.Broadcasts([]domain.Broadcast{broadcast}, nil, opts)
			})
		}),
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Broadcast name")
	cmd.Flags().StringVar(&in.Body, "body", "", "Message body")
	cmd.Flags().StringVar(&in.TemplateName, "template", "", "WhatsApp template name")
	cmd.Flags().StringSliceVar(&segment, "segment", nil, "Segment filter as key=value (repeatable)")
	addJSONFlag(cmd)

	return cmd
}

func newBroadcastsScheduleCmd(holder *appHolder) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "schedule BROADCAST_ID",
		Short: "Schedule a broadcast for sending",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			id, err := parseID(args[0], "broadcast")
			if err != nil {
				return err
			}
			when, err := time.Parse(time.RFC3339, strings.TrimSpace(at))
			if err != nil {
				return fmt.Errorf("invalid --at %q (want RFC3339, e.g. 2026-03-01T09:00:00Z): %w", at, err)
			}

			broadcast, err := app.api.ScheduleBroadcast(cmd.Context(), domain.BroadcastID(id), when)
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, broadcast, func(opts views.Options) string {
				return views.Broadcasts([]domain.Broadcast{broadcast}, nil, opts)
			})
		}),
	}

	cmd.Flags().StringVar(&at, "at", "", "Send time (RFC3339)")
	_ = cmd.MarkFlagRequired("at")
	addJSONFlag(cmd)

	return cmd
}

func parseSegment(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	segment := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --segment %q (want key=value)", pair)
		}
		segment[key] = strings.TrimSpace(value)
	}
	return segment, nil
}
