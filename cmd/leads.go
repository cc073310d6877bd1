package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/atlas-crm-cli/internal/adapters/render/views"
	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newLeadsCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List and edit leads",
	}

	cmd.AddCommand(
		newLeadsListCmd(holder),
		newLeadsShowCmd(holder),
		newLeadsCreateCmd(holder),
		newLeadsMoveCmd(holder),
		newLeadsAssignCmd(holder),
		newLeadsTimelineCmd(holder),
		newLeadsKanbanCmd(holder),
	)

	return cmd
}

func newLeadsListCmd(holder *appHolder) *cobra.Command {
	var (
		stageID, managerID int64
		filter             domain.LeadFilter
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			filter.StageID = domain.StageID(stageID)
			filter.ManagerID = domain.UserID(managerID)

			var leads []domain.Lead
			err := fetch(cmd, "Fetching leads...", func(ctx context.Context) error {
				var err error
				leads, err = app.api.ListLeads(ctx, filter)
				return err
			})
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, leads, func(opts views.Options) string {
				return views.Leads(leads, opts)
			})
		}),
	}

	cmd.Flags().Int64Var(&stageID, "stage", 0, "Only leads in this stage")
	cmd.Flags().Int64Var(&managerID, "manager", 0, "Only leads of this manager")
	cmd.Flags().StringVar(&filter.Source, "source", "", "Only leads from this source")
	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "Search by name or phone")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum number of leads")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "Skip this many leads")
	addJSONFlag(cmd)

	return cmd
}

func newLeadsShowCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show LEAD_ID",
		Short: "Show one lead",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			id, err := parseID(args[0], "lead")
			if err != nil {
				return err
			}

			lead, err := app.api.GetLead(cmd.Context(), domain.LeadID(id))
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, lead, func(opts views.Options) string {
				return views.Leads([]domain.Lead{lead}, opts)
			})
		}),
	}
	addJSONFlag(cmd)

	return cmd
}

func newLeadsCreateCmd(holder *appHolder) *cobra.Command {
	var (
		in                 domain.LeadCreate
		stageID, managerID int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a lead",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			in.Name = strings.TrimSpace(in.Name)
			in.Phone = strings.TrimSpace(in.Phone)
			if in.Name == "" || in.Phone == "" {
				return errors.New("--name and --phone are required")
			}
			if stageID > 0 {
				stage := domain.StageID(stageID)
				in.StageID = &stage
			}
			if managerID > 0 {
				manager := domain.UserID(managerID)
				in.ManagerID = &manager
			}

			lead, err := app.api.CreateLead(cmd.Context(), in)
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, lead, func(opts views.Options) string {
				return views.Leads([]domain.Lead{lead}, opts)
			})
		}),
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Lead name")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Lead phone number")
	cmd.Flags().StringVar(&in.Source, "source", "", "Lead source (instagram, whatsapp, ...)")
	cmd.Flags().StringVar(&in.Language, "language", "", "Preferred language")
	cmd.Flags().Int64Var(&stageID, "stage", 0, "Initial stage")
	cmd.Flags().Int64Var(&managerID, "manager", 0, "Assigned manager")
	cmd.Flags().StringSliceVar(&in.Tags, "tag", nil, "Tag (repeatable)")
	addJSONFlag(cmd)

	return cmd
}

func newLeadsMoveCmd(holder *appHolder) *cobra.Command {
	var stageID int64

	cmd := &cobra.Command{
		Use:   "move LEAD_ID",
		Short: "Move a lead to another stage",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			if stageID <= 0 {
				return errors.New("--stage is required")
			}
			stage := domain.StageID(stageID)
			return updateLead(cmd, app, args[0], domain.LeadUpdate{StageID: &stage})
		}),
	}

	cmd.Flags().Int64Var(&stageID, "stage", 0, "Target stage")
	addJSONFlag(cmd)

	return cmd
}

func newLeadsAssignCmd(holder *appHolder) *cobra.Command {
	var managerID int64

	cmd := &cobra.Command{
		Use:   "assign LEAD_ID",
		Short: "Assign a lead to a manager",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			if managerID <= 0 {
				return errors.New("--manager is required")
			}
			manager := domain.UserID(managerID)
			return updateLead(cmd, app, args[0], domain.LeadUpdate{ManagerID: &manager})
		}),
	}

	cmd.Flags().Int64Var(&managerID, "manager", 0, "Manager user id")
	addJSONFlag(cmd)

	return cmd
}

func updateLead(cmd *cobra.Command, app *app, rawID string, in domain.LeadUpdate) error {
	id, err := parseID(rawID, "lead")
	if err != nil {
		return err
	}

	lead, err := app.api.UpdateLead(cmd.Context(), domain.LeadID(id), in)
	if err != nil {
		return err
	}

	return writeOutput(cmd, app, lead, func(opts views.Options) string {
		return views.Leads([]domain.Lead{lead}, opts)
	})
}

func newLeadsTimelineCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline LEAD_ID",
		Short: "Show a lead's activity timeline",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			id, err := parseID(args[0], "lead")
			if err != nil {
				return err
			}

			activities, err := app.api.LeadTimeline(cmd.Context(), domain.LeadID(id))
			if err != nil {
				return fmt.Errorf("lead %d timeline: %w", id, err)
			}

			return writeOutput(cmd, app, activities, func(opts views.Options) string {
				return views.Timeline(activities, opts)
			})
		}),
	}
	addJSONFlag(cmd)

	return cmd
}

func newLeadsKanbanCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kanban",
		Short: "Show leads grouped by stage of the default pipeline",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			data, err := refreshOnce(cmd, "Fetching board...", application.NewKanbanBinding(app.api, bindingOptions(app)...))
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, data, func(opts views.Options) string {
				return views.Kanban(data, opts)
			})
		}),
	}
	addJSONFlag(cmd)

	return cmd
}
