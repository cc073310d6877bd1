package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/atlas-crm-cli/internal/adapters/render/views"
	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newPipelinesCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipelines",
		Short: "Sales pipelines and their stages",
	}

	cmd.AddCommand(newPipelinesListCmd(holder), newPipelinesCreateCmd(holder))

	return cmd
}

func newPipelinesListCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pipelines with their stages",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			pipelines, err := refreshOnce(cmd, "Fetching pipelines...", application.NewPipelinesBinding(app.api, bindingOptions(app)...))
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, pipelines, func(opts views.Options) string {
				return views.Pipelines(pipelines, opts)
			})
		}),
	}
	addJSONFlag(cmd)

	return cmd
}

func newPipelinesCreateCmd(holder *appHolder) *cobra.Command {
	var in domain.PipelineCreate

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pipeline",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			if strings.TrimSpace(in.Name) == "" {
				return errors.New("--name is required")
			}

			pipeline, err := app.api.CreatePipeline(cmd.Context(), in)
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, pipeline, func(opts views.Options) string {
				return views.Pipelines([]domain.Pipeline{pipeline}, opts)
			})
		}),
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Pipeline name")
	cmd.Flags().BoolVar(&in.IsDefault, "default", false, "Make it the default pipeline")
	addJSONFlag(cmd)

	return cmd
}

func newStagesCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Create, edit and delete pipeline stages",
	}

	cmd.AddCommand(newStagesCreateCmd(holder), newStagesUpdateCmd(holder), newStagesDeleteCmd(holder))

	return cmd
}

func newStagesCreateCmd(holder *appHolder) *cobra.Command {
	var (
		pipelineID int64
		in         domain.StageCreate
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a stage to a pipeline",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			if pipelineID <= 0 || strings.TrimSpace(in.Name) == "" {
				return errors.New("--pipeline and --name are required")
			}
			in.PipelineID = domain.PipelineID(pipelineID)

			stage, err := app.api.CreateStage(cmd.Context(), in)
			if err != nil {
				return err
			}

			return writeStage(cmd, app, stage)
		}),
	}

	cmd.Flags().Int64Var(&pipelineID, "pipeline", 0, "Pipeline id")
	cmd.Flags().StringVar(&in.Name, "name", "", "Stage name")
	cmd.Flags().IntVar(&in.Position, "position", 0, "Column position")
	cmd.Flags().StringVar(&in.Color, "color", "#6b7280", "Column color")
	addJSONFlag(cmd)

	return cmd
}

func newStagesUpdateCmd(holder *appHolder) *cobra.Command {
	var (
		name, color string
		position    int
	)

	cmd := &cobra.Command{
		Use:   "update STAGE_ID",
		Short: "Rename, move or recolor a stage",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			id, err := parseID(args[0], "stage")
			if err != nil {
				return err
			}

			var in domain.StageUpdate
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("position") {
				in.Position = &position
			}
			if cmd.Flags().Changed("color") {
				in.Color = &color
			}
			if in.Name == nil && in.Position == nil && in.Color == nil {
				return errors.New("nothing to update: pass --name, --position or --color")
			}

			stage, err := app.api.UpdateStage(cmd.Context(), domain.StageID(id), in)
			if err != nil {
				return err
			}

			return writeStage(cmd, app, stage)
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().IntVar(&position, "position", 0, "New position")
	cmd.Flags().StringVar(&color, "color", "", "New color")
	addJSONFlag(cmd)

	return cmd
}

func newStagesDeleteCmd(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "delete STAGE_ID",
		Short: "Delete a stage",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			id, err := parseID(args[0], "stage")
			if err != nil {
				return err
			}
			if err := app.api.DeleteStage(cmd.Context(), domain.StageID(id)); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stage %d deleted\n", id)
			return err
		}),
	}
}

func writeStage(cmd *cobra.Command, app *app, stage domain.Stage) error {
	return writeOutput(cmd, app, stage, func(opts views.Options) string {
		return views.Pipelines([]domain.Pipeline{{ID: stage.PipelineID, Stages: []domain.Stage{stage}}}, opts)
	})
}
