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

func newUsersCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage CRM users",
	}

	cmd.AddCommand(
		newUsersListCmd(holder),
		newUsersCreateCmd(holder),
		newUsersDeactivateCmd(holder),
		newUsersDeleteCmd(holder),
	)

	return cmd
}

func newUsersListCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			users, err := refreshOnce(cmd, "Fetching users...", application.NewUsersBinding(app.api, bindingOptions(app)...))
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, users, func(opts views.Options) string {
				return views.Users(users, opts)
			})
		}),
	}
	addJSONFlag(cmd)

	return cmd
}

func newUsersCreateCmd(holder *appHolder) *cobra.Command {
	var (
		in   domain.UserCreate
		role string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			in.Role = domain.Role(strings.ToLower(strings.TrimSpace(role)))
			if !in.Role.Valid() {
				return fmt.Errorf("invalid --role %q (want admin, head or manager)", role)
			}
			if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Name) == "" || in.Password == "" {
				return errors.New("--email, --name and --password are required")
			}

			user, err := app.api.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, user, func(opts views.Options) string {
				return views.Users([]domain.User{user}, opts)
			})
		}),
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "Initial password")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleManager), "Role: admin, head or manager")
	addJSONFlag(cmd)

	return cmd
}

func newUsersDeactivateCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate USER_ID",
		Short: "Disable a user without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}

			inactive := false
			user, err := app.api.UpdateUser(cmd.Context(), domain.UserID(id), domain.UserUpdate{IsActive: &inactive})
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, user, func(opts views.Options) string {
				return views.Users([]domain.User{user}, opts)
			})
		}),
	}
	addJSONFlag(cmd)

	return cmd
}

func newUsersDeleteCmd(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "delete USER_ID",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			if err := app.api.DeleteUser(cmd.Context(), domain.UserID(id)); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "user %d deleted\n", id)
			return err
		}),
	}
}
