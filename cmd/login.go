package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/spf13/cobra"
)

const passwordEnv = "ATLAS_PASSWORD"

func newLoginCmd(holder *appHolder) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session tokens",
		RunE: withApp(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if password == "" {
				line, err := readLine(cmd)
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = line
			}
			if password == "" {
				return errors.New("password is required (--password, " + passwordEnv + " or stdin)")
			}

			var user domain.User
			err := fetch(cmd, "Logging in...", func(ctx context.Context) error {
				var loginErr error
				user, loginErr = app.session.Login(ctx, email, password)
				return loginErr
			})
			if err != nil {
				if errors.Is(err, domain.ErrAuth) {
					return fmt.Errorf("invalid email or password: %w", err)
				}
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
			return err
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (or "+passwordEnv+", or one line on stdin)")

	return cmd
}

func newLogoutCmd(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: withApp(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			if err := app.session.Logout(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return err
		}),
	}
}

func readLine(cmd *cobra.Command) (string, error) {
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
