package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/atlas-crm-cli/internal/adapters/render/views"
	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/spf13/cobra"
)

const jsonFlag = "json"

func addJSONFlag(cmd *cobra.Command) {
	cmd.Flags().Bool(jsonFlag, false, "Output JSON")
}

func wantsJSON(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool(jsonFlag)
	return asJSON
}

// writeOutput prints value as indented JSON when --json is set, and the
// rendered view otherwise.
func writeOutput(cmd *cobra.Command, app *app, value any, render func(views.Options) string) error {
	if wantsJSON(cmd) {
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json output: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), render(app.viewOptions(cmd.Context())))
	return err
}

func (a *app) viewOptions(ctx context.Context) views.Options {
	dark, err := a.prefs.DarkMode(ctx)
	if err != nil {
		a.logger.Printf("preferences: %v", err)
	}
	return views.Options{Now: a.now(), Dark: dark}
}

// fetch runs load behind a progress line unless JSON output was requested.
func fetch(cmd *cobra.Command, label string, load func(context.Context) error) error {
	_, err := refreshOnce(cmd, label, application.NewBinding[struct{}](label, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, load(ctx)
	}, nil))
	return err
}

// refreshOnce loads a screen binding a single time and returns its value.
func refreshOnce[T any](cmd *cobra.Command, label string, b *application.Binding[T]) (T, error) {
	var err error
	if wantsJSON(cmd) {
		err = b.Refresh(cmd.Context())
	} else {
		err = awaitLoad(cmd.Context(), cmd.ErrOrStderr(), label, b)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return b.State().Value, nil
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

func bindingOptions(app *app) []application.BindingOption {
	return []application.BindingOption{application.WithBindingLogger(app.logger)}
}
