package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bnema/atlas-crm-cli/internal/adapters/render/views"
	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newRulesCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Lead distribution rules",
	}

	cmd.AddCommand(newRulesGetCmd(holder), newRulesSetCmd(holder))

	return cmd
}

func newRulesGetCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the distribution rules",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			rules, err := refreshOnce(cmd, "Fetching rules...", application.NewRulesBinding(app.api, bindingOptions(app)...))
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, rules, func(opts views.Options) string {
				return views.Rules(rules, opts)
			})
		}),
	}
	addJSONFlag(cmd)

	return cmd
}

func newRulesSetCmd(holder *appHolder) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace all distribution rules with a JSON array",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			rules, err := readRules(cmd, file)
			if err != nil {
				return err
			}

			saved, err := app.api.ReplaceDistributionRules(cmd.Context(), rules)
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, saved, func(opts views.Options) string {
				return views.Rules(saved, opts)
			})
		}),
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file with the rules, - for stdin")
	addJSONFlag(cmd)

	return cmd
}

func readRules(cmd *cobra.Command, file string) ([]domain.DistributionRule, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	var rules []domain.DistributionRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	for i, rule := range rules {
		switch rule.Algorithm {
		case domain.AlgorithmRoundRobin, domain.AlgorithmLoadBased, domain.AlgorithmLanguageBased, domain.AlgorithmSourceBased:
		case "":
			return nil, fmt.Errorf("rule %d: algorithm is required", i)
		default:
			return nil, fmt.Errorf("rule %d: unknown algorithm %q", i, rule.Algorithm)
		}
	}
	return rules, nil
}
