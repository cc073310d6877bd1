package cmd

import (
	"errors"
	"strings"

	"github.com/bnema/atlas-crm-cli/internal/adapters/render/views"
	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newDialogsCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dialogs",
		Aliases: []string{"inbox"},
		Short:   "List conversations, most recent first",
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			dialogs, err := refreshOnce(cmd, "Fetching inbox...", application.NewInboxBinding(app.api, bindingOptions(app)...))
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, dialogs, func(opts views.Options) string {
				return views.Dialogs(dialogs, opts)
			})
		}),
	}
	addJSONFlag(cmd)

	return cmd
}

func newMessagesCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Read and send messages",
	}

	cmd.AddCommand(newMessagesListCmd(holder), newMessagesSendCmd(holder))

	return cmd
}

func newMessagesListCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list LEAD_ID",
		Short: "List the messages exchanged with a lead",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			id, err := parseID(args[0], "lead")
			if err != nil {
				return err
			}

			messages, err := app.api.ListMessages(cmd.Context(), domain.LeadID(id))
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, messages, func(opts views.Options) string {
				return views.Messages(messages, opts)
			})
		}),
	}
	addJSONFlag(cmd)

	return cmd
}

func newMessagesSendCmd(holder *appHolder) *cobra.Command {
	var text, template string

	cmd := &cobra.Command{
		Use:   "send LEAD_ID",
		Short: "Send a message to a lead",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			id, err := parseID(args[0], "lead")
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" && template == "" {
				return errors.New("--text or --template is required")
			}

			message, err := app.api.SendMessage(cmd.Context(), domain.LeadID(id), text, template)
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, message, func(opts views.Options) string {
				return views.Messages([]domain.Message{message}, opts)
			})
		}),
	}

	cmd.Flags().StringVar(&text, "text", "", "Message text")
	cmd.Flags().StringVar(&template, "template", "", "WhatsApp template name")
	addJSONFlag(cmd)

	return cmd
}

func newChatCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat LEAD_ID",
		Short: "Show a lead with its messages and calls",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			id, err := parseID(args[0], "lead")
			if err != nil {
				return err
			}

			chat, err := refreshOnce(cmd, "Fetching chat...", application.NewChatBinding(app.api, domain.LeadID(id), bindingOptions(app)...))
			if err != nil {
				return err
			}

			return writeOutput(cmd, app, chat, func(opts views.Options) string {
				return views.Chat(chat, opts)
			})
		}),
	}
	addJSONFlag(cmd)

	return cmd
}
