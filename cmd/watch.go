package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/atlas-crm-cli/internal/adapters/render/views"
	"github.com/bnema/atlas-crm-cli/internal/adapters/render/watch"
	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/bnema/atlas-crm-cli/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const (
	screenKanban     = "kanban"
	screenInbox      = "inbox"
	screenCalls      = "calls"
	screenBroadcasts = "broadcasts"
	screenChat       = "chat"
)

func newWatchCmd(holder *appHolder) *cobra.Command {
	var leadID int64

	cmd := &cobra.Command{
		Use:       "watch [kanban|inbox|calls|broadcasts|chat]",
		Short:     "Live view that refreshes on push events",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{screenKanban, screenInbox, screenCalls, screenBroadcasts, screenChat},
		RunE: withSession(holder, func(cmd *cobra.Command, app *app, args []string) error {
			screen := screenKanban
			if len(args) == 1 {
				screen = args[0]
			}
			opts := bindingOptions(app)

			switch screen {
			case screenInbox:
				return runWatchScreen(cmd, app, "Inbox", application.NewInboxBinding(app.api, opts...), views.Dialogs)
			case screenCalls:
				return runWatchScreen(cmd, app, "Calls", application.NewCallsBinding(app.api, domain.CallFilter{}, opts...), views.Calls)
			case screenBroadcasts:
				progress := newProgressTracker()
				return runWatchScreen(cmd, app, "Broadcasts", application.NewBroadcastsBinding(app.api, opts...),
					func(broadcasts []domain.Broadcast, viewOpts views.Options) string {
						if event, ok := app.hub.Latest(); ok {
							progress.observe(event)
						}
						return views.Broadcasts(broadcasts, progress.snapshot(), viewOpts)
					})
			case screenChat:
				if leadID <= 0 {
					return errors.New("watch chat needs --lead")
				}
				return runWatchScreen(cmd, app, fmt.Sprintf("Chat #%d", leadID), application.NewChatBinding(app.api, domain.LeadID(leadID), opts...), views.Chat)
			default:
				return runWatchScreen(cmd, app, "Kanban", application.NewKanbanBinding(app.api, opts...), views.Kanban)
			}
		}),
	}

	cmd.Flags().Int64Var(&leadID, "lead", 0, "Lead to follow in the chat screen")

	return cmd
}

// runWatchScreen connects the push channel, keeps b fresh from it and
// renders every state change into a bubbletea program until the user quits.
func runWatchScreen[T any](cmd *cobra.Command, app *app, title string, b *application.Binding[T], render func(T, views.Options) string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	viewOpts := app.viewOptions(ctx)
	model := watch.New(watch.Config{
		Title:   title,
		Dark:    viewOpts.Dark,
		Now:     app.now,
		Refresh: func() { _ = b.Refresh(ctx) },
	})
	p := watch.NewProgram(ctx, model,
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithAltScreen(),
	)

	app.push.OnStateChange(func(state domain.ConnectionState) {
		p.Send(watch.StateMsg(state))
	})
	b.OnChange(func(state application.BindingState[T]) {
		msg := watch.ViewMsg{Loading: state.Loading, Loads: state.Loads, Err: state.Err}
		if !state.LoadedAt.IsZero() {
			opts := viewOpts
			opts.Now = app.now()
			msg.Body = render(state.Value, opts)
		}
		p.Send(msg)
	})

	events, unsubscribe := app.hub.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for event := range events {
			p.Send(watch.EventMsg(event))
		}
	}()
	go func() {
		defer wg.Done()
		_ = b.Run(ctx, app.hub)
	}()
	go func() {
		defer wg.Done()
		if err := app.push.Connect(ctx); err != nil {
			app.logger.Printf("push: %v", err)
		}
	}()

	_, err := watch.Run(ctx, p)

	cancel()
	app.push.Disconnect()
	unsubscribe()
	wg.Wait()

	return err
}

type progressTracker struct {
	mu       sync.Mutex
	progress map[domain.BroadcastID]domain.BroadcastProgress
}

func newProgressTracker() *progressTracker {
	return &progressTracker{progress: map[domain.BroadcastID]domain.BroadcastProgress{}}
}

func (t *progressTracker) observe(event domain.PushEvent) {
	progress, ok := event.Progress()
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress[progress.BroadcastID] = progress
}

func (t *progressTracker) snapshot() map[domain.BroadcastID]domain.BroadcastProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[domain.BroadcastID]domain.BroadcastProgress, len(t.progress))
	for id, p := range t.progress {
		out[id] = p
	}
	return out
}
