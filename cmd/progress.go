package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// loadProgressMsg is the part of a binding's state the progress line shows.
type loadProgressMsg struct {
	loading bool
	loads   int
	err     error
}

func progressOf[T any](state application.BindingState[T]) loadProgressMsg {
	return loadProgressMsg{loading: state.Loading, loads: state.Loads, err: state.Err}
}

// settled reports whether at least one load finished and none is running.
func (m loadProgressMsg) settled() bool {
	return !m.loading && m.loads > 0
}

type progressModel struct {
	spinner  spinner.Model
	label    string
	started  time.Time
	elapsed  time.Duration
	load     tea.Cmd
	progress loadProgressMsg
}

func newProgressModel(label string, started time.Time, load tea.Cmd) progressModel {
	return progressModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		label:    label,
		started:  started,
		load:     load,
		progress: loadProgressMsg{loading: true},
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load)
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadProgressMsg:
		m.progress = msg
		if msg.settled() {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if !msg.Time.IsZero() {
			m.elapsed = msg.Time.Sub(m.started)
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.progress.settled() {
		return ""
	}
	line := m.spinner.View() + " " + m.label
	if m.elapsed >= time.Second {
		line += fmt.Sprintf(" (%ds)", int(m.elapsed.Seconds()))
	}
	return line
}

// awaitLoad refreshes b once while output shows label, and returns the load
// error recorded in the binding state.
func awaitLoad[T any](ctx context.Context, output io.Writer, label string, b *application.Binding[T]) error {
	load := func() tea.Msg {
		_ = b.Refresh(ctx)
		return progressOf(b.State())
	}

	p := tea.NewProgram(
		newProgressModel(label, time.Now(), load),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	m, ok := final.(progressModel)
	if !ok {
		return fmt.Errorf("unexpected progress model type %T", final)
	}
	return m.progress.err
}
