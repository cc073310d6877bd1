package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var ErrUnexpectedModel = errors.New("unexpected final bubbletea model type")

// StateMsg reports a push connection state transition.
type StateMsg domain.ConnectionState

// EventMsg carries the latest push event.
type EventMsg domain.PushEvent

// ViewMsg carries a freshly rendered screen body.
type ViewMsg struct {
	Body    string
	Loading bool
	Loads   int
	Err     error
}

type Config struct {
	Title   string
	Dark    bool
	Now     func() time.Time
	Refresh func()
}

type Model struct {
	cfg     Config
	styles  styles
	spinner spinner.Model

	state    domain.ConnectionState
	latest   *domain.PushEvent
	latestAt time.Time
	events   int
	body     string
	loading  bool
	loads    int
	err      error
	quitting bool
}

type styles struct {
	title     lipgloss.Style
	connected lipgloss.Style
	pending   lipgloss.Style
	offline   lipgloss.Style
	meta      lipgloss.Style
	warning   lipgloss.Style
	help      lipgloss.Style
}

func newStyles(dark bool) styles {
	accent, muted := lipgloss.Color("25"), lipgloss.Color("242")
	if dark {
		accent, muted = lipgloss.Color("39"), lipgloss.Color("245")
	}

	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(accent),
		connected: lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		offline:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		meta:      lipgloss.NewStyle().Foreground(muted),
		warning:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		help:      lipgloss.NewStyle().Faint(true).MarginTop(1),
	}
}

func New(cfg Config) Model {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		cfg:     cfg,
		styles:  newStyles(cfg.Dark),
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if m.cfg.Refresh == nil {
				return m, nil
			}
			refresh := m.cfg.Refresh
			return m, func() tea.Msg {
				refresh()
				return nil
			}
		}
		return m, nil
	case StateMsg:
		m.state = domain.ConnectionState(msg)
		return m, nil
	case EventMsg:
		event := domain.PushEvent(msg)
		m.latest = &event
		m.latestAt = m.cfg.Now()
		m.events++
		return m, nil
	case ViewMsg:
		m.loading = msg.Loading
		m.loads = msg.Loads
		m.err = msg.Err
		if msg.Body != "" {
			m.body = msg.Body
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.title.Render(m.cfg.Title), "  ", m.indicator(),
	)
	lines := []string{header, m.styles.meta.Render(m.eventLine())}

	switch {
	case m.body != "":
		lines = append(lines, "", m.body)
	case m.loading:
		lines = append(lines, "", m.spinner.View()+" loading")
	}
	if m.err != nil {
		lines = append(lines, m.styles.warning.Render("error: "+m.err.Error()))
	}
	lines = append(lines, m.styles.help.Render(fmt.Sprintf("loads: %d · r refresh · q quit", m.loads)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// State returns the connection state last reported to the model.
func (m Model) State() domain.ConnectionState {
	return m.state
}

// Latest returns the last push event received, if any.
func (m Model) Latest() (domain.PushEvent, bool) {
	if m.latest == nil {
		return domain.PushEvent{}, false
	}
	return *m.latest, true
}

func (m Model) indicator() string {
	switch m.state {
	case domain.Connected:
		return m.styles.connected.Render("● connected")
	case domain.Connecting:
		return m.styles.pending.Render("◌ connecting")
	default:
		return m.styles.offline.Render("○ disconnected")
	}
}

func (m Model) eventLine() string {
	if m.latest == nil {
		return "no events yet"
	}
	return fmt.Sprintf("last event: %s at %s (%d total)", m.latest.Name, m.latestAt.Format("15:04:05"), m.events)
}

// Run drives the program until the user quits. Cancelling the program's
// context is treated as a normal exit.
func Run(ctx context.Context, p *tea.Program) (Model, error) {
	finalModel, err := p.Run()
	killed := err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil
	if err != nil && !killed {
		return Model{}, err
	}

	rendered, ok := finalModel.(Model)
	if !ok {
		if killed {
			return Model{}, nil
		}
		return Model{}, ErrUnexpectedModel
	}

	return rendered, nil
}

func NewProgram(ctx context.Context, m Model, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)
}
