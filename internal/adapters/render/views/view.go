package views

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type Options struct {
	Now  time.Time
	Dark bool
}

// SessionInfo is what `atlas session` shows about the stored credentials.
type SessionInfo struct {
	Authenticated bool
	User          *domain.User
	Subject       string
	TokenType     string
	ExpiresAt     time.Time
	Backend       string
}

func Leads(leads []domain.Lead, opts Options) string {
	s := newStyles(opts.Dark)
	if len(leads) == 0 {
		return titled(s, "Leads", 0, s.empty.Render("No leads."))
	}

	rows := make([][]string, 0, len(leads))
	for _, lead := range leads {
		rows = append(rows, []string{
			strconv.FormatInt(int64(lead.ID), 10),
			lead.Name,
			lead.Phone,
			orDash(lead.Source),
			stageLabel(lead),
			managerLabel(lead.Manager),
			relativeTime(lead.LastActivityAt.Time, opts.Now),
		})
	}

	return titled(s, "Leads", len(leads), renderTable(s, []string{"ID", "NAME", "PHONE", "SOURCE", "STAGE", "MANAGER", "ACTIVITY"}, rows))
}

// Kanban renders one column per stage of the default pipeline.
func Kanban(data application.KanbanData, opts Options) string {
	s := newStyles(opts.Dark)
	pipeline, ok := defaultPipeline(data.Pipelines)
	if !ok {
		return titled(s, "Kanban", len(data.Leads), s.empty.Render("No pipelines."))
	}

	byStage := data.ByStage()
	stages := append([]domain.Stage(nil), pipeline.Stages...)
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].Position < stages[j].Position })

	columns := make([]string, 0, len(stages))
	for _, stage := range stages {
		leads := byStage[stage.ID]
		lines := []string{s.accent.Render(fmt.Sprintf("%s (%d)", stage.Name, len(leads)))}
		for _, lead := range leads {
			lines = append(lines, s.detail.Render(fmt.Sprintf("#%d %s", lead.ID, lead.Name)))
		}
		if len(leads) == 0 {
			lines = append(lines, s.empty.Render("-"))
		}
		columns = append(columns, lipgloss.NewStyle().Width(24).MarginRight(2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	if unstaged := len(byStage[0]); unstaged > 0 {
		body = lipgloss.JoinVertical(lipgloss.Left, body, s.section.Render(s.warning.Render(fmt.Sprintf("unstaged: %d", unstaged))))
	}

	return titled(s, pipeline.Name, len(data.Leads), body)
}

func Dialogs(dialogs []domain.Dialog, opts Options) string {
	s := newStyles(opts.Dark)
	if len(dialogs) == 0 {
		return titled(s, "Inbox", 0, s.empty.Render("No dialogs."))
	}

	rows := make([][]string, 0, len(dialogs))
	for _, d := range dialogs {
		unread := ""
		if d.UnreadCount > 0 {
			unread = strconv.Itoa(d.UnreadCount)
		}
		rows = append(rows, []string{
			strconv.FormatInt(int64(d.LeadID), 10),
			d.LeadName,
			truncate(deref(d.LastMessage), 40),
			unread,
			orDash(deref(d.ManagerName)),
			relativeTime(d.LastMessageAt.Time, opts.Now),
		})
	}

	return titled(s, "Inbox", len(dialogs), renderTable(s, []string{"LEAD", "NAME", "LAST MESSAGE", "UNREAD", "MANAGER", "WHEN"}, rows))
}

func Chat(chat application.ChatData, opts Options) string {
	s := newStyles(opts.Dark)
	title := fmt.Sprintf("Chat #%d", chat.Lead.ID)
	if chat.Lead.Name != "" {
		title = fmt.Sprintf("%s (%s)", chat.Lead.Name, chat.Lead.Phone)
	}

	lines := make([]string, 0, len(chat.Messages)+len(chat.Calls))
	for _, msg := range chat.Messages {
		lines = append(lines, messageLine(msg, s))
	}
	if len(chat.Messages) == 0 {
		lines = append(lines, s.empty.Render("No messages."))
	}
	if len(chat.Calls) > 0 {
		lines = append(lines, s.section.Render(s.accent.Render("Calls")))
		for _, call := range chat.Calls {
			lines = append(lines, s.detail.Render(fmt.Sprintf("%s %s %s %s",
				call.CreatedAt.Format("02 Jan 15:04"), directionLabel(call.Direction), formatDuration(call.Duration), orDash(deref(call.Result)))))
		}
	}

	return titled(s, title, len(chat.Messages), lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func Messages(messages []domain.Message, opts Options) string {
	s := newStyles(opts.Dark)
	if len(messages) == 0 {
		return titled(s, "Messages", 0, s.empty.Render("No messages."))
	}

	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, messageLine(msg, s))
	}

	return titled(s, "Messages", len(messages), lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func messageLine(msg domain.Message, s styles) string {
	who := s.detail
	if msg.SenderType == domain.SenderManager {
		who = s.accent
	}
	content := msg.Content
	if content == "" && msg.MediaURL != nil {
		content = "[" + msg.Type + "] " + *msg.MediaURL
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		s.empty.Render(msg.CreatedAt.Format("15:04")), " ",
		who.Render(string(msg.SenderType)+":"), " ",
		s.detail.Render(content),
	)
}

func Calls(calls []domain.Call, opts Options) string {
	s := newStyles(opts.Dark)
	if len(calls) == 0 {
		return titled(s, "Calls", 0, s.empty.Render("No calls."))
	}

	rows := make([][]string, 0, len(calls))
	for _, call := range calls {
		lead := orDash(deref(call.LeadName))
		if lead == "-" && call.LeadID != nil {
			lead = "#" + strconv.FormatInt(int64(*call.LeadID), 10)
		}
		recording := ""
		if call.RecordingURL != nil {
			recording = "yes"
		}
		rows = append(rows, []string{
			strconv.FormatInt(int64(call.ID), 10),
			directionLabel(call.Direction),
			lead,
			orDash(deref(call.ManagerName)),
			formatDuration(call.Duration),
			orDash(deref(call.Result)),
			recording,
			relativeTime(call.CreatedAt.Time, opts.Now),
		})
	}

	return titled(s, "Calls", len(calls), renderTable(s, []string{"ID", "DIR", "LEAD", "MANAGER", "DURATION", "RESULT", "REC", "WHEN"}, rows))
}

// Broadcasts renders the broadcast list. progress holds the latest
// broadcast:progress figures keyed by broadcast.
func Broadcasts(broadcasts []domain.Broadcast, progress map[domain.BroadcastID]domain.BroadcastProgress, opts Options) string {
	s := newStyles(opts.Dark)
	if len(broadcasts) == 0 {
		return titled(s, "Broadcasts", 0, s.empty.Render("No broadcasts."))
	}

	rows := make([][]string, 0, len(broadcasts))
	for _, b := range broadcasts {
		bar := ""
		if p, ok := progress[b.ID]; ok && p.Total > 0 {
			bar = renderProgressBar(float64(p.Sent)/float64(p.Total)*100, 16, s) + fmt.Sprintf(" %d/%d", p.Sent, p.Total)
		}
		scheduled := "-"
		if !b.ScheduledAt.IsZero() {
			scheduled = b.ScheduledAt.Format("02 Jan 15:04")
		}
		rows = append(rows, []string{
			strconv.FormatInt(int64(b.ID), 10),
			b.Name,
			string(b.Status),
			scheduled,
			bar,
		})
	}

	return titled(s, "Broadcasts", len(broadcasts), renderTable(s, []string{"ID", "NAME", "STATUS", "SCHEDULED", "PROGRESS"}, rows))
}

func Users(users []domain.User, opts Options) string {
	s := newStyles(opts.Dark)
	if len(users) == 0 {
		return titled(s, "Users", 0, s.empty.Render("No users."))
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		active := "yes"
		if !u.IsActive {
			active = "no"
		}
		rows = append(rows, []string{strconv.FormatInt(int64(u.ID), 10), u.Name, u.Email, string(u.Role), active})
	}

	return titled(s, "Users", len(users), renderTable(s, []string{"ID", "NAME", "EMAIL", "ROLE", "ACTIVE"}, rows))
}

func Pipelines(pipelines []domain.Pipeline, opts Options) string {
	s := newStyles(opts.Dark)
	if len(pipelines) == 0 {
		return titled(s, "Pipelines", 0, s.empty.Render("No pipelines."))
	}

	rows := make([][]string, 0)
	for _, p := range pipelines {
		name := p.Name
		if p.IsDefault {
			name += " *"
		}
		for _, st := range p.Stages {
			rows = append(rows, []string{
				strconv.FormatInt(int64(p.ID), 10), name,
				strconv.FormatInt(int64(st.ID), 10), st.Name, strconv.Itoa(st.Position), st.Color,
			})
		}
		if len(p.Stages) == 0 {
			rows = append(rows, []string{strconv.FormatInt(int64(p.ID), 10), name, "", "", "", ""})
		}
	}

	return titled(s, "Pipelines", len(pipelines), renderTable(s, []string{"PIPELINE", "NAME", "STAGE", "STAGE NAME", "POS", "COLOR"}, rows))
}

func Rules(rules []domain.DistributionRule, opts Options) string {
	s := newStyles(opts.Dark)
	if len(rules) == 0 {
		return titled(s, "Distribution rules", 0, s.empty.Render("No rules."))
	}

	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		active := "on"
		if !r.IsActive {
			active = "off"
		}
		manager := "-"
		if r.ManagerID != nil {
			manager = strconv.FormatInt(int64(*r.ManagerID), 10)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Priority), string(r.Algorithm), orDash(deref(r.Source)), orDash(deref(r.Language)), manager, active,
		})
	}

	return titled(s, "Distribution rules", len(rules), renderTable(s, []string{"PRIO", "ALGORITHM", "SOURCE", "LANGUAGE", "MANAGER", "ACTIVE"}, rows))
}

func Timeline(activities []domain.Activity, opts Options) string {
	s := newStyles(opts.Dark)
	if len(activities) == 0 {
		return titled(s, "Timeline", 0, s.empty.Render("No activity."))
	}

	lines := make([]string, 0, len(activities))
	for _, a := range activities {
		meta := strings.TrimSpace(string(a.Meta))
		if meta == "null" || meta == "{}" {
			meta = ""
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			s.empty.Render(a.CreatedAt.Format("02 Jan 15:04")), " ",
			s.accent.Render(string(a.Kind)), " ",
			s.detail.Render(truncate(meta, 60)),
		))
	}

	return titled(s, "Timeline", len(activities), lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func Analytics(summary domain.AnalyticsSummary, opts Options) string {
	s := newStyles(opts.Dark)
	lines := []string{
		s.detail.Render(fmt.Sprintf("leads: %d  messages: %d  calls: %d", summary.TotalLeads, summary.TotalMessages, summary.TotalCalls)),
		lipgloss.JoinHorizontal(lipgloss.Top,
			s.detail.Render("conversion: "),
			renderProgressBar(summary.ConversionRate, 20, s),
			" ",
			lipgloss.NewStyle().Foreground(interpolateColor(summary.ConversionRate, 0, 100)).Render(fmt.Sprintf("%.1f%%", summary.ConversionRate)),
		),
		s.detail.Render(fmt.Sprintf("avg response: %.1f min", summary.AvgResponseTimeMinutes)),
	}

	for _, group := range []struct {
		title string
		data  map[string]int
	}{
		{"By stage", summary.LeadsByStage},
		{"By source", summary.LeadsBySource},
		{"By manager", summary.LeadsByManager},
	} {
		if len(group.data) == 0 {
			continue
		}
		lines = append(lines, s.section.Render(s.accent.Render(group.title)))
		for _, key := range sortedKeys(group.data) {
			lines = append(lines, s.detail.Render(fmt.Sprintf("  %-20s %d", key, group.data[key])))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, append([]string{s.title.Render("Analytics")}, lines...)...)
}

func Session(info SessionInfo, opts Options) string {
	s := newStyles(opts.Dark)
	if !info.Authenticated {
		return lipgloss.JoinVertical(lipgloss.Left,
			s.title.Render("Session"),
			s.warning.Render("not logged in"),
		)
	}

	lines := []string{s.title.Render("Session")}
	if info.User != nil {
		lines = append(lines, s.accent.Render(fmt.Sprintf("%s <%s>", info.User.Name, info.User.Email)))
		lines = append(lines, s.detail.Render("role: "+string(info.User.Role)))
	}
	if info.Subject != "" {
		lines = append(lines, s.detail.Render("subject: "+info.Subject))
	}
	if info.TokenType != "" {
		lines = append(lines, s.detail.Render("token: "+info.TokenType))
	}
	if !info.ExpiresAt.IsZero() {
		expiry := s.detail.Render("expires: " + formatExpiry(info.ExpiresAt, opts.Now))
		if !opts.Now.IsZero() && info.ExpiresAt.Before(opts.Now) {
			expiry = s.warning.Render("expires: " + formatExpiry(info.ExpiresAt, opts.Now))
		}
		lines = append(lines, expiry)
	}
	if info.Backend != "" {
		lines = append(lines, s.empty.Render("storage: "+info.Backend))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func titled(s styles, title string, count int, body string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		s.title.Render(title)+" "+s.empty.Render(fmt.Sprintf("(%d)", count)),
		body,
	)
}

func renderTable(s styles, headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.border).
		BorderColumn(false).
		BorderLeft(false).
		BorderRight(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			return s.cell
		})

	return t.Render()
}

func defaultPipeline(pipelines []domain.Pipeline) (domain.Pipeline, bool) {
	for _, p := range pipelines {
		if p.IsDefault {
			return p, true
		}
	}
	if len(pipelines) > 0 {
		return pipelines[0], true
	}
	return domain.Pipeline{}, false
}

func stageLabel(lead domain.Lead) string {
	if lead.Stage != nil {
		return lead.Stage.Name
	}
	if lead.StageID != nil {
		return "#" + strconv.FormatInt(int64(*lead.StageID), 10)
	}
	return "-"
}

func managerLabel(user *domain.User) string {
	if user == nil {
		return "-"
	}
	return user.Name
}

func directionLabel(d domain.CallDirection) string {
	switch d {
	case domain.CallInbound:
		return "in"
	case domain.CallOutbound:
		return "out"
	default:
		return "?"
	}
}

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, width int) string {
	runes := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(runes) <= width {
		return string(runes)
	}
	return string(runes[:width-1]) + "…"
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100.0))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// relativeTime renders past timestamps as "5 min ago", "3 hours ago" and
// falls back to a date after a week.
func relativeTime(at, now time.Time) string {
	if at.IsZero() {
		return "-"
	}
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%d min ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	case elapsed < 7*24*time.Hour:
		return plural(int(elapsed.Hours()/24), "day") + " ago"
	default:
		return at.Format("02 Jan 2006")
	}
}

func formatExpiry(at, now time.Time) string {
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}
	if at.Before(now) {
		return "expired " + at.Format("15:04 on 02 Jan")
	}

	remaining := at.Sub(now)
	if remaining < time.Hour {
		minutes := int(math.Ceil(remaining.Minutes()))
		return fmt.Sprintf("in %s (%s)", plural(minutes, "minute"), at.Format("15:04"))
	}
	if remaining < 24*time.Hour {
		return fmt.Sprintf("in %s (%s)", plural(int(math.Ceil(remaining.Hours())), "hour"), at.Format("15:04"))
	}
	return fmt.Sprintf("in %s (%s)", plural(int(math.Ceil(remaining.Hours()/24)), "day"), at.Format("15:04 on 02 Jan"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// 240..255 is the ANSI 256 greyscale ramp.
	return lipgloss.Color(strconv.Itoa(int(240 + 15*normalized)))
}
