package views

import "github.com/charmbracelet/lipgloss"

type palette struct {
	accent lipgloss.Color
	text   lipgloss.Color
	muted  lipgloss.Color
	warn   lipgloss.Color
	good   lipgloss.Color
	fill   lipgloss.Color
	empty  lipgloss.Color
}

var (
	darkPalette = palette{
		accent: lipgloss.Color("39"),
		text:   lipgloss.Color("252"),
		muted:  lipgloss.Color("245"),
		warn:   lipgloss.Color("203"),
		good:   lipgloss.Color("114"),
		fill:   lipgloss.Color("159"),
		empty:  lipgloss.Color("238"),
	}
	lightPalette = palette{
		accent: lipgloss.Color("25"),
		text:   lipgloss.Color("235"),
		muted:  lipgloss.Color("242"),
		warn:   lipgloss.Color("160"),
		good:   lipgloss.Color("28"),
		fill:   lipgloss.Color("31"),
		empty:  lipgloss.Color("250"),
	}
)

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	cell       lipgloss.Style
	accent     lipgloss.Style
	detail     lipgloss.Style
	warning    lipgloss.Style
	good       lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	border     lipgloss.Style
	barBracket lipgloss.Style
	barFill    lipgloss.Style
	barEmpty   lipgloss.Style
}

func newStyles(dark bool) styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}

	return styles{
		title:      lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		header:     lipgloss.NewStyle().Bold(true).Foreground(p.muted).Padding(0, 1),
		cell:       lipgloss.NewStyle().Foreground(p.text).Padding(0, 1),
		accent:     lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		detail:     lipgloss.NewStyle().Foreground(p.text),
		warning:    lipgloss.NewStyle().Bold(true).Foreground(p.warn),
		good:       lipgloss.NewStyle().Foreground(p.good),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		border:     lipgloss.NewStyle().Foreground(p.muted),
		barBracket: lipgloss.NewStyle().Foreground(p.muted),
		barFill:    lipgloss.NewStyle().Foreground(p.fill),
		barEmpty:   lipgloss.NewStyle().Foreground(p.empty),
	}
}
