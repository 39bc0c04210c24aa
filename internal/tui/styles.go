package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#6B7280")
	border      = lipgloss.Color("#2a3850")
	destructive = lipgloss.Color("#e53935")
	warning     = lipgloss.Color("#FFC107")
)

// Styles holds the lipgloss styles of the reconcile screen.
type Styles struct {
	Title       lipgloss.Style
	Pane        lipgloss.Style
	FocusedPane lipgloss.Style
	Heading     lipgloss.Style
	Cursor      lipgloss.Style
	Selected    lipgloss.Style
	Item        lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Busy        lipgloss.Style
	Help        lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	pane := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(border).
		Padding(0, 1)

	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(accent),
		Pane:        pane,
		FocusedPane: pane.BorderStyle(lipgloss.ThickBorder()).BorderForeground(accent),
		Heading:     lipgloss.NewStyle().Bold(true).Underline(true),
		Cursor:      lipgloss.NewStyle().Foreground(accent).Bold(true),
		Selected:    lipgloss.NewStyle().Foreground(accent),
		Item:        lipgloss.NewStyle(),
		Success:     lipgloss.NewStyle().Foreground(accent),
		Error:       lipgloss.NewStyle().Foreground(destructive),
		Busy:        lipgloss.NewStyle().Foreground(warning),
		Help:        lipgloss.NewStyle().Foreground(muted),
	}
}
