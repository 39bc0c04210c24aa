// Package tui is the terminal reconciliation screen: unpaired limits on the
// left, unpaired results on the right. It only dispatches reconcile events;
// the controller does the work.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/limit-importer/backend/internal/reconcile"
)

// Dispatcher is the part of reconcile.Controller the screen drives.
type Dispatcher interface {
	State() reconcile.State
	Dispatch(e reconcile.Event) reconcile.State
}

type column int

const (
	columnLimits column = iota
	columnResults
)

// stateMsg carries the state after a dispatch that ran as a command.
type stateMsg reconcile.State

// Model is the bubbletea model of the reconcile screen.
type Model struct {
	ctrl   Dispatcher
	styles Styles
	state  reconcile.State

	focus  column
	cursor [2]int

	width    int
	height   int
	applying bool
	quitting bool
}

// New creates the screen for ctrl.
func New(ctrl Dispatcher) Model {
	return Model{
		ctrl:   ctrl,
		styles: DefaultStyles(),
		state:  ctrl.State(),
		width:  100,
	}
}

// State returns the last state the screen has seen.
func (m Model) State() reconcile.State { return m.state }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case stateMsg:
		m.applying = false
		m.setState(reconcile.State(msg))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	}

	if m.applying {
		return m, nil
	}

	switch msg.String() {
	case "tab", "left", "right", "h", "l":
		m.focus = 1 - m.focus
	case "up", "k":
		if m.cursor[m.focus] > 0 {
			m.cursor[m.focus]--
		}
	case "down", "j":
		if m.cursor[m.focus] < m.length(m.focus)-1 {
			m.cursor[m.focus]++
		}
	case "enter", " ":
		m.selectUnderCursor()
	case "a", "c":
		m.applying = true
		m.state.Phase = reconcile.PhaseApplying
		ctrl := m.ctrl
		return m, func() tea.Msg {
			return stateMsg(ctrl.Dispatch(reconcile.Confirm{}))
		}
	case "d":
		m.setState(m.ctrl.Dispatch(reconcile.Dismiss{}))
	case "esc":
		m.setState(m.ctrl.Dispatch(reconcile.Cancel{}))
	}
	return m, nil
}

func (m *Model) selectUnderCursor() {
	i := m.cursor[m.focus]
	if i >= m.length(m.focus) {
		return
	}
	if m.focus == columnLimits {
		m.setState(m.ctrl.Dispatch(reconcile.SelectLimit{ID: m.state.UnpairedLimits[i].Entry.ID}))
		return
	}
	m.setState(m.ctrl.Dispatch(reconcile.SelectResult{Key: m.state.UnpairedResults[i].String()}))
}

func (m *Model) setState(s reconcile.State) {
	m.state = s
	for _, col := range []column{columnLimits, columnResults} {
		if n := m.length(col); m.cursor[col] >= n {
			m.cursor[col] = max(n-1, 0)
		}
	}
}

func (m Model) length(col column) int {
	if col == columnLimits {
		return len(m.state.UnpairedLimits)
	}
	return len(m.state.UnpairedResults)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := m.styles
	title := s.Title.Render(fmt.Sprintf("Reconcile limits   paired %d, unpaired %d limits / %d results",
		len(m.state.Paired), len(m.state.UnpairedLimits), len(m.state.UnpairedResults)))

	paneWidth := max(m.width/2-2, 30)
	limits := make([]string, 0, len(m.state.UnpairedLimits))
	for _, l := range m.state.UnpairedLimits {
		label := fmt.Sprintf("#%s %s", l.Entry.ID, l.Entry.Key())
		if l.Reason != "" {
			label += "\n    " + s.Help.Render(l.Reason)
		}
		limits = append(limits, m.renderItem(label, l.Entry.ID == m.state.SelectedLimit))
	}
	results := make([]string, 0, len(m.state.UnpairedResults))
	for _, k := range m.state.UnpairedResults {
		results = append(results, m.renderItem(k.String(), k.String() == m.state.SelectedResult))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPane(columnLimits, "Unpaired limits", limits, paneWidth),
		m.renderPane(columnResults, "Unpaired results", results, paneWidth),
	)

	help := s.Help.Render("tab switch  up/down move  enter select  a apply  d dismiss  esc cancel  q quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, body, m.statusLine(), help)
}

func (m Model) renderItem(label string, selected bool) string {
	if selected {
		return m.styles.Selected.Render("* " + label)
	}
	return m.styles.Item.Render("  " + label)
}

func (m Model) renderPane(col column, heading string, items []string, width int) string {
	style := m.styles.Pane
	if m.focus == col {
		style = m.styles.FocusedPane
	}

	lines := []string{m.styles.Heading.Render(heading)}
	if len(items) == 0 {
		lines = append(lines, m.styles.Help.Render("  (none)"))
	}
	for i, item := range items {
		if m.focus == col && i == m.cursor[col] {
			item = m.styles.Cursor.Render(">") + strings.TrimPrefix(item, " ")
		}
		lines = append(lines, item)
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) statusLine() string {
	s := m.styles
	switch {
	case m.applying:
		return s.Busy.Render(fmt.Sprintf("Applying #%s to %s ...", m.state.SelectedLimit, m.state.SelectedResult))
	case m.state.LastError != "":
		return s.Error.Render(m.state.LastError)
	case m.state.Message != "":
		return s.Success.Render(m.state.Message)
	case m.state.Complete():
		return s.Success.Render("Everything is paired. Press q to finish.")
	}
	return ""
}

// Run shows the screen until the user quits and returns the final state.
func Run(ctrl Dispatcher, opts ...tea.ProgramOption) (reconcile.State, error) {
	final, err := tea.NewProgram(New(ctrl), opts...).Run()
	if err != nil {
		return ctrl.State(), fmt.Errorf("running reconcile screen: %w", err)
	}
	if m, ok := final.(Model); ok {
		return m.state, nil
	}
	return ctrl.State(), nil
}
