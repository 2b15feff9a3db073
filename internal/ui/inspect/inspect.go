// Package inspect is a bubbletea TUI over a trace.Session: a scrollable,
// filterable list of shim calls captured from a scenario run, for
// interactive post-mortem review (SPEC_FULL.md §2). Not reachable through
// any winapi package — this is an outer, optional CLI surface.
package inspect

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tsawler/win32shim/internal/trace"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFC800"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B4B4B4"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#505050"))
)

// item adapts a *trace.Event to bubbles/list's list.Item.
type item struct{ ev *trace.Event }

func (i item) Title() string {
	return fmt.Sprintf("%s %s!%s", i.ev.PrimaryTag(), string(i.ev.Tags.Primary()), i.ev.Name)
}

func (i item) Description() string { return i.ev.Detail }
func (i item) FilterValue() string { return i.ev.Name + " " + i.ev.Detail }

// Model is the inspect TUI's bubbletea model.
type Model struct {
	list    list.Model
	session *trace.Session
}

// New builds an inspect model over every event currently in s.
func New(s *trace.Session) Model {
	items := make([]list.Item, len(s.Events))
	for i, ev := range s.Events {
		items[i] = item{ev: ev}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "win32shim trace — " + s.ID
	l.Styles.Title = titleStyle
	return Model{list: l, session: s}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.list.View() + "\n" + footerStyle.Render("↑/↓ navigate · / filter · q quit")
}

// Run starts the TUI in the current terminal, blocking until the user
// quits.
func Run(s *trace.Session) error {
	_, err := tea.NewProgram(New(s), tea.WithAltScreen()).Run()
	return err
}
