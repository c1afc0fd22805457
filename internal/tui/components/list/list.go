// Package list implements a bubbletea list component to pick an action from a hive.
package list

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"go.followtheprocess.codes/beekeeper/internal/tui/theme"
)

// Entry is a single callable action.
type Entry struct {
	Object  string // Name of the object the action belongs to
	Action  string // Name of the action
	Method  string // HTTP method
	URL     string // URL template of the action's endpoint
	Summary string // The action's description, if any
}

// Title implements [list.DefaultItem].
func (e Entry) Title() string {
	return fmt.Sprintf("%s.%s", e.Object, e.Action)
}

// Description implements [list.DefaultItem].
func (e Entry) Description() string {
	if e.Summary != "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Summary)
	}
	return fmt.Sprintf("%s %s", e.Method, e.URL)
}

// FilterValue implements [list.Item].
func (e Entry) FilterValue() string {
	return e.Title()
}

// Model is the list tea Model.
type Model struct {
	l        list.Model // The base list bubble
	selected *Entry     // The chosen action, nil until one is picked
}

// New returns a new [Model] listing entries.
func New(title string, entries []Entry) Model {
	items := make([]list.Item, 0, len(entries))
	for _, entry := range entries {
		items = append(items, entry)
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = theme.Hive.Selected()
	delegate.Styles.SelectedDesc = theme.Hive.SelectedDescription()

	l := list.New(items, delegate, 0, 0)
	l.Title = title
	l.Styles.Title = theme.Hive.Title()

	return Model{
		l: l,
	}
}

// Init implements [tea.Model] for [Model].
func (m Model) Init() tea.Cmd {
	return nil
}

// Update updates the UI in response to messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Let the filter input have keys while the user is typing
		if m.l.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			if entry, ok := m.l.SelectedItem().(Entry); ok {
				m.selected = &entry
			}

			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.l.SetSize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd

	m.l, cmd = m.l.Update(msg)

	return m, cmd
}

// View renders the UI to the user.
func (m Model) View() string {
	return m.l.View()
}

// Selected returns the picked action and whether one was picked at all.
func (m Model) Selected() (Entry, bool) {
	if m.selected == nil {
		return Entry{}, false
	}
	return *m.selected, true
}
