// Package filepicker implements a bubbletea component for picking a hive file.
package filepicker

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.followtheprocess.codes/beekeeper/internal/tui/theme"
)

// errorClearAfter is how long an error stays on screen.
const errorClearAfter = 2 * time.Second

// Model is the file picker tea Model.
type Model struct {
	fp       filepicker.Model // The base filepicker we build off and customise
	help     help.Model       // The tea model providing the keymap help
	err      error            // Any error encountered during picking
	selected string           // The path to the hive that was selected
	keys     keyMap           // The key bindings
	quitting bool             // Whether the TUI is quitting
}

// New returns a new [Model] browsing from dir.
func New(dir string) Model {
	if dir == "" {
		dir = "."
	}

	picker := filepicker.New()
	picker.AllowedTypes = []string{".json", ".yaml", ".yml"}
	picker.Styles.Selected = picker.Styles.Selected.Foreground(theme.Hive.Amber)
	picker.Styles.Cursor = picker.Styles.Cursor.Foreground(theme.Hive.Honey)
	picker.Styles.DisabledFile = theme.Hive.Error()
	picker.CurrentDirectory = dir
	picker.ShowHidden = false
	picker.KeyMap = filepicker.KeyMap{
		GoToTop:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "first")),
		GoToLast: key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "last")),
		Down:     key.NewBinding(key.WithKeys("j", "down", "ctrl+n"), key.WithHelp("↓/j", "down")),
		Up:       key.NewBinding(key.WithKeys("k", "up", "ctrl+p"), key.WithHelp("↑/k", "up")),
		PageUp:   key.NewBinding(key.WithKeys("K", "pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("J", "pgdown"), key.WithHelp("pgdown", "page down")),
		Back:     key.NewBinding(key.WithKeys("h", "backspace", "left", "esc"), key.WithHelp("h", "back")),
		Open:     key.NewBinding(key.WithKeys("l", "right", "enter"), key.WithHelp("l/→/enter", "open")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	}

	helpModel := help.New()

	return Model{
		fp:   picker,
		help: helpModel,
		keys: keyMap(picker.KeyMap),
	}
}

// Selected returns the hive that was eventually selected by the picker, empty
// if the user quit without choosing one.
func (m Model) Selected() string {
	return m.selected
}

// keyMap adds [help.KeyMap] to the filepicker bindings for the help bar.
type keyMap filepicker.KeyMap

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up,
		k.Down,
		k.Back,
		k.Select,
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Back, k.Select},
		{k.GoToTop, k.GoToLast, k.PageUp},
		{k.PageDown, k.Open},
	}
}

// clearErrorMsg clears a shown error.
type clearErrorMsg struct{}

func clearErrorAfter(t time.Duration) tea.Cmd {
	return tea.Tick(t, func(_ time.Time) tea.Msg {
		return clearErrorMsg{}
	})
}

// Init implements [tea.Model] for [Model].
func (m Model) Init() tea.Cmd {
	return m.fp.Init()
}

// Update implements [tea.Model], moving through directories until a hive is picked.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.fp.SetHeight(msg.Height)
		m.help.Width = msg.Width

	case clearErrorMsg:
		m.err = nil
	}

	var cmd tea.Cmd
	m.fp, cmd = m.fp.Update(msg)

	if picked, path := m.fp.DidSelectDisabledFile(msg); picked {
		m.err = errors.New(path + " is not a hive, pick a .json or .yaml file")
		m.selected = ""
		return m, tea.Batch(cmd, clearErrorAfter(errorClearAfter))
	}

	if picked, path := m.fp.DidSelectFile(msg); picked {
		m.selected = path
		m.quitting = true
		return m, tea.Quit
	}

	return m, cmd
}

// View implements [tea.Model].
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteByte('\n')

	switch {
	case m.err != nil:
		s.WriteString(m.fp.Styles.DisabledFile.Render(m.err.Error()))
	case m.selected == "":
		s.WriteString(theme.Hive.Title().Render("Pick a hive"))
	default:
		s.WriteString("Selected hive: " + m.fp.Styles.Selected.Render(m.selected))
	}

	s.WriteByte('\n')
	s.WriteString(m.fp.View())

	s.WriteString(m.help.View(m.keys))
	return s.String()
}
