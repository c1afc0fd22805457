// Package theme provides the lipgloss colour palette and styles used in the beekeeper TUI.
package theme

import "github.com/charmbracelet/lipgloss"

// Palette is a set of named colours.
type Palette struct {
	Honey   lipgloss.Color // Primary accent
	Amber   lipgloss.Color // Selection
	Pollen  lipgloss.Color // Secondary accent
	Wax     lipgloss.Color // Dimmed text
	Text    lipgloss.Color // Normal text
	Subtext lipgloss.Color // Descriptions
	Base    lipgloss.Color // Background
}

// Hive is the default warm palette.
var Hive = Palette{
	Honey:   lipgloss.Color("#f2b134"),
	Amber:   lipgloss.Color("#ffbf00"),
	Pollen:  lipgloss.Color("#f7e07b"),
	Wax:     lipgloss.Color("#8c7b5e"),
	Text:    lipgloss.Color("#f4ecd8"),
	Subtext: lipgloss.Color("#c9b99a"),
	Base:    lipgloss.Color("#2b2112"),
}

// Title returns the style for a title bar.
func (p Palette) Title() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(p.Honey).
		Foreground(p.Base).
		Bold(true).
		Padding(0, 1)
}

// Selected returns the style for a selected line.
func (p Palette) Selected() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(p.Amber).
		Foreground(p.Amber).
		Padding(0, 0, 0, 1)
}

// SelectedDescription returns the style for the description under a selected line.
func (p Palette) SelectedDescription() lipgloss.Style {
	return p.Selected().Foreground(p.Pollen)
}

// Error returns the style for an error message.
func (p Palette) Error() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Wax).Italic(true)
}
