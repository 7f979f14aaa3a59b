package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the colors and pre-built styles of the tree view.
type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Checked   lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor

	// Styles
	Base      lipgloss.Style
	Selected  lipgloss.Style // cursor row
	Marked    lipgloss.Style // multi-selected rows
	Moving    lipgloss.Style // rows picked up for a move
	Guide     lipgloss.Style
	Indicator lipgloss.Style
	Done      lipgloss.Style
	Header    lipgloss.Style
	Status    lipgloss.Style
	ErrorText lipgloss.Style
}

// DefaultTheme returns the Dracula-like theme with light mode equivalents.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Checked:   lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Error:     lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Bold(true)

	t.Marked = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Moving = r.NewStyle().Foreground(t.Primary).Italic(true)
	t.Guide = r.NewStyle().Foreground(t.Muted)
	t.Indicator = r.NewStyle().Foreground(t.Secondary)
	t.Done = r.NewStyle().Foreground(t.Checked)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.Status = r.NewStyle().Foreground(t.Muted)
	t.ErrorText = r.NewStyle().Foreground(t.Error).Bold(true)

	return t
}
