package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// newHelpModel returns a bubbles help model in the app's colors
func newHelpModel() help.Model {
	m := help.New()
	keyStyle := HelpKey
	descStyle := lipgloss.NewStyle().Foreground(ColorText)
	sepStyle := lipgloss.NewStyle().Foreground(ColorBorder)

	m.Styles = help.Styles{
		ShortKey:       keyStyle,
		ShortDesc:      lipgloss.NewStyle().Foreground(ColorMuted),
		ShortSeparator: sepStyle,
		Ellipsis:       sepStyle,
		FullKey:        keyStyle,
		FullDesc:       descStyle,
		FullSeparator:  sepStyle,
	}
	m.ShortSeparator = "  •  "
	m.FullSeparator = "    "
	return m
}

// HelpOverlay shows every key binding in a centered box
type HelpOverlay struct {
	model   help.Model
	visible bool
	width   int
	height  int
}

// NewHelpOverlay creates a hidden overlay
func NewHelpOverlay() HelpOverlay {
	m := newHelpModel()
	m.ShowAll = true
	return HelpOverlay{model: m}
}

// Toggle toggles the visibility of the help overlay
func (h *HelpOverlay) Toggle() {
	h.visible = !h.visible
}

// SetVisible sets the visibility of the help overlay
func (h *HelpOverlay) SetVisible(visible bool) {
	h.visible = visible
}

// IsVisible returns whether the help overlay is visible
func (h HelpOverlay) IsVisible() bool {
	return h.visible
}

// SetSize sets the area the overlay is centered in
func (h *HelpOverlay) SetSize(w, ht int) {
	h.width = w
	h.height = ht
}

// View renders the overlay for keys
func (h HelpOverlay) View(keys KeyMap) string {
	if !h.visible {
		return ""
	}

	title := lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		MarginBottom(1).
		Render("Keyboard Shortcuts")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, h.model.View(keys)))

	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, box)
}

// HelpBar renders the one-line key hints at the bottom of the screen
func HelpBar(keys KeyMap, width int) string {
	m := newHelpModel()
	m.Width = max(width-2, 0)
	return HelpStyle.MaxHeight(1).Render(m.View(keys))
}
