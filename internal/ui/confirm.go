package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lumipallolabs/disko/internal/model"
)

const confirmMaxListed = 8 // Names shown before collapsing into "and N more"

// ConfirmDialog asks before entries are removed from disk
type ConfirmDialog struct {
	targets []model.EntryView
	mode    model.SizeMode
	width   int
	height  int
}

// Open shows the dialog for targets
func (c *ConfirmDialog) Open(targets []model.EntryView, mode model.SizeMode) {
	c.targets = targets
	c.mode = mode
}

// Close hides the dialog
func (c *ConfirmDialog) Close() {
	c.targets = nil
}

// IsOpen reports whether the dialog is showing
func (c ConfirmDialog) IsOpen() bool {
	return len(c.targets) > 0
}

// Targets returns the entries awaiting confirmation
func (c ConfirmDialog) Targets() []model.EntryView {
	return c.targets
}

// Indices returns the child indices of the targets
func (c ConfirmDialog) Indices() []int {
	out := make([]int, len(c.targets))
	for i, t := range c.targets {
		out[i] = t.Index
	}
	return out
}

// SetSize sets the area the dialog is centered in
func (c *ConfirmDialog) SetSize(w, h int) {
	c.width = w
	c.height = h
}

// View renders the dialog
func (c ConfirmDialog) View() string {
	if !c.IsOpen() {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)

	var total model.Sizes
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Delete %d item(s)?", len(c.targets))))
	b.WriteString("\n\n")
	for i, t := range c.targets {
		total = total.Add(t.Sizes)
		if i >= confirmMaxListed {
			continue
		}
		name := t.Name
		style := FileStyle
		if t.IsDir() {
			name += "/"
			style = DirStyle
		}
		fmt.Fprintf(&b, "%s %s\n", style.Render(name), DetailStyle.Padding(0).Render(FormatSize(t.Size(c.mode))))
	}
	if extra := len(c.targets) - confirmMaxListed; extra > 0 {
		b.WriteString(DetailStyle.Padding(0).Render(fmt.Sprintf("…and %d more", extra)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(StatsStyle.Render("Total: " + FormatSize(total.In(c.mode))))
	b.WriteString("\n\n")
	b.WriteString(HelpKey.Render("y") + HelpStyle.Render("delete") + HelpKey.Render("n") + HelpStyle.Render("cancel"))

	box := ConfirmBoxStyle.Render(b.String())
	return lipgloss.Place(c.width, c.height, lipgloss.Center, lipgloss.Center, box)
}
