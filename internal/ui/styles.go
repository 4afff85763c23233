package ui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Colors
var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorSuccess = lipgloss.Color("#73F59F")
	ColorWarning = lipgloss.Color("#F5A623")
	ColorDanger  = lipgloss.Color("#F56565")
	ColorMuted   = lipgloss.Color("#6B7280")
	ColorBorder  = lipgloss.Color("#3F3F46")
	ColorText    = lipgloss.Color("#E4E4E7")
	ColorDir     = lipgloss.Color("#22D3EE") // neon cyan
	ColorFile    = lipgloss.Color("#A1A1AA")
	ColorMarked  = lipgloss.Color("#FDE047") // yellow
)

// Styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F1F23")).
			Padding(0, 1)

	AppNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C084FC")). // soft violet
			Bold(true)

	StatsStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	FreedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399"))

	// List
	ListPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	PreviewPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorder).
				Padding(0, 1)

	ItemSelected = lipgloss.NewStyle().
			Background(ColorPrimary).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	DirStyle    = lipgloss.NewStyle().Foreground(ColorDir)
	FileStyle   = lipgloss.NewStyle().Foreground(ColorFile)
	MarkedStyle = lipgloss.NewStyle().Foreground(ColorMarked).Bold(true)
	SizeBar     = lipgloss.NewStyle().Foreground(ColorPrimary)

	// Detail and status lines
	DetailStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Padding(0, 1)

	// Help bar
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)

	HelpKey = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	// Confirm popup
	ConfirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorDanger).
			Padding(1, 2)
)

// FormatSize formats bytes to human readable string
func FormatSize(bytes uint64) string {
	return humanize.IBytes(bytes)
}

// FormatCount formats an entry count with thousands separators
func FormatCount(n uint64) string {
	return humanize.Comma(int64(n))
}

// FormatTime formats a modification time relative to now
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04") + " (" + humanize.Time(t) + ")"
}
