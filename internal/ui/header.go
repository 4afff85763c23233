package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lumipallolabs/disko/internal/model"
)

const headerProgressBarWidth = 20 // Width of disk usage progress bar

// Header displays the explored path, totals, volume usage and scan status
type Header struct {
	path         string
	totals       model.Entry
	mode         model.SizeMode
	volume       model.Volume
	width        int
	scanning     bool
	scanProgress string
	spinner      string
	freedSession uint64
	freedTotal   uint64
}

// NewHeader creates a new header component
func NewHeader(path string, volume model.Volume) Header {
	return Header{path: path, volume: volume}
}

// SetTotals sets the entry whose totals are shown
func (h *Header) SetTotals(e model.Entry, mode model.SizeMode) {
	h.totals = e
	h.mode = mode
}

// SetPath sets the displayed location
func (h *Header) SetPath(path string) {
	h.path = path
}

// SetScanning sets the scanning state
func (h *Header) SetScanning(scanning bool, progress string) {
	h.scanning = scanning
	h.scanProgress = progress
}

// SetSpinner sets the current spinner frame
func (h *Header) SetSpinner(frame string) {
	h.spinner = frame
}

// SetFreedStats sets the freed space statistics
func (h *Header) SetFreedStats(session, total uint64) {
	h.freedSession = session
	h.freedTotal = total
}

// SetVolume updates the volume figures
func (h *Header) SetVolume(v model.Volume) {
	h.volume = v
}

// SetWidth sets the header width
func (h *Header) SetWidth(w int) {
	h.width = w
}

// View renders the header
func (h Header) View() string {
	appName := AppNameStyle.Render("DISKO")
	sep := lipgloss.NewStyle().Foreground(ColorBorder).Render(" │ ")

	left := appName + sep + StatsStyle.Render(h.path)
	if h.totals.Name != "" {
		left += StatsStyle.Render(fmt.Sprintf("  %s in %s entries (%s)",
			FormatSize(h.totals.Size(h.mode)), FormatCount(h.totals.Descendants), h.mode))
	}

	var middle string
	switch {
	case h.scanning:
		middle = lipgloss.NewStyle().Foreground(ColorWarning).Render(
			strings.TrimSpace(h.spinner + " Scanning " + h.scanProgress))
	case h.freedSession > 0 || h.freedTotal > 0:
		middle = lipgloss.NewStyle().Foreground(ColorMuted).Render("Freed: ") +
			FreedStyle.Render(FormatSize(h.freedSession)+" session") +
			lipgloss.NewStyle().Foreground(ColorMuted).Render(" | "+FormatSize(h.freedTotal)+" total")
	}

	var stats, statsCompact string
	if h.volume.TotalBytes > 0 {
		usedPct := h.volume.UsedPercent()
		filled := min(max(int(usedPct/100*float64(headerProgressBarWidth)), 0), headerProgressBarWidth)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", headerProgressBarWidth-filled)
		stats = StatsStyle.Render(fmt.Sprintf("Used: %s / %s  [%s] %.0f%%",
			FormatSize(h.volume.UsedBytes()), FormatSize(h.volume.TotalBytes), bar, usedPct))
		statsCompact = StatsStyle.Render(fmt.Sprintf("Free: %s", FormatSize(h.volume.FreeBytes)))
	}

	leftWidth := lipgloss.Width(left)
	middleWidth := lipgloss.Width(middle)
	statsWidth := lipgloss.Width(stats)

	// For narrow terminals, progressively hide elements
	if h.width < leftWidth+middleWidth+statsWidth+4 {
		stats = statsCompact
		statsWidth = lipgloss.Width(stats)
	}
	if h.width < leftWidth+middleWidth+statsWidth+4 && !h.scanning {
		middle = ""
		middleWidth = 0
	}
	if h.width < leftWidth+middleWidth+statsWidth+4 {
		stats = ""
		statsWidth = 0
	}

	remaining := max(h.width-leftWidth-middleWidth-statsWidth-2, 2)
	leftGap := max(remaining/2, 1)
	rightGap := max(remaining-leftGap, 1)

	line := left + strings.Repeat(" ", leftGap) + middle + strings.Repeat(" ", rightGap) + stats
	return HeaderStyle.MaxHeight(1).Render(line)
}
