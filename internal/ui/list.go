package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lumipallolabs/disko/internal/model"
)

const (
	listSizeBarWidth = 10 // Width of the share bar [██████    ]
	listSizeWidth    = 10 // Width of the size column
)

// ListPanel shows the children of the current directory, largest first
type ListPanel struct {
	rows    []model.EntryView
	total   uint64 // size of the directory, for share bars
	mode    model.SizeMode
	cursor  int
	offset  int // scroll offset
	marked  map[int]bool
	width   int
	height  int
	loading bool
}

// NewListPanel creates an empty list panel
func NewListPanel() ListPanel {
	return ListPanel{marked: make(map[int]bool)}
}

// SetSize sets the panel dimensions
func (l *ListPanel) SetSize(w, h int) {
	l.width = w
	l.height = h
	l.ensureVisible()
}

// SetRows replaces the listing. The cursor stays on the same child when it
// is still present, so live updates do not make the selection jump.
func (l *ListPanel) SetRows(rows []model.EntryView, total uint64, mode model.SizeMode) {
	current, hadCurrent := l.Selected()

	l.rows = rows
	l.total = total
	l.mode = mode

	if hadCurrent && l.Focus(current.Index) {
		return
	}
	if l.cursor >= len(l.rows) {
		l.cursor = max(len(l.rows)-1, 0)
	}
	l.ensureVisible()
}

// SetLoading marks the listing as still growing
func (l *ListPanel) SetLoading(loading bool) {
	l.loading = loading
}

// Reset moves to the top and clears marks, for a new directory
func (l *ListPanel) Reset() {
	l.rows = nil
	l.cursor = 0
	l.offset = 0
	l.ClearMarks()
}

// Focus puts the cursor on the row for child index idx
func (l *ListPanel) Focus(idx int) bool {
	for i, r := range l.rows {
		if r.Index == idx {
			l.cursor = i
			l.ensureVisible()
			return true
		}
	}
	return false
}

// Selected returns the row under the cursor
func (l ListPanel) Selected() (model.EntryView, bool) {
	if l.cursor >= 0 && l.cursor < len(l.rows) {
		return l.rows[l.cursor], true
	}
	return model.EntryView{}, false
}

// Rows returns the current listing
func (l ListPanel) Rows() []model.EntryView {
	return l.rows
}

// MoveUp moves cursor up
func (l *ListPanel) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
		l.ensureVisible()
	}
}

// MoveDown moves cursor down
func (l *ListPanel) MoveDown() {
	if l.cursor < len(l.rows)-1 {
		l.cursor++
		l.ensureVisible()
	}
}

// PageUp moves cursor up by one page
func (l *ListPanel) PageUp() {
	l.cursor = max(l.cursor-l.pageSize(), 0)
	l.ensureVisible()
}

// PageDown moves cursor down by one page
func (l *ListPanel) PageDown() {
	l.cursor = max(min(l.cursor+l.pageSize(), len(l.rows)-1), 0)
	l.ensureVisible()
}

// GoToTop moves to first item
func (l *ListPanel) GoToTop() {
	l.cursor = 0
	l.offset = 0
}

// GoToBottom moves to last item
func (l *ListPanel) GoToBottom() {
	l.cursor = max(len(l.rows)-1, 0)
	l.ensureVisible()
}

// ToggleMark marks or unmarks the row under the cursor for deletion
func (l *ListPanel) ToggleMark() {
	row, ok := l.Selected()
	if !ok {
		return
	}
	if l.marked[row.Index] {
		delete(l.marked, row.Index)
	} else {
		l.marked[row.Index] = true
	}
}

// ClearMarks unmarks everything
func (l *ListPanel) ClearMarks() {
	l.marked = make(map[int]bool)
}

// Targets returns the rows a delete applies to: the marked rows, or the row
// under the cursor when nothing is marked.
func (l ListPanel) Targets() []model.EntryView {
	if len(l.marked) == 0 {
		if row, ok := l.Selected(); ok {
			return []model.EntryView{row}
		}
		return nil
	}
	var out []model.EntryView
	for _, r := range l.rows {
		if l.marked[r.Index] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (l ListPanel) pageSize() int {
	return max(l.height, 1)
}

func (l *ListPanel) ensureVisible() {
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	maxVisible := l.pageSize()
	if l.cursor >= l.offset+maxVisible {
		l.offset = l.cursor - maxVisible + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// shareBar renders the size proportion of one row
func shareBar(size, total uint64, width int) string {
	filled := 0
	if total > 0 {
		filled = int(float64(size) / float64(total) * float64(width))
	}
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat(" ", width-filled)
}

// View renders the list
func (l ListPanel) View() string {
	style := ListPanelStyle.Width(l.width).Height(l.height)
	if len(l.rows) == 0 {
		msg := "Empty directory"
		if l.loading {
			msg = "Reading…"
		}
		return style.Render(FileStyle.Render(msg))
	}

	maxW := max(l.width-2, 1)
	var lines []string
	for i := l.offset; i < len(l.rows) && len(lines) < l.pageSize(); i++ {
		row := l.rows[i]
		size := row.Size(l.mode)

		mark := "  "
		if l.marked[row.Index] {
			mark = "● "
		}
		name := row.Name
		if row.IsDir() {
			name += "/"
		}
		if row.HardLink {
			name += " (link)"
		}
		pct := 0.0
		if l.total > 0 {
			pct = float64(size) / float64(l.total) * 100
		}
		line := fmt.Sprintf("%s%*s %5.1f%% [%s] %s",
			mark, listSizeWidth, FormatSize(size), pct,
			SizeBar.Render(shareBar(size, l.total, listSizeBarWidth)), name)

		var itemStyle lipgloss.Style
		switch {
		case i == l.cursor:
			itemStyle = ItemSelected.Width(maxW)
		case l.marked[row.Index]:
			itemStyle = MarkedStyle
		case row.IsDir():
			itemStyle = DirStyle
		default:
			itemStyle = FileStyle
		}
		lines = append(lines, itemStyle.MaxWidth(maxW).Render(line))
	}

	return style.Render(strings.Join(lines, "\n"))
}

// PreviewPanel lists the children of the highlighted directory
type PreviewPanel struct {
	title  string
	rows   []model.EntryView
	mode   model.SizeMode
	width  int
	height int
}

// SetSize sets the panel dimensions
func (p *PreviewPanel) SetSize(w, h int) {
	p.width = w
	p.height = h
}

// SetContent replaces the previewed listing
func (p *PreviewPanel) SetContent(title string, rows []model.EntryView, mode model.SizeMode) {
	p.title = title
	p.rows = rows
	p.mode = mode
}

// Clear empties the preview
func (p *PreviewPanel) Clear() {
	p.title = ""
	p.rows = nil
}

// View renders the preview
func (p PreviewPanel) View() string {
	style := PreviewPanelStyle.Width(p.width).Height(p.height)
	if p.width <= 0 {
		return ""
	}
	maxW := max(p.width-2, 1)

	lines := []string{DetailStyle.Padding(0).Render(p.title)}
	for _, row := range p.rows {
		if len(lines) >= max(p.height, 1) {
			break
		}
		name := row.Name
		itemStyle := FileStyle
		if row.IsDir() {
			name += "/"
			itemStyle = DirStyle
		}
		line := fmt.Sprintf("%*s %s", listSizeWidth, FormatSize(row.Size(p.mode)), name)
		lines = append(lines, itemStyle.MaxWidth(maxW).Render(line))
	}
	return style.Render(strings.Join(lines, "\n"))
}
