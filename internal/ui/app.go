package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lumipallolabs/disko/internal/core"
	"github.com/lumipallolabs/disko/internal/logging"
	"github.com/lumipallolabs/disko/internal/model"
	"github.com/lumipallolabs/disko/internal/scanner"
)

// scanStartMsg triggers the actual scan start (after UI has rendered)
type scanStartMsg struct{}

// eventMsg carries one controller event
type eventMsg struct {
	event core.Event
}

// eventsClosedMsg is sent when the controller's event channel closes
type eventsClosedMsg struct{}

// refreshTickMsg re-reads the tree while a walk is filling it
type refreshTickMsg struct{}

// deleteDoneMsg is sent when a deletion batch finishes
type deleteDoneMsg struct {
	event core.DeletedEvent
	err   error
}

// refreshInterval paces list updates while a walk is running
const refreshInterval = 250 * time.Millisecond

// Layout constants
const (
	headerHeight = 1
	footerHeight = 3 // detail, status and help lines
	previewShare = 0.4
	minPreviewW  = 20
	panelBorder  = 2
)

// App is the main application model
type App struct {
	ctx  context.Context
	ctrl *core.Controller
	keys KeyMap

	// Components
	header  Header
	list    ListPanel
	preview PreviewPanel
	confirm ConfirmDialog
	help    HelpOverlay
	spin    spinner.Model

	// Scan state
	events   <-chan core.Event
	scanning bool
	deleting bool

	// Status line
	status    string
	statusErr bool

	// file type per path, sniffed lazily for the selected file
	fileTypes map[string]string

	width  int
	height int
}

// NewApp creates the application model around ctrl
func NewApp(ctx context.Context, ctrl *core.Controller) App {
	vol, err := model.GetVolume(ctrl.RootPath())
	if err != nil {
		logging.Debug.Printf("[App] volume info for %s: %v", ctrl.RootPath(), err)
	}
	h := NewHeader(ctrl.RootPath(), vol)
	freed := ctrl.FreedState()
	h.SetFreedStats(freed.Session, freed.Lifetime)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return App{
		ctx:       ctx,
		ctrl:      ctrl,
		keys:      DefaultKeyMap(),
		header:    h,
		list:      NewListPanel(),
		help:      NewHelpOverlay(),
		spin:      sp,
		fileTypes: make(map[string]string),
	}
}

// Init initializes the app
func (a App) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("disko"), func() tea.Msg {
		return scanStartMsg{}
	})
}

// listen waits for the next controller event
func (a App) listen() tea.Cmd {
	ch := a.events
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

// Update handles messages
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateLayout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case scanStartMsg:
		events, err := a.ctrl.StartScan(a.ctx)
		if err != nil {
			a.setError(err)
			return a, nil
		}
		a.events = events
		a.scanning = true
		a.list.Reset()
		a.preview.Clear()
		a.setStatus("")
		a.refresh()
		return a, tea.Batch(a.listen(), refreshTick(), a.spin.Tick)

	case eventMsg:
		a.handleEvent(msg.event)
		return a, a.listen()

	case eventsClosedMsg:
		a.events = nil
		return a, nil

	case refreshTickMsg:
		if !a.scanning {
			return a, nil
		}
		a.refresh()
		a.showProgress(a.ctrl.ScanState().Progress)
		return a, refreshTick()

	case spinner.TickMsg:
		if !a.scanning {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		a.header.SetSpinner(a.spin.View())
		return a, cmd

	case deleteDoneMsg:
		a.deleting = false
		a.handleDeleted(msg.event, msg.err)
		return a, nil
	}

	return a, nil
}

func (a *App) handleEvent(ev core.Event) {
	switch ev := ev.(type) {
	case core.StartedEvent:
		logging.Debug.Printf("[App] scan started: %s", ev.Path)
		a.header.SetScanning(true, "")

	case core.ProgressEvent:
		a.showProgress(scanner.Progress(ev))

	case core.FinishedEvent:
		a.scanning = false
		a.header.SetScanning(false, "")
		a.list.SetLoading(false)
		a.refresh()
		elapsed := ev.Elapsed.Round(time.Millisecond)
		switch {
		case ev.Err != nil:
			a.setError(ev.Err)
		case ev.Stopped:
			a.setStatus(fmt.Sprintf("Scan stopped after %v, results are partial", elapsed))
		default:
			a.setStatus(fmt.Sprintf("Scanned %s entries in %v", FormatCount(ev.Totals.Descendants), elapsed))
		}
	}
}

// showProgress puts walk counters and elapsed time in the header
func (a *App) showProgress(p scanner.Progress) {
	st := a.ctrl.ScanState()
	if !st.IsScanning() {
		return
	}
	a.header.SetScanning(true, fmt.Sprintf("%s files, %s dirs, %s (%v)",
		FormatCount(nonNegative(p.FilesScanned)),
		FormatCount(nonNegative(p.DirsScanned)),
		FormatSize(nonNegative(p.BytesFound)),
		st.Elapsed().Truncate(time.Second)))
}

func (a *App) handleDeleted(ev core.DeletedEvent, err error) {
	a.list.ClearMarks()
	clear(a.fileTypes)
	a.header.SetFreedStats(ev.SessionFreed, ev.TotalFreed)
	if vol, verr := model.GetVolume(a.ctrl.RootPath()); verr == nil {
		a.header.SetVolume(vol)
	}
	a.refresh()

	if err != nil {
		a.setError(err)
		return
	}
	a.setStatus(fmt.Sprintf("Deleted %d item(s), freed %s", len(ev.Paths), FormatSize(ev.Sizes.Disk)))
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	// Confirm popup takes all input while open
	if a.confirm.IsOpen() {
		switch {
		case key.Matches(msg, a.keys.Confirm):
			return a, a.startDelete()
		case key.Matches(msg, a.keys.Cancel), key.Matches(msg, a.keys.Quit):
			a.confirm.Close()
		}
		return a, nil
	}

	// Help overlay closes on help or quit keys
	if a.help.IsVisible() {
		if key.Matches(msg, a.keys.Help) || key.Matches(msg, a.keys.Quit) {
			a.help.SetVisible(false)
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.help.Toggle()
		return a, nil
	}

	// The tree must not change under a running deletion
	if a.deleting {
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Up):
		a.list.MoveUp()
		a.updatePreview()

	case key.Matches(msg, a.keys.Down):
		a.list.MoveDown()
		a.updatePreview()

	case key.Matches(msg, a.keys.Top):
		a.list.GoToTop()
		a.updatePreview()

	case key.Matches(msg, a.keys.Bottom):
		a.list.GoToBottom()
		a.updatePreview()

	case key.Matches(msg, a.keys.PageUp):
		a.list.PageUp()
		a.updatePreview()

	case key.Matches(msg, a.keys.PageDown):
		a.list.PageDown()
		a.updatePreview()

	case key.Matches(msg, a.keys.Enter):
		a.enterSelected()

	case key.Matches(msg, a.keys.Back):
		a.goBack()

	case key.Matches(msg, a.keys.Select):
		a.list.ToggleMark()
		a.list.MoveDown()
		a.updatePreview()

	case key.Matches(msg, a.keys.Delete):
		if a.ctrl.Running() {
			a.setError(core.ErrTraversalRunning)
			return a, nil
		}
		if targets := a.list.Targets(); len(targets) > 0 {
			a.confirm.Open(targets, a.ctrl.Cursor().Mode())
		}

	case key.Matches(msg, a.keys.ToggleMode):
		mode := a.ctrl.Cursor().ToggleMode()
		a.refresh()
		a.setStatus("Showing " + mode.String() + " sizes")

	case key.Matches(msg, a.keys.Rescan):
		if a.ctrl.Running() {
			return a, nil
		}
		return a, func() tea.Msg { return scanStartMsg{} }

	case key.Matches(msg, a.keys.Stop):
		if !a.ctrl.Running() {
			return a, nil
		}
		a.setStatus("Stopping…")
		ctrl := a.ctrl
		return a, func() tea.Msg {
			ctrl.StopScan()
			return nil
		}
	}

	return a, nil
}

// startDelete closes the popup and removes the targets in the background
func (a *App) startDelete() tea.Cmd {
	indices := a.confirm.Indices()
	a.confirm.Close()
	a.deleting = true
	a.setStatus("Deleting…")

	ctrl := a.ctrl
	return func() tea.Msg {
		ev, err := ctrl.Delete(indices)
		return deleteDoneMsg{event: ev, err: err}
	}
}

func (a *App) enterSelected() {
	row, ok := a.list.Selected()
	if !ok {
		return
	}
	if err := a.ctrl.Cursor().Enter(row.Index); err != nil {
		a.setError(err)
		return
	}
	a.list.Reset()
	a.setStatus("")
	a.refresh()
}

// goBack moves up and puts the selection on the directory just left
func (a *App) goBack() {
	cursor := a.ctrl.Cursor()
	listing, err := cursor.Current()
	if err != nil {
		return
	}
	if err := cursor.Up(); err != nil {
		if !errors.Is(err, core.ErrAtRoot) {
			a.setError(err)
		}
		return
	}
	a.list.Reset()
	a.setStatus("")
	a.refresh()
	a.list.Focus(listing.Dir.Index)
	a.updatePreview()
}

// refresh re-reads the cursor's directory into the panels
func (a *App) refresh() {
	cursor := a.ctrl.Cursor()
	mode := cursor.Mode()

	listing, err := cursor.Current()
	if err != nil {
		a.list.SetRows(nil, 0, mode)
		a.list.SetLoading(a.scanning)
		a.preview.Clear()
		return
	}
	a.list.SetRows(listing.Children, listing.Dir.Size(mode), mode)
	a.list.SetLoading(a.scanning)
	a.header.SetTotals(listing.Dir.Entry, mode)
	a.header.SetPath(a.displayPath(cursor.Path()))
	a.updatePreview()
}

// displayPath joins the cursor's names onto the root path
func (a App) displayPath(names []string) string {
	if len(names) <= 1 {
		return a.ctrl.RootPath()
	}
	return filepath.Join(append([]string{a.ctrl.RootPath()}, names[1:]...)...)
}

func (a *App) updatePreview() {
	row, ok := a.list.Selected()
	if !ok {
		a.preview.Clear()
		return
	}
	cursor := a.ctrl.Cursor()
	if !row.IsDir() {
		a.preview.SetContent(row.Name, nil, cursor.Mode())
		a.fileType(row.Entry)
		return
	}
	rows, err := cursor.Preview(row.Index)
	if err != nil {
		a.preview.Clear()
		return
	}
	a.preview.SetContent(row.Name+"/", rows, cursor.Mode())
}

// fileType returns the cached content type of a file entry
func (a *App) fileType(e model.Entry) string {
	if t, ok := a.fileTypes[e.Path]; ok {
		return t
	}
	ft, ext := model.DetectFileType(e.Path)
	desc := ft.String()
	if ext != "" {
		desc = strings.TrimSpace(ext + " " + desc)
	}
	a.fileTypes[e.Path] = desc
	return desc
}

func (a *App) setStatus(s string) {
	a.status = s
	a.statusErr = false
}

func (a *App) setError(err error) {
	a.status = err.Error()
	a.statusErr = true
}

// updateLayout recalculates component sizes
func (a *App) updateLayout() {
	a.header.SetWidth(a.width)
	a.help.SetSize(a.width, a.height)
	a.confirm.SetSize(a.width, a.height)

	bodyH := max(a.height-headerHeight-footerHeight-panelBorder, 1)
	previewW := int(float64(a.width) * previewShare)
	if previewW < minPreviewW {
		previewW = 0
	}
	listW := a.width - previewW

	a.list.SetSize(max(listW-panelBorder, 1), bodyH)
	if previewW > 0 {
		a.preview.SetSize(previewW-panelBorder, bodyH)
	} else {
		a.preview.SetSize(0, 0)
	}
}

// detailLine describes the selected entry
func (a App) detailLine() string {
	row, ok := a.list.Selected()
	if !ok {
		return ""
	}
	parts := []string{row.Kind.String()}
	if row.Info != nil {
		parts = append(parts, row.Info.Mode().String(), "modified "+FormatTime(row.Info.ModTime()))
	}
	if row.IsDir() {
		parts = append(parts, FormatCount(row.Descendants)+" entries")
	} else if t, ok := a.fileTypes[row.Path]; ok && t != "" {
		parts = append(parts, t)
	}
	if row.HardLink {
		parts = append(parts, "hard link, counted elsewhere")
	}
	parts = append(parts,
		"disk "+FormatSize(row.Sizes.Disk),
		"apparent "+FormatSize(row.Sizes.Apparent))
	return DetailStyle.MaxHeight(1).Render(strings.Join(parts, " · "))
}

// View renders the app
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.confirm.IsOpen() {
		return a.confirm.View()
	}
	if a.help.IsVisible() {
		return a.help.View(a.keys)
	}

	body := a.list.View()
	if a.preview.width > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, a.preview.View())
	}

	status := HelpStyle.MaxHeight(1).Render(a.status)
	if a.statusErr {
		status = ErrorStyle.MaxHeight(1).Render(a.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.header.View(),
		body,
		a.detailLine(),
		status,
		HelpBar(a.keys, a.width),
	)
}

// Run starts the interactive browser and blocks until the user quits
func Run(ctx context.Context, ctrl *core.Controller) error {
	defer ctrl.Stop()

	p := tea.NewProgram(NewApp(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func nonNegative(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
