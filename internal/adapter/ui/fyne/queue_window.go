package fyne

import (
	"fmt"
	"strings"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/cadence/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// QueueWindow shows the play queue with search, and lets the user play,
// reorder and remove entries.
type QueueWindow struct {
	window      fyneapp.Window
	list        *widget.List
	searchEntry *widget.Entry
	moveUp      *widget.Button
	moveDown    *widget.Button
	remove      *widget.Button

	// Data state, touched on the UI thread only
	entries  []domain.QueueEntry // Full queue in play order
	visible  []int               // Positions in entries shown in the list
	current  int                 // Play-order position of the current entry
	selected int                 // Play-order position of the selected entry, or -1

	presenter *Presenter

	onWindowClosed func()
}

// NewQueueWindow creates the queue window and loads the current queue.
func NewQueueWindow(app fyneapp.App, presenter *Presenter) *QueueWindow {
	w := &QueueWindow{
		presenter: presenter,
		selected:  -1,
	}

	w.window = app.NewWindow("Queue")
	w.window.Resize(fyneapp.NewSize(500, 600))
	w.buildUI()

	w.window.SetOnClosed(func() {
		if w.onWindowClosed != nil {
			w.onWindowClosed()
		}
	})

	entries, current := presenter.Queue()
	w.apply(entries, current)
	return w
}

// buildUI constructs the queue window layout.
func (w *QueueWindow) buildUI() {
	w.searchEntry = widget.NewEntry()
	w.searchEntry.SetPlaceHolder("Search...")
	w.searchEntry.OnChanged = func(string) { w.refilter() }

	w.list = widget.NewList(
		func() int { return len(w.visible) },
		func() fyneapp.CanvasObject { return widgets.NewTrackRow(w.onRowDoubleTapped) },
		w.updateRow,
	)
	w.list.OnSelected = func(id widget.ListItemID) {
		if id >= 0 && id < len(w.visible) {
			w.selected = w.visible[id]
		}
		w.updateButtons()
	}
	w.list.OnUnselected = func(widget.ListItemID) {
		w.selected = -1
		w.updateButtons()
	}

	w.moveUp = widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() { w.moveSelected(-1) })
	w.moveDown = widget.NewButtonWithIcon("", theme.MoveDownIcon(), func() { w.moveSelected(1) })
	w.remove = widget.NewButtonWithIcon("", theme.DeleteIcon(), w.removeSelected)
	clearButton := widget.NewButtonWithIcon("Clear", theme.ContentClearIcon(), w.presenter.OnQueueCleared)
	w.updateButtons()

	toolbar := container.NewHBox(w.moveUp, w.moveDown, w.remove, clearButton)
	top := container.NewBorder(nil, nil, nil, toolbar, w.searchEntry)
	w.window.SetContent(container.NewBorder(top, nil, nil, nil, w.list))
}

func (w *QueueWindow) updateRow(id widget.ListItemID, obj fyneapp.CanvasObject) {
	row, ok := obj.(*widgets.TrackRow)
	if !ok || id < 0 || id >= len(w.visible) {
		return
	}
	pos := w.visible[id]
	t := w.entries[pos].Track
	title := t.DisplayTitle()
	if t.Artist != "" {
		title = fmt.Sprintf("%s - %s", t.Artist, title)
	}
	row.Bind(id, fmt.Sprintf("%d. %s", pos+1, title), domain.FormatDuration(t.Duration), pos == w.current)
}

// onRowDoubleTapped plays the entry behind a list row.
func (w *QueueWindow) onRowDoubleTapped(id int) {
	if id < 0 || id >= len(w.visible) {
		return
	}
	_ = w.presenter.OnQueueEntrySelected(w.visible[id])
}

func (w *QueueWindow) moveSelected(delta int) {
	from := w.selected
	to := from + delta
	if from < 0 || to < 0 || to >= len(w.entries) {
		return
	}
	// the selection follows the entry ID once the queue update arrives
	_ = w.presenter.OnQueueEntryMoved(from, to)
}

func (w *QueueWindow) removeSelected() {
	if w.selected < 0 {
		return
	}
	_ = w.presenter.OnQueueEntryRemoved(w.selected)
}

// reordering is disabled while a search filters the list.
func (w *QueueWindow) updateButtons() {
	filtering := strings.TrimSpace(w.searchEntry.Text) != ""
	hasSelection := w.selected >= 0 && w.selected < len(w.entries)

	setEnabled(w.remove, hasSelection)
	setEnabled(w.moveUp, hasSelection && !filtering && w.selected > 0)
	setEnabled(w.moveDown, hasSelection && !filtering && w.selected < len(w.entries)-1)
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}

// SetEntries replaces the shown queue. Safe to call from any goroutine.
func (w *QueueWindow) SetEntries(entries []domain.QueueEntry, current int) {
	fyneapp.Do(func() { w.apply(entries, current) })
}

func (w *QueueWindow) apply(entries []domain.QueueEntry, current int) {
	selectedID := ""
	if w.selected >= 0 && w.selected < len(w.entries) {
		selectedID = w.entries[w.selected].EntryID
	}

	w.entries = entries
	w.current = current
	w.selected = -1
	for i, e := range entries {
		if e.EntryID == selectedID {
			w.selected = i
		}
	}
	w.refilter()
}

// refilter recomputes the visible rows from the search text.
func (w *QueueWindow) refilter() {
	query := strings.ToLower(strings.TrimSpace(w.searchEntry.Text))

	w.visible = w.visible[:0]
	for i, e := range w.entries {
		if query == "" || matchesTrack(e.Track, query) {
			w.visible = append(w.visible, i)
		}
	}

	w.window.SetTitle(fmt.Sprintf("Queue (%d items)", len(w.entries)))
	w.list.Refresh()

	want := w.selected
	w.list.UnselectAll()
	for id, pos := range w.visible {
		if pos == want {
			w.list.Select(id)
		}
	}
	w.updateButtons()
}

// matchesTrack reports whether any displayed field contains query.
// query must already be lower case.
func matchesTrack(t domain.Track, query string) bool {
	for _, field := range []string{t.Title, t.Artist, t.Album, t.Genre, t.FilePath} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Show displays the queue window.
func (w *QueueWindow) Show() {
	w.window.Show()
	w.window.RequestFocus()
}

// Close closes the queue window.
func (w *QueueWindow) Close() {
	w.window.Close()
}

// SetOnWindowClosed sets a callback invoked when the window is closed.
// This allows the MainWindow to clear its reference.
func (w *QueueWindow) SetOnWindowClosed(callback func()) {
	w.onWindowClosed = callback
}
