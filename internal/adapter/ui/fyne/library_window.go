package fyne

import (
	"context"
	"fmt"
	"strings"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/cadence/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// LibraryWindow browses the catalog by artist and album, and searches tracks.
// The first row of the artist and album lists stands for "all".
type LibraryWindow struct {
	window      fyneapp.Window
	searchEntry *widget.Entry
	artistList  *widget.List
	albumList   *widget.List
	trackList   *widget.List
	summary     *widget.Label

	// Data state, touched on the UI thread only
	artists []domain.Artist
	albums  []domain.Album
	tracks  []domain.Track
	artist  string // selected artist ID, empty for all
	album   string // selected album ID, empty for all

	presenter *Presenter

	onWindowClosed func()
}

// NewLibraryWindow creates the library window and loads the catalog.
func NewLibraryWindow(app fyneapp.App, presenter *Presenter) *LibraryWindow {
	w := &LibraryWindow{presenter: presenter}

	w.window = app.NewWindow("Library")
	w.window.Resize(fyneapp.NewSize(900, 600))
	w.buildUI()

	w.window.SetOnClosed(func() {
		if w.onWindowClosed != nil {
			w.onWindowClosed()
		}
	})

	w.Reload()
	return w
}

func (w *LibraryWindow) buildUI() {
	w.searchEntry = widget.NewEntry()
	w.searchEntry.SetPlaceHolder("Search tracks, artists, albums...")
	w.searchEntry.OnSubmitted = w.search

	w.artistList = widget.NewList(
		func() int { return len(w.artists) + 1 },
		func() fyneapp.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyneapp.CanvasObject) {
			label := obj.(*widget.Label)
			if id == 0 {
				label.SetText("All artists")
				return
			}
			label.SetText(w.artists[id-1].Name)
		},
	)
	w.artistList.OnSelected = func(id widget.ListItemID) { w.selectArtist(id) }

	w.albumList = widget.NewList(
		func() int { return len(w.albums) + 1 },
		func() fyneapp.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyneapp.CanvasObject) {
			label := obj.(*widget.Label)
			if id == 0 {
				label.SetText("All albums")
				return
			}
			a := w.albums[id-1]
			if a.Year > 0 {
				label.SetText(fmt.Sprintf("%s (%d)", a.Title, a.Year))
			} else {
				label.SetText(a.Title)
			}
		},
	)
	w.albumList.OnSelected = func(id widget.ListItemID) { w.selectAlbum(id) }

	w.trackList = widget.NewList(
		func() int { return len(w.tracks) },
		func() fyneapp.CanvasObject { return widgets.NewTrackRow(w.playFrom) },
		func(id widget.ListItemID, obj fyneapp.CanvasObject) {
			row, ok := obj.(*widgets.TrackRow)
			if !ok || id >= len(w.tracks) {
				return
			}
			t := w.tracks[id]
			title := t.DisplayTitle()
			if t.Artist != "" {
				title = fmt.Sprintf("%s - %s", t.Artist, title)
			}
			row.Bind(id, title, domain.FormatDuration(t.Duration), false)
		},
	)

	w.summary = widget.NewLabel("")

	play := widget.NewButtonWithIcon("Play", theme.MediaPlayIcon(), func() { w.playFrom(0) })
	appendButton := widget.NewButtonWithIcon("Add to Queue", theme.ContentAddIcon(), func() {
		w.presenter.OnAppendTracks(w.tracks)
	})
	next := widget.NewButtonWithIcon("Play Next", theme.MediaSkipNextIcon(), func() {
		w.presenter.OnPlayTracksNext(w.tracks)
	})
	reload := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), w.Reload)

	top := container.NewBorder(nil, nil, nil, reload, w.searchEntry)
	bottom := container.NewBorder(nil, nil, w.summary, container.NewHBox(play, appendButton, next))

	browse := container.NewHSplit(w.artistList, w.albumList)
	split := container.NewHSplit(browse, w.trackList)
	split.Offset = 0.45

	w.window.SetContent(container.NewBorder(top, bottom, nil, nil, split))
}

// Reload re-reads artists and the current selection from the library.
func (w *LibraryWindow) Reload() {
	artists, err := w.presenter.Library().Artists(context.Background())
	if err != nil {
		w.presenter.report("Library Error", "load artists", err)
		return
	}
	w.artists = artists
	w.artistList.Refresh()
	w.loadAlbums()
	w.loadTracks()
}

// selectArtist narrows albums and tracks to the artist at list row id.
func (w *LibraryWindow) selectArtist(id int) {
	w.artist = ""
	if id > 0 && id <= len(w.artists) {
		w.artist = w.artists[id-1].ID
	}
	w.album = ""
	w.albumList.UnselectAll()
	w.searchEntry.SetText("")
	w.loadAlbums()
	w.loadTracks()
}

// selectAlbum narrows tracks to the album at list row id.
func (w *LibraryWindow) selectAlbum(id int) {
	w.album = ""
	if id > 0 && id <= len(w.albums) {
		w.album = w.albums[id-1].ID
	}
	w.searchEntry.SetText("")
	w.loadTracks()
}

func (w *LibraryWindow) loadAlbums() {
	ctx := context.Background()
	var (
		albums []domain.Album
		err    error
	)
	if w.artist != "" {
		albums, err = w.presenter.Library().ArtistAlbums(ctx, w.artist)
	} else {
		albums, err = w.presenter.Library().Albums(ctx)
	}
	if err != nil {
		w.presenter.report("Library Error", "load albums", err)
		return
	}
	w.albums = albums
	w.albumList.Refresh()
}

func (w *LibraryWindow) loadTracks() {
	ctx := context.Background()
	lib := w.presenter.Library()
	var (
		tracks []domain.Track
		err    error
	)
	switch {
	case w.album != "":
		tracks, err = lib.AlbumTracks(ctx, w.album)
	case w.artist != "":
		tracks, err = lib.ArtistTracks(ctx, w.artist)
	default:
		tracks, err = lib.Tracks(ctx)
	}
	if err != nil {
		w.presenter.report("Library Error", "load tracks", err)
		return
	}
	w.setTracks(tracks)
}

// search replaces the track list with tracks matching query.
func (w *LibraryWindow) search(query string) {
	if strings.TrimSpace(query) == "" {
		w.loadTracks()
		return
	}
	tracks, err := w.presenter.Library().Search(context.Background(), query)
	if err != nil {
		w.presenter.report("Library Error", "search", err)
		return
	}
	w.setTracks(tracks)
}

func (w *LibraryWindow) setTracks(tracks []domain.Track) {
	w.tracks = tracks
	w.trackList.Refresh()
	w.trackList.ScrollToTop()
	w.summary.SetText(fmt.Sprintf("%d tracks", len(tracks)))
}

// playFrom replaces the queue with the listed tracks and plays row id.
func (w *LibraryWindow) playFrom(id int) {
	if id < 0 || id >= len(w.tracks) {
		return
	}
	_ = w.presenter.OnPlayTracks(w.tracks[id], w.tracks)
}

// Show displays the library window.
func (w *LibraryWindow) Show() {
	w.window.Show()
	w.window.RequestFocus()
}

// Close closes the library window.
func (w *LibraryWindow) Close() {
	w.window.Close()
}

// SetOnWindowClosed sets a callback invoked when the window is closed.
func (w *LibraryWindow) SetOnWindowClosed(callback func()) {
	w.onWindowClosed = callback
}
