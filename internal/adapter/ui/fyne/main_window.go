package fyne

import (
	"fmt"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/cadence/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
	"github.com/tejashwikalptaru/cadence/res"
)

const (
	APPNAME = "Cadence"
	WIDTH   = 640
	HEIGHT  = 420

	marqueeWidth = 48
	marqueeTick  = 300 * time.Millisecond
)

// MainWindow is the main UI window implementing ports.PlayerView.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
//
// View methods may be called from any goroutine; they hop onto the UI
// thread with fyne.Do.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window

	// UI components
	prevButton    *widgets.ControlButton
	playButton    *widgets.ControlButton
	stopButton    *widgets.ControlButton
	nextButton    *widgets.ControlButton
	shuffleButton *widgets.ControlButton
	repeatButton  *widgets.ControlButton
	likeButton    *widgets.ControlButton
	muteButton    *widgets.ControlButton

	songInfo       *widget.Label
	albumInfo      *widget.Label
	currentTime    *widget.Label
	endTime        *widget.Label
	queueTime      *widget.Label
	status         *widget.Label
	progressSlider *widget.Slider
	volumeSlider   *widget.Slider
	scanBar        *widget.ProgressBar
	scanCancel     *widget.Button
	scanBox        *fyneapp.Container

	// State
	mu          sync.Mutex
	marquee     *widgets.Marquee
	stopScroll  chan struct{}
	scrollWg    sync.WaitGroup
	queueWindow *QueueWindow
	library     *LibraryWindow

	// Lifecycle management
	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

var _ ports.PlayerView = (*MainWindow)(nil)

// NewMainWindow creates a new main window.
func NewMainWindow(app fyneapp.App) *MainWindow {
	w := &MainWindow{
		app:        app,
		marquee:    widgets.NewMarquee("", marqueeWidth),
		stopScroll: make(chan struct{}),
	}

	w.window = app.NewWindow(APPNAME)
	w.buildUI()
	w.window.Resize(fyneapp.NewSize(WIDTH, HEIGHT))

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	artwork := canvas.NewImageFromResource(theme.MediaMusicIcon())
	artwork.FillMode = canvas.ImageFillContain
	artwork.SetMinSize(fyneapp.NewSize(160, 160))

	hover := func(tip string) { w.status.SetText(tip) }
	w.prevButton = widgets.NewControlButton(theme.MediaSkipPreviousIcon(), nil, hover)
	w.playButton = widgets.NewControlButton(theme.MediaPlayIcon(), nil, hover)
	w.stopButton = widgets.NewControlButton(theme.MediaStopIcon(), nil, hover)
	w.stopButton.SetTooltip("Stop")
	w.nextButton = widgets.NewControlButton(theme.MediaSkipNextIcon(), nil, hover)
	w.shuffleButton = widgets.NewControlButton(glyphIcon(ports.GlyphShuffleOff), nil, hover)
	w.repeatButton = widgets.NewControlButton(glyphIcon(ports.GlyphRepeatOff), nil, hover)
	w.likeButton = widgets.NewControlButton(glyphIcon(ports.GlyphNotLiked), nil, hover)
	w.muteButton = widgets.NewControlButton(glyphIcon(ports.GlyphVolume), nil, hover)

	w.songInfo = widget.NewLabel("No track loaded")
	w.songInfo.Truncation = fyneapp.TextTruncateClip
	w.songInfo.TextStyle = fyneapp.TextStyle{Bold: true, Italic: true}
	w.albumInfo = widget.NewLabel("")
	w.albumInfo.Truncation = fyneapp.TextTruncateEllipsis

	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeSlider.Orientation = widget.Horizontal
	volumeHolder := container.NewBorder(nil, nil, w.muteButton, nil, w.volumeSlider)

	buttons := container.NewHBox(
		w.prevButton, w.playButton, w.stopButton, w.nextButton,
		widget.NewSeparator(),
		w.shuffleButton, w.repeatButton, w.likeButton,
	)

	w.progressSlider = widget.NewSlider(0, 1)
	w.currentTime = widget.NewLabel(domain.FormatDuration(0))
	w.endTime = widget.NewLabel(domain.FormatDuration(0))
	sliderHolder := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	w.queueTime = widget.NewLabel("")
	w.status = widget.NewLabel("")
	w.status.Truncation = fyneapp.TextTruncateEllipsis

	w.scanBar = widget.NewProgressBar()
	w.scanCancel = widget.NewButtonWithIcon("", theme.CancelIcon(), nil)
	w.scanBox = container.NewBorder(nil, nil, widget.NewLabel("Scanning"), w.scanCancel, w.scanBar)
	w.scanBox.Hide()

	info := container.NewVBox(w.songInfo, w.albumInfo, w.queueTime)
	top := container.NewBorder(nil, nil, artwork, nil, info)
	controls := container.NewVBox(
		sliderHolder,
		container.NewBorder(nil, nil, buttons, nil, volumeHolder),
		w.scanBox,
		w.status,
	)
	w.window.SetContent(container.NewPadded(container.NewBorder(top, controls, nil, nil)))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}
	p := w.presenter

	w.playButton.OnTapped = p.OnPlayPauseClicked
	w.stopButton.OnTapped = p.OnStopClicked
	w.nextButton.OnTapped = p.OnNextClicked
	w.prevButton.OnTapped = p.OnPreviousClicked
	w.shuffleButton.OnTapped = p.OnShuffleClicked
	w.repeatButton.OnTapped = p.OnRepeatClicked
	w.likeButton.OnTapped = p.OnLikeClicked
	w.muteButton.OnTapped = p.OnMuteClicked
	w.scanCancel.OnTapped = p.OnCancelScan

	w.volumeSlider.OnChangeEnded = p.OnVolumeChanged
	w.progressSlider.OnChangeEnded = func(value float64) {
		p.OnSeekRequested(time.Duration(value * float64(time.Second)))
	}
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	separator := fyneapp.NewMenuItemSeparator()

	file := fyneapp.NewMenu("File",
		fyneapp.NewMenuItem("Open File...", w.handleOpenFile),
		fyneapp.NewMenuItem("Open Folder...", w.handleOpenFolder),
		separator,
		fyneapp.NewMenuItem("Rescan Library", w.presenter.OnRescanLibrary),
		separator,
		fyneapp.NewMenuItem("Exit", w.Close),
	)

	view := fyneapp.NewMenu("View",
		fyneapp.NewMenuItem("Queue", w.ShowQueueWindow),
		fyneapp.NewMenuItem("Library", w.ShowLibraryWindow),
	)

	profile := fyneapp.NewMenu("Profile",
		fyneapp.NewMenuItem("Switch Profile...", w.handleSwitchProfile),
	)

	help := fyneapp.NewMenu("Help",
		fyneapp.NewMenuItem("About", func() {
			content := widget.NewRichTextFromMarkdown(res.AboutContent)
			content.Wrapping = fyneapp.TextWrapWord
			dialog.ShowCustom("About "+APPNAME, "Close", content, w.window)
		}),
	)

	return []*fyneapp.Menu{file, view, profile, help}
}

// handleOpenFile handles the "Open File" menu action.
func (w *MainWindow) handleOpenFile() {
	NewFileDialog(w.window, w.presenter.LastFolder(), func(filePath string) {
		_ = w.presenter.OnFilesOpened(filePath)
	}, w.presenter.logger).Show()
}

// handleOpenFolder handles the "Open Folder" menu action.
func (w *MainWindow) handleOpenFolder() {
	NewFolderDialog(w.window, w.presenter.LastFolder(), w.presenter.OnFolderOpened, w.presenter.logger).Show()
}

// handleSwitchProfile asks for a profile name. Unknown names create a profile.
func (w *MainWindow) handleSwitchProfile() {
	profiles, active, err := w.presenter.Profiles()
	if err != nil {
		dialog.ShowError(err, w.window)
		return
	}

	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	entry := widget.NewSelectEntry(names)
	entry.SetText(active.Name)

	dialog.ShowForm("Switch Profile", "Switch", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Profile", entry)},
		func(ok bool) {
			if ok && entry.Text != "" && entry.Text != active.Name {
				_ = w.presenter.OnProfileSelected(entry.Text)
			}
		}, w.window)
}

// ShowQueueWindow opens the queue window, or focuses it when already open.
func (w *MainWindow) ShowQueueWindow() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.queueWindow == nil {
		w.queueWindow = NewQueueWindow(w.app, w.presenter)
		w.queueWindow.SetOnWindowClosed(func() {
			w.mu.Lock()
			w.queueWindow = nil
			w.mu.Unlock()
		})
	}
	w.queueWindow.Show()
}

// ShowLibraryWindow opens the library window, or focuses it when already open.
func (w *MainWindow) ShowLibraryWindow() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.library == nil {
		w.library = NewLibraryWindow(w.app, w.presenter)
		w.library.SetOnWindowClosed(func() {
			w.mu.Lock()
			w.library = nil
			w.mu.Unlock()
		})
	}
	w.library.Show()
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	c := w.window.Canvas()

	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeyUp, Modifier: fyneapp.KeyModifierAlt},
		func(fyneapp.Shortcut) { w.nudgeVolume(5) })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeyDown, Modifier: fyneapp.KeyModifierAlt},
		func(fyneapp.Shortcut) { w.nudgeVolume(-5) })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeyRight, Modifier: fyneapp.KeyModifierAlt},
		func(fyneapp.Shortcut) { w.presenter.OnNextClicked() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeyLeft, Modifier: fyneapp.KeyModifierAlt},
		func(fyneapp.Shortcut) { w.presenter.OnPreviousClicked() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeySpace, Modifier: fyneapp.KeyModifierAlt},
		func(fyneapp.Shortcut) { w.presenter.OnPlayPauseClicked() })
}

func (w *MainWindow) nudgeVolume(delta float64) {
	v := w.volumeSlider.Value + delta
	if v > 100 {
		v = 100
	}
	if v < 0 {
		v = 0
	}
	w.volumeSlider.SetValue(v)
	w.presenter.OnVolumeChanged(v)
}

// startScrollInfoRoutine scrolls song info that does not fit the label.
func (w *MainWindow) startScrollInfoRoutine() {
	w.scrollWg.Add(1)
	go func() {
		defer w.scrollWg.Done()
		ticker := time.NewTicker(marqueeTick)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.mu.Lock()
				scrolls := w.marquee.Scrolls()
				frame := w.marquee.Step()
				w.mu.Unlock()
				if scrolls {
					fyneapp.Do(func() { w.songInfo.SetText(frame) })
				}
			case <-w.stopScroll:
				return
			}
		}
	}()
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.startScrollInfoRoutine()
	w.window.SetCloseIntercept(w.Close)
	w.window.ShowAndRun()
}

// Close stops the scrolling animation and closes every window.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		close(w.stopScroll)
		w.scrollWg.Wait()

		w.mu.Lock()
		queueWindow, library := w.queueWindow, w.library
		w.mu.Unlock()
		if queueWindow != nil {
			queueWindow.Close()
		}
		if library != nil {
			library.Close()
		}
		w.window.Close()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// PlayerView implementation

// SetTrackInfo updates the displayed track information.
func (w *MainWindow) SetTrackInfo(title, artist, album string) {
	text := "No track loaded"
	switch {
	case artist != "" && title != "":
		text = fmt.Sprintf("%s - %s", artist, title)
	case title != "":
		text = title
	}

	w.mu.Lock()
	w.marquee.SetText(text)
	frame := w.marquee.Frame()
	w.mu.Unlock()

	fyneapp.Do(func() {
		w.songInfo.SetText(frame)
		w.albumInfo.SetText(album)
		w.window.SetTitle(fmt.Sprintf("%s - %s", APPNAME, text))
	})
}

// SetControls rebinds every transport button.
func (w *MainWindow) SetControls(c ports.TransportControls) {
	fyneapp.Do(func() {
		bindControl(w.playButton, c.PlayPause)
		bindControl(w.prevButton, c.Previous)
		bindControl(w.nextButton, c.Next)
		bindControl(w.shuffleButton, c.Shuffle)
		bindControl(w.repeatButton, c.Repeat)
		bindControl(w.likeButton, c.Like)
		bindControl(w.muteButton, c.Mute)

		if c.Repeat.Glyph == ports.GlyphRepeatOne {
			w.repeatButton.SetText("1")
		} else {
			w.repeatButton.SetText("")
		}
	})
}

func bindControl(b *widgets.ControlButton, c ports.Control) {
	b.SetIcon(glyphIcon(c.Glyph))
	b.SetTooltip(c.Tooltip)
	if c.Enabled {
		b.Enable()
	} else {
		b.Disable()
	}
	b.SetActive(c.Active)
}

// glyphIcon maps a glyph to a theme resource.
func glyphIcon(g ports.Glyph) fyneapp.Resource {
	switch g {
	case ports.GlyphPause:
		return theme.MediaPauseIcon()
	case ports.GlyphPrevious:
		return theme.MediaSkipPreviousIcon()
	case ports.GlyphNext:
		return theme.MediaSkipNextIcon()
	case ports.GlyphShuffleOn, ports.GlyphShuffleOff:
		return theme.ViewRefreshIcon()
	case ports.GlyphRepeatOff, ports.GlyphRepeatAll, ports.GlyphRepeatOne:
		return theme.MediaReplayIcon()
	case ports.GlyphLiked:
		return theme.ConfirmIcon()
	case ports.GlyphNotLiked:
		return theme.ContentAddIcon()
	case ports.GlyphMuted:
		return theme.VolumeMuteIcon()
	case ports.GlyphVolume:
		return theme.VolumeUpIcon()
	default:
		return theme.MediaPlayIcon()
	}
}

// SetVolume updates the volume slider (0.0 to 1.0).
func (w *MainWindow) SetVolume(volume float64) {
	fyneapp.Do(func() {
		w.volumeSlider.Value = volume * 100.0
		w.volumeSlider.Refresh()
	})
}

// SetProgress updates the position labels and slider.
func (w *MainWindow) SetProgress(position, duration time.Duration) {
	fyneapp.Do(func() {
		w.currentTime.SetText(domain.FormatDuration(position))
		w.endTime.SetText(domain.FormatDuration(duration))
		upper := duration.Seconds()
		if upper <= 0 {
			upper = 1
		}
		w.progressSlider.Max = upper
		w.progressSlider.Value = position.Seconds()
		w.progressSlider.Refresh()
	})
}

// SetQueueTime updates the total and remaining queue time label.
func (w *MainWindow) SetQueueTime(total, remaining time.Duration) {
	text := ""
	if total > 0 {
		text = fmt.Sprintf("Queue %s, %s left", domain.FormatDuration(total), domain.FormatDuration(remaining))
	}
	fyneapp.Do(func() { w.queueTime.SetText(text) })
}

// SetQueue forwards queue updates to the queue window when it is open.
func (w *MainWindow) SetQueue(entries []domain.QueueEntry, current int) {
	w.mu.Lock()
	queueWindow := w.queueWindow
	w.mu.Unlock()

	if queueWindow != nil {
		queueWindow.SetEntries(entries, current)
	}
}

// ShowScanProgress reports progress of a running library scan.
func (w *MainWindow) ShowScanProgress(progress domain.ScanProgress) {
	fyneapp.Do(func() {
		w.scanBar.SetValue(progress.Percentage() / 100)
		if progress.CurrentFile != "" {
			w.status.SetText(progress.CurrentFile)
		}
		w.scanBox.Show()
	})
}

// HideScanProgress clears the scan progress indicator.
func (w *MainWindow) HideScanProgress() {
	fyneapp.Do(func() {
		w.scanBox.Hide()
		w.status.SetText("")
	})
}

// ShowNotification displays a system notification.
func (w *MainWindow) ShowNotification(title, message string) {
	w.app.SendNotification(fyneapp.NewNotification(title, message))
}
