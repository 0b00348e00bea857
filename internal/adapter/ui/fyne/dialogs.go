package fyne

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// FileDialog is a helper for creating file open dialogs filtered to audio files.
type FileDialog struct {
	window   fyne.Window
	startDir string
	callback func(string)
	logger   *slog.Logger
}

// NewFileDialog creates a new file dialog. startDir may be empty.
func NewFileDialog(window fyne.Window, startDir string, callback func(string), logger *slog.Logger) *FileDialog {
	return &FileDialog{
		window:   window,
		startDir: startDir,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the file dialog.
func (d *FileDialog) Show() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			d.logger.Error("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // User cancelled
		}
		defer reader.Close()

		if d.callback != nil {
			d.callback(reader.URI().Path())
		}
	}, d.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".mp3", ".flac", ".wav"}))
	if location := listableDir(d.startDir); location != nil {
		fd.SetLocation(location)
	}
	fd.Show()
}

// FolderDialog is a helper for creating folder open dialogs.
type FolderDialog struct {
	window   fyne.Window
	startDir string
	callback func(string)
	logger   *slog.Logger
}

// NewFolderDialog creates a new folder dialog. startDir may be empty.
func NewFolderDialog(window fyne.Window, startDir string, callback func(string), logger *slog.Logger) *FolderDialog {
	return &FolderDialog{
		window:   window,
		startDir: startDir,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the folder dialog.
func (d *FolderDialog) Show() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			d.logger.Error("folder dialog error", slog.Any("error", err))
			return
		}
		if uri == nil {
			return // User cancelled
		}

		if d.callback != nil {
			d.callback(uri.Path())
		}
	}, d.window)
	if location := listableDir(d.startDir); location != nil {
		fd.SetLocation(location)
	}
	fd.Show()
}

// listableDir returns dir as a listable URI, or nil if it cannot be listed.
func listableDir(dir string) fyne.ListableURI {
	if dir == "" {
		return nil
	}
	location, err := storage.ListerForURI(storage.NewFileURI(dir))
	if err != nil {
		return nil
	}
	return location
}
