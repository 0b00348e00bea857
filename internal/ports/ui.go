// Package ports define the UI interface for view abstraction.
// This interface allows the presenter to update the UI without depending on Fyne directly.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// Glyph names an icon shown on a transport control.
// The view maps glyphs to concrete toolkit resources.
type Glyph string

const (
	GlyphPlay       Glyph = "play"
	GlyphPause      Glyph = "pause"
	GlyphPrevious   Glyph = "previous"
	GlyphNext       Glyph = "next"
	GlyphShuffleOn  Glyph = "shuffle-on"
	GlyphShuffleOff Glyph = "shuffle-off"
	GlyphRepeatOff  Glyph = "repeat-off"
	GlyphRepeatAll  Glyph = "repeat-all"
	GlyphRepeatOne  Glyph = "repeat-one"
	GlyphLiked      Glyph = "liked"
	GlyphNotLiked   Glyph = "not-liked"
	GlyphVolume     Glyph = "volume"
	GlyphMuted      Glyph = "muted"
)

// Control is the bound state of a single button.
type Control struct {
	Glyph   Glyph
	Tooltip string

	// Active highlights toggles that are switched on
	Active bool

	Enabled bool
}

// TransportControls is the view model for the transport bar.
type TransportControls struct {
	PlayPause Control
	Previous  Control
	Next      Control
	Shuffle   Control
	Repeat    Control
	Like      Control
	Mute      Control
}

// PlayerView is the interface the presenter drives.
//
// Thread-safety: implementations marshal calls onto the UI thread themselves.
type PlayerView interface {
	// SetTrackInfo updates the displayed track information.
	SetTrackInfo(title, artist, album string)

	// SetControls rebinds every transport button.
	SetControls(controls TransportControls)

	// SetVolume updates the volume slider (0.0 to 1.0).
	SetVolume(volume float64)

	// SetProgress updates the position label and slider of the current track.
	SetProgress(position, duration time.Duration)

	// SetQueueTime updates the total and remaining queue time labels.
	SetQueueTime(total, remaining time.Duration)

	// SetQueue refreshes the queue list and highlights the current entry.
	SetQueue(entries []domain.QueueEntry, current int)

	// ShowScanProgress reports progress of a running library scan.
	ShowScanProgress(progress domain.ScanProgress)

	// HideScanProgress clears the scan progress indicator.
	HideScanProgress()

	// ShowNotification displays a temporary notification to the user.
	ShowNotification(title, message string)
}
