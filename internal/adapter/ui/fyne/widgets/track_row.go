// Package widgets provides custom Fyne widgets for the Cadence player.
package widgets

import (
	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

var (
	_ fyneapp.DoubleTappable    = (*TrackRow)(nil)
	_ fyneapp.SecondaryTappable = (*TrackRow)(nil)
)

// TrackRow is a list row showing a track title with its length on the right.
// Double-tapping plays the row; a secondary tap opens a context menu.
// Rows are recycled by widget.List, so the index is reassigned on every update.
type TrackRow struct {
	widget.BaseWidget

	title    *widget.Label
	duration *widget.Label
	index    int

	doubleTapped    func(index int)
	secondaryTapped func(index int, pos fyneapp.Position)
}

// NewTrackRow creates a row that reports double taps through doubleTapped.
func NewTrackRow(doubleTapped func(index int)) *TrackRow {
	r := &TrackRow{
		title:        widget.NewLabel(""),
		duration:     widget.NewLabel(""),
		doubleTapped: doubleTapped,
	}
	r.title.Truncation = fyneapp.TextTruncateEllipsis
	r.ExtendBaseWidget(r)
	return r
}

// CreateRenderer implements fyne.Widget.
func (r *TrackRow) CreateRenderer() fyneapp.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewBorder(nil, nil, nil, r.duration, r.title))
}

// Bind sets the row's position and text.
// A current row is shown in bold.
func (r *TrackRow) Bind(index int, title, duration string, current bool) {
	r.index = index
	r.title.TextStyle = fyneapp.TextStyle{Bold: current}
	r.title.SetText(title)
	r.duration.SetText(duration)
}

// Index returns the position the row was last bound to.
func (r *TrackRow) Index() int {
	return r.index
}

// Title returns the displayed title.
func (r *TrackRow) Title() string {
	return r.title.Text
}

// SetSecondaryTapped sets the callback for right-click (secondary tap) events.
func (r *TrackRow) SetSecondaryTapped(callback func(index int, pos fyneapp.Position)) {
	r.secondaryTapped = callback
}

// DoubleTapped implements fyne.DoubleTappable.
func (r *TrackRow) DoubleTapped(*fyneapp.PointEvent) {
	if r.doubleTapped != nil {
		r.doubleTapped(r.index)
	}
}

// TappedSecondary implements fyne.SecondaryTappable.
func (r *TrackRow) TappedSecondary(pe *fyneapp.PointEvent) {
	if r.secondaryTapped != nil {
		r.secondaryTapped(r.index, pe.AbsolutePosition)
	}
}
