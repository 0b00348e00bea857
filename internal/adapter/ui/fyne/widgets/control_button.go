package widgets

import (
	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

var _ desktop.Hoverable = (*ControlButton)(nil)

// ControlButton is an icon button that reports its tooltip while hovered.
type ControlButton struct {
	widget.Button

	tooltip string
	onHover func(tooltip string)
}

// NewControlButton creates an icon-only button.
// onHover receives the tooltip on mouse in and an empty string on mouse out.
func NewControlButton(icon fyneapp.Resource, tapped func(), onHover func(tooltip string)) *ControlButton {
	b := &ControlButton{onHover: onHover}
	b.Icon = icon
	b.OnTapped = tapped
	b.ExtendBaseWidget(b)
	return b
}

// SetTooltip changes the hover text.
func (b *ControlButton) SetTooltip(tooltip string) {
	b.tooltip = tooltip
}

// Tooltip returns the hover text.
func (b *ControlButton) Tooltip() string {
	return b.tooltip
}

// SetActive highlights the button for toggles that are switched on.
func (b *ControlButton) SetActive(active bool) {
	if active {
		b.Importance = widget.HighImportance
	} else {
		b.Importance = widget.MediumImportance
	}
	b.Refresh()
}

// MouseIn implements desktop.Hoverable.
func (b *ControlButton) MouseIn(e *desktop.MouseEvent) {
	b.Button.MouseIn(e)
	if b.onHover != nil {
		b.onHover(b.tooltip)
	}
}

// MouseOut implements desktop.Hoverable.
func (b *ControlButton) MouseOut() {
	b.Button.MouseOut()
	if b.onHover != nil {
		b.onHover("")
	}
}
