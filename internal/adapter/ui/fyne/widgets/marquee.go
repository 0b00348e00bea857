package widgets

// Marquee scrolls text through a fixed-width window one rune at a time.
// Text that fits the window is never scrolled.
type Marquee struct {
	runes []rune
	width int
	pos   int
}

// NewMarquee creates a marquee for text shown width runes at a time.
func NewMarquee(text string, width int) *Marquee {
	m := &Marquee{width: width}
	m.SetText(text)
	return m
}

// SetText replaces the text and rewinds to the start.
func (m *Marquee) SetText(text string) {
	runes := []rune(text)
	if len(runes) > m.width {
		runes = append(runes, []rune("    ")...)
	}
	m.runes = runes
	m.pos = 0
}

// Scrolls reports whether the text is wider than the window.
func (m *Marquee) Scrolls() bool {
	return len(m.runes) > m.width
}

// Frame returns the visible window at the current position.
func (m *Marquee) Frame() string {
	if !m.Scrolls() {
		return string(m.runes)
	}
	out := make([]rune, m.width)
	for i := range out {
		out[i] = m.runes[(m.pos+i)%len(m.runes)]
	}
	return string(out)
}

// Step advances the window by one rune and returns the new frame.
func (m *Marquee) Step() string {
	if m.Scrolls() {
		m.pos = (m.pos + 1) % len(m.runes)
	}
	return m.Frame()
}
