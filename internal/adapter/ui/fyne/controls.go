package fyne

import (
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// ControlState is the presentation state the transport bar is derived from.
type ControlState struct {
	Status domain.PlaybackStatus

	// TrackID is the catalog ID of the loaded track, empty when nothing is loaded
	TrackID  string
	HasTrack bool

	QueueLength int
	Shuffle     bool
	Repeat      domain.RepeatMode
	Liked       bool
	Muted       bool
}

// BuildControls derives the glyph, tooltip and enabled state of every
// transport button from s.
func BuildControls(s ControlState) ports.TransportControls {
	hasQueue := s.QueueLength > 0

	c := ports.TransportControls{
		PlayPause: ports.Control{Glyph: ports.GlyphPlay, Tooltip: "Play", Enabled: s.HasTrack || hasQueue},
		Previous:  ports.Control{Glyph: ports.GlyphPrevious, Tooltip: "Previous", Enabled: s.HasTrack || hasQueue},
		Next:      ports.Control{Glyph: ports.GlyphNext, Tooltip: "Next", Enabled: hasQueue},
		Shuffle:   shuffleControl(s.Shuffle),
		Repeat:    repeatControl(s.Repeat),
		Like:      likeControl(s.Liked, s.TrackID != ""),
		Mute:      muteControl(s.Muted),
	}
	if s.Status == domain.StatusPlaying {
		c.PlayPause.Glyph = ports.GlyphPause
		c.PlayPause.Tooltip = "Pause"
		c.PlayPause.Active = true
	}
	return c
}

func shuffleControl(on bool) ports.Control {
	if on {
		return ports.Control{Glyph: ports.GlyphShuffleOn, Tooltip: "Shuffle: on", Active: true, Enabled: true}
	}
	return ports.Control{Glyph: ports.GlyphShuffleOff, Tooltip: "Shuffle: off", Enabled: true}
}

func repeatControl(mode domain.RepeatMode) ports.Control {
	switch mode {
	case domain.RepeatAll:
		return ports.Control{Glyph: ports.GlyphRepeatAll, Tooltip: "Repeat: all", Active: true, Enabled: true}
	case domain.RepeatOne:
		return ports.Control{Glyph: ports.GlyphRepeatOne, Tooltip: "Repeat: one", Active: true, Enabled: true}
	default:
		return ports.Control{Glyph: ports.GlyphRepeatOff, Tooltip: "Repeat: off", Enabled: true}
	}
}

func likeControl(liked, enabled bool) ports.Control {
	if liked {
		return ports.Control{Glyph: ports.GlyphLiked, Tooltip: "Remove from liked tracks", Active: true, Enabled: enabled}
	}
	return ports.Control{Glyph: ports.GlyphNotLiked, Tooltip: "Add to liked tracks", Enabled: enabled}
}

func muteControl(muted bool) ports.Control {
	if muted {
		return ports.Control{Glyph: ports.GlyphMuted, Tooltip: "Unmute", Active: true, Enabled: true}
	}
	return ports.Control{Glyph: ports.GlyphVolume, Tooltip: "Mute", Enabled: true}
}
