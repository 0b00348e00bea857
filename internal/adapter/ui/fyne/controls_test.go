package fyne

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

func TestBuildControls_Idle(t *testing.T) {
	c := BuildControls(ControlState{})

	assert.Equal(t, ports.GlyphPlay, c.PlayPause.Glyph)
	assert.False(t, c.PlayPause.Enabled)
	assert.False(t, c.Previous.Enabled)
	assert.False(t, c.Next.Enabled)
	assert.False(t, c.Like.Enabled)
	assert.True(t, c.Shuffle.Enabled)
	assert.True(t, c.Repeat.Enabled)
}

func TestBuildControls_PlayPause(t *testing.T) {
	tests := []struct {
		status  domain.PlaybackStatus
		glyph   ports.Glyph
		tooltip string
	}{
		{domain.StatusStopped, ports.GlyphPlay, "Play"},
		{domain.StatusPaused, ports.GlyphPlay, "Play"},
		{domain.StatusPlaying, ports.GlyphPause, "Pause"},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			c := BuildControls(ControlState{Status: tt.status, HasTrack: true, QueueLength: 1})
			assert.Equal(t, tt.glyph, c.PlayPause.Glyph)
			assert.Equal(t, tt.tooltip, c.PlayPause.Tooltip)
			assert.True(t, c.PlayPause.Enabled)
		})
	}
}

func TestBuildControls_ShuffleAndRepeat(t *testing.T) {
	off := BuildControls(ControlState{})
	assert.Equal(t, ports.GlyphShuffleOff, off.Shuffle.Glyph)
	assert.Equal(t, "Shuffle: off", off.Shuffle.Tooltip)
	assert.False(t, off.Shuffle.Active)

	on := BuildControls(ControlState{Shuffle: true})
	assert.Equal(t, ports.GlyphShuffleOn, on.Shuffle.Glyph)
	assert.Equal(t, "Shuffle: on", on.Shuffle.Tooltip)
	assert.True(t, on.Shuffle.Active)

	repeat := map[domain.RepeatMode]ports.Control{
		domain.RepeatNone: {Glyph: ports.GlyphRepeatOff, Tooltip: "Repeat: off", Enabled: true},
		domain.RepeatAll:  {Glyph: ports.GlyphRepeatAll, Tooltip: "Repeat: all", Active: true, Enabled: true},
		domain.RepeatOne:  {Glyph: ports.GlyphRepeatOne, Tooltip: "Repeat: one", Active: true, Enabled: true},
	}
	for mode, want := range repeat {
		assert.Equal(t, want, BuildControls(ControlState{Repeat: mode}).Repeat, mode.String())
	}
}

func TestBuildControls_LikeAndMute(t *testing.T) {
	c := BuildControls(ControlState{HasTrack: true, TrackID: "t1", Liked: true, Muted: true})
	assert.Equal(t, ports.GlyphLiked, c.Like.Glyph)
	assert.True(t, c.Like.Enabled)
	assert.Equal(t, ports.GlyphMuted, c.Mute.Glyph)
	assert.Equal(t, "Unmute", c.Mute.Tooltip)

	c = BuildControls(ControlState{HasTrack: true})
	assert.Equal(t, ports.GlyphNotLiked, c.Like.Glyph)
	assert.False(t, c.Like.Enabled, "tracks outside the catalog cannot be liked")
	assert.Equal(t, ports.GlyphVolume, c.Mute.Glyph)
}
