package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepeatMode_NextCycles(t *testing.T) {
	assert.Equal(t, RepeatAll, RepeatNone.Next())
	assert.Equal(t, RepeatOne, RepeatAll.Next())
	assert.Equal(t, RepeatNone, RepeatOne.Next())
}

func TestParseRepeatMode(t *testing.T) {
	tests := []struct {
		in   string
		want RepeatMode
	}{
		{"none", RepeatNone},
		{"", RepeatNone},
		{"ALL", RepeatAll},
		{" one ", RepeatOne},
	}
	for _, tt := range tests {
		got, err := ParseRepeatMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		if tt.in != "" {
			// round trip through String
			back, err := ParseRepeatMode(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, back)
		}
	}

	_, err := ParseRepeatMode("sometimes")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "repeat_mode", verr.Field)
}

func TestRepeatMode_Valid(t *testing.T) {
	assert.True(t, RepeatOne.Valid())
	assert.False(t, RepeatMode(7).Valid())
	assert.Equal(t, "unknown", RepeatMode(7).String())
}

func TestTrack_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Song", Track{Title: "Song", FilePath: "/a/b.mp3"}.DisplayTitle())
	assert.Equal(t, "b.mp3", Track{FilePath: "/a/b.mp3"}.DisplayTitle())
	assert.Equal(t, "c.flac", Track{FilePath: `C:\music\c.flac`}.DisplayTitle())
}

func TestRepositoryError_Unwrap(t *testing.T) {
	err := NewRepositoryError("get", "track", "lookup failed", ErrTrackNotFound)
	assert.True(t, errors.Is(err, ErrTrackNotFound))
	assert.Contains(t, err.Error(), "track.get")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{9 * time.Second, "0:09"},
		{1500 * time.Millisecond, "0:01"},
		{3*time.Minute + 5*time.Second, "3:05"},
		{59*time.Minute + 59*time.Second, "59:59"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.d), tt.d.String())
	}
}
