// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the Cadence music player.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Track represents a single audio file in the library catalog.
type Track struct {
	// ID is a unique identifier for the track (UUID)
	ID string

	// FilePath is the absolute path to the audio file on the filesystem
	FilePath string

	// Title is the song title (from metadata or filename)
	Title string

	// ArtistID references the performing artist (empty if unknown)
	ArtistID string

	// Artist is the performing artist name
	Artist string

	// AlbumID references the album (empty if unknown)
	AlbumID string

	// Album is the album name
	Album string

	// GenreID references the genre (empty if unknown)
	GenreID string

	// Genre is the genre name
	Genre string

	// TrackNumber is the position on the album
	TrackNumber int

	// Year is the release year
	Year int

	// Duration is the total length of the track
	Duration time.Duration

	// FileFormat is the file extension (mp3, flac, wav)
	FileFormat string

	// AddedAt is when the track entered the library
	AddedAt time.Time
}

// DisplayTitle returns the title, or the file name when no title tag exists.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	name := t.FilePath
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// FormatDuration renders d as m:ss, or h:mm:ss from one hour up.
// Negative durations render as 0:00.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Artist is a performer in the library.
type Artist struct {
	ID   string
	Name string
}

// Album groups tracks released together.
type Album struct {
	ID       string
	Title    string
	ArtistID string
	Artist   string
	Year     int
}

// Genre is a musical genre label.
type Genre struct {
	ID   string
	Name string
}

// Profile is a listener. Queue state, history and likes are kept per profile.
type Profile struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// DefaultProfileName is the profile created on first launch.
const DefaultProfileName = "default"

// PlayRecord is one entry in a profile's play history.
type PlayRecord struct {
	ID        string
	ProfileID string
	Track     Track
	PlayedAt  time.Time
}

// PlayCount pairs a track with the number of times it was played.
type PlayCount struct {
	Track Track
	Count int
}

// Like marks a track as a favorite of a profile.
type Like struct {
	ProfileID string
	Track     Track
	LikedAt   time.Time
}

// QueueEntry is a track placed in the play queue.
// EntryID is assigned when the entry is created and never changes, so the
// same track may appear more than once and shuffle can restore the original
// order unambiguously.
type QueueEntry struct {
	EntryID string
	Track   Track
}

// RepeatMode controls what happens when the queue reaches its end.
type RepeatMode int

const (
	// RepeatNone stops at the end of the queue
	RepeatNone RepeatMode = iota

	// RepeatAll wraps to the start of the queue
	RepeatAll

	// RepeatOne repeats the current track
	RepeatOne
)

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows m when the repeat button is pressed.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// Valid reports whether m is a known repeat mode.
func (m RepeatMode) Valid() bool {
	return m >= RepeatNone && m <= RepeatOne
}

// ParseRepeatMode converts a string into a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off", "":
		return RepeatNone, nil
	case "all":
		return RepeatAll, nil
	case "one", "single":
		return RepeatOne, nil
	default:
		return RepeatNone, NewValidationError("repeat_mode", s, "must be one of none, all, one")
	}
}

// QueueSnapshot is the persisted form of the play queue.
// Original holds entry IDs in pre-shuffle order and is empty unless Shuffle is set.
type QueueSnapshot struct {
	Entries  []QueueEntry
	Original []string
	Index    int
	Shuffle  bool
	Repeat   RepeatMode
}

// PlaybackState represents the current state of the transport.
type PlaybackState struct {
	// CurrentTrack is the currently loaded track (nil if none)
	CurrentTrack *Track

	// Status is the current playback status
	Status PlaybackStatus

	// Position is the current playback position within the track
	Position time.Duration

	// Duration is the length of the loaded track
	Duration time.Duration

	// Volume is the current volume level (0.0 to 1.0)
	Volume float64

	// IsMuted indicates if audio is muted
	IsMuted bool
}

// PlaybackStatus represents the current playback state.
type PlaybackStatus int

const (
	// StatusStopped indicates playback is stopped
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates playback is paused
	StatusPaused

	// StatusStalled indicates playback is stalled/buffering
	StatusStalled
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusStalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// Preferences contain user preferences and settings.
type Preferences struct {
	// Volume is the saved volume level (0.0 to 1.0)
	Volume float64

	// Theme is the UI theme name ("light" or "dark")
	Theme string

	// LastFolder is the last opened folder path
	LastFolder string

	// ActiveProfile is the name of the profile loaded on startup
	ActiveProfile string
}

// TrackHandle is an opaque handle to a loaded audio stream.
type TrackHandle uint32

// InvalidTrackHandle represents an invalid or unloaded track handle.
const InvalidTrackHandle TrackHandle = 0

// ScanProgress represents the progress of a library scan operation.
type ScanProgress struct {
	// TotalFiles is the total number of files found
	TotalFiles int

	// ProcessedFiles is the number of files processed so far
	ProcessedFiles int

	// CurrentFile is the file currently being processed
	CurrentFile string

	// Errors is a list of errors encountered during scanning
	Errors []error
}

// Percentage returns the scan progress as a percentage (0-100).
func (p ScanProgress) Percentage() float64 {
	if p.TotalFiles == 0 {
		return 0
	}
	return float64(p.ProcessedFiles) / float64(p.TotalFiles) * 100
}
