package testutil

import (
	"fmt"
	"time"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// Track builds a catalog track with a predictable path and title.
func Track(id string, duration time.Duration) domain.Track {
	return domain.Track{
		ID:         id,
		FilePath:   fmt.Sprintf("/music/%s.mp3", id),
		Title:      "Track " + id,
		Artist:     "Artist",
		Album:      "Album",
		Duration:   duration,
		FileFormat: "mp3",
	}
}

// Tracks builds n tracks with IDs t1..tn, each one minute long.
func Tracks(n int) []domain.Track {
	tracks := make([]domain.Track, n)
	for i := range tracks {
		tracks[i] = Track(fmt.Sprintf("t%d", i+1), time.Minute)
	}
	return tracks
}

// TrackIDs returns the track IDs of entries in order.
func TrackIDs(entries []domain.QueueEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Track.ID
	}
	return ids
}

// SequentialIDs returns an entry ID generator yielding e1, e2, ...
func SequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("e%d", n)
	}
}
