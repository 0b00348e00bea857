// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// AudioEngine is the interface for audio playback engines.
// It abstracts the decode/output library and allows for testing with mocks.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type AudioEngine interface {
	// Initialize opens the output device.
	// sampleRate: output rate in Hz (e.g. 44100)
	// buffer: output buffer length, trading latency for stability
	Initialize(sampleRate int, buffer time.Duration) error

	// Shutdown releases all audio engine resources.
	Shutdown() error

	// IsInitialized returns true if the engine has been successfully initialized.
	IsInitialized() bool

	// Load decodes an audio file and returns a handle to it.
	// The stream stays loaded until Stop or Unload is called with the handle.
	Load(filePath string) (domain.TrackHandle, error)

	// Unload releases resources for a previously loaded track.
	Unload(handle domain.TrackHandle) error

	// Play starts or resumes playback of the specified track.
	Play(handle domain.TrackHandle) error

	// Pause pauses playback, preserving the position.
	Pause(handle domain.TrackHandle) error

	// Stop stops playback of the specified track and unloads it.
	Stop(handle domain.TrackHandle) error

	// Status returns the current playback status of the specified track.
	// A stream that played to its end reports StatusStopped.
	Status(handle domain.TrackHandle) (domain.PlaybackStatus, error)

	// Position returns the current playback position within the track.
	Position(handle domain.TrackHandle) (time.Duration, error)

	// Duration returns the total duration of the specified track.
	Duration(handle domain.TrackHandle) (time.Duration, error)

	// Seek sets the playback position. The position must be within [0, Duration].
	Seek(handle domain.TrackHandle, position time.Duration) error

	// SetVolume sets the playback volume from 0.0 (silent) to 1.0 (full volume).
	SetVolume(handle domain.TrackHandle, volume float64) error

	// GetVolume returns the current volume level for the specified track.
	GetVolume(handle domain.TrackHandle) (float64, error)
}

// MetadataReader extracts catalog information from audio files without
// loading them for playback.
type MetadataReader interface {
	// ReadTrack returns a track populated from the file's tags.
	// Files without tags yield a track titled after the file name.
	ReadTrack(filePath string) (*domain.Track, error)
}
