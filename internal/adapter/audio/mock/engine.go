// Package mock provides a mock implementation of the AudioEngine interface.
// It is used for testing services and for running without a sound device.
package mock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// DefaultDuration is the length reported for files without a configured duration.
const DefaultDuration = 3 * time.Minute

// Engine is a mock implementation of the AudioEngine interface.
// It simulates audio playback in memory without actually playing audio.
//
// By default, the position only moves through SimulateProgress and
// SimulateFinish. With WithRealtime, playing tracks advance with the wall
// clock, which lets the whole application run headless.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	logger *slog.Logger

	initialized bool
	sampleRate  int
	buffer      time.Duration
	realtime    bool
	now         func() time.Time

	tracks     map[domain.TrackHandle]*mockTrack
	durations  map[string]time.Duration
	loaded     []string
	nextHandle domain.TrackHandle
	mu         sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failLoad       map[string]bool
	failAllLoads   bool
	failPlay       bool
}

// mockTrack represents a loaded track in the mock engine.
type mockTrack struct {
	filePath string
	duration time.Duration
	position time.Duration
	volume   float64
	status   domain.PlaybackStatus

	// realtime bookkeeping: position at the moment playback last resumed
	resumedAt time.Time
}

// Option configures the mock engine.
type Option func(*Engine)

// WithRealtime makes playing tracks advance with the wall clock.
func WithRealtime() Option {
	return func(m *Engine) { m.realtime = true }
}

// WithClock replaces time.Now for realtime mode.
func WithClock(now func() time.Time) Option {
	return func(m *Engine) { m.now = now }
}

// NewEngine creates a new mock audio engine.
func NewEngine(opts ...Option) *Engine {
	m := &Engine{
		tracks:     make(map[domain.TrackHandle]*mockTrack),
		durations:  make(map[string]time.Duration),
		failLoad:   make(map[string]bool),
		nextHandle: 1,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetLogger sets the logger for this engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger.With("engine", "mock")
}

// SetDuration sets the duration reported for a file path.
func (m *Engine) SetDuration(filePath string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[filePath] = d
}

// SetFailInitialize configures the mock to fail initialization (for testing).
func (m *Engine) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailLoad configures the mock to fail loading every track (for testing).
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAllLoads = fail
}

// SetFailLoadPath configures the mock to fail loading one file (for testing).
func (m *Engine) SetFailLoadPath(filePath string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad[filePath] = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// Initialize initializes the mock audio engine.
func (m *Engine) Initialize(sampleRate int, buffer time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioEngineError("initialize", "", -1, "mock initialization failed", nil)
	}
	if m.initialized {
		return domain.ErrAlreadyInitialized
	}
	if sampleRate <= 0 {
		return domain.NewValidationError("sample_rate", sampleRate, "must be positive")
	}

	m.initialized = true
	m.sampleRate = sampleRate
	m.buffer = buffer
	return nil
}

// SampleRate returns the rate passed to Initialize.
func (m *Engine) SampleRate() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sampleRate
}

// Shutdown shuts down the mock audio engine.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	m.tracks = make(map[domain.TrackHandle]*mockTrack)
	return nil
}

// IsInitialized returns true if the engine is initialized.
func (m *Engine) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Load registers a file and returns a handle. Nothing is read from disk.
func (m *Engine) Load(filePath string) (domain.TrackHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}
	if filePath == "" {
		return domain.InvalidTrackHandle, domain.ErrInvalidFilePath
	}
	if m.failAllLoads || m.failLoad[filePath] {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", filePath, -1, "mock load failed", nil)
	}

	duration, ok := m.durations[filePath]
	if !ok {
		duration = DefaultDuration
	}

	handle := m.nextHandle
	m.nextHandle++
	m.tracks[handle] = &mockTrack{
		filePath: filePath,
		duration: duration,
		volume:   1.0,
		status:   domain.StatusStopped,
	}
	m.loaded = append(m.loaded, filePath)
	return handle, nil
}

// Unload unloads a previously loaded track.
func (m *Engine) Unload(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}
	if _, exists := m.tracks[handle]; !exists {
		return domain.ErrInvalidTrackHandle
	}

	delete(m.tracks, handle)
	return nil
}

// Play starts or resumes playback.
func (m *Engine) Play(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.track(handle)
	if err != nil {
		return err
	}
	if m.failPlay {
		return domain.ErrPlaybackFailed
	}

	m.advance(track)
	if track.status == domain.StatusStopped && track.position >= track.duration {
		track.position = 0
	}
	track.status = domain.StatusPlaying
	track.resumedAt = m.now()
	return nil
}

// Pause pauses playback.
func (m *Engine) Pause(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.track(handle)
	if err != nil {
		return err
	}

	m.advance(track)
	if track.status == domain.StatusPlaying {
		track.status = domain.StatusPaused
	}
	return nil
}

// Stop stops playback and unloads the track.
func (m *Engine) Stop(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.track(handle); err != nil {
		return err
	}
	delete(m.tracks, handle)
	return nil
}

// Status returns the playback status.
func (m *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.track(handle)
	if err != nil {
		return domain.StatusStopped, err
	}
	m.advance(track)
	return track.status, nil
}

// Position returns the current playback position.
func (m *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.track(handle)
	if err != nil {
		return 0, err
	}
	m.advance(track)
	return track.position, nil
}

// Duration returns the total track duration.
func (m *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, err := m.track(handle)
	if err != nil {
		return 0, err
	}
	return track.duration, nil
}

// Seek sets the playback position.
func (m *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.track(handle)
	if err != nil {
		return err
	}
	if position < 0 || position > track.duration {
		return domain.ErrInvalidPosition
	}

	track.position = position
	track.resumedAt = m.now()
	return nil
}

// SetVolume sets the playback volume.
func (m *Engine) SetVolume(handle domain.TrackHandle, volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.track(handle)
	if err != nil {
		return err
	}
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	track.volume = volume
	return nil
}

// GetVolume returns the current volume.
func (m *Engine) GetVolume(handle domain.TrackHandle) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, err := m.track(handle)
	if err != nil {
		return 0, err
	}
	return track.volume, nil
}

// GetLoadedTracks returns the number of currently loaded tracks (for testing).
func (m *Engine) GetLoadedTracks() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tracks)
}

// LoadHistory returns every path passed to a successful Load, in order.
func (m *Engine) LoadHistory() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.loaded...)
}

// SimulateProgress advances the position of a playing track by delta.
// Reaching the end stops the track as if it had played out.
func (m *Engine) SimulateProgress(handle domain.TrackHandle, delta time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	if track.status != domain.StatusPlaying {
		return errors.Newf("track %d is not playing", handle)
	}

	track.position += delta
	if track.position >= track.duration {
		track.position = track.duration
		track.status = domain.StatusStopped
	}
	return nil
}

// SimulateFinish plays the track to its end.
func (m *Engine) SimulateFinish(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	track.position = track.duration
	track.status = domain.StatusStopped
	return nil
}

// track returns the loaded track or the matching error. Callers hold the lock.
func (m *Engine) track(handle domain.TrackHandle) (*mockTrack, error) {
	if !m.initialized {
		return nil, domain.ErrNotInitialized
	}
	track, exists := m.tracks[handle]
	if !exists {
		return nil, domain.ErrInvalidTrackHandle
	}
	return track, nil
}

// advance moves a playing track forward in realtime mode. Callers hold the write lock.
func (m *Engine) advance(track *mockTrack) {
	if !m.realtime || track.status != domain.StatusPlaying {
		return
	}
	now := m.now()
	track.position += now.Sub(track.resumedAt)
	track.resumedAt = now
	if track.position >= track.duration {
		track.position = track.duration
		track.status = domain.StatusStopped
		m.logger.Debug("mock track finished", "path", track.filePath)
	}
}

// Verify that Engine implements the AudioEngine interface
var _ ports.AudioEngine = (*Engine)(nil)
