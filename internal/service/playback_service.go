// Package service provides business logic for the Cadence application.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// DefaultUpdateInterval is how often progress is polled from the engine.
const DefaultUpdateInterval = 333 * time.Millisecond

// PlaybackService orchestrates audio playback of a single loaded track.
// It manages the current track, volume and mute state, publishes progress
// and reports natural track completion with an AutoNextEvent. Which track
// plays next is decided by the QueueService.
//
// Events are always published after the service lock is released, so
// handlers may call back into the service.
type PlaybackService struct {
	// Dependencies (injected)
	logger *slog.Logger
	engine ports.AudioEngine
	bus    ports.EventBus

	// State
	currentTrack   *domain.Track
	currentHandle  domain.TrackHandle
	volume         float64
	isMuted        bool
	updateInterval time.Duration

	// Concurrency control
	mu            sync.RWMutex
	stopUpdate    chan struct{}
	updateRunning bool
	updateWg      sync.WaitGroup
	hasPlayed     bool // set once the loaded track was started, cleared when it finishes
}

// PlaybackOption configures a PlaybackService.
type PlaybackOption func(*PlaybackService)

// WithUpdateInterval overrides the progress polling interval.
func WithUpdateInterval(d time.Duration) PlaybackOption {
	return func(s *PlaybackService) { s.updateInterval = d }
}

// WithInitialVolume sets the volume applied to loaded tracks.
func WithInitialVolume(v float64) PlaybackOption {
	return func(s *PlaybackService) {
		if v >= 0 && v <= 1 {
			s.volume = v
		}
	}
}

// NewPlaybackService creates a new playback service and starts its progress loop.
func NewPlaybackService(
	logger *slog.Logger,
	engine ports.AudioEngine,
	bus ports.EventBus,
	opts ...PlaybackOption,
) *PlaybackService {
	service := &PlaybackService{
		logger:         logger.With("service", "playback"),
		engine:         engine,
		bus:            bus,
		currentHandle:  domain.InvalidTrackHandle,
		volume:         0.8,
		updateInterval: DefaultUpdateInterval,
		stopUpdate:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(service)
	}

	service.logger.Debug("playback service initialized")
	service.startUpdateRoutine()
	return service
}

// LoadTrack loads a track for playback, replacing the current one.
// Playback does not start until Play is called.
func (s *PlaybackService) LoadTrack(track domain.Track) error {
	s.mu.Lock()

	s.logger.Debug("loading track", slog.String("file_path", track.FilePath))

	var events []domain.Event
	if s.currentHandle != domain.InvalidTrackHandle {
		if ev, err := s.stopInternal(); err != nil {
			s.logger.Warn("failed to stop current track", slog.Any("error", err))
		} else if ev != nil {
			events = append(events, ev)
		}
	}

	handle, err := s.engine.Load(track.FilePath)
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("failed to load track", slog.String("file_path", track.FilePath), slog.Any("error", err))
		s.publish(events...)
		s.bus.Publish(domain.NewTrackErrorEvent(track, err))
		return err
	}

	if err := s.engine.SetVolume(handle, s.effectiveVolume()); err != nil {
		s.unloadQuietly(handle)
		s.mu.Unlock()
		s.publish(events...)
		return err
	}

	duration, err := s.engine.Duration(handle)
	if err != nil {
		s.unloadQuietly(handle)
		s.mu.Unlock()
		s.publish(events...)
		return err
	}

	s.currentTrack = &track
	s.currentHandle = handle
	s.hasPlayed = false
	s.mu.Unlock()

	s.logger.Debug("track loaded", slog.Int64("handle", int64(handle)), slog.Duration("duration", duration))
	events = append(events, domain.NewTrackLoadedEvent(track, handle, duration))
	s.publish(events...)
	return nil
}

// Play starts or resumes playback of the current track.
func (s *PlaybackService) Play() error {
	s.mu.Lock()

	if s.currentHandle == domain.InvalidTrackHandle {
		s.mu.Unlock()
		return domain.ErrNoTrackLoaded
	}

	status, err := s.engine.Status(s.currentHandle)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if status == domain.StatusPlaying {
		s.mu.Unlock()
		return nil
	}

	if err := s.engine.Play(s.currentHandle); err != nil {
		s.mu.Unlock()
		s.logger.Warn("engine failed to play", slog.Any("error", err))
		return err
	}
	resumed := status == domain.StatusPaused
	s.hasPlayed = true
	track := *s.currentTrack
	s.mu.Unlock()

	s.bus.Publish(domain.NewTrackStartedEvent(track, resumed))
	return nil
}

// Pause pauses playback of the current track.
func (s *PlaybackService) Pause() error {
	s.mu.Lock()

	if s.currentHandle == domain.InvalidTrackHandle {
		s.mu.Unlock()
		return domain.ErrNoTrackLoaded
	}

	position, err := s.engine.Position(s.currentHandle)
	if err != nil {
		position = 0
	}
	if err := s.engine.Pause(s.currentHandle); err != nil {
		s.mu.Unlock()
		return err
	}
	track := *s.currentTrack
	s.mu.Unlock()

	s.bus.Publish(domain.NewTrackPausedEvent(track, position))
	return nil
}

// TogglePlayPause pauses a playing track and plays otherwise.
func (s *PlaybackService) TogglePlayPause() error {
	if s.GetState().Status == domain.StatusPlaying {
		return s.Pause()
	}
	return s.Play()
}

// Stop stops playback and unloads the current track.
func (s *PlaybackService) Stop() error {
	s.mu.Lock()
	ev, err := s.stopInternal()
	s.mu.Unlock()

	if ev != nil {
		s.bus.Publish(ev)
	}
	return err
}

// stopInternal stops and forgets the current track. The caller holds the
// lock and publishes the returned event after releasing it.
func (s *PlaybackService) stopInternal() (domain.Event, error) {
	if s.currentHandle == domain.InvalidTrackHandle {
		return nil, nil
	}

	track := s.currentTrack
	err := s.engine.Stop(s.currentHandle)

	// Even if stop fails, clear our state
	s.currentHandle = domain.InvalidTrackHandle
	s.currentTrack = nil
	s.hasPlayed = false

	if err != nil || track == nil {
		return nil, err
	}
	return domain.NewTrackStoppedEvent(*track), nil
}

// Restart seeks the current track back to its start.
func (s *PlaybackService) Restart() error {
	return s.Seek(0)
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (s *PlaybackService) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	s.mu.Lock()
	s.volume = volume
	if !s.isMuted && s.currentHandle != domain.InvalidTrackHandle {
		if err := s.engine.SetVolume(s.currentHandle, volume); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	s.bus.Publish(domain.NewVolumeChangedEvent(volume))
	return nil
}

// GetVolume returns the current volume (0.0 to 1.0), ignoring mute.
func (s *PlaybackService) GetVolume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// Mute mutes or unmutes playback. The volume level is kept.
func (s *PlaybackService) Mute(mute bool) error {
	s.mu.Lock()
	if s.isMuted == mute {
		s.mu.Unlock()
		return nil
	}

	s.isMuted = mute
	if s.currentHandle != domain.InvalidTrackHandle {
		if err := s.engine.SetVolume(s.currentHandle, s.effectiveVolume()); err != nil {
			s.isMuted = !mute
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	s.bus.Publish(domain.NewMuteToggledEvent(mute))
	return nil
}

// ToggleMute flips the mute state.
func (s *PlaybackService) ToggleMute() error {
	return s.Mute(!s.IsMuted())
}

// IsMuted returns true if playback is muted.
func (s *PlaybackService) IsMuted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isMuted
}

// effectiveVolume is the level sent to the engine. Caller holds the lock.
func (s *PlaybackService) effectiveVolume() float64 {
	if s.isMuted {
		return 0
	}
	return s.volume
}

// Seek sets the playback position.
func (s *PlaybackService) Seek(position time.Duration) error {
	s.mu.Lock()

	if s.currentHandle == domain.InvalidTrackHandle {
		s.mu.Unlock()
		return domain.ErrNoTrackLoaded
	}
	if err := s.engine.Seek(s.currentHandle, position); err != nil {
		s.mu.Unlock()
		return err
	}
	duration, err := s.engine.Duration(s.currentHandle)
	if err != nil {
		duration = 0
	}
	s.mu.Unlock()

	s.bus.Publish(domain.NewTrackProgressEvent(position, duration))
	return nil
}

// Position returns the position of the loaded track, or 0.
func (s *PlaybackService) Position() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentHandle == domain.InvalidTrackHandle {
		return 0
	}
	pos, err := s.engine.Position(s.currentHandle)
	if err != nil {
		return 0
	}
	return pos
}

// CurrentTrack returns the loaded track, if any.
func (s *PlaybackService) CurrentTrack() (domain.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentTrack == nil {
		return domain.Track{}, false
	}
	return *s.currentTrack, true
}

// GetState returns the current playback state.
func (s *PlaybackService) GetState() domain.PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := domain.PlaybackState{
		Status:  domain.StatusStopped,
		Volume:  s.volume,
		IsMuted: s.isMuted,
	}
	if s.currentTrack != nil {
		track := *s.currentTrack
		state.CurrentTrack = &track
	}

	if s.currentHandle != domain.InvalidTrackHandle {
		if status, err := s.engine.Status(s.currentHandle); err == nil {
			state.Status = status
		}
		if position, err := s.engine.Position(s.currentHandle); err == nil {
			state.Position = position
		}
		if duration, err := s.engine.Duration(s.currentHandle); err == nil {
			state.Duration = duration
		}
	}
	return state
}

// Shutdown stops the progress loop and the current track.
func (s *PlaybackService) Shutdown() error {
	s.mu.Lock()
	if s.updateRunning {
		close(s.stopUpdate)
		s.updateRunning = false
	}
	s.mu.Unlock()

	// Wait with the lock released: the loop may be waiting for it.
	s.updateWg.Wait()

	return s.Stop()
}

// startUpdateRoutine starts a goroutine that periodically publishes progress events.
func (s *PlaybackService) startUpdateRoutine() {
	s.mu.Lock()
	if s.updateRunning {
		s.mu.Unlock()
		return
	}
	s.updateRunning = true
	s.updateWg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.updateWg.Done()
		ticker := time.NewTicker(s.updateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopUpdate:
				return
			case <-ticker.C:
				s.publishProgressUpdate()
			}
		}
	}()
}

// publishProgressUpdate publishes progress for a loaded track and detects
// natural completion.
func (s *PlaybackService) publishProgressUpdate() {
	s.mu.Lock()
	if s.currentHandle == domain.InvalidTrackHandle || s.currentTrack == nil {
		s.mu.Unlock()
		return
	}

	status, err := s.engine.Status(s.currentHandle)
	if err != nil {
		s.mu.Unlock()
		return
	}
	position, err := s.engine.Position(s.currentHandle)
	if err != nil {
		s.mu.Unlock()
		return
	}
	duration, err := s.engine.Duration(s.currentHandle)
	if err != nil {
		s.mu.Unlock()
		return
	}

	// A track we started that the engine now reports stopped has played out.
	finished := status == domain.StatusStopped && s.hasPlayed
	if finished {
		s.hasPlayed = false
	}
	track := *s.currentTrack
	s.mu.Unlock()

	if status != domain.StatusPaused {
		s.bus.Publish(domain.NewTrackProgressEvent(position, duration))
	}

	if finished {
		s.logger.Debug("track finished", slog.String("track_id", track.ID))
		s.bus.Publish(domain.NewTrackCompletedEvent(track))
		s.bus.Publish(domain.NewAutoNextEvent(track))
	}
}

// unloadQuietly releases a handle after a failed load step. Caller holds the lock.
func (s *PlaybackService) unloadQuietly(handle domain.TrackHandle) {
	if err := s.engine.Unload(handle); err != nil {
		s.logger.Warn("failed to unload track", slog.Any("error", err))
	}
}

func (s *PlaybackService) publish(events ...domain.Event) {
	for _, ev := range events {
		s.bus.Publish(ev)
	}
}
