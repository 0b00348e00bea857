// Package beep provides the audio engine backed by the beep decoders and speaker.
package beep

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	gobeep "github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// resampleQuality is passed to beep.Resample for files whose sample rate
// differs from the output rate.
const resampleQuality = 4

// Engine is the beep implementation of the AudioEngine interface.
// All loaded streams are mixed by the package-level speaker; the engine only
// ever plays one at a time because the playback service stops the previous
// stream before loading the next.
//
// Thread-safety: engine state is guarded by mu. Stream internals shared with
// the speaker goroutine are only touched under speaker.Lock.
type Engine struct {
	logger *slog.Logger

	initialized bool
	sampleRate  gobeep.SampleRate

	streams    map[domain.TrackHandle]*stream
	nextHandle domain.TrackHandle
	mu         sync.RWMutex
}

// stream stores a decoded file and its playback chain.
type stream struct {
	filePath string
	source   gobeep.StreamSeekCloser
	format   gobeep.Format
	ctrl     *gobeep.Ctrl
	volume   *effects.Volume
	level    float64

	// queued is true while the chain is registered with the speaker.
	queued bool
	// finished is set from the speaker goroutine when the file played out.
	finished atomic.Bool
}

// NewEngine creates a new beep audio engine.
func NewEngine() *Engine {
	return &Engine{
		logger:     slog.Default(),
		streams:    make(map[domain.TrackHandle]*stream),
		nextHandle: 1,
	}
}

// SetLogger sets the logger for this engine.
func (e *Engine) SetLogger(logger *slog.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger = logger.With("engine", "beep")
}

// Initialize opens the output device at the given rate.
func (e *Engine) Initialize(sampleRate int, buffer time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return domain.ErrAlreadyInitialized
	}
	if sampleRate <= 0 {
		return domain.NewValidationError("sample_rate", sampleRate, "must be positive")
	}

	sr := gobeep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		return domain.NewAudioEngineError("initialize", "", -1, "speaker init failed", err)
	}

	e.initialized = true
	e.sampleRate = sr
	e.logger.Info("audio output initialized", "sample_rate", sampleRate, "buffer", buffer)
	return nil
}

// Shutdown stops all playback and releases every loaded stream.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}

	speaker.Clear()
	for handle, s := range e.streams {
		if err := s.source.Close(); err != nil {
			e.logger.Warn("failed to close stream during shutdown", "handle", handle, "error", err)
		}
	}
	e.streams = make(map[domain.TrackHandle]*stream)
	e.initialized = false
	return nil
}

// IsInitialized returns true if the engine is initialized.
func (e *Engine) IsInitialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialized
}

// Load decodes a file and prepares its playback chain. Playback does not start.
func (e *Engine) Load(filePath string) (domain.TrackHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}

	source, format, err := decodeFile(filePath)
	if err != nil {
		return domain.InvalidTrackHandle, err
	}

	var chain gobeep.Streamer = source
	if format.SampleRate != e.sampleRate {
		chain = gobeep.Resample(resampleQuality, format.SampleRate, e.sampleRate, source)
	}
	ctrl := &gobeep.Ctrl{Streamer: chain, Paused: true}
	s := &stream{
		filePath: filePath,
		source:   source,
		format:   format,
		ctrl:     ctrl,
		volume:   &effects.Volume{Streamer: ctrl, Base: 2},
		level:    1.0,
	}
	applyLevel(s.volume, 1.0)

	handle := e.nextHandle
	e.nextHandle++
	e.streams[handle] = s

	e.logger.Debug("stream loaded", "handle", handle, "path", filePath,
		"sample_rate", int(format.SampleRate), "channels", format.NumChannels)
	return handle, nil
}

// Unload stops and releases a stream.
func (e *Engine) Unload(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.stream(handle)
	if err != nil {
		return err
	}
	return e.release(handle, s)
}

// Play starts or resumes playback. A stream that played out starts over.
func (e *Engine) Play(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.stream(handle)
	if err != nil {
		return err
	}

	if s.finished.Load() {
		speaker.Lock()
		err := s.source.Seek(0)
		speaker.Unlock()
		if err != nil {
			return domain.NewAudioEngineError("play", s.filePath, -1, "rewind failed", err)
		}
		s.finished.Store(false)
		s.queued = false
	}

	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()

	if !s.queued {
		s.queued = true
		speaker.Play(gobeep.Seq(s.volume, gobeep.Callback(func() {
			// runs on the speaker goroutine with the speaker locked
			s.finished.Store(true)
		})))
	}
	return nil
}

// Pause pauses playback, preserving the position.
func (e *Engine) Pause(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.stream(handle)
	if err != nil {
		return err
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Stop stops playback and unloads the stream.
func (e *Engine) Stop(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.stream(handle)
	if err != nil {
		return err
	}
	return e.release(handle, s)
}

// Status returns the playback status of the stream.
func (e *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, err := e.stream(handle)
	if err != nil {
		return domain.StatusStopped, err
	}
	if s.finished.Load() || !s.queued {
		return domain.StatusStopped, nil
	}

	speaker.Lock()
	paused := s.ctrl.Paused
	speaker.Unlock()
	if paused {
		return domain.StatusPaused, nil
	}
	return domain.StatusPlaying, nil
}

// Position returns the current playback position.
func (e *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, err := e.stream(handle)
	if err != nil {
		return 0, err
	}
	speaker.Lock()
	pos := s.source.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(pos), nil
}

// Duration returns the total length of the stream.
func (e *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, err := e.stream(handle)
	if err != nil {
		return 0, err
	}
	return s.format.SampleRate.D(s.source.Len()), nil
}

// Seek moves the playback position.
func (e *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.stream(handle)
	if err != nil {
		return err
	}
	length := s.format.SampleRate.D(s.source.Len())
	if position < 0 || position > length {
		return domain.ErrInvalidPosition
	}

	speaker.Lock()
	err = s.source.Seek(s.format.SampleRate.N(position))
	speaker.Unlock()
	if err != nil {
		return domain.NewAudioEngineError("seek", s.filePath, -1, "seek failed", err)
	}
	return nil
}

// SetVolume sets the linear volume of the stream.
func (e *Engine) SetVolume(handle domain.TrackHandle, volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.stream(handle)
	if err != nil {
		return err
	}
	speaker.Lock()
	applyLevel(s.volume, volume)
	speaker.Unlock()
	s.level = volume
	return nil
}

// GetVolume returns the linear volume of the stream.
func (e *Engine) GetVolume(handle domain.TrackHandle) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, err := e.stream(handle)
	if err != nil {
		return 0, err
	}
	return s.level, nil
}

// stream looks up a loaded stream. Callers hold mu.
func (e *Engine) stream(handle domain.TrackHandle) (*stream, error) {
	if !e.initialized {
		return nil, domain.ErrNotInitialized
	}
	s, ok := e.streams[handle]
	if !ok {
		return nil, domain.ErrInvalidTrackHandle
	}
	return s, nil
}

// release detaches the stream from the speaker and closes it. Callers hold mu.
func (e *Engine) release(handle domain.TrackHandle, s *stream) error {
	speaker.Lock()
	// a Ctrl without a streamer reports drained, so the mixer drops it
	s.ctrl.Streamer = nil
	speaker.Unlock()

	delete(e.streams, handle)
	if err := s.source.Close(); err != nil {
		return domain.NewAudioEngineError("unload", s.filePath, -1, "close failed", err)
	}
	return nil
}

// applyLevel maps a linear 0..1 level onto the exponential volume effect.
func applyLevel(v *effects.Volume, level float64) {
	v.Volume, v.Silent = volumeFor(level)
}

// volumeFor returns the base-2 exponent producing the linear gain level.
func volumeFor(level float64) (float64, bool) {
	if level <= 0 {
		return 0, true
	}
	return math.Log2(level), false
}

// Verify interface implementation
var _ ports.AudioEngine = (*Engine)(nil)
