package mock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

func newInitializedEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	engine := NewEngine(opts...)
	if err := engine.Initialize(44100, 100*time.Millisecond); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() {
		if engine.IsInitialized() {
			_ = engine.Shutdown()
		}
	})
	return engine
}

// TestNewMockEngine tests creating a new mock engine.
func TestNewMockEngine(t *testing.T) {
	engine := NewEngine()

	if engine.IsInitialized() {
		t.Error("New engine should not be initialized")
	}
	if engine.GetLoadedTracks() != 0 {
		t.Errorf("Expected 0 loaded tracks, got %d", engine.GetLoadedTracks())
	}
}

// TestInitialize tests engine initialization and double initialization.
func TestInitialize(t *testing.T) {
	engine := NewEngine()

	if err := engine.Initialize(48000, 50*time.Millisecond); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !engine.IsInitialized() {
		t.Error("Engine should be initialized")
	}
	if engine.SampleRate() != 48000 {
		t.Errorf("Expected sample rate 48000, got %d", engine.SampleRate())
	}

	err := engine.Initialize(48000, 50*time.Millisecond)
	if !errors.Is(err, domain.ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestInitializeInvalidSampleRate(t *testing.T) {
	engine := NewEngine()

	var verr *domain.ValidationError
	if err := engine.Initialize(0, time.Millisecond); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError, got %v", err)
	}
}

// TestShutdown tests shutting down the engine.
func TestShutdown(t *testing.T) {
	engine := newInitializedEngine(t)

	handle, err := engine.Load("/path/to/test.mp3")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := engine.Shutdown(); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
	if engine.GetLoadedTracks() != 0 {
		t.Errorf("Expected 0 loaded tracks after shutdown, got %d", engine.GetLoadedTracks())
	}

	if _, err := engine.Status(handle); !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
	if err := engine.Shutdown(); !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized on second shutdown, got %v", err)
	}
}

// TestLoad tests loading tracks and the configured durations.
func TestLoad(t *testing.T) {
	engine := newInitializedEngine(t)
	engine.SetDuration("/short.mp3", 10*time.Second)

	short, err := engine.Load("/short.mp3")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	other, err := engine.Load("/other.mp3")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if short == other || short == domain.InvalidTrackHandle {
		t.Errorf("Expected distinct valid handles, got %d and %d", short, other)
	}

	if d, _ := engine.Duration(short); d != 10*time.Second {
		t.Errorf("Expected 10s, got %v", d)
	}
	if d, _ := engine.Duration(other); d != DefaultDuration {
		t.Errorf("Expected default duration, got %v", d)
	}

	history := engine.LoadHistory()
	if len(history) != 2 || history[0] != "/short.mp3" || history[1] != "/other.mp3" {
		t.Errorf("Unexpected load history %v", history)
	}

	if _, err := engine.Load(""); !errors.Is(err, domain.ErrInvalidFilePath) {
		t.Errorf("Expected ErrInvalidFilePath, got %v", err)
	}
}

// TestLoadWithoutInitialize tests loading before initialization.
func TestLoadWithoutInitialize(t *testing.T) {
	engine := NewEngine()

	if _, err := engine.Load("/path/to/test.mp3"); !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

// TestPlayPauseStop walks a track through its states.
func TestPlayPauseStop(t *testing.T) {
	engine := newInitializedEngine(t)
	handle, _ := engine.Load("/path/to/test.mp3")

	if status, _ := engine.Status(handle); status != domain.StatusStopped {
		t.Errorf("Expected stopped after load, got %v", status)
	}

	if err := engine.Play(handle); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if status, _ := engine.Status(handle); status != domain.StatusPlaying {
		t.Errorf("Expected playing, got %v", status)
	}

	_ = engine.SimulateProgress(handle, 30*time.Second)
	if err := engine.Pause(handle); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if status, _ := engine.Status(handle); status != domain.StatusPaused {
		t.Errorf("Expected paused, got %v", status)
	}

	// resume keeps the position
	_ = engine.Play(handle)
	if pos, _ := engine.Position(handle); pos != 30*time.Second {
		t.Errorf("Expected 30s after resume, got %v", pos)
	}

	if err := engine.Stop(handle); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if engine.GetLoadedTracks() != 0 {
		t.Error("Stop should unload the track")
	}
	if _, err := engine.Status(handle); !errors.Is(err, domain.ErrInvalidTrackHandle) {
		t.Errorf("Expected ErrInvalidTrackHandle, got %v", err)
	}
}

// TestSeek tests seeking inside and outside the track.
func TestSeek(t *testing.T) {
	engine := newInitializedEngine(t)
	handle, _ := engine.Load("/path/to/test.mp3")

	if err := engine.Seek(handle, time.Minute); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if pos, _ := engine.Position(handle); pos != time.Minute {
		t.Errorf("Expected 1m, got %v", pos)
	}

	for _, pos := range []time.Duration{-time.Second, DefaultDuration + time.Second} {
		if err := engine.Seek(handle, pos); !errors.Is(err, domain.ErrInvalidPosition) {
			t.Errorf("Seek(%v): expected ErrInvalidPosition, got %v", pos, err)
		}
	}
}

// TestVolume tests volume bounds.
func TestVolume(t *testing.T) {
	engine := newInitializedEngine(t)
	handle, _ := engine.Load("/path/to/test.mp3")

	if v, _ := engine.GetVolume(handle); v != 1.0 {
		t.Errorf("Expected default volume 1.0, got %v", v)
	}
	if err := engine.SetVolume(handle, 0.3); err != nil {
		t.Fatalf("SetVolume failed: %v", err)
	}
	if v, _ := engine.GetVolume(handle); v != 0.3 {
		t.Errorf("Expected 0.3, got %v", v)
	}
	for _, v := range []float64{-0.1, 1.1} {
		if err := engine.SetVolume(handle, v); !errors.Is(err, domain.ErrInvalidVolume) {
			t.Errorf("SetVolume(%v): expected ErrInvalidVolume, got %v", v, err)
		}
	}
}

// TestSimulateProgress tests that progress past the end stops the track.
func TestSimulateProgress(t *testing.T) {
	engine := newInitializedEngine(t)
	engine.SetDuration("/a.mp3", time.Minute)
	handle, _ := engine.Load("/a.mp3")

	if err := engine.SimulateProgress(handle, time.Second); err == nil {
		t.Error("Expected an error for a track that is not playing")
	}

	_ = engine.Play(handle)
	_ = engine.SimulateProgress(handle, 2*time.Minute)

	if pos, _ := engine.Position(handle); pos != time.Minute {
		t.Errorf("Expected position clamped to 1m, got %v", pos)
	}
	if status, _ := engine.Status(handle); status != domain.StatusStopped {
		t.Errorf("Expected stopped at the end, got %v", status)
	}

	// playing a finished track starts over
	_ = engine.Play(handle)
	if pos, _ := engine.Position(handle); pos != 0 {
		t.Errorf("Expected restart from 0, got %v", pos)
	}
}

func TestSimulateFinish(t *testing.T) {
	engine := newInitializedEngine(t)
	handle, _ := engine.Load("/a.mp3")
	_ = engine.Play(handle)

	if err := engine.SimulateFinish(handle); err != nil {
		t.Fatalf("SimulateFinish failed: %v", err)
	}
	if status, _ := engine.Status(handle); status != domain.StatusStopped {
		t.Errorf("Expected stopped, got %v", status)
	}
	if err := engine.SimulateFinish(domain.TrackHandle(999)); !errors.Is(err, domain.ErrInvalidTrackHandle) {
		t.Errorf("Expected ErrInvalidTrackHandle, got %v", err)
	}
}

// TestRealtime tests wall clock driven progress with a fake clock.
func TestRealtime(t *testing.T) {
	now := time.Unix(1000, 0)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	tick := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	engine := newInitializedEngine(t, WithRealtime(), WithClock(clock))
	engine.SetDuration("/a.mp3", 10*time.Second)
	handle, _ := engine.Load("/a.mp3")
	_ = engine.Play(handle)

	tick(4 * time.Second)
	if pos, _ := engine.Position(handle); pos != 4*time.Second {
		t.Errorf("Expected 4s, got %v", pos)
	}

	_ = engine.Pause(handle)
	tick(time.Hour)
	if pos, _ := engine.Position(handle); pos != 4*time.Second {
		t.Errorf("Paused track must not advance, got %v", pos)
	}

	_ = engine.Play(handle)
	tick(7 * time.Second)
	if status, _ := engine.Status(handle); status != domain.StatusStopped {
		t.Errorf("Expected stopped after playing out, got %v", status)
	}
}

// TestFailureModes tests the configurable failures.
func TestFailureModes(t *testing.T) {
	engine := NewEngine()
	engine.SetFailInitialize(true)
	if err := engine.Initialize(44100, time.Millisecond); err == nil {
		t.Error("Expected initialize to fail")
	}
	engine.SetFailInitialize(false)
	if err := engine.Initialize(44100, time.Millisecond); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer func() { _ = engine.Shutdown() }()

	engine.SetFailLoadPath("/broken.mp3", true)
	var aerr *domain.AudioEngineError
	if _, err := engine.Load("/broken.mp3"); !errors.As(err, &aerr) {
		t.Errorf("Expected AudioEngineError, got %v", err)
	}
	if _, err := engine.Load("/fine.mp3"); err != nil {
		t.Errorf("Only the configured path should fail, got %v", err)
	}

	engine.SetFailLoad(true)
	if _, err := engine.Load("/fine.mp3"); err == nil {
		t.Error("Expected every load to fail")
	}
	engine.SetFailLoad(false)

	handle, _ := engine.Load("/fine.mp3")
	engine.SetFailPlay(true)
	if err := engine.Play(handle); !errors.Is(err, domain.ErrPlaybackFailed) {
		t.Errorf("Expected ErrPlaybackFailed, got %v", err)
	}
}

// TestConcurrentLoad tests concurrent track loading.
func TestConcurrentLoad(t *testing.T) {
	engine := newInitializedEngine(t)

	const numGoroutines = 10

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	handles := make([]domain.TrackHandle, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(index int) {
			defer wg.Done()
			handle, err := engine.Load("/path/to/test.mp3")
			if err != nil {
				t.Errorf("Load failed: %v", err)
			}
			handles[index] = handle
		}(i)
	}
	wg.Wait()

	if engine.GetLoadedTracks() != numGoroutines {
		t.Errorf("Expected %d loaded tracks, got %d", numGoroutines, engine.GetLoadedTracks())
	}

	seen := make(map[domain.TrackHandle]bool)
	for _, handle := range handles {
		if seen[handle] {
			t.Error("Duplicate handle detected in concurrent loading")
		}
		seen[handle] = true
	}
}
