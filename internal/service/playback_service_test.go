package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/cadence/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
	"github.com/tejashwikalptaru/cadence/internal/testutil"
)

func TestPlaybackService_LoadPlayPauseResume(t *testing.T) {
	f := newPlaybackFixture(t)
	track := testutil.Track("t1", 4*time.Minute)
	f.engine.SetDuration(track.FilePath, 4*time.Minute)

	require.NoError(t, f.playback.LoadTrack(track))

	loaded := f.events.of(domain.EventTrackLoaded)
	require.Len(t, loaded, 1)
	assert.Equal(t, 4*time.Minute, loaded[0].(domain.TrackLoadedEvent).Duration)
	assert.Equal(t, domain.StatusStopped, f.playback.GetState().Status)

	require.NoError(t, f.playback.Play())
	assert.Equal(t, domain.StatusPlaying, f.playback.GetState().Status)

	require.NoError(t, f.playback.Pause())
	assert.Equal(t, domain.StatusPaused, f.playback.GetState().Status)
	require.Equal(t, 1, f.events.count(domain.EventTrackPaused))

	require.NoError(t, f.playback.Play())

	started := f.events.of(domain.EventTrackStarted)
	require.Len(t, started, 2)
	assert.False(t, started[0].(domain.TrackStartedEvent).Resumed)
	assert.True(t, started[1].(domain.TrackStartedEvent).Resumed)

	current, ok := f.playback.CurrentTrack()
	require.True(t, ok)
	assert.Equal(t, "t1", current.ID)
}

func TestPlaybackService_PlayWhilePlayingIsNoOp(t *testing.T) {
	f := newPlaybackFixture(t)
	require.NoError(t, f.playback.LoadTrack(testutil.Track("t1", time.Minute)))
	require.NoError(t, f.playback.Play())
	require.NoError(t, f.playback.Play())

	assert.Equal(t, 1, f.events.count(domain.EventTrackStarted))
}

func TestPlaybackService_NothingLoaded(t *testing.T) {
	f := newPlaybackFixture(t)

	assert.ErrorIs(t, f.playback.Play(), domain.ErrNoTrackLoaded)
	assert.ErrorIs(t, f.playback.Pause(), domain.ErrNoTrackLoaded)
	assert.ErrorIs(t, f.playback.Seek(time.Second), domain.ErrNoTrackLoaded)
	assert.NoError(t, f.playback.Stop())
	assert.Zero(t, f.playback.Position())

	_, ok := f.playback.CurrentTrack()
	assert.False(t, ok)
}

func TestPlaybackService_TogglePlayPause(t *testing.T) {
	f := newPlaybackFixture(t)
	require.NoError(t, f.playback.LoadTrack(testutil.Track("t1", time.Minute)))

	require.NoError(t, f.playback.TogglePlayPause())
	assert.Equal(t, domain.StatusPlaying, f.playback.GetState().Status)

	require.NoError(t, f.playback.TogglePlayPause())
	assert.Equal(t, domain.StatusPaused, f.playback.GetState().Status)
}

func TestPlaybackService_LoadReplacesCurrentTrack(t *testing.T) {
	f := newPlaybackFixture(t)
	require.NoError(t, f.playback.LoadTrack(testutil.Track("t1", time.Minute)))
	require.NoError(t, f.playback.Play())

	require.NoError(t, f.playback.LoadTrack(testutil.Track("t2", time.Minute)))

	assert.Equal(t, 1, f.engine.GetLoadedTracks())
	stopped := f.events.of(domain.EventTrackStopped)
	require.Len(t, stopped, 1)
	assert.Equal(t, "t1", stopped[0].(domain.TrackStoppedEvent).Track.ID)
}

func TestPlaybackService_LoadFailure(t *testing.T) {
	f := newPlaybackFixture(t)
	require.NoError(t, f.playback.LoadTrack(testutil.Track("t1", time.Minute)))

	bad := testutil.Track("t2", time.Minute)
	f.engine.SetFailLoadPath(bad.FilePath, true)

	require.Error(t, f.playback.LoadTrack(bad))

	assert.Equal(t, 1, f.events.count(domain.EventTrackError))
	_, ok := f.playback.CurrentTrack()
	assert.False(t, ok, "previous track is stopped before loading")
}

func TestPlaybackService_Stop(t *testing.T) {
	f := newPlaybackFixture(t)
	require.NoError(t, f.playback.LoadTrack(testutil.Track("t1", time.Minute)))
	require.NoError(t, f.playback.Play())

	require.NoError(t, f.playback.Stop())

	assert.Equal(t, 0, f.engine.GetLoadedTracks())
	assert.Equal(t, 1, f.events.count(domain.EventTrackStopped))
	assert.Equal(t, domain.StatusStopped, f.playback.GetState().Status)
}

func TestPlaybackService_Volume(t *testing.T) {
	f := newPlaybackFixture(t, WithInitialVolume(0.5))
	assert.InDelta(t, 0.5, f.playback.GetVolume(), 0.0001)

	require.NoError(t, f.playback.LoadTrack(testutil.Track("t1", time.Minute)))
	handle := f.loadedHandle(t)

	vol, err := f.engine.GetVolume(handle)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, vol, 0.0001)

	require.NoError(t, f.playback.SetVolume(0.3))
	vol, err = f.engine.GetVolume(handle)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, vol, 0.0001)
	assert.Equal(t, 1, f.events.count(domain.EventVolumeChanged))

	assert.ErrorIs(t, f.playback.SetVolume(1.5), domain.ErrInvalidVolume)
	assert.ErrorIs(t, f.playback.SetVolume(-0.1), domain.ErrInvalidVolume)
}

func TestPlaybackService_MuteKeepsLevel(t *testing.T) {
	f := newPlaybackFixture(t)
	require.NoError(t, f.playback.SetVolume(0.6))
	require.NoError(t, f.playback.Mute(true))
	assert.True(t, f.playback.IsMuted())

	// tracks loaded while muted stay silent
	require.NoError(t, f.playback.LoadTrack(testutil.Track("t1", time.Minute)))
	handle := f.loadedHandle(t)
	vol, err := f.engine.GetVolume(handle)
	require.NoError(t, err)
	assert.Zero(t, vol)

	// changing the level while muted does not unmute
	require.NoError(t, f.playback.SetVolume(0.4))
	vol, _ = f.engine.GetVolume(handle)
	assert.Zero(t, vol)

	require.NoError(t, f.playback.ToggleMute())
	assert.False(t, f.playback.IsMuted())
	vol, _ = f.engine.GetVolume(handle)
	assert.InDelta(t, 0.4, vol, 0.0001)

	assert.Equal(t, 2, f.events.count(domain.EventMuteToggled))

	// setting the same state publishes nothing
	require.NoError(t, f.playback.Mute(false))
	assert.Equal(t, 2, f.events.count(domain.EventMuteToggled))
}

func TestPlaybackService_SeekPublishesProgress(t *testing.T) {
	f := newPlaybackFixture(t, WithUpdateInterval(time.Hour))
	track := testutil.Track("t1", time.Minute)
	require.NoError(t, f.playback.LoadTrack(track))

	require.NoError(t, f.playback.Seek(20*time.Second))

	progress := f.events.of(domain.EventTrackProgress)
	require.Len(t, progress, 1)
	ev := progress[0].(domain.TrackProgressEvent)
	assert.Equal(t, 20*time.Second, ev.Position)
	assert.Equal(t, mock.DefaultDuration, ev.Duration)
	assert.Equal(t, 20*time.Second, f.playback.Position())

	require.NoError(t, f.playback.Restart())
	assert.Zero(t, f.playback.Position())

	assert.ErrorIs(t, f.playback.Seek(time.Hour), domain.ErrInvalidPosition)
}

func TestPlaybackService_FinishedTrackTriggersAutoNext(t *testing.T) {
	f := newPlaybackFixture(t)
	require.NoError(t, f.playback.LoadTrack(testutil.Track("t1", time.Minute)))
	require.NoError(t, f.playback.Play())

	require.NoError(t, f.engine.SimulateFinish(f.loadedHandle(t)))

	require.Eventually(t, func() bool {
		return f.events.count(domain.EventAutoNext) == 1
	}, time.Second, 5*time.Millisecond)

	autoNext := f.events.of(domain.EventAutoNext)[0].(domain.AutoNextEvent)
	assert.Equal(t, "t1", autoNext.Finished.ID)
	assert.Equal(t, 1, f.events.count(domain.EventTrackCompleted))

	// completion is reported once
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, f.events.count(domain.EventAutoNext))
}

func TestPlaybackService_LoadedTrackThatNeverPlayedIsNotFinished(t *testing.T) {
	f := newPlaybackFixture(t)
	require.NoError(t, f.playback.LoadTrack(testutil.Track("t1", time.Minute)))

	require.Eventually(t, func() bool {
		return f.events.count(domain.EventTrackProgress) >= 3
	}, time.Second, 5*time.Millisecond)

	assert.Zero(t, f.events.count(domain.EventAutoNext))
}

func TestPlaybackService_PausedTrackPublishesNoProgress(t *testing.T) {
	f := newPlaybackFixture(t)
	require.NoError(t, f.playback.LoadTrack(testutil.Track("t1", time.Minute)))
	require.NoError(t, f.playback.Play())
	require.NoError(t, f.playback.Pause())
	f.events.reset()

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, f.events.count(domain.EventTrackProgress))
}

func TestPlaybackService_ShutdownStopsTicker(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	bus := eventbus.NewSyncEventBus()
	playback := NewPlaybackService(logger.NewTestLogger(), newTestEngine(t), bus, WithUpdateInterval(time.Millisecond))
	require.NoError(t, playback.LoadTrack(testutil.Track("t1", time.Minute)))
	require.NoError(t, playback.Play())

	require.NoError(t, playback.Shutdown())
	require.NoError(t, playback.Shutdown())

	_, ok := playback.CurrentTrack()
	assert.False(t, ok)
}
