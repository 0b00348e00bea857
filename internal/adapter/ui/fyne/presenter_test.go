package fyne

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/cadence/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/cadence/internal/adapter/metadata"
	"github.com/tejashwikalptaru/cadence/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/cadence/internal/adapter/repository/sqlite"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
	"github.com/tejashwikalptaru/cadence/internal/ports"
	"github.com/tejashwikalptaru/cadence/internal/service"
	"github.com/tejashwikalptaru/cadence/internal/testutil"
)

// fakeView records what the presenter pushes.
type fakeView struct {
	mu            sync.Mutex
	title         string
	artist        string
	controls      ports.TransportControls
	controlCalls  int
	volume        float64
	position      time.Duration
	duration      time.Duration
	total         time.Duration
	remaining     time.Duration
	entries       []domain.QueueEntry
	current       int
	scanVisible   bool
	scanProgress  domain.ScanProgress
	notifications []string
}

func (v *fakeView) SetTrackInfo(title, artist, _ string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.title, v.artist = title, artist
}

func (v *fakeView) SetControls(c ports.TransportControls) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls = c
	v.controlCalls++
}

func (v *fakeView) SetVolume(volume float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volume = volume
}

func (v *fakeView) SetProgress(position, duration time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.position, v.duration = position, duration
}

func (v *fakeView) SetQueueTime(total, remaining time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.total, v.remaining = total, remaining
}

func (v *fakeView) SetQueue(entries []domain.QueueEntry, current int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries, v.current = entries, current
}

func (v *fakeView) ShowScanProgress(progress domain.ScanProgress) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scanVisible = true
	v.scanProgress = progress
}

func (v *fakeView) HideScanProgress() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scanVisible = false
}

func (v *fakeView) ShowNotification(title, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notifications = append(v.notifications, title+": "+message)
}

func (v *fakeView) snapshot() fakeView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fakeView{
		title:         v.title,
		artist:        v.artist,
		controls:      v.controls,
		controlCalls:  v.controlCalls,
		volume:        v.volume,
		position:      v.position,
		duration:      v.duration,
		total:         v.total,
		remaining:     v.remaining,
		entries:       v.entries,
		current:       v.current,
		scanVisible:   v.scanVisible,
		scanProgress:  v.scanProgress,
		notifications: append([]string(nil), v.notifications...),
	}
}

type presenterFixture struct {
	app       fyneapp.App
	store     *sqlite.Store
	engine    *mock.Engine
	services  Services
	view      *fakeView
	presenter *Presenter
	tracks    []domain.Track
}

func newPresenterFixture(t *testing.T) *presenterFixture {
	t.Helper()
	ctx := context.Background()
	log := logger.NewTestLogger()

	store, err := sqlite.Open(ctx, sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine := mock.NewEngine()
	require.NoError(t, engine.Initialize(44100, 100*time.Millisecond))

	app := test.NewTempApp(t)
	bus := eventbus.NewSyncEventBus()
	prefs := memory.NewPreferencesRepository(app.Preferences())

	playback := service.NewPlaybackService(log, engine, bus, service.WithUpdateInterval(time.Hour))
	services := Services{
		Playback:    playback,
		Queue:       service.NewQueueService(log, playback, store.Queue(), bus, service.WithSaveInterval(0)),
		Library:     service.NewLibraryService(log, service.Catalog{Tracks: store.Tracks(), Artists: store.Artists(), Albums: store.Albums(), Genres: store.Genres()}, metadata.NewReader(log, nil), bus, nil),
		Listening:   service.NewListeningService(log, store.History(), store.Likes(), bus),
		Profiles:    service.NewProfileService(log, store.Profiles(), prefs, bus),
		Preferences: service.NewPreferenceService(log, prefs, bus),
	}
	_, err = services.Profiles.Start(ctx, "alice")
	require.NoError(t, err)

	tracks := make([]domain.Track, 0, 3)
	for _, tr := range testutil.Tracks(3) {
		tr.ID = ""
		stored, err := store.Tracks().Upsert(ctx, tr)
		require.NoError(t, err)
		tracks = append(tracks, stored)
	}

	view := &fakeView{}
	p := NewPresenter(log, services, bus, view)

	t.Cleanup(func() {
		p.Shutdown()
		_ = services.Queue.Shutdown()
		_ = services.Listening.Shutdown()
		_ = services.Preferences.Shutdown()
		_ = services.Library.Shutdown()
		_ = playback.Shutdown()
	})

	return &presenterFixture{app: app, store: store, engine: engine, services: services, view: view, presenter: p, tracks: tracks}
}

func TestPresenter_InitialState(t *testing.T) {
	f := newPresenterFixture(t)
	v := f.view.snapshot()

	assert.Positive(t, v.controlCalls)
	assert.Equal(t, ports.GlyphPlay, v.controls.PlayPause.Glyph)
	assert.False(t, v.controls.PlayPause.Enabled, "nothing to play")
	assert.Equal(t, ports.GlyphShuffleOff, v.controls.Shuffle.Glyph)
	assert.Equal(t, ports.GlyphRepeatOff, v.controls.Repeat.Glyph)
	assert.Empty(t, v.entries)
}

func TestPresenter_PlayingBindsControls(t *testing.T) {
	f := newPresenterFixture(t)

	require.NoError(t, f.presenter.OnPlayTracks(f.tracks[1], f.tracks))

	v := f.view.snapshot()
	assert.Equal(t, f.tracks[1].Title, v.title)
	assert.Equal(t, ports.GlyphPause, v.controls.PlayPause.Glyph)
	assert.Equal(t, "Pause", v.controls.PlayPause.Tooltip)
	assert.True(t, v.controls.Next.Enabled)
	assert.True(t, v.controls.Like.Enabled)
	assert.Len(t, v.entries, 3)
	assert.Equal(t, 1, v.current)
	assert.Equal(t, f.tracks[0].Duration+f.tracks[1].Duration+f.tracks[2].Duration, v.total)
	assert.Equal(t, f.tracks[1].Duration+f.tracks[2].Duration, v.remaining)

	f.presenter.OnPlayPauseClicked()
	v = f.view.snapshot()
	assert.Equal(t, ports.GlyphPlay, v.controls.PlayPause.Glyph)

	f.presenter.OnNextClicked()
	v = f.view.snapshot()
	assert.Equal(t, 2, v.current)
	assert.Equal(t, f.tracks[2].Title, v.title)
	assert.Equal(t, ports.GlyphPlay, v.controls.PlayPause.Glyph, "next keeps the paused state")
}

func TestPresenter_ShuffleRepeatMute(t *testing.T) {
	f := newPresenterFixture(t)
	require.NoError(t, f.presenter.OnPlayTracks(f.tracks[0], f.tracks))

	f.presenter.OnShuffleClicked()
	assert.Equal(t, ports.GlyphShuffleOn, f.view.snapshot().controls.Shuffle.Glyph)
	assert.Equal(t, "Shuffle: on", f.view.snapshot().controls.Shuffle.Tooltip)

	f.presenter.OnRepeatClicked()
	assert.Equal(t, ports.GlyphRepeatAll, f.view.snapshot().controls.Repeat.Glyph)
	f.presenter.OnRepeatClicked()
	assert.Equal(t, ports.GlyphRepeatOne, f.view.snapshot().controls.Repeat.Glyph)
	f.presenter.OnRepeatClicked()
	assert.Equal(t, ports.GlyphRepeatOff, f.view.snapshot().controls.Repeat.Glyph)

	f.presenter.OnMuteClicked()
	assert.Equal(t, ports.GlyphMuted, f.view.snapshot().controls.Mute.Glyph)

	f.presenter.OnVolumeChanged(40)
	assert.InDelta(t, 0.4, f.view.snapshot().volume, 0.0001)
	assert.InDelta(t, 0.4, f.services.Preferences.GetVolume(), 0.0001)
}

func TestPresenter_Like(t *testing.T) {
	f := newPresenterFixture(t)
	require.NoError(t, f.presenter.OnPlayTracks(f.tracks[0], f.tracks))

	f.presenter.OnLikeClicked()
	assert.Equal(t, ports.GlyphLiked, f.view.snapshot().controls.Like.Glyph)

	liked, err := f.services.Listening.IsLiked(context.Background(), f.tracks[0].ID)
	require.NoError(t, err)
	assert.True(t, liked)

	// liked state follows the loaded track
	f.presenter.OnNextClicked()
	assert.Equal(t, ports.GlyphNotLiked, f.view.snapshot().controls.Like.Glyph)
	f.presenter.OnPreviousClicked()
	assert.Equal(t, ports.GlyphLiked, f.view.snapshot().controls.Like.Glyph)

	// and the active profile
	require.NoError(t, f.presenter.OnProfileSelected("bob"))
	assert.Equal(t, ports.GlyphNotLiked, f.view.snapshot().controls.Like.Glyph)
}

func TestPresenter_EndOfQueueIsQuiet(t *testing.T) {
	f := newPresenterFixture(t)
	require.NoError(t, f.presenter.OnPlayTracks(f.tracks[2], f.tracks))

	f.presenter.OnNextClicked()

	v := f.view.snapshot()
	assert.Empty(t, v.notifications)
	assert.Equal(t, ports.GlyphPlay, v.controls.PlayPause.Glyph)
}

func TestPresenter_EmptyQueueNotifies(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.OnPlayPauseClicked()
	assert.Contains(t, f.view.snapshot().notifications, "Queue: The queue is empty")
}

func TestPresenter_QueueCommands(t *testing.T) {
	f := newPresenterFixture(t)
	f.presenter.OnAppendTracks(f.tracks)

	entries, index := f.presenter.Queue()
	require.Len(t, entries, 3)
	assert.Equal(t, 0, index)

	require.NoError(t, f.presenter.OnQueueEntrySelected(2))
	assert.Equal(t, f.tracks[2].Title, f.view.snapshot().title)

	require.NoError(t, f.presenter.OnQueueEntryMoved(0, 2))
	entries, index = f.presenter.Queue()
	assert.Equal(t, f.tracks[0].ID, entries[2].Track.ID)
	assert.Equal(t, 1, index, "current entry follows the move")

	require.NoError(t, f.presenter.OnQueueEntryRemoved(0))
	entries, _ = f.presenter.Queue()
	assert.Len(t, entries, 2)

	assert.Error(t, f.presenter.OnQueueEntryRemoved(10))
	assert.NotEmpty(t, f.view.snapshot().notifications)

	f.presenter.OnPlayTracksNext(f.tracks[:1])
	entries, _ = f.presenter.Queue()
	assert.Len(t, entries, 3)

	f.presenter.OnQueueCleared()
	entries, _ = f.presenter.Queue()
	assert.Empty(t, entries)
	assert.Zero(t, f.view.snapshot().total)
}

func TestPresenter_FilesOpened(t *testing.T) {
	f := newPresenterFixture(t)
	dir := t.TempDir()
	paths := make([]string, 0, 3)
	for _, name := range []string{"a.mp3", "b.wav", "notes.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		paths = append(paths, path)
	}

	require.NoError(t, f.presenter.OnFilesOpened(paths...))

	v := f.view.snapshot()
	require.Len(t, v.entries, 2)
	assert.Equal(t, "a", v.title)
	assert.Equal(t, ports.GlyphPause, v.controls.PlayPause.Glyph)
	assert.Equal(t, "b", v.entries[1].Track.Title)

	require.NoError(t, f.presenter.OnFilesOpened(filepath.Join(dir, "notes.txt")))
	assert.Contains(t, f.view.snapshot().notifications, "Open Files: No supported audio files selected")
}

func TestPresenter_FolderOpened(t *testing.T) {
	f := newPresenterFixture(t)
	dir := t.TempDir()
	for _, name := range []string{"one.mp3", "two.flac"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	f.presenter.OnFolderOpened(dir)

	require.Eventually(t, func() bool {
		entries, _ := f.presenter.Queue()
		return len(entries) == 2
	}, 2*time.Second, 10*time.Millisecond)

	v := f.view.snapshot()
	assert.False(t, v.scanVisible)
	assert.Equal(t, 2, v.scanProgress.TotalFiles)
	assert.Contains(t, v.notifications, "Scan Complete: Found 2 tracks")
	assert.Equal(t, dir, f.presenter.LastFolder())
	assert.Equal(t, []string{dir}, f.services.Preferences.ScanFolders())
}

func TestPresenter_Profiles(t *testing.T) {
	f := newPresenterFixture(t)

	require.NoError(t, f.presenter.OnProfileSelected("bob"))
	list, active, err := f.presenter.Profiles()
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "bob", active.Name)
	assert.Contains(t, f.view.snapshot().notifications, "Profile: Switched to bob")
}

func TestPresenter_ShutdownUnsubscribes(t *testing.T) {
	f := newPresenterFixture(t)
	f.presenter.Shutdown()
	f.presenter.Shutdown()

	before := f.view.snapshot().controlCalls
	f.services.Queue.ToggleShuffle()
	assert.Equal(t, before, f.view.snapshot().controlCalls)
}
