package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/cadence/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/cadence/internal/adapter/repository/sqlite"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
	"github.com/tejashwikalptaru/cadence/internal/queue"
	"github.com/tejashwikalptaru/cadence/internal/testutil"
)

// recorder collects every event published on a bus.
type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func newRecorder(bus *eventbus.SyncEventBus) *recorder {
	r := &recorder{}
	bus.SubscribeAll(func(e domain.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	})
	return r
}

func (r *recorder) of(eventType domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) count(eventType domain.EventType) int {
	return len(r.of(eventType))
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// fakeQueueRepository keeps snapshots in memory.
type fakeQueueRepository struct {
	mu       sync.Mutex
	queues   map[string]domain.QueueSnapshot
	saves    int
	saveErr  error
	loadErr  error
	clearErr error
}

func newFakeQueueRepository() *fakeQueueRepository {
	return &fakeQueueRepository{queues: make(map[string]domain.QueueSnapshot)}
}

func (f *fakeQueueRepository) SaveQueue(_ context.Context, profileID string, snap domain.QueueSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.queues[profileID] = snap
	return nil
}

func (f *fakeQueueRepository) LoadQueue(_ context.Context, profileID string) (domain.QueueSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return domain.QueueSnapshot{}, f.loadErr
	}
	return f.queues[profileID], nil
}

func (f *fakeQueueRepository) ClearQueue(_ context.Context, profileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	delete(f.queues, profileID)
	return nil
}

func (f *fakeQueueRepository) stored(profileID string) (domain.QueueSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.queues[profileID]
	return snap, ok
}

func (f *fakeQueueRepository) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func newTestEngine(t *testing.T) *mock.Engine {
	t.Helper()
	engine := mock.NewEngine()
	require.NoError(t, engine.Initialize(44100, 100*time.Millisecond))
	return engine
}

type playbackFixture struct {
	engine   *mock.Engine
	bus      *eventbus.SyncEventBus
	events   *recorder
	playback *PlaybackService
}

func newPlaybackFixture(t *testing.T, opts ...PlaybackOption) *playbackFixture {
	t.Helper()
	engine := newTestEngine(t)
	bus := eventbus.NewSyncEventBus()
	events := newRecorder(bus)
	opts = append([]PlaybackOption{WithUpdateInterval(5 * time.Millisecond)}, opts...)
	playback := NewPlaybackService(logger.NewTestLogger(), engine, bus, opts...)
	t.Cleanup(func() { _ = playback.Shutdown() })
	return &playbackFixture{engine: engine, bus: bus, events: events, playback: playback}
}

type queueFixture struct {
	*playbackFixture
	repo  *fakeQueueRepository
	queue *QueueService
}

func newQueueFixture(t *testing.T, opts ...QueueOption) *queueFixture {
	t.Helper()
	pf := newPlaybackFixture(t)
	repo := newFakeQueueRepository()
	opts = append([]QueueOption{
		WithSaveInterval(0),
		WithQueueOptions(
			queue.WithRand(rand.New(rand.NewPCG(1, 2))),
			queue.WithIDGenerator(testutil.SequentialIDs()),
		),
	}, opts...)
	qs := NewQueueService(logger.NewTestLogger(), pf.playback, repo, pf.bus, opts...)
	t.Cleanup(func() { _ = qs.Shutdown() })
	return &queueFixture{playbackFixture: pf, repo: repo, queue: qs}
}

// loadedHandle returns the engine handle of the track playback has loaded.
func (f *playbackFixture) loadedHandle(t *testing.T) domain.TrackHandle {
	t.Helper()
	var handle domain.TrackHandle
	loaded := f.events.of(domain.EventTrackLoaded)
	require.NotEmpty(t, loaded)
	handle = loaded[len(loaded)-1].(domain.TrackLoadedEvent).Handle
	return handle
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedCatalog(t *testing.T, store *sqlite.Store, n int) []domain.Track {
	t.Helper()
	tracks := make([]domain.Track, n)
	for i, tr := range testutil.Tracks(n) {
		tr.ID = ""
		stored, err := store.Tracks().Upsert(context.Background(), tr)
		require.NoError(t, err)
		tracks[i] = stored
	}
	return tracks
}
