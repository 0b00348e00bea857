package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
)

func TestNewSyncEventBus(t *testing.T) {
	bus := NewSyncEventBus()

	require.NotNil(t, bus)
	assert.Equal(t, 0, bus.SubscriberCount())
	assert.False(t, bus.closed)
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var received []domain.Event
	subID := bus.Subscribe(domain.EventShuffleToggled, func(event domain.Event) {
		received = append(received, event)
	})
	require.NotEmpty(t, subID)

	bus.Publish(domain.NewShuffleToggledEvent(true))

	require.Len(t, received, 1)
	e, ok := received[0].(domain.ShuffleToggledEvent)
	require.True(t, ok)
	assert.True(t, e.Enabled)
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var order []string
	record := func(name string) domain.EventHandler {
		return func(domain.Event) { order = append(order, name) }
	}

	bus.SubscribeAll(record("wildcard"))
	bus.Subscribe(domain.EventQueueChanged, record("a"))
	b := bus.Subscribe(domain.EventQueueChanged, record("b"))
	bus.Subscribe(domain.EventQueueChanged, record("c"))
	bus.Subscribe(domain.EventQueueChanged, record("d"))

	bus.Unsubscribe(b)
	bus.Publish(domain.NewQueueChangedEvent(nil, 0))

	assert.Equal(t, []string{"a", "c", "d", "wildcard"}, order)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var calls int32
	subID := bus.Subscribe(domain.EventRepeatModeChanged, func(domain.Event) {
		atomic.AddInt32(&calls, 1)
	})

	bus.Publish(domain.NewRepeatModeChangedEvent(domain.RepeatAll))
	bus.Unsubscribe(subID)
	bus.Publish(domain.NewRepeatModeChangedEvent(domain.RepeatOne))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// unknown IDs are ignored
	bus.Unsubscribe("invalid-id")
	bus.Unsubscribe("")
}

func TestUnsubscribeWildcard(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	id := bus.SubscribeAll(func(domain.Event) {})
	assert.Equal(t, 1, bus.SubscriberCount())
	bus.Unsubscribe(id)
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestSubscribeFiltered(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var liked []string
	bus.SubscribeFiltered(domain.EventLikeChanged,
		func(e domain.Event) bool { return e.(domain.LikeChangedEvent).Liked },
		func(e domain.Event) { liked = append(liked, e.(domain.LikeChangedEvent).TrackID) },
	)

	bus.Publish(domain.NewLikeChangedEvent("t1", true))
	bus.Publish(domain.NewLikeChangedEvent("t2", false))
	bus.Publish(domain.NewLikeChangedEvent("t3", true))

	assert.Equal(t, []string{"t1", "t3"}, liked)
}

func TestSubscribeAll(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var mu sync.Mutex
	var types []domain.EventType
	bus.SubscribeAll(func(event domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		types = append(types, event.Type())
	})

	track := domain.Track{ID: "test", Title: "Test"}
	bus.Publish(domain.NewTrackStartedEvent(track, false))
	bus.Publish(domain.NewTrackPausedEvent(track, 10*time.Second))
	bus.Publish(domain.NewQueueDurationChangedEvent(time.Hour, time.Minute))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.EventType{
		domain.EventTrackStarted,
		domain.EventTrackPaused,
		domain.EventQueueDurationChanged,
	}, types)
}

func TestHasSubscribers(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	assert.False(t, bus.HasSubscribers(domain.EventTrackStarted))

	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventTrackStarted))
	assert.False(t, bus.HasSubscribers(domain.EventTrackPaused))

	bus.SubscribeAll(func(domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventTrackPaused))
}

func TestHandlerPanic(t *testing.T) {
	bus := NewSyncEventBus()
	bus.SetLogger(logger.NewTestLogger())
	defer bus.Close()

	var calls int32
	bus.Subscribe(domain.EventAutoNext, func(domain.Event) { panic("test panic") })
	bus.Subscribe(domain.EventAutoNext, func(domain.Event) { atomic.AddInt32(&calls, 1) })

	assert.NotPanics(t, func() {
		bus.Publish(domain.NewAutoNextEvent(domain.Track{ID: "t1"}))
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClose(t *testing.T) {
	bus := NewSyncEventBus()

	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {})
	bus.SubscribeAll(func(domain.Event) {})
	require.Equal(t, 2, bus.SubscriberCount())

	require.NoError(t, bus.Close())
	assert.Equal(t, 0, bus.SubscriberCount())

	assert.NotPanics(t, func() {
		bus.Publish(domain.NewTrackStartedEvent(domain.Track{ID: "test"}, false))
	})
	assert.ErrorIs(t, bus.Close(), ErrClosed)
	assert.Panics(t, func() {
		bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {})
	})
}

func TestConcurrentPublish(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var count int32
	bus.Subscribe(domain.EventTrackProgress, func(domain.Event) {
		atomic.AddInt32(&count, 1)
	})

	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				bus.Publish(domain.NewTrackProgressEvent(time.Second, time.Minute))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(goroutines*perGoroutine), atomic.LoadInt32(&count))
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var count int32
	handler := func(domain.Event) { atomic.AddInt32(&count, 1) }
	bus.Subscribe(domain.EventTrackStarted, handler)

	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 5; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(domain.NewTrackStartedEvent(domain.Track{ID: "t"}, false))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				id := bus.Subscribe(domain.EventTrackStarted, handler)
				bus.Unsubscribe(id)
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(250))
}

func TestNilEventAndHandler(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var calls int32
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) { atomic.AddInt32(&calls, 1) })
	bus.Publish(nil)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	assert.Panics(t, func() { bus.Subscribe(domain.EventTrackStarted, nil) })
	assert.Panics(t, func() { bus.SubscribeAll(nil) })
}
