package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
	"github.com/tejashwikalptaru/cadence/internal/queue"
)

// Defaults for QueueService options.
const (
	DefaultRestartThreshold = 3 * time.Second
	DefaultSaveInterval     = 30 * time.Second
)

// QueueService owns the play queue and drives the PlaybackService through it.
//
// Locking: opMu serializes operations that change the current track, and mu
// guards queue state. Neither playback calls nor event publishing happen
// under mu, so event handlers that only need mu (progress, track loaded) can
// run while an operation holds opMu.
//
// Persistence is best-effort: failures are logged and the in-memory queue
// stays authoritative.
type QueueService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	playback *PlaybackService
	repo     ports.QueueRepository
	bus      ports.EventBus

	// Configuration
	restartThreshold time.Duration
	saveInterval     time.Duration

	opMu sync.Mutex
	mu   sync.RWMutex

	// State
	q             *queue.Queue
	profileID     string
	position      time.Duration
	dirty         bool
	lastRemaining time.Duration
	lastTotal     time.Duration

	subs        []domain.SubscriptionID
	stopSave    chan struct{}
	saveWg      sync.WaitGroup
	saveRunning bool
}

// QueueOption configures a QueueService.
type QueueOption func(*QueueService, *[]queue.Option)

// WithRestartThreshold sets how far into a track Previous restarts it
// instead of going back.
func WithRestartThreshold(d time.Duration) QueueOption {
	return func(s *QueueService, _ *[]queue.Option) { s.restartThreshold = d }
}

// WithSaveInterval sets the period of background saving. Zero disables it.
func WithSaveInterval(d time.Duration) QueueOption {
	return func(s *QueueService, _ *[]queue.Option) { s.saveInterval = d }
}

// WithQueueOptions passes options to the underlying queue.
func WithQueueOptions(opts ...queue.Option) QueueOption {
	return func(_ *QueueService, qopts *[]queue.Option) { *qopts = append(*qopts, opts...) }
}

// NewQueueService creates a queue service and subscribes it to playback and
// profile events.
func NewQueueService(
	logger *slog.Logger,
	playback *PlaybackService,
	repo ports.QueueRepository,
	bus ports.EventBus,
	opts ...QueueOption,
) *QueueService {
	s := &QueueService{
		logger:           logger.With("service", "queue"),
		playback:         playback,
		repo:             repo,
		bus:              bus,
		restartThreshold: DefaultRestartThreshold,
		saveInterval:     DefaultSaveInterval,
	}
	var qopts []queue.Option
	for _, opt := range opts {
		opt(s, &qopts)
	}
	s.q = queue.New(qopts...)

	s.subs = []domain.SubscriptionID{
		bus.Subscribe(domain.EventAutoNext, s.handleAutoNext),
		bus.Subscribe(domain.EventTrackProgress, s.handleProgress),
		bus.Subscribe(domain.EventTrackLoaded, s.handleTrackLoaded),
		bus.Subscribe(domain.EventProfileChanged, s.handleProfileChanged),
		bus.Subscribe(domain.EventTrackRemoved, s.handleTrackRemoved),
	}

	s.logger.Debug("queue service initialized")
	return s
}

// PlayTrack plays track within context. A non-empty context replaces the
// queue; an empty one splices the track in after the current entry.
func (s *QueueService) PlayTrack(track domain.Track, context []domain.Track) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	entry := s.q.PlayTrack(track, context)
	s.dirty = true
	s.mu.Unlock()

	s.publishQueue()
	return s.start(entry, true)
}

// PlayAt plays the entry at play-order position i.
func (s *QueueService) PlayAt(i int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	entry, err := s.q.Jump(i)
	if err == nil {
		s.dirty = true
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.start(entry, true)
}

// Append adds tracks to the end of the queue without interrupting playback.
func (s *QueueService) Append(tracks ...domain.Track) {
	if len(tracks) == 0 {
		return
	}
	s.mu.Lock()
	s.q.Append(tracks...)
	s.dirty = true
	s.mu.Unlock()

	s.publishQueue()
}

// PlayNext queues tracks to play right after the current entry.
func (s *QueueService) PlayNext(tracks ...domain.Track) {
	if len(tracks) == 0 {
		return
	}
	s.mu.Lock()
	s.q.PlayNext(tracks...)
	s.dirty = true
	s.mu.Unlock()

	s.publishQueue()
}

// Next moves to the following entry. The new track plays only if the
// previous one was playing. At the end of a non-repeating queue playback
// stops and domain.ErrEndOfQueue is returned.
func (s *QueueService) Next() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	entry, err := s.q.Next(false)
	if err == nil {
		s.dirty = true
	}
	s.mu.Unlock()

	if errors.Is(err, domain.ErrEndOfQueue) {
		s.stopPlayback()
		return err
	}
	if err != nil {
		return err
	}
	return s.start(entry, s.isPlaying())
}

// Previous restarts the current track once it has played past the restart
// threshold, and otherwise moves to the preceding entry.
func (s *QueueService) Previous() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	_, loaded := s.playback.CurrentTrack()
	if loaded && s.playback.Position() > s.restartThreshold {
		return s.playback.Restart()
	}

	s.mu.Lock()
	entry, err := s.q.Previous()
	if err == nil {
		s.dirty = true
	}
	s.mu.Unlock()

	if errors.Is(err, domain.ErrStartOfQueue) {
		if loaded {
			return s.playback.Restart()
		}
		return err
	}
	if err != nil {
		return err
	}
	return s.start(entry, s.isPlaying())
}

// TogglePlayPause toggles the loaded track, or starts the current entry
// when nothing is loaded.
func (s *QueueService) TogglePlayPause() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, loaded := s.playback.CurrentTrack(); loaded {
		return s.playback.TogglePlayPause()
	}

	s.mu.RLock()
	entry, ok := s.q.Current()
	s.mu.RUnlock()
	if !ok {
		return domain.ErrQueueEmpty
	}
	return s.start(entry, true)
}

// SetShuffle turns shuffle on or off.
func (s *QueueService) SetShuffle(on bool) {
	s.mu.Lock()
	changed := s.q.Shuffled() != on
	s.q.SetShuffle(on)
	if changed {
		s.dirty = true
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	s.bus.Publish(domain.NewShuffleToggledEvent(on))
	s.publishQueue()
}

// ToggleShuffle flips shuffle and returns the new state.
func (s *QueueService) ToggleShuffle() bool {
	on := !s.Shuffled()
	s.SetShuffle(on)
	return on
}

// SetRepeat sets the repeat mode.
func (s *QueueService) SetRepeat(mode domain.RepeatMode) error {
	s.mu.Lock()
	if err := s.q.SetRepeat(mode); err != nil {
		s.mu.Unlock()
		return err
	}
	s.dirty = true
	s.mu.Unlock()

	s.bus.Publish(domain.NewRepeatModeChangedEvent(mode))
	return nil
}

// CycleRepeat advances None -> All -> One -> None and returns the new mode.
func (s *QueueService) CycleRepeat() domain.RepeatMode {
	s.mu.Lock()
	mode := s.q.CycleRepeat()
	s.dirty = true
	s.mu.Unlock()

	s.bus.Publish(domain.NewRepeatModeChangedEvent(mode))
	return mode
}

// Move reorders an entry, as done by drag and drop.
func (s *QueueService) Move(from, to int) error {
	s.mu.Lock()
	if err := s.q.Move(from, to); err != nil {
		s.mu.Unlock()
		return err
	}
	s.dirty = true
	s.mu.Unlock()

	s.publishQueue()
	return nil
}

// Remove deletes the entry at i. Removing the playing entry moves playback
// to the entry that takes its place.
func (s *QueueService) Remove(i int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	before, _ := s.q.Current()
	removed, err := s.q.Remove(i)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.dirty = true
	after, hasCurrent := s.q.Current()
	s.mu.Unlock()

	s.publishQueue()

	if removed.EntryID != before.EntryID {
		return nil
	}
	if _, loaded := s.playback.CurrentTrack(); !loaded {
		return nil
	}
	if !hasCurrent {
		s.stopPlayback()
		return nil
	}
	return s.start(after, s.isPlaying())
}

// Clear stops playback and empties the queue.
func (s *QueueService) Clear() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.stopPlayback()

	s.mu.Lock()
	s.q.Clear()
	s.position = 0
	s.dirty = true
	s.mu.Unlock()

	s.publishQueue()
}

// Entries returns the queue in play order.
func (s *QueueService) Entries() []domain.QueueEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Entries()
}

// Index returns the current play-order position.
func (s *QueueService) Index() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Index()
}

// Current returns the current entry.
func (s *QueueService) Current() (domain.QueueEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Current()
}

// Shuffled reports whether shuffle is on.
func (s *QueueService) Shuffled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Shuffled()
}

// Repeat returns the repeat mode.
func (s *QueueService) Repeat() domain.RepeatMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Repeat()
}

// Durations returns the total length of the queue and the time left from
// the last known playback position.
func (s *QueueService) Durations() (total, remaining time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.TotalDuration(), s.q.Remaining(s.position)
}

// ProfileID returns the profile the queue belongs to.
func (s *QueueService) ProfileID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profileID
}

// Save writes the queue of the active profile. Failures are logged and returned.
func (s *QueueService) Save(ctx context.Context) error {
	s.mu.RLock()
	profileID := s.profileID
	snap := s.q.Snapshot()
	s.mu.RUnlock()

	if profileID == "" {
		return nil
	}
	if err := s.repo.SaveQueue(ctx, profileID, snap); err != nil {
		s.logger.Warn("failed to save queue", slog.String("profile_id", profileID), slog.Any("error", err))
		return err
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
	s.logger.Debug("queue saved", slog.String("profile_id", profileID), slog.Int("entries", len(snap.Entries)))
	return nil
}

// Load replaces the queue with the stored queue of the active profile.
// On failure the queue falls back to empty, the error is logged and returned.
func (s *QueueService) Load(ctx context.Context) error {
	s.mu.RLock()
	profileID := s.profileID
	s.mu.RUnlock()

	var err error
	snap := domain.QueueSnapshot{}
	if profileID != "" {
		snap, err = s.repo.LoadQueue(ctx, profileID)
		if err != nil {
			s.logger.Warn("failed to load queue, starting empty", slog.String("profile_id", profileID), slog.Any("error", err))
			snap = domain.QueueSnapshot{}
		}
	}

	s.mu.Lock()
	if rerr := s.q.Restore(snap); rerr != nil {
		s.logger.Warn("stored queue is unusable, starting empty", slog.String("profile_id", profileID), slog.Any("error", rerr))
		if err == nil {
			err = rerr
		}
	}
	s.position = 0
	s.dirty = false
	shuffle, repeat := s.q.Shuffled(), s.q.Repeat()
	s.mu.Unlock()

	s.bus.Publish(domain.NewShuffleToggledEvent(shuffle))
	s.bus.Publish(domain.NewRepeatModeChangedEvent(repeat))
	s.publishQueue()
	return err
}

// SetProfile saves the queue of the current profile, stops playback and
// loads the queue of profileID.
func (s *QueueService) SetProfile(ctx context.Context, profileID string) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	same := s.profileID == profileID
	s.mu.RUnlock()
	if same {
		return
	}

	_ = s.Save(ctx)
	s.stopPlayback()

	s.mu.Lock()
	s.profileID = profileID
	s.mu.Unlock()

	_ = s.Load(ctx)
}

// StartAutoSave saves the queue periodically while it has unsaved changes.
func (s *QueueService) StartAutoSave() {
	s.mu.Lock()
	if s.saveRunning || s.saveInterval <= 0 {
		s.mu.Unlock()
		return
	}
	s.saveRunning = true
	s.stopSave = make(chan struct{})
	stop := s.stopSave
	interval := s.saveInterval
	s.saveWg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.saveWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.RLock()
				dirty := s.dirty
				s.mu.RUnlock()
				if dirty {
					_ = s.Save(context.Background())
				}
			}
		}
	}()
}

// Shutdown stops background saving, unsubscribes and saves the queue.
func (s *QueueService) Shutdown() error {
	s.mu.Lock()
	if s.saveRunning {
		close(s.stopSave)
		s.saveRunning = false
	}
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	s.saveWg.Wait()
	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	return s.Save(context.Background())
}

// start loads entry into playback and optionally plays it. Caller holds opMu.
func (s *QueueService) start(entry domain.QueueEntry, play bool) error {
	s.mu.RLock()
	index := s.q.Find(entry.EntryID)
	s.mu.RUnlock()
	s.bus.Publish(domain.NewQueueIndexChangedEvent(index, entry))

	if err := s.playback.LoadTrack(entry.Track); err != nil {
		s.logger.Warn("failed to load queue entry",
			slog.String("entry_id", entry.EntryID), slog.String("file_path", entry.Track.FilePath), slog.Any("error", err))
		return err
	}
	if !play {
		return nil
	}
	if err := s.playback.Play(); err != nil {
		s.logger.Warn("failed to play queue entry", slog.String("entry_id", entry.EntryID), slog.Any("error", err))
		return err
	}
	return nil
}

func (s *QueueService) isPlaying() bool {
	return s.playback.GetState().Status == domain.StatusPlaying
}

func (s *QueueService) stopPlayback() {
	if err := s.playback.Stop(); err != nil {
		s.logger.Warn("failed to stop playback", slog.Any("error", err))
	}
}

// publishQueue announces the queue contents and its durations.
func (s *QueueService) publishQueue() {
	s.mu.Lock()
	entries, index := s.q.Entries(), s.q.Index()
	total, remaining := s.q.TotalDuration(), s.q.Remaining(s.position)
	s.lastTotal, s.lastRemaining = total, remaining
	s.mu.Unlock()

	s.bus.Publish(domain.NewQueueChangedEvent(entries, index))
	s.bus.Publish(domain.NewQueueDurationChangedEvent(total, remaining))
}

// handleAutoNext advances after a track played to its end.
func (s *QueueService) handleAutoNext(event domain.Event) {
	ev, ok := event.(domain.AutoNextEvent)
	if !ok {
		return
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	current, ok := s.q.Current()
	if !ok || current.Track.FilePath != ev.Finished.FilePath {
		s.mu.Unlock()
		s.logger.Debug("ignoring auto-next for a track that is no longer current",
			slog.String("file_path", ev.Finished.FilePath))
		return
	}
	entry, err := s.q.Next(true)
	if err == nil {
		s.dirty = true
	}
	s.mu.Unlock()

	if errors.Is(err, domain.ErrEndOfQueue) {
		s.logger.Debug("end of queue reached")
		s.stopPlayback()
		s.mu.Lock()
		s.position = 0
		s.mu.Unlock()
		s.publishQueue()
		return
	}
	if err != nil {
		s.logger.Warn("auto-next failed", slog.Any("error", err))
		return
	}
	_ = s.start(entry, true)
}

// handleProgress recomputes the remaining time, publishing when the whole
// seconds change.
func (s *QueueService) handleProgress(event domain.Event) {
	ev, ok := event.(domain.TrackProgressEvent)
	if !ok {
		return
	}

	s.mu.Lock()
	s.position = ev.Position
	total, remaining := s.q.TotalDuration(), s.q.Remaining(ev.Position)
	changed := total.Truncate(time.Second) != s.lastTotal.Truncate(time.Second) ||
		remaining.Truncate(time.Second) != s.lastRemaining.Truncate(time.Second)
	if changed {
		s.lastTotal, s.lastRemaining = total, remaining
	}
	s.mu.Unlock()

	if changed {
		s.bus.Publish(domain.NewQueueDurationChangedEvent(total, remaining))
	}
}

func (s *QueueService) handleTrackLoaded(domain.Event) {
	s.mu.Lock()
	s.position = 0
	s.mu.Unlock()
}

func (s *QueueService) handleProfileChanged(event domain.Event) {
	ev, ok := event.(domain.ProfileChangedEvent)
	if !ok {
		return
	}
	s.SetProfile(context.Background(), ev.Profile.ID)
}

// handleTrackRemoved drops every entry of a track deleted from the catalog.
func (s *QueueService) handleTrackRemoved(event domain.Event) {
	ev, ok := event.(domain.TrackRemovedEvent)
	if !ok {
		return
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	before, _ := s.q.Current()
	entries := s.q.Entries()
	removed := 0
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Track.ID != ev.TrackID {
			continue
		}
		if _, err := s.q.Remove(i); err == nil {
			removed++
		}
	}
	if removed == 0 {
		s.mu.Unlock()
		return
	}
	s.dirty = true
	after, hasCurrent := s.q.Current()
	s.mu.Unlock()

	s.logger.Debug("dropped queue entries of removed track",
		slog.String("track_id", ev.TrackID), slog.Int("entries", removed))
	s.publishQueue()

	if before.Track.ID != ev.TrackID {
		return
	}
	if _, loaded := s.playback.CurrentTrack(); !loaded {
		return
	}
	if !hasCurrent {
		s.stopPlayback()
		return
	}
	if err := s.start(after, s.isPlaying()); err != nil {
		s.logger.Warn("failed to load entry after track removal", slog.Any("error", err))
	}
}
