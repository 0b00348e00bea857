// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
	"github.com/tejashwikalptaru/cadence/internal/service"
)

// Services groups the services a Presenter drives.
type Services struct {
	Playback    *service.PlaybackService
	Queue       *service.QueueService
	Library     *service.LibraryService
	Listening   *service.ListeningService
	Profiles    *service.ProfileService
	Preferences *service.PreferenceService
}

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between services and the UI, handling all event-driven updates.
//
// Responsibilities:
// - Subscribe to events from the event bus
// - Map domain events to view-model updates on a ports.PlayerView
// - Translate UI commands to service method calls
//
// Event handlers only read from services. Commands that change the queue
// are issued from UI callbacks, never from inside a handler.
type Presenter struct {
	logger *slog.Logger

	playback    *service.PlaybackService
	queue       *service.QueueService
	library     *service.LibraryService
	listening   *service.ListeningService
	profiles    *service.ProfileService
	preferences *service.PreferenceService

	bus ports.EventBus

	view ports.PlayerView

	// Presentation state
	mu       sync.RWMutex
	controls ControlState
	entries  []domain.QueueEntry
	index    int
	duration time.Duration

	subs         []domain.SubscriptionID
	scans        sync.WaitGroup
	shutdownOnce sync.Once
}

// NewPresenter creates a presenter, subscribes it to the bus and pushes the
// current state to view.
func NewPresenter(logger *slog.Logger, services Services, eventBus ports.EventBus, view ports.PlayerView) *Presenter {
	p := &Presenter{
		logger:      logger.With("component", "presenter"),
		playback:    services.Playback,
		queue:       services.Queue,
		library:     services.Library,
		listening:   services.Listening,
		profiles:    services.Profiles,
		preferences: services.Preferences,
		bus:         eventBus,
		view:        view,
	}

	p.subscribeToEvents()
	p.syncInitialState()
	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	handlers := []struct {
		eventType domain.EventType
		handler   domain.EventHandler
	}{
		{domain.EventTrackLoaded, p.onTrackLoaded},
		{domain.EventTrackStarted, p.onTrackStarted},
		{domain.EventTrackPaused, p.onTrackPaused},
		{domain.EventTrackStopped, p.onTrackStopped},
		{domain.EventTrackProgress, p.onTrackProgress},
		{domain.EventTrackError, p.onTrackError},

		{domain.EventVolumeChanged, p.onVolumeChanged},
		{domain.EventMuteToggled, p.onMuteToggled},

		{domain.EventQueueChanged, p.onQueueChanged},
		{domain.EventQueueIndexChanged, p.onQueueIndexChanged},
		{domain.EventQueueDurationChanged, p.onQueueDurationChanged},
		{domain.EventShuffleToggled, p.onShuffleToggled},
		{domain.EventRepeatModeChanged, p.onRepeatModeChanged},

		{domain.EventLikeChanged, p.onLikeChanged},
		{domain.EventProfileChanged, p.onProfileChanged},

		{domain.EventScanStarted, p.onScanStarted},
		{domain.EventScanProgress, p.onScanProgress},
		{domain.EventScanCompleted, p.onScanCompleted},
		{domain.EventScanCancelled, p.onScanCancelled},
	}

	for _, h := range handlers {
		p.subs = append(p.subs, p.bus.Subscribe(h.eventType, h.handler))
	}
}

// syncInitialState pushes the state the services already hold, such as a
// queue restored from the database, to the view.
func (p *Presenter) syncInitialState() {
	state := p.playback.GetState()
	entries := p.queue.Entries()
	index := p.queue.Index()
	total, remaining := p.queue.Durations()

	p.mu.Lock()
	p.controls.Status = state.Status
	p.controls.Muted = state.IsMuted
	p.controls.Shuffle = p.queue.Shuffled()
	p.controls.Repeat = p.queue.Repeat()
	p.controls.QueueLength = len(entries)
	if state.CurrentTrack != nil {
		p.controls.HasTrack = true
		p.controls.TrackID = state.CurrentTrack.ID
	}
	p.entries = entries
	p.index = index
	p.duration = state.Duration
	p.mu.Unlock()

	p.refreshLiked()

	p.view.SetVolume(state.Volume)
	if state.CurrentTrack != nil {
		t := state.CurrentTrack
		p.view.SetTrackInfo(t.DisplayTitle(), t.Artist, t.Album)
		p.view.SetProgress(state.Position, state.Duration)
	}
	p.view.SetQueue(entries, index)
	p.view.SetQueueTime(total, remaining)
	p.pushControls()
}

func (p *Presenter) pushControls() {
	p.mu.RLock()
	controls := BuildControls(p.controls)
	p.mu.RUnlock()

	p.view.SetControls(controls)
}

// refreshLiked looks up whether the loaded track is liked by the active profile.
func (p *Presenter) refreshLiked() {
	p.mu.RLock()
	trackID := p.controls.TrackID
	p.mu.RUnlock()

	liked := false
	if trackID != "" && p.listening != nil {
		var err error
		liked, err = p.listening.IsLiked(context.Background(), trackID)
		if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
			p.logger.Warn("like lookup failed", slog.String("track", trackID), slog.Any("error", err))
		}
	}

	p.mu.Lock()
	if p.controls.TrackID == trackID {
		p.controls.Liked = liked
	}
	p.mu.Unlock()
}

// Event handlers

func (p *Presenter) onTrackLoaded(event domain.Event) {
	e, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.controls.HasTrack = true
	p.controls.TrackID = e.Track.ID
	p.controls.Liked = false
	p.controls.Status = domain.StatusStopped
	p.duration = e.Duration
	p.mu.Unlock()

	p.refreshLiked()

	p.view.SetTrackInfo(e.Track.DisplayTitle(), e.Track.Artist, e.Track.Album)
	p.view.SetProgress(0, e.Duration)
	p.pushControls()
}

func (p *Presenter) onTrackStarted(domain.Event) {
	p.setStatus(domain.StatusPlaying)
}

func (p *Presenter) onTrackPaused(domain.Event) {
	p.setStatus(domain.StatusPaused)
}

// onTrackStopped handles both an explicit stop and the unload that precedes
// loading another track.
func (p *Presenter) onTrackStopped(domain.Event) {
	p.mu.Lock()
	p.controls.Status = domain.StatusStopped
	p.controls.HasTrack = false
	p.controls.TrackID = ""
	p.controls.Liked = false
	duration := p.duration
	p.mu.Unlock()

	p.view.SetProgress(0, duration)
	p.pushControls()
}

func (p *Presenter) setStatus(status domain.PlaybackStatus) {
	p.mu.Lock()
	p.controls.Status = status
	p.mu.Unlock()

	p.pushControls()
}

func (p *Presenter) onTrackProgress(event domain.Event) {
	e, ok := event.(domain.TrackProgressEvent)
	if !ok {
		return
	}
	p.view.SetProgress(e.Position, e.Duration)
}

func (p *Presenter) onTrackError(event domain.Event) {
	e, ok := event.(domain.TrackErrorEvent)
	if !ok {
		return
	}
	p.view.ShowNotification("Playback Error",
		fmt.Sprintf("Could not play %s: %v", e.Track.DisplayTitle(), e.Err))
}

func (p *Presenter) onVolumeChanged(event domain.Event) {
	e, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}
	p.view.SetVolume(e.Volume)
}

func (p *Presenter) onMuteToggled(event domain.Event) {
	e, ok := event.(domain.MuteToggledEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.controls.Muted = e.Muted
	p.mu.Unlock()

	p.pushControls()
}

func (p *Presenter) onQueueChanged(event domain.Event) {
	e, ok := event.(domain.QueueChangedEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.entries = e.Entries
	p.index = e.Index
	p.controls.QueueLength = len(e.Entries)
	p.mu.Unlock()

	p.view.SetQueue(e.Entries, e.Index)
	p.pushControls()
}

func (p *Presenter) onQueueIndexChanged(event domain.Event) {
	e, ok := event.(domain.QueueIndexChangedEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.index = e.Index
	entries := p.entries
	p.mu.Unlock()

	p.view.SetQueue(entries, e.Index)
}

func (p *Presenter) onQueueDurationChanged(event domain.Event) {
	e, ok := event.(domain.QueueDurationChangedEvent)
	if !ok {
		return
	}
	p.view.SetQueueTime(e.Total, e.Remaining)
}

func (p *Presenter) onShuffleToggled(event domain.Event) {
	e, ok := event.(domain.ShuffleToggledEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.controls.Shuffle = e.Enabled
	p.mu.Unlock()

	p.pushControls()
}

func (p *Presenter) onRepeatModeChanged(event domain.Event) {
	e, ok := event.(domain.RepeatModeChangedEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.controls.Repeat = e.Mode
	p.mu.Unlock()

	p.pushControls()
}

func (p *Presenter) onLikeChanged(event domain.Event) {
	e, ok := event.(domain.LikeChangedEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	current := p.controls.TrackID == e.TrackID
	if current {
		p.controls.Liked = e.Liked
	}
	p.mu.Unlock()

	if current {
		p.pushControls()
	}
}

func (p *Presenter) onProfileChanged(event domain.Event) {
	e, ok := event.(domain.ProfileChangedEvent)
	if !ok {
		return
	}

	p.refreshLiked()
	p.pushControls()
	p.view.ShowNotification("Profile", fmt.Sprintf("Switched to %s", e.Profile.Name))
}

func (p *Presenter) onScanStarted(event domain.Event) {
	e, ok := event.(domain.ScanStartedEvent)
	if !ok {
		return
	}

	p.view.ShowScanProgress(domain.ScanProgress{})
	p.view.ShowNotification("Scan Started", fmt.Sprintf("Scanning: %s", e.Path))
}

func (p *Presenter) onScanProgress(event domain.Event) {
	e, ok := event.(domain.ScanProgressEvent)
	if !ok {
		return
	}
	p.view.ShowScanProgress(e.Progress)
}

func (p *Presenter) onScanCompleted(event domain.Event) {
	e, ok := event.(domain.ScanCompletedEvent)
	if !ok {
		return
	}

	p.view.HideScanProgress()
	p.view.ShowNotification("Scan Complete", fmt.Sprintf("Found %d tracks", len(e.Tracks)))
}

func (p *Presenter) onScanCancelled(event domain.Event) {
	p.view.HideScanProgress()
	p.view.ShowNotification("Scan Cancelled", "Scan was cancelled")
}

// report logs err and shows it to the user.
func (p *Presenter) report(title, action string, err error) {
	p.logger.Error(action+" failed", slog.Any("error", err))
	p.view.ShowNotification(title, fmt.Sprintf("Failed to %s: %v", action, err))
}

// UI Command handlers (called by UI)

// OnPlayPauseClicked toggles playback, starting the current queue entry
// when nothing is loaded.
func (p *Presenter) OnPlayPauseClicked() {
	err := p.queue.TogglePlayPause()
	if errors.Is(err, domain.ErrQueueEmpty) {
		p.view.ShowNotification("Queue", "The queue is empty")
		return
	}
	if err != nil {
		p.report("Playback Error", "toggle playback", err)
	}
}

// OnStopClicked stops playback.
func (p *Presenter) OnStopClicked() {
	if err := p.playback.Stop(); err != nil {
		p.report("Playback Error", "stop playback", err)
	}
}

// OnNextClicked moves to the next queue entry. Reaching the end of a
// non-repeating queue is not an error for the user.
func (p *Presenter) OnNextClicked() {
	err := p.queue.Next()
	if err == nil || errors.Is(err, domain.ErrEndOfQueue) || errors.Is(err, domain.ErrQueueEmpty) {
		return
	}
	p.report("Queue Error", "play next track", err)
}

// OnPreviousClicked restarts the track or moves to the previous entry.
func (p *Presenter) OnPreviousClicked() {
	err := p.queue.Previous()
	if err == nil || errors.Is(err, domain.ErrStartOfQueue) || errors.Is(err, domain.ErrQueueEmpty) {
		return
	}
	p.report("Queue Error", "play previous track", err)
}

// OnShuffleClicked toggles shuffle.
func (p *Presenter) OnShuffleClicked() {
	p.queue.ToggleShuffle()
}

// OnRepeatClicked cycles the repeat mode.
func (p *Presenter) OnRepeatClicked() {
	p.queue.CycleRepeat()
}

// OnLikeClicked toggles the like state of the loaded track.
func (p *Presenter) OnLikeClicked() {
	p.mu.RLock()
	trackID := p.controls.TrackID
	p.mu.RUnlock()

	if trackID == "" {
		return
	}
	if _, err := p.listening.ToggleLike(context.Background(), trackID); err != nil {
		p.report("Like Error", "update liked tracks", err)
	}
}

// OnMuteClicked toggles mute.
func (p *Presenter) OnMuteClicked() {
	if err := p.playback.ToggleMute(); err != nil {
		p.report("Volume Error", "toggle mute", err)
	}
}

// OnVolumeChanged handles volume slider changes (0 to 100).
func (p *Presenter) OnVolumeChanged(volume float64) {
	if err := p.playback.SetVolume(volume / 100.0); err != nil {
		p.report("Volume Error", "change volume", err)
	}
}

// OnSeekRequested handles seek requests from the progress slider.
func (p *Presenter) OnSeekRequested(position time.Duration) {
	if err := p.playback.Seek(position); err != nil {
		p.report("Seek Error", "seek", err)
	}
}

// OnFilesOpened imports paths into the library and plays them right after
// the current entry.
func (p *Presenter) OnFilesOpened(paths ...string) error {
	tracks, err := p.library.ImportFiles(context.Background(), paths...)
	if err != nil {
		p.report("Library Error", "open files", err)
		return err
	}
	if len(tracks) == 0 {
		p.view.ShowNotification("Open Files", "No supported audio files selected")
		return nil
	}

	if err := p.queue.PlayTrack(tracks[0], nil); err != nil {
		p.report("Playback Error", "play file", err)
		return err
	}
	p.queue.PlayNext(tracks[1:]...)
	return nil
}

// OnFolderOpened scans folderPath in the background and appends what it
// finds to the queue.
func (p *Presenter) OnFolderOpened(folderPath string) {
	if err := p.preferences.SetLastFolder(folderPath); err != nil {
		p.logger.Warn("failed to remember folder", slog.Any("error", err))
	}
	if err := p.preferences.AddScanFolder(folderPath); err != nil {
		p.logger.Warn("failed to add scan folder", slog.Any("error", err))
	}

	p.scans.Add(1)
	go func() {
		defer p.scans.Done()

		tracks, err := p.library.Scan(context.Background(), folderPath)
		if errors.Is(err, domain.ErrScanCancelled) {
			return
		}
		if err != nil {
			p.report("Library Error", "scan folder", err)
			return
		}
		p.queue.Append(tracks...)
	}()
}

// OnRescanLibrary scans every remembered folder in the background.
func (p *Presenter) OnRescanLibrary() {
	folders := p.preferences.ScanFolders()
	if len(folders) == 0 {
		p.view.ShowNotification("Library", "No folders to scan")
		return
	}

	p.scans.Add(1)
	go func() {
		defer p.scans.Done()
		if _, err := p.library.Scan(context.Background(), folders...); err != nil && !errors.Is(err, domain.ErrScanCancelled) {
			p.report("Library Error", "rescan library", err)
		}
	}()
}

// OnCancelScan cancels a running scan.
func (p *Presenter) OnCancelScan() {
	if err := p.library.CancelScan(); err != nil {
		p.logger.Debug("cancel scan ignored", slog.Any("error", err))
	}
}

// Queue window commands

// Queue returns the entries in play order and the current position.
func (p *Presenter) Queue() ([]domain.QueueEntry, int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entries, p.index
}

// OnQueueEntrySelected plays the entry at play-order position index.
func (p *Presenter) OnQueueEntrySelected(index int) error {
	err := p.queue.PlayAt(index)
	if err != nil {
		p.report("Queue Error", "play entry", err)
	}
	return err
}

// OnQueueEntryMoved moves an entry from one position to another.
func (p *Presenter) OnQueueEntryMoved(from, to int) error {
	err := p.queue.Move(from, to)
	if err != nil {
		p.report("Queue Error", "move entry", err)
	}
	return err
}

// OnQueueEntryRemoved removes the entry at index.
func (p *Presenter) OnQueueEntryRemoved(index int) error {
	err := p.queue.Remove(index)
	if err != nil {
		p.report("Queue Error", "remove entry", err)
	}
	return err
}

// OnQueueCleared empties the queue.
func (p *Presenter) OnQueueCleared() {
	p.queue.Clear()
}

// Library window commands

// Library exposes the library for browsing.
func (p *Presenter) Library() *service.LibraryService {
	return p.library
}

// OnPlayTracks replaces the queue with tracks and plays track.
func (p *Presenter) OnPlayTracks(track domain.Track, tracks []domain.Track) error {
	err := p.queue.PlayTrack(track, tracks)
	if err != nil {
		p.report("Playback Error", "play track", err)
	}
	return err
}

// OnAppendTracks adds tracks to the end of the queue.
func (p *Presenter) OnAppendTracks(tracks []domain.Track) {
	p.queue.Append(tracks...)
}

// OnPlayTracksNext queues tracks after the current entry.
func (p *Presenter) OnPlayTracksNext(tracks []domain.Track) {
	p.queue.PlayNext(tracks...)
}

// Profiles

// Profiles lists every profile and the active one.
func (p *Presenter) Profiles() ([]domain.Profile, domain.Profile, error) {
	active, _ := p.profiles.Active()
	list, err := p.profiles.List(context.Background())
	return list, active, err
}

// OnProfileSelected switches to the named profile, creating it if needed.
func (p *Presenter) OnProfileSelected(name string) error {
	_, err := p.profiles.Activate(context.Background(), name)
	if err != nil {
		p.report("Profile Error", "switch profile", err)
	}
	return err
}

// LastFolder returns the last folder the user opened.
func (p *Presenter) LastFolder() string {
	return p.preferences.GetLastFolder()
}

// Shutdown cancels background scans and unsubscribes from the bus.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		if p.library.IsScanning() {
			_ = p.library.CancelScan()
		}
		p.scans.Wait()

		for _, id := range p.subs {
			p.bus.Unsubscribe(id)
		}
		p.subs = nil
	})
}
