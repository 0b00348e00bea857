package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventTrackLoaded    EventType = "track.loaded"
	EventTrackStarted   EventType = "track.started"
	EventTrackPaused    EventType = "track.paused"
	EventTrackStopped   EventType = "track.stopped"
	EventTrackCompleted EventType = "track.completed"
	EventTrackProgress  EventType = "track.progress"
	EventTrackError     EventType = "track.error"
	EventAutoNext       EventType = "track.auto_next"

	// Volume events
	EventVolumeChanged EventType = "volume.changed"
	EventMuteToggled   EventType = "mute.toggled"

	// Queue events
	EventQueueChanged         EventType = "queue.changed"
	EventQueueIndexChanged    EventType = "queue.index_changed"
	EventQueueDurationChanged EventType = "queue.duration_changed"
	EventShuffleToggled       EventType = "queue.shuffle_toggled"
	EventRepeatModeChanged    EventType = "queue.repeat_changed"

	// Library scanning events
	EventScanStarted   EventType = "scan.started"
	EventScanProgress  EventType = "scan.progress"
	EventScanCompleted EventType = "scan.completed"
	EventScanCancelled EventType = "scan.cancelled"
	EventTrackRemoved  EventType = "library.track_removed"

	// Listening events
	EventLikeChanged    EventType = "like.changed"
	EventProfileChanged EventType = "profile.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackLoadedEvent is published when a track is successfully loaded.
type TrackLoadedEvent struct {
	baseEvent
	Track    Track
	Handle   TrackHandle
	Duration time.Duration
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track Track, handle TrackHandle, duration time.Duration) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Handle:    handle,
		Duration:  duration,
	}
}

// TrackStartedEvent is published when playback starts.
type TrackStartedEvent struct {
	baseEvent
	Track Track

	// Resumed is true when playback continues after a pause
	Resumed bool
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track, resumed bool) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Resumed:   resumed,
	}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Track    Track
	Position time.Duration
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(track Track, position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  position,
	}
}

// TrackStoppedEvent is published when playback is stopped.
type TrackStoppedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackStoppedEvent) Type() EventType {
	return EventTrackStopped
}

// NewTrackStoppedEvent creates a new TrackStoppedEvent.
func NewTrackStoppedEvent(track Track) TrackStoppedEvent {
	return TrackStoppedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// TrackCompletedEvent is published when a track finishes playing on its own.
type TrackCompletedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackCompletedEvent) Type() EventType {
	return EventTrackCompleted
}

// NewTrackCompletedEvent creates a new TrackCompletedEvent.
func NewTrackCompletedEvent(track Track) TrackCompletedEvent {
	return TrackCompletedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// TrackProgressEvent is published periodically during playback.
type TrackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType {
	return EventTrackProgress
}

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(position, duration time.Duration) TrackProgressEvent {
	return TrackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// TrackErrorEvent is published when a track fails to load or play.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Err   error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Err:       err,
	}
}

// AutoNextEvent is published when the transport wants the queue to advance
// because the current track ran to its end.
type AutoNextEvent struct {
	baseEvent
	Finished Track
}

// Type returns the event type.
func (e AutoNextEvent) Type() EventType {
	return EventAutoNext
}

// NewAutoNextEvent creates a new AutoNextEvent.
func NewAutoNextEvent(finished Track) AutoNextEvent {
	return AutoNextEvent{
		baseEvent: newBaseEvent(),
		Finished:  finished,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// MuteToggledEvent is published when mute is toggled.
type MuteToggledEvent struct {
	baseEvent
	Muted bool
}

// Type returns the event type.
func (e MuteToggledEvent) Type() EventType {
	return EventMuteToggled
}

// NewMuteToggledEvent creates a new MuteToggledEvent.
func NewMuteToggledEvent(muted bool) MuteToggledEvent {
	return MuteToggledEvent{
		baseEvent: newBaseEvent(),
		Muted:     muted,
	}
}

// QueueChangedEvent is published when entries are added, removed or reordered.
type QueueChangedEvent struct {
	baseEvent
	Entries []QueueEntry
	Index   int
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType {
	return EventQueueChanged
}

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(entries []QueueEntry, index int) QueueChangedEvent {
	return QueueChangedEvent{
		baseEvent: newBaseEvent(),
		Entries:   entries,
		Index:     index,
	}
}

// QueueIndexChangedEvent is published when the current entry changes.
type QueueIndexChangedEvent struct {
	baseEvent
	Index int
	Entry QueueEntry
}

// Type returns the event type.
func (e QueueIndexChangedEvent) Type() EventType {
	return EventQueueIndexChanged
}

// NewQueueIndexChangedEvent creates a new QueueIndexChangedEvent.
func NewQueueIndexChangedEvent(index int, entry QueueEntry) QueueIndexChangedEvent {
	return QueueIndexChangedEvent{
		baseEvent: newBaseEvent(),
		Index:     index,
		Entry:     entry,
	}
}

// QueueDurationChangedEvent carries the recomputed queue length and the time left to play.
type QueueDurationChangedEvent struct {
	baseEvent
	Total     time.Duration
	Remaining time.Duration
}

// Type returns the event type.
func (e QueueDurationChangedEvent) Type() EventType {
	return EventQueueDurationChanged
}

// NewQueueDurationChangedEvent creates a new QueueDurationChangedEvent.
func NewQueueDurationChangedEvent(total, remaining time.Duration) QueueDurationChangedEvent {
	return QueueDurationChangedEvent{
		baseEvent: newBaseEvent(),
		Total:     total,
		Remaining: remaining,
	}
}

// ShuffleToggledEvent is published when shuffle is turned on or off.
type ShuffleToggledEvent struct {
	baseEvent
	Enabled bool
}

// Type returns the event type.
func (e ShuffleToggledEvent) Type() EventType {
	return EventShuffleToggled
}

// NewShuffleToggledEvent creates a new ShuffleToggledEvent.
func NewShuffleToggledEvent(enabled bool) ShuffleToggledEvent {
	return ShuffleToggledEvent{
		baseEvent: newBaseEvent(),
		Enabled:   enabled,
	}
}

// RepeatModeChangedEvent is published when the repeat mode changes.
type RepeatModeChangedEvent struct {
	baseEvent
	Mode RepeatMode
}

// Type returns the event type.
func (e RepeatModeChangedEvent) Type() EventType {
	return EventRepeatModeChanged
}

// NewRepeatModeChangedEvent creates a new RepeatModeChangedEvent.
func NewRepeatModeChangedEvent(mode RepeatMode) RepeatModeChangedEvent {
	return RepeatModeChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
	}
}

// ScanStartedEvent is published when a library scan starts.
type ScanStartedEvent struct {
	baseEvent
	Path string
}

// Type returns the event type.
func (e ScanStartedEvent) Type() EventType {
	return EventScanStarted
}

// NewScanStartedEvent creates a new ScanStartedEvent.
func NewScanStartedEvent(path string) ScanStartedEvent {
	return ScanStartedEvent{
		baseEvent: newBaseEvent(),
		Path:      path,
	}
}

// ScanProgressEvent is published periodically during a library scan.
type ScanProgressEvent struct {
	baseEvent
	Progress ScanProgress
}

// Type returns the event type.
func (e ScanProgressEvent) Type() EventType {
	return EventScanProgress
}

// NewScanProgressEvent creates a new ScanProgressEvent.
func NewScanProgressEvent(progress ScanProgress) ScanProgressEvent {
	return ScanProgressEvent{
		baseEvent: newBaseEvent(),
		Progress:  progress,
	}
}

// ScanCompletedEvent is published when a library scan completes.
type ScanCompletedEvent struct {
	baseEvent
	Tracks []Track
}

// Type returns the event type.
func (e ScanCompletedEvent) Type() EventType {
	return EventScanCompleted
}

// NewScanCompletedEvent creates a new ScanCompletedEvent.
func NewScanCompletedEvent(tracks []Track) ScanCompletedEvent {
	return ScanCompletedEvent{
		baseEvent: newBaseEvent(),
		Tracks:    tracks,
	}
}

// ScanCancelledEvent is published when a library scan is canceled.
type ScanCancelledEvent struct {
	baseEvent
	Reason string
}

// Type returns the event type.
func (e ScanCancelledEvent) Type() EventType {
	return EventScanCancelled
}

// NewScanCancelledEvent creates a new ScanCancelledEvent.
func NewScanCancelledEvent(reason string) ScanCancelledEvent {
	return ScanCancelledEvent{
		baseEvent: newBaseEvent(),
		Reason:    reason,
	}
}

// LikeChangedEvent is published when a track is liked or unliked.
type LikeChangedEvent struct {
	baseEvent
	TrackID string
	Liked   bool
}

// Type returns the event type.
func (e LikeChangedEvent) Type() EventType {
	return EventLikeChanged
}

// NewLikeChangedEvent creates a new LikeChangedEvent.
func NewLikeChangedEvent(trackID string, liked bool) LikeChangedEvent {
	return LikeChangedEvent{
		baseEvent: newBaseEvent(),
		TrackID:   trackID,
		Liked:     liked,
	}
}

// ProfileChangedEvent is published when a different profile becomes active.
type ProfileChangedEvent struct {
	baseEvent
	Profile Profile
}

// Type returns the event type.
func (e ProfileChangedEvent) Type() EventType {
	return EventProfileChanged
}

// NewProfileChangedEvent creates a new ProfileChangedEvent.
func NewProfileChangedEvent(profile Profile) ProfileChangedEvent {
	return ProfileChangedEvent{
		baseEvent: newBaseEvent(),
		Profile:   profile,
	}
}

// TrackRemovedEvent is published after a track is deleted from the catalog.
type TrackRemovedEvent struct {
	baseEvent
	TrackID string
}

// Type returns the event type.
func (e TrackRemovedEvent) Type() EventType {
	return EventTrackRemoved
}

// NewTrackRemovedEvent creates a new TrackRemovedEvent.
func NewTrackRemovedEvent(trackID string) TrackRemovedEvent {
	return TrackRemovedEvent{
		baseEvent: newBaseEvent(),
		TrackID:   trackID,
	}
}
