package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// ListeningService records play history and likes for the active profile.
// Plays are recorded when a track starts from the beginning; resuming a
// paused track does not count.
type ListeningService struct {
	logger  *slog.Logger
	history ports.HistoryRepository
	likes   ports.LikeRepository
	bus     ports.EventBus

	profileID string
	subs      []domain.SubscriptionID
	mu        sync.RWMutex
}

// NewListeningService creates the service and subscribes it to playback
// and profile events.
func NewListeningService(
	logger *slog.Logger,
	history ports.HistoryRepository,
	likes ports.LikeRepository,
	bus ports.EventBus,
) *ListeningService {
	s := &ListeningService{
		logger:  logger.With("service", "listening"),
		history: history,
		likes:   likes,
		bus:     bus,
	}
	s.subs = []domain.SubscriptionID{
		bus.Subscribe(domain.EventTrackStarted, s.handleTrackStarted),
		bus.Subscribe(domain.EventProfileChanged, s.handleProfileChanged),
	}
	return s
}

// SetProfile selects the profile that plays and likes are recorded for.
func (s *ListeningService) SetProfile(profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileID = profileID
}

func (s *ListeningService) profile() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profileID == "" {
		return "", domain.ErrProfileNotFound
	}
	return s.profileID, nil
}

// Like marks the track as liked.
func (s *ListeningService) Like(ctx context.Context, trackID string) error {
	return s.setLiked(ctx, trackID, true)
}

// Unlike removes the like.
func (s *ListeningService) Unlike(ctx context.Context, trackID string) error {
	return s.setLiked(ctx, trackID, false)
}

// ToggleLike flips the like state and returns the new one.
func (s *ListeningService) ToggleLike(ctx context.Context, trackID string) (bool, error) {
	liked, err := s.IsLiked(ctx, trackID)
	if err != nil {
		return false, err
	}
	if err := s.setLiked(ctx, trackID, !liked); err != nil {
		return liked, err
	}
	return !liked, nil
}

func (s *ListeningService) setLiked(ctx context.Context, trackID string, liked bool) error {
	profileID, err := s.profile()
	if err != nil {
		return err
	}
	if trackID == "" {
		return domain.ErrTrackNotFound
	}

	if liked {
		err = s.likes.Like(ctx, profileID, trackID)
	} else {
		err = s.likes.Unlike(ctx, profileID, trackID)
	}
	if err != nil {
		s.logger.Warn("failed to update like", slog.String("track_id", trackID), slog.Bool("liked", liked), slog.Any("error", err))
		return err
	}

	s.bus.Publish(domain.NewLikeChangedEvent(trackID, liked))
	return nil
}

// IsLiked reports whether the active profile liked the track.
func (s *ListeningService) IsLiked(ctx context.Context, trackID string) (bool, error) {
	profileID, err := s.profile()
	if err != nil {
		return false, err
	}
	return s.likes.IsLiked(ctx, profileID, trackID)
}

// Likes returns liked tracks, most recent first.
func (s *ListeningService) Likes(ctx context.Context) ([]domain.Like, error) {
	profileID, err := s.profile()
	if err != nil {
		return nil, err
	}
	return s.likes.List(ctx, profileID)
}

// Recent returns the latest plays. limit <= 0 returns all.
func (s *ListeningService) Recent(ctx context.Context, limit int) ([]domain.PlayRecord, error) {
	profileID, err := s.profile()
	if err != nil {
		return nil, err
	}
	return s.history.Recent(ctx, profileID, limit)
}

// MostPlayed returns tracks by play count. limit <= 0 returns all.
func (s *ListeningService) MostPlayed(ctx context.Context, limit int) ([]domain.PlayCount, error) {
	profileID, err := s.profile()
	if err != nil {
		return nil, err
	}
	return s.history.MostPlayed(ctx, profileID, limit)
}

// ClearHistory forgets the active profile's plays.
func (s *ListeningService) ClearHistory(ctx context.Context) error {
	profileID, err := s.profile()
	if err != nil {
		return err
	}
	return s.history.Clear(ctx, profileID)
}

// Shutdown unsubscribes from events.
func (s *ListeningService) Shutdown() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	return nil
}

func (s *ListeningService) handleTrackStarted(event domain.Event) {
	ev, ok := event.(domain.TrackStartedEvent)
	if !ok || ev.Resumed || ev.Track.ID == "" {
		return
	}
	profileID, err := s.profile()
	if err != nil {
		return
	}
	if _, err := s.history.Record(context.Background(), profileID, ev.Track.ID); err != nil {
		s.logger.Warn("failed to record play", slog.String("track_id", ev.Track.ID), slog.Any("error", err))
	}
}

func (s *ListeningService) handleProfileChanged(event domain.Event) {
	if ev, ok := event.(domain.ProfileChangedEvent); ok {
		s.SetProfile(ev.Profile.ID)
	}
}
