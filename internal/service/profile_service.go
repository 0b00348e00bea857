package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// ProfileService tracks the active listener profile. Switching profiles
// publishes a ProfileChangedEvent, on which the queue and listening services
// reload their per-profile state.
type ProfileService struct {
	logger *slog.Logger
	repo   ports.ProfileRepository
	prefs  ports.PreferencesRepository
	bus    ports.EventBus

	active *domain.Profile
	mu     sync.RWMutex
}

// NewProfileService creates a profile service. prefs may be nil, in which
// case the active profile is not remembered between runs.
func NewProfileService(
	logger *slog.Logger,
	repo ports.ProfileRepository,
	prefs ports.PreferencesRepository,
	bus ports.EventBus,
) *ProfileService {
	return &ProfileService{
		logger: logger.With("service", "profile"),
		repo:   repo,
		prefs:  prefs,
		bus:    bus,
	}
}

// Start activates the remembered profile, or fallback when none was saved.
func (s *ProfileService) Start(ctx context.Context, fallback string) (domain.Profile, error) {
	name := fallback
	if s.prefs != nil {
		if saved, err := s.prefs.LoadActiveProfile(); err != nil {
			s.logger.Warn("failed to load active profile preference", slog.Any("error", err))
		} else if saved != "" {
			name = saved
		}
	}
	if name == "" {
		name = domain.DefaultProfileName
	}
	return s.Activate(ctx, name)
}

// Activate makes the named profile active, creating it on first use.
func (s *ProfileService) Activate(ctx context.Context, name string) (domain.Profile, error) {
	profile, err := s.repo.Ensure(ctx, name)
	if err != nil {
		s.logger.Warn("failed to activate profile", slog.String("name", name), slog.Any("error", err))
		return domain.Profile{}, err
	}

	s.mu.Lock()
	unchanged := s.active != nil && s.active.ID == profile.ID
	s.active = &profile
	s.mu.Unlock()

	if s.prefs != nil {
		if err := s.prefs.SaveActiveProfile(profile.Name); err != nil {
			s.logger.Warn("failed to remember active profile", slog.Any("error", err))
		}
	}

	if !unchanged {
		s.logger.Info("profile activated", slog.String("name", profile.Name), slog.String("id", profile.ID))
		s.bus.Publish(domain.NewProfileChangedEvent(profile))
	}
	return profile, nil
}

// Active returns the active profile.
func (s *ProfileService) Active() (domain.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil {
		return domain.Profile{}, false
	}
	return *s.active, true
}

// List returns every profile.
func (s *ProfileService) List(ctx context.Context) ([]domain.Profile, error) {
	return s.repo.List(ctx)
}

// Create adds a profile without activating it.
func (s *ProfileService) Create(ctx context.Context, name string) (domain.Profile, error) {
	return s.repo.Create(ctx, name)
}
