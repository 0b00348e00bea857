package service

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// Themes accepted by SetTheme.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

const defaultVolume = 0.8

// PreferenceService manages application preferences and settings.
// Volume changes published on the bus are persisted automatically.
// All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	logger     *slog.Logger
	repository ports.PreferencesRepository
	bus        ports.EventBus

	// Cached preferences
	volume      float64
	theme       string
	lastFolder  string
	scanFolders []string

	sub domain.SubscriptionID
	mu  sync.RWMutex
}

// NewPreferenceService creates a new preference service and loads the
// stored preferences. Unreadable values keep their defaults.
func NewPreferenceService(
	logger *slog.Logger,
	repository ports.PreferencesRepository,
	bus ports.EventBus,
) *PreferenceService {
	s := &PreferenceService{
		logger:     logger.With("service", "preferences"),
		repository: repository,
		bus:        bus,
		volume:     defaultVolume,
		theme:      ThemeSystem,
	}
	s.loadPreferences()
	s.sub = bus.Subscribe(domain.EventVolumeChanged, s.handleVolumeChanged)

	s.logger.Debug("preference service initialized")
	return s
}

func (s *PreferenceService) loadPreferences() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vol, err := s.repository.LoadVolume(); err == nil {
		s.volume = vol
	} else {
		s.logger.Warn("failed to load volume", slog.Any("error", err))
	}
	if theme, err := s.repository.LoadTheme(); err == nil && validTheme(theme) {
		s.theme = theme
	}
	if folder, err := s.repository.LoadLastFolder(); err == nil {
		s.lastFolder = folder
	}
	if folders, err := s.repository.LoadScanFolders(); err == nil {
		s.scanFolders = folders
	} else {
		s.logger.Warn("failed to load scan folders", slog.Any("error", err))
	}
}

// GetVolume returns the saved volume preference (0.0 to 1.0).
func (s *PreferenceService) GetVolume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// SetVolume saves the volume preference (0.0 to 1.0).
func (s *PreferenceService) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()

	return s.repository.SaveVolume(volume)
}

// GetTheme returns the saved theme preference.
func (s *PreferenceService) GetTheme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme saves the theme preference.
func (s *PreferenceService) SetTheme(theme string) error {
	if !validTheme(theme) {
		return domain.NewValidationError("theme", theme, "must be 'system', 'light' or 'dark'")
	}

	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()

	return s.repository.SaveTheme(theme)
}

func validTheme(theme string) bool {
	return theme == ThemeSystem || theme == ThemeLight || theme == ThemeDark
}

// GetLastFolder returns the last opened folder path.
func (s *PreferenceService) GetLastFolder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFolder
}

// SetLastFolder saves the last opened folder path.
func (s *PreferenceService) SetLastFolder(path string) error {
	s.mu.Lock()
	s.lastFolder = path
	s.mu.Unlock()

	return s.repository.SaveLastFolder(path)
}

// ScanFolders returns the folders scanned into the library.
func (s *PreferenceService) ScanFolders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.scanFolders)
}

// AddScanFolder remembers a library folder. Adding a known folder is a no-op.
func (s *PreferenceService) AddScanFolder(path string) error {
	if path == "" {
		return domain.NewValidationError("folder", path, "must not be empty")
	}

	s.mu.Lock()
	if slices.Contains(s.scanFolders, path) {
		s.mu.Unlock()
		return nil
	}
	s.scanFolders = append(s.scanFolders, path)
	folders := slices.Clone(s.scanFolders)
	s.mu.Unlock()

	return s.repository.SaveScanFolders(folders)
}

// RemoveScanFolder forgets a library folder.
func (s *PreferenceService) RemoveScanFolder(path string) error {
	s.mu.Lock()
	s.scanFolders = slices.DeleteFunc(s.scanFolders, func(f string) bool { return f == path })
	folders := slices.Clone(s.scanFolders)
	s.mu.Unlock()

	return s.repository.SaveScanFolders(folders)
}

// ResetToDefaults clears stored preferences and restores defaults.
func (s *PreferenceService) ResetToDefaults() error {
	s.mu.Lock()
	s.volume = defaultVolume
	s.theme = ThemeSystem
	s.lastFolder = ""
	s.scanFolders = nil
	s.mu.Unlock()

	return s.repository.Clear()
}

// GetAllPreferences returns a snapshot of the cached preferences.
func (s *PreferenceService) GetAllPreferences() domain.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active, _ := s.repository.LoadActiveProfile()
	return domain.Preferences{
		Volume:        s.volume,
		Theme:         s.theme,
		LastFolder:    s.lastFolder,
		ActiveProfile: active,
	}
}

// Shutdown unsubscribes from volume changes.
func (s *PreferenceService) Shutdown() error {
	s.bus.Unsubscribe(s.sub)
	return nil
}

func (s *PreferenceService) handleVolumeChanged(event domain.Event) {
	ev, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}
	if err := s.SetVolume(ev.Volume); err != nil {
		s.logger.Warn("failed to persist volume", slog.Float64("volume", ev.Volume), slog.Any("error", err))
	}
}
