package service

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
)

// Mock preferences repository for testing
type mockPreferencesRepository struct {
	mu          sync.RWMutex
	volume      float64
	theme       string
	lastFolder  string
	profile     string
	scanFolders []string
	saveErr     error
	loadErr     error
}

func newMockPreferencesRepository() *mockPreferencesRepository {
	return &mockPreferencesRepository{volume: 0.8, theme: ThemeSystem}
}

func (m *mockPreferencesRepository) SaveVolume(volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.volume = volume
	return nil
}

func (m *mockPreferencesRepository) LoadVolume() (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadErr != nil {
		return 0, m.loadErr
	}
	return m.volume, nil
}

func (m *mockPreferencesRepository) SaveTheme(theme string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.theme = theme
	return nil
}

func (m *mockPreferencesRepository) LoadTheme() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme, m.loadErr
}

func (m *mockPreferencesRepository) SaveLastFolder(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.lastFolder = path
	return nil
}

func (m *mockPreferencesRepository) LoadLastFolder() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastFolder, m.loadErr
}

func (m *mockPreferencesRepository) SaveActiveProfile(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.profile = name
	return nil
}

func (m *mockPreferencesRepository) LoadActiveProfile() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile, m.loadErr
}

func (m *mockPreferencesRepository) SaveScanFolders(paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.scanFolders = slices.Clone(paths)
	return nil
}

func (m *mockPreferencesRepository) LoadScanFolders() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return slices.Clone(m.scanFolders), nil
}

func (m *mockPreferencesRepository) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = 0.8
	m.theme = ThemeSystem
	m.lastFolder = ""
	m.profile = ""
	m.scanFolders = nil
	return nil
}

func newTestPreferenceService(repo *mockPreferencesRepository) (*PreferenceService, *eventbus.SyncEventBus) {
	bus := eventbus.NewSyncEventBus()
	return NewPreferenceService(logger.NewTestLogger(), repo, bus), bus
}

func TestPreferenceService_LoadsStoredValues(t *testing.T) {
	repo := newMockPreferencesRepository()
	repo.volume = 0.35
	repo.theme = ThemeDark
	repo.lastFolder = "/music/jazz"
	repo.scanFolders = []string{"/music"}

	s, _ := newTestPreferenceService(repo)
	defer s.Shutdown()

	assert.InDelta(t, 0.35, s.GetVolume(), 0.0001)
	assert.Equal(t, ThemeDark, s.GetTheme())
	assert.Equal(t, "/music/jazz", s.GetLastFolder())
	assert.Equal(t, []string{"/music"}, s.ScanFolders())
}

func TestPreferenceService_LoadFailureKeepsDefaults(t *testing.T) {
	repo := newMockPreferencesRepository()
	repo.volume = 0.1
	repo.loadErr = errors.New("corrupt store")

	s, _ := newTestPreferenceService(repo)
	defer s.Shutdown()

	assert.InDelta(t, 0.8, s.GetVolume(), 0.0001)
	assert.Equal(t, ThemeSystem, s.GetTheme())
	assert.Empty(t, s.ScanFolders())
}

func TestPreferenceService_Volume(t *testing.T) {
	repo := newMockPreferencesRepository()
	s, _ := newTestPreferenceService(repo)
	defer s.Shutdown()

	require.NoError(t, s.SetVolume(0.5))
	assert.InDelta(t, 0.5, s.GetVolume(), 0.0001)
	assert.InDelta(t, 0.5, repo.volume, 0.0001)

	assert.ErrorIs(t, s.SetVolume(1.2), domain.ErrInvalidVolume)
	assert.ErrorIs(t, s.SetVolume(-1), domain.ErrInvalidVolume)
	assert.InDelta(t, 0.5, s.GetVolume(), 0.0001)
}

func TestPreferenceService_PersistsPublishedVolume(t *testing.T) {
	repo := newMockPreferencesRepository()
	s, bus := newTestPreferenceService(repo)

	bus.Publish(domain.NewVolumeChangedEvent(0.25))
	assert.InDelta(t, 0.25, s.GetVolume(), 0.0001)
	assert.InDelta(t, 0.25, repo.volume, 0.0001)

	require.NoError(t, s.Shutdown())
	bus.Publish(domain.NewVolumeChangedEvent(0.9))
	assert.InDelta(t, 0.25, s.GetVolume(), 0.0001)
}

func TestPreferenceService_Theme(t *testing.T) {
	repo := newMockPreferencesRepository()
	s, _ := newTestPreferenceService(repo)
	defer s.Shutdown()

	for _, theme := range []string{ThemeLight, ThemeDark, ThemeSystem} {
		require.NoError(t, s.SetTheme(theme))
		assert.Equal(t, theme, s.GetTheme())
		assert.Equal(t, theme, repo.theme)
	}

	err := s.SetTheme("neon")
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "theme", verr.Field)
	assert.Equal(t, ThemeSystem, s.GetTheme())
}

func TestPreferenceService_LastFolder(t *testing.T) {
	repo := newMockPreferencesRepository()
	s, _ := newTestPreferenceService(repo)
	defer s.Shutdown()

	require.NoError(t, s.SetLastFolder("/music/rock"))
	assert.Equal(t, "/music/rock", s.GetLastFolder())
	assert.Equal(t, "/music/rock", repo.lastFolder)
}

func TestPreferenceService_ScanFolders(t *testing.T) {
	repo := newMockPreferencesRepository()
	s, _ := newTestPreferenceService(repo)
	defer s.Shutdown()

	require.NoError(t, s.AddScanFolder("/music"))
	require.NoError(t, s.AddScanFolder("/podcasts"))
	require.NoError(t, s.AddScanFolder("/music"))
	assert.Equal(t, []string{"/music", "/podcasts"}, s.ScanFolders())

	require.NoError(t, s.RemoveScanFolder("/music"))
	assert.Equal(t, []string{"/podcasts"}, s.ScanFolders())
	assert.Equal(t, []string{"/podcasts"}, repo.scanFolders)

	assert.Error(t, s.AddScanFolder(""))

	// callers cannot mutate the cache
	folders := s.ScanFolders()
	folders[0] = "/tmp"
	assert.Equal(t, []string{"/podcasts"}, s.ScanFolders())
}

func TestPreferenceService_SaveFailure(t *testing.T) {
	repo := newMockPreferencesRepository()
	s, _ := newTestPreferenceService(repo)
	defer s.Shutdown()
	repo.saveErr = errors.New("read-only")

	assert.Error(t, s.SetVolume(0.3))
	assert.Error(t, s.SetTheme(ThemeDark))
	assert.Error(t, s.SetLastFolder("/x"))
	assert.Error(t, s.AddScanFolder("/x"))
}

func TestPreferenceService_ResetToDefaults(t *testing.T) {
	repo := newMockPreferencesRepository()
	repo.profile = "alice"
	s, _ := newTestPreferenceService(repo)
	defer s.Shutdown()

	require.NoError(t, s.SetVolume(0.2))
	require.NoError(t, s.SetTheme(ThemeLight))
	require.NoError(t, s.AddScanFolder("/music"))
	assert.Equal(t, "alice", s.GetAllPreferences().ActiveProfile)

	require.NoError(t, s.ResetToDefaults())

	prefs := s.GetAllPreferences()
	assert.InDelta(t, 0.8, prefs.Volume, 0.0001)
	assert.Equal(t, ThemeSystem, prefs.Theme)
	assert.Empty(t, prefs.LastFolder)
	assert.Empty(t, prefs.ActiveProfile)
	assert.Empty(t, s.ScanFolders())
}

func TestPreferenceService_ConcurrentAccess(t *testing.T) {
	repo := newMockPreferencesRepository()
	s, _ := newTestPreferenceService(repo)
	defer s.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.SetVolume(float64(i) / 10)
		}(i)
		go func() {
			defer wg.Done()
			_ = s.GetVolume()
			_ = s.GetAllPreferences()
		}()
	}
	wg.Wait()

	v := s.GetVolume()
	assert.True(t, v >= 0 && v <= 1)
}
