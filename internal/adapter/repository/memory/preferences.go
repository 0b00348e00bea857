// Package memory holds repositories backed by the GUI toolkit's key/value
// preference store rather than the catalog database.
package memory

import (
	"encoding/json"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

const (
	keyVolume        = "preferences.volume"
	keyTheme         = "preferences.theme"
	keyLastFolder    = "preferences.last_folder"
	keyActiveProfile = "preferences.active_profile"
	keyScanFolders   = "preferences.scan_folders"
)

// Defaults returned when nothing has been saved yet.
const (
	DefaultVolume = 0.8
	DefaultTheme  = "system"
)

// PreferencesRepository implements ports.PreferencesRepository using Fyne preferences.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewPreferencesRepository creates a new preferences' repository.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{
		prefs: prefs,
	}
}

// SaveVolume persists the volume level.
func (r *PreferencesRepository) SaveVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domain.NewValidationError("volume", volume, "must be between 0.0 and 1.0")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetFloat(keyVolume, volume)
	return nil
}

// LoadVolume retrieves the saved volume level.
func (r *PreferencesRepository) LoadVolume() (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.FloatWithFallback(keyVolume, DefaultVolume), nil
}

// SaveTheme persists the theme preference.
func (r *PreferencesRepository) SaveTheme(theme string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyTheme, theme)
	return nil
}

// LoadTheme retrieves the saved theme preference.
func (r *PreferencesRepository) LoadTheme() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.StringWithFallback(keyTheme, DefaultTheme), nil
}

// SaveLastFolder remembers the folder last used in a file dialog.
func (r *PreferencesRepository) SaveLastFolder(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyLastFolder, path)
	return nil
}

// LoadLastFolder returns the folder last used in a file dialog, or "".
func (r *PreferencesRepository) LoadLastFolder() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.String(keyLastFolder), nil
}

// SaveActiveProfile remembers the profile selected in the GUI.
func (r *PreferencesRepository) SaveActiveProfile(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyActiveProfile, name)
	return nil
}

// LoadActiveProfile returns the remembered profile name, or "" if none.
func (r *PreferencesRepository) LoadActiveProfile() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.String(keyActiveProfile), nil
}

// SaveScanFolders persists the list of directories to scan for music.
func (r *PreferencesRepository) SaveScanFolders(paths []string) error {
	data, err := json.Marshal(paths)
	if err != nil {
		return domain.NewRepositoryError("save", "preferences", "failed to marshal scan folders", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyScanFolders, string(data))
	return nil
}

// LoadScanFolders retrieves the saved scan folders.
func (r *PreferencesRepository) LoadScanFolders() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := r.prefs.String(keyScanFolders)
	if data == "" {
		return []string{}, nil
	}

	var paths []string
	if err := json.Unmarshal([]byte(data), &paths); err != nil {
		return nil, domain.NewRepositoryError("load", "preferences", "failed to unmarshal scan folders", err)
	}
	if paths == nil {
		paths = []string{}
	}
	return paths, nil
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range []string{keyVolume, keyTheme, keyLastFolder, keyActiveProfile, keyScanFolders} {
		r.prefs.RemoveValue(key)
	}
	return nil
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
