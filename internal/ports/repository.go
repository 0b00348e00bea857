// Package ports define repository interfaces for data persistence abstraction.
package ports

import (
	"context"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// TrackRepository manages the library catalog of tracks.
type TrackRepository interface {
	// Upsert inserts the track or updates the row with the same file path.
	// Artist, album and genre rows are created on demand from the names.
	// Returns the stored track with IDs filled in.
	Upsert(ctx context.Context, track domain.Track) (domain.Track, error)

	// Get returns a track by ID, or domain.ErrTrackNotFound.
	Get(ctx context.Context, id string) (domain.Track, error)

	// GetByPath returns a track by file path, or domain.ErrTrackNotFound.
	GetByPath(ctx context.Context, path string) (domain.Track, error)

	// List returns all tracks ordered by artist, album and track number.
	List(ctx context.Context) ([]domain.Track, error)

	// Search returns tracks whose title, artist or album contains the term.
	Search(ctx context.Context, term string) ([]domain.Track, error)

	// ByAlbum returns an album's tracks in track-number order.
	ByAlbum(ctx context.Context, albumID string) ([]domain.Track, error)

	// ByArtist returns an artist's tracks.
	ByArtist(ctx context.Context, artistID string) ([]domain.Track, error)

	// ByGenre returns a genre's tracks.
	ByGenre(ctx context.Context, genreID string) ([]domain.Track, error)

	// Delete removes a track and anything referencing it.
	Delete(ctx context.Context, id string) error

	// Count returns the number of tracks in the catalog.
	Count(ctx context.Context) (int, error)
}

// ArtistRepository manages artists.
type ArtistRepository interface {
	GetOrCreate(ctx context.Context, name string) (domain.Artist, error)
	Get(ctx context.Context, id string) (domain.Artist, error)
	List(ctx context.Context) ([]domain.Artist, error)
}

// AlbumRepository manages albums.
type AlbumRepository interface {
	GetOrCreate(ctx context.Context, title, artistID string, year int) (domain.Album, error)
	Get(ctx context.Context, id string) (domain.Album, error)
	List(ctx context.Context) ([]domain.Album, error)
	ByArtist(ctx context.Context, artistID string) ([]domain.Album, error)
}

// GenreRepository manages genres.
type GenreRepository interface {
	GetOrCreate(ctx context.Context, name string) (domain.Genre, error)
	Get(ctx context.Context, id string) (domain.Genre, error)
	List(ctx context.Context) ([]domain.Genre, error)
}

// ProfileRepository manages listener profiles.
type ProfileRepository interface {
	Create(ctx context.Context, name string) (domain.Profile, error)
	Get(ctx context.Context, id string) (domain.Profile, error)
	GetByName(ctx context.Context, name string) (domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)

	// Ensure returns the profile with the given name, creating it if needed.
	Ensure(ctx context.Context, name string) (domain.Profile, error)
}

// HistoryRepository records what a profile has listened to.
type HistoryRepository interface {
	Record(ctx context.Context, profileID, trackID string) (domain.PlayRecord, error)

	// Recent returns the latest plays, newest first.
	Recent(ctx context.Context, profileID string, limit int) ([]domain.PlayRecord, error)

	// MostPlayed returns tracks ordered by play count, highest first.
	MostPlayed(ctx context.Context, profileID string, limit int) ([]domain.PlayCount, error)

	PlayCount(ctx context.Context, profileID, trackID string) (int, error)
	Clear(ctx context.Context, profileID string) error
}

// LikeRepository stores liked tracks.
type LikeRepository interface {
	// Like is idempotent.
	Like(ctx context.Context, profileID, trackID string) error
	Unlike(ctx context.Context, profileID, trackID string) error
	IsLiked(ctx context.Context, profileID, trackID string) (bool, error)

	// List returns liked tracks, most recent first.
	List(ctx context.Context, profileID string) ([]domain.Like, error)
}

// QueueRepository persists the play queue per profile.
type QueueRepository interface {
	// SaveQueue replaces the stored queue of the profile atomically.
	SaveQueue(ctx context.Context, profileID string, snap domain.QueueSnapshot) error

	// LoadQueue returns the stored queue. A profile without a stored queue
	// yields an empty snapshot and no error. Entries whose track left the
	// catalog are skipped.
	LoadQueue(ctx context.Context, profileID string) (domain.QueueSnapshot, error)

	// ClearQueue forgets the stored queue of the profile.
	ClearQueue(ctx context.Context, profileID string) error
}

// PreferencesRepository manages user preferences persistence.
type PreferencesRepository interface {
	SaveVolume(volume float64) error
	LoadVolume() (float64, error)

	SaveTheme(theme string) error
	LoadTheme() (string, error)

	SaveLastFolder(path string) error
	LoadLastFolder() (string, error)

	SaveActiveProfile(name string) error
	LoadActiveProfile() (string, error)

	SaveScanFolders(paths []string) error
	LoadScanFolders() ([]string, error)

	// Clear removes all saved preferences (reset to defaults).
	Clear() error
}
