// Package service provides business logic for the Cadence application.
package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// DefaultExtensions are scanned when no extension list is configured.
var DefaultExtensions = []string{"mp3", "flac", "wav"}

// Catalog bundles the repositories the library browses.
type Catalog struct {
	Tracks  ports.TrackRepository
	Artists ports.ArtistRepository
	Albums  ports.AlbumRepository
	Genres  ports.GenreRepository
}

// LibraryService scans folders into the catalog and browses it.
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	logger  *slog.Logger
	catalog Catalog
	reader  ports.MetadataReader
	bus     ports.EventBus

	scanning   bool
	cancelScan context.CancelFunc
	extensions []string

	mu sync.RWMutex
}

// NewLibraryService creates a new library service. Extensions are given
// without the leading dot; an empty list means DefaultExtensions.
func NewLibraryService(
	logger *slog.Logger,
	catalog Catalog,
	reader ports.MetadataReader,
	bus ports.EventBus,
	extensions []string,
) *LibraryService {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		exts = append(exts, strings.ToLower(strings.TrimPrefix(ext, ".")))
	}

	return &LibraryService{
		logger:     logger.With("service", "library"),
		catalog:    catalog,
		reader:     reader,
		bus:        bus,
		extensions: exts,
	}
}

// Scan walks the folders recursively, reads the tags of every supported
// file and upserts it into the catalog. Files that fail are reported in the
// progress events and skipped. Only one scan runs at a time.
func (s *LibraryService) Scan(ctx context.Context, folders ...string) ([]domain.Track, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, domain.NewServiceError("LibraryService", "Scan", "scan already in progress", nil)
	}
	ctx, cancel := context.WithCancel(ctx)
	s.scanning = true
	s.cancelScan = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}()

	s.logger.Info("scan started", slog.Any("folders", folders))
	s.bus.Publish(domain.NewScanStartedEvent(strings.Join(folders, ", ")))

	var files []string
	for _, folder := range folders {
		found, err := s.collectAudioFiles(ctx, folder)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, s.cancelled(nil)
			}
			s.logger.Error("scan failed", slog.String("folder", folder), slog.Any("error", err))
			return nil, domain.NewServiceError("LibraryService", "Scan", "failed to walk "+folder, err)
		}
		files = append(files, found...)
	}

	tracks, err := s.importFiles(ctx, files, true)
	if err != nil {
		return nil, s.cancelled(tracks)
	}

	s.logger.Info("scan completed", slog.Int("files", len(files)), slog.Int("tracks", len(tracks)))
	s.bus.Publish(domain.NewScanCompletedEvent(tracks))
	return tracks, nil
}

func (s *LibraryService) cancelled(tracks []domain.Track) error {
	s.logger.Info("scan cancelled", slog.Int("imported", len(tracks)))
	s.bus.Publish(domain.NewScanCancelledEvent("user cancelled"))
	return domain.ErrScanCancelled
}

// ImportFiles adds individual files to the catalog, for example files picked
// in an open dialog. Unsupported files are skipped. It returns the stored
// tracks in the given order.
func (s *LibraryService) ImportFiles(ctx context.Context, paths ...string) ([]domain.Track, error) {
	files := make([]string, 0, len(paths))
	for _, p := range paths {
		if s.IsFormatSupported(p) {
			files = append(files, p)
		}
	}
	return s.importFiles(ctx, files, false)
}

func (s *LibraryService) importFiles(ctx context.Context, files []string, report bool) ([]domain.Track, error) {
	tracks := make([]domain.Track, 0, len(files))
	progress := domain.ScanProgress{TotalFiles: len(files)}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return tracks, err
		}

		progress.CurrentFile = file
		track, err := s.importFile(ctx, file)
		if err != nil {
			s.logger.Warn("failed to import file", slog.String("path", file), slog.Any("error", err))
			progress.Errors = append(progress.Errors, err)
		} else {
			tracks = append(tracks, track)
		}
		progress.ProcessedFiles++

		if report {
			s.bus.Publish(domain.NewScanProgressEvent(progress))
		}
	}
	return tracks, nil
}

func (s *LibraryService) importFile(ctx context.Context, file string) (domain.Track, error) {
	meta, err := s.reader.ReadTrack(file)
	if err != nil {
		return domain.Track{}, err
	}
	return s.catalog.Tracks.Upsert(ctx, *meta)
}

// CancelScan cancels the currently running scan operation.
func (s *LibraryService) CancelScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanning {
		return domain.NewServiceError("LibraryService", "CancelScan", "no scan in progress", nil)
	}
	if s.cancelScan != nil {
		s.cancelScan()
	}
	return nil
}

// IsScanning returns true if a scan is currently in progress.
func (s *LibraryService) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

// IsFormatSupported checks the file extension against the configured list.
func (s *LibraryService) IsFormatSupported(filePath string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	return ext != "" && slices.Contains(s.extensions, ext)
}

// SupportedFormats returns the scanned file extensions.
func (s *LibraryService) SupportedFormats() []string {
	return slices.Clone(s.extensions)
}

// collectAudioFiles recursively collects supported files, skipping
// unreadable entries.
func (s *LibraryService) collectAudioFiles(ctx context.Context, folder string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == folder {
				return err
			}
			s.logger.Debug("skipping unreadable entry", slog.String("path", path), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && s.IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Track returns a catalog track.
func (s *LibraryService) Track(ctx context.Context, id string) (domain.Track, error) {
	return s.catalog.Tracks.Get(ctx, id)
}

// TrackByPath returns the catalog track stored for a file.
func (s *LibraryService) TrackByPath(ctx context.Context, path string) (domain.Track, error) {
	return s.catalog.Tracks.GetByPath(ctx, path)
}

// Tracks returns the whole catalog.
func (s *LibraryService) Tracks(ctx context.Context) ([]domain.Track, error) {
	return s.catalog.Tracks.List(ctx)
}

// Search finds tracks by title, artist or album.
func (s *LibraryService) Search(ctx context.Context, term string) ([]domain.Track, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.Tracks(ctx)
	}
	return s.catalog.Tracks.Search(ctx, term)
}

// Artists lists the artists with tracks in the catalog.
func (s *LibraryService) Artists(ctx context.Context) ([]domain.Artist, error) {
	return s.catalog.Artists.List(ctx)
}

// Albums lists all albums.
func (s *LibraryService) Albums(ctx context.Context) ([]domain.Album, error) {
	return s.catalog.Albums.List(ctx)
}

// Genres lists all genres.
func (s *LibraryService) Genres(ctx context.Context) ([]domain.Genre, error) {
	return s.catalog.Genres.List(ctx)
}

// ArtistAlbums lists the albums of an artist.
func (s *LibraryService) ArtistAlbums(ctx context.Context, artistID string) ([]domain.Album, error) {
	return s.catalog.Albums.ByArtist(ctx, artistID)
}

// AlbumTracks returns an album in track order.
func (s *LibraryService) AlbumTracks(ctx context.Context, albumID string) ([]domain.Track, error) {
	return s.catalog.Tracks.ByAlbum(ctx, albumID)
}

// ArtistTracks returns every track of an artist.
func (s *LibraryService) ArtistTracks(ctx context.Context, artistID string) ([]domain.Track, error) {
	return s.catalog.Tracks.ByArtist(ctx, artistID)
}

// GenreTracks returns every track of a genre. An unknown genre yields
// domain.ErrGenreNotFound.
func (s *LibraryService) GenreTracks(ctx context.Context, genreID string) ([]domain.Track, error) {
	if _, err := s.catalog.Genres.Get(ctx, genreID); err != nil {
		return nil, err
	}
	return s.catalog.Tracks.ByGenre(ctx, genreID)
}

// RemoveTrack deletes a track from the catalog. Queue entries, history and
// likes referencing it go with it.
func (s *LibraryService) RemoveTrack(ctx context.Context, id string) error {
	if err := s.catalog.Tracks.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("track removed", slog.String("id", id))
	s.bus.Publish(domain.NewTrackRemovedEvent(id))
	return nil
}

// Count returns the number of catalog tracks.
func (s *LibraryService) Count(ctx context.Context) (int, error) {
	return s.catalog.Tracks.Count(ctx)
}

// Shutdown cancels a running scan.
func (s *LibraryService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning && s.cancelScan != nil {
		s.cancelScan()
	}
	return nil
}
