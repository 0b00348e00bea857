// Package metadata reads catalog information from audio file tags.
package metadata

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// DurationFunc measures the playing time of a file. Tags rarely carry it, so
// the reader delegates to a decoder when one is supplied.
type DurationFunc func(filePath string) (time.Duration, error)

// Reader implements ports.MetadataReader with dhowden/tag.
type Reader struct {
	logger   *slog.Logger
	duration DurationFunc
}

// NewReader creates a tag reader. duration may be nil, leaving Duration zero.
func NewReader(logger *slog.Logger, duration DurationFunc) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		logger:   logger.With("component", "metadata"),
		duration: duration,
	}
}

// ReadTrack returns a track populated from the file's tags. Unreadable or
// missing tags are not an error: the title falls back to the file name.
func (r *Reader) ReadTrack(filePath string) (*domain.Track, error) {
	if filePath == "" {
		return nil, domain.ErrInvalidFilePath
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrFileNotFound
		}
		return nil, domain.NewRepositoryError("read", "metadata", "failed to open file", err)
	}
	defer file.Close()

	ext := filepath.Ext(filePath)
	track := &domain.Track{
		FilePath:   filePath,
		Title:      strings.TrimSuffix(filepath.Base(filePath), ext),
		FileFormat: strings.TrimPrefix(strings.ToLower(ext), "."),
	}

	if m, err := tag.ReadFrom(file); err != nil {
		r.logger.Debug("no readable tags", "path", filePath, "error", err)
	} else {
		applyTags(track, m)
	}

	if r.duration != nil {
		d, err := r.duration(filePath)
		if err != nil {
			r.logger.Debug("duration unavailable", "path", filePath, "error", err)
		} else {
			track.Duration = d
		}
	}
	return track, nil
}

func applyTags(track *domain.Track, m tag.Metadata) {
	if title := strings.TrimSpace(m.Title()); title != "" {
		track.Title = title
	}
	artist := strings.TrimSpace(m.Artist())
	if artist == "" {
		artist = strings.TrimSpace(m.AlbumArtist())
	}
	track.Artist = artist
	track.Album = strings.TrimSpace(m.Album())
	track.Genre = strings.TrimSpace(m.Genre())
	if year := m.Year(); year > 0 {
		track.Year = year
	}
	if n, _ := m.Track(); n > 0 {
		track.TrackNumber = n
	}
}

// Verify interface implementation
var _ ports.MetadataReader = (*Reader)(nil)
