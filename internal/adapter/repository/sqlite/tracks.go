package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

const trackColumns = `
	t.id, t.file_path, t.title,
	t.artist_id, ar.name AS artist_name,
	t.album_id, al.title AS album_title,
	t.genre_id, g.name AS genre_name,
	t.track_number, t.year, t.duration_ms, t.file_format, t.added_at`

const trackJoins = `
	LEFT JOIN artists ar ON ar.id = t.artist_id
	LEFT JOIN albums al ON al.id = t.album_id
	LEFT JOIN genres g ON g.id = t.genre_id`

const trackSelect = `SELECT ` + trackColumns + ` FROM tracks t` + trackJoins

const trackOrder = ` ORDER BY ar.name COLLATE NOCASE, al.title COLLATE NOCASE, t.track_number, t.title COLLATE NOCASE`

type trackRow struct {
	ID          string         `db:"id"`
	FilePath    string         `db:"file_path"`
	Title       string         `db:"title"`
	ArtistID    sql.NullString `db:"artist_id"`
	ArtistName  sql.NullString `db:"artist_name"`
	AlbumID     sql.NullString `db:"album_id"`
	AlbumTitle  sql.NullString `db:"album_title"`
	GenreID     sql.NullString `db:"genre_id"`
	GenreName   sql.NullString `db:"genre_name"`
	TrackNumber int            `db:"track_number"`
	Year        int            `db:"year"`
	DurationMs  int64          `db:"duration_ms"`
	FileFormat  string         `db:"file_format"`
	AddedAt     int64          `db:"added_at"`
}

func (r trackRow) toDomain() domain.Track {
	return domain.Track{
		ID:          r.ID,
		FilePath:    r.FilePath,
		Title:       r.Title,
		ArtistID:    r.ArtistID.String,
		Artist:      r.ArtistName.String,
		AlbumID:     r.AlbumID.String,
		Album:       r.AlbumTitle.String,
		GenreID:     r.GenreID.String,
		Genre:       r.GenreName.String,
		TrackNumber: r.TrackNumber,
		Year:        r.Year,
		Duration:    time.Duration(r.DurationMs) * time.Millisecond,
		FileFormat:  r.FileFormat,
		AddedAt:     fromUnix(r.AddedAt),
	}
}

func toTracks(rows []trackRow) []domain.Track {
	tracks := make([]domain.Track, len(rows))
	for i, r := range rows {
		tracks[i] = r.toDomain()
	}
	return tracks
}

// TrackRepository stores the library catalog.
type TrackRepository struct {
	db *sqlx.DB
}

// Upsert inserts the track or updates the row with the same file path,
// creating artist, album and genre rows from the names as needed.
func (r *TrackRepository) Upsert(ctx context.Context, track domain.Track) (domain.Track, error) {
	if track.FilePath == "" {
		return domain.Track{}, domain.NewValidationError("file_path", track.FilePath, "must not be empty")
	}

	var stored domain.Track
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var artistID, albumID, genreID string
		if track.Artist != "" {
			artist, err := getOrCreateArtist(ctx, tx, track.Artist)
			if err != nil {
				return err
			}
			artistID = artist.ID
		}
		if track.Album != "" {
			album, err := getOrCreateAlbum(ctx, tx, track.Album, artistID, track.Year)
			if err != nil {
				return err
			}
			albumID = album.ID
		}
		if track.Genre != "" {
			genre, err := getOrCreateGenre(ctx, tx, track.Genre)
			if err != nil {
				return err
			}
			genreID = genre.ID
		}

		id := track.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tracks (
				id, file_path, title, artist_id, album_id, genre_id,
				track_number, year, duration_ms, file_format, added_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(file_path) DO UPDATE SET
				title = excluded.title,
				artist_id = excluded.artist_id,
				album_id = excluded.album_id,
				genre_id = excluded.genre_id,
				track_number = excluded.track_number,
				year = excluded.year,
				duration_ms = excluded.duration_ms,
				file_format = excluded.file_format`,
			id, track.FilePath, track.Title,
			nullable(artistID), nullable(albumID), nullable(genreID),
			track.TrackNumber, track.Year, track.Duration.Milliseconds(), track.FileFormat, now(),
		)
		if err != nil {
			return err
		}

		var row trackRow
		if err := tx.GetContext(ctx, &row, trackSelect+` WHERE t.file_path = ?`, track.FilePath); err != nil {
			return err
		}
		stored = row.toDomain()
		return nil
	})
	return stored, repoErr("track", "upsert", err, nil)
}

// Get returns a track by ID.
func (r *TrackRepository) Get(ctx context.Context, id string) (domain.Track, error) {
	var row trackRow
	err := r.db.GetContext(ctx, &row, trackSelect+` WHERE t.id = ?`, id)
	if err != nil {
		return domain.Track{}, repoErr("track", "get", err, domain.ErrTrackNotFound)
	}
	return row.toDomain(), nil
}

// GetByPath returns a track by file path.
func (r *TrackRepository) GetByPath(ctx context.Context, path string) (domain.Track, error) {
	var row trackRow
	err := r.db.GetContext(ctx, &row, trackSelect+` WHERE t.file_path = ?`, path)
	if err != nil {
		return domain.Track{}, repoErr("track", "get_by_path", err, domain.ErrTrackNotFound)
	}
	return row.toDomain(), nil
}

// List returns every track.
func (r *TrackRepository) List(ctx context.Context) ([]domain.Track, error) {
	return r.selectTracks(ctx, "list", trackSelect+trackOrder)
}

// Search matches the term against title, artist and album.
func (r *TrackRepository) Search(ctx context.Context, term string) ([]domain.Track, error) {
	return r.selectTracks(ctx, "search", trackSelect+`
		WHERE t.title LIKE '%' || ?1 || '%'
		   OR ar.name LIKE '%' || ?1 || '%'
		   OR al.title LIKE '%' || ?1 || '%'`+trackOrder, term)
}

// ByAlbum returns an album's tracks in track-number order.
func (r *TrackRepository) ByAlbum(ctx context.Context, albumID string) ([]domain.Track, error) {
	return r.selectTracks(ctx, "by_album", trackSelect+`
		WHERE t.album_id = ?
		ORDER BY t.track_number, t.title COLLATE NOCASE`, albumID)
}

// ByArtist returns an artist's tracks.
func (r *TrackRepository) ByArtist(ctx context.Context, artistID string) ([]domain.Track, error) {
	return r.selectTracks(ctx, "by_artist", trackSelect+` WHERE t.artist_id = ?`+trackOrder, artistID)
}

// ByGenre returns a genre's tracks.
func (r *TrackRepository) ByGenre(ctx context.Context, genreID string) ([]domain.Track, error) {
	return r.selectTracks(ctx, "by_genre", trackSelect+` WHERE t.genre_id = ?`+trackOrder, genreID)
}

// Delete removes a track. History, likes and queue entries referencing it cascade.
func (r *TrackRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return repoErr("track", "delete", err, nil)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repoErr("track", "delete", sql.ErrNoRows, domain.ErrTrackNotFound)
	}
	return nil
}

// Count returns the number of tracks.
func (r *TrackRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM tracks`)
	return n, repoErr("track", "count", err, nil)
}

func (r *TrackRepository) selectTracks(ctx context.Context, op, query string, args ...any) ([]domain.Track, error) {
	var rows []trackRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, repoErr("track", op, err, nil)
	}
	return toTracks(rows), nil
}

var _ ports.TrackRepository = (*TrackRepository)(nil)
