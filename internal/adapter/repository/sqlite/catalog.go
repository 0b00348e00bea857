package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

type artistRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

type genreRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

type albumRow struct {
	ID         string         `db:"id"`
	Title      string         `db:"title"`
	ArtistID   sql.NullString `db:"artist_id"`
	ArtistName sql.NullString `db:"artist_name"`
	Year       int            `db:"year"`
}

func (r albumRow) toDomain() domain.Album {
	return domain.Album{
		ID:       r.ID,
		Title:    r.Title,
		ArtistID: r.ArtistID.String,
		Artist:   r.ArtistName.String,
		Year:     r.Year,
	}
}

const albumSelect = `
	SELECT al.id, al.title, al.artist_id, ar.name AS artist_name, al.year
	FROM albums al
	LEFT JOIN artists ar ON ar.id = al.artist_id`

func getOrCreateArtist(ctx context.Context, q sqlx.ExtContext, name string) (domain.Artist, error) {
	name = strings.TrimSpace(name)
	if _, err := q.ExecContext(ctx,
		`INSERT INTO artists (id, name) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		uuid.NewString(), name); err != nil {
		return domain.Artist{}, errors.Wrapf(err, "insert artist %q", name)
	}
	var row artistRow
	if err := sqlx.GetContext(ctx, q, &row, `SELECT id, name FROM artists WHERE name = ?`, name); err != nil {
		return domain.Artist{}, err
	}
	return domain.Artist(row), nil
}

func getOrCreateGenre(ctx context.Context, q sqlx.ExtContext, name string) (domain.Genre, error) {
	name = strings.TrimSpace(name)
	if _, err := q.ExecContext(ctx,
		`INSERT INTO genres (id, name) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		uuid.NewString(), name); err != nil {
		return domain.Genre{}, errors.Wrapf(err, "insert genre %q", name)
	}
	var row genreRow
	if err := sqlx.GetContext(ctx, q, &row, `SELECT id, name FROM genres WHERE name = ?`, name); err != nil {
		return domain.Genre{}, err
	}
	return domain.Genre(row), nil
}

// getOrCreateAlbum matches on title and artist. Albums without an artist
// match each other by title.
func getOrCreateAlbum(ctx context.Context, q sqlx.ExtContext, title, artistID string, year int) (domain.Album, error) {
	title = strings.TrimSpace(title)
	var row albumRow
	err := sqlx.GetContext(ctx, q, &row,
		albumSelect+` WHERE al.title = ? AND al.artist_id IS ?`, title, nullable(artistID))
	if err == nil {
		if row.Year == 0 && year != 0 {
			if _, err := q.ExecContext(ctx, `UPDATE albums SET year = ? WHERE id = ?`, year, row.ID); err != nil {
				return domain.Album{}, errors.Wrap(err, "update album year")
			}
			row.Year = year
		}
		return row.toDomain(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Album{}, err
	}

	id := uuid.NewString()
	if _, err := q.ExecContext(ctx,
		`INSERT INTO albums (id, title, artist_id, year) VALUES (?, ?, ?, ?)`,
		id, title, nullable(artistID), year); err != nil {
		return domain.Album{}, errors.Wrapf(err, "insert album %q", title)
	}
	if err := sqlx.GetContext(ctx, q, &row, albumSelect+` WHERE al.id = ?`, id); err != nil {
		return domain.Album{}, err
	}
	return row.toDomain(), nil
}

// ArtistRepository stores artists.
type ArtistRepository struct {
	db *sqlx.DB
}

// GetOrCreate returns the artist with the given name, matching case-insensitively.
func (r *ArtistRepository) GetOrCreate(ctx context.Context, name string) (domain.Artist, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Artist{}, domain.NewValidationError("name", name, "must not be empty")
	}
	a, err := getOrCreateArtist(ctx, r.db, name)
	return a, repoErr("artist", "get_or_create", err, nil)
}

// Get returns an artist by ID.
func (r *ArtistRepository) Get(ctx context.Context, id string) (domain.Artist, error) {
	var row artistRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name FROM artists WHERE id = ?`, id); err != nil {
		return domain.Artist{}, repoErr("artist", "get", err, domain.ErrArtistNotFound)
	}
	return domain.Artist(row), nil
}

// List returns artists that have at least one track, by name.
func (r *ArtistRepository) List(ctx context.Context) ([]domain.Artist, error) {
	var rows []artistRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT ar.id, ar.name FROM artists ar
		WHERE EXISTS (SELECT 1 FROM tracks t WHERE t.artist_id = ar.id)
		ORDER BY ar.name COLLATE NOCASE`)
	if err != nil {
		return nil, repoErr("artist", "list", err, nil)
	}
	artists := make([]domain.Artist, len(rows))
	for i, row := range rows {
		artists[i] = domain.Artist(row)
	}
	return artists, nil
}

// AlbumRepository stores albums.
type AlbumRepository struct {
	db *sqlx.DB
}

// GetOrCreate returns the album with the given title and artist.
func (r *AlbumRepository) GetOrCreate(ctx context.Context, title, artistID string, year int) (domain.Album, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Album{}, domain.NewValidationError("title", title, "must not be empty")
	}
	a, err := getOrCreateAlbum(ctx, r.db, title, artistID, year)
	return a, repoErr("album", "get_or_create", err, nil)
}

// Get returns an album by ID.
func (r *AlbumRepository) Get(ctx context.Context, id string) (domain.Album, error) {
	var row albumRow
	if err := r.db.GetContext(ctx, &row, albumSelect+` WHERE al.id = ?`, id); err != nil {
		return domain.Album{}, repoErr("album", "get", err, domain.ErrAlbumNotFound)
	}
	return row.toDomain(), nil
}

// List returns albums that have at least one track, by artist then title.
func (r *AlbumRepository) List(ctx context.Context) ([]domain.Album, error) {
	return r.selectAlbums(ctx, "list", albumSelect+`
		WHERE EXISTS (SELECT 1 FROM tracks t WHERE t.album_id = al.id)
		ORDER BY ar.name COLLATE NOCASE, al.title COLLATE NOCASE`)
}

// ByArtist returns an artist's albums, oldest first.
func (r *AlbumRepository) ByArtist(ctx context.Context, artistID string) ([]domain.Album, error) {
	return r.selectAlbums(ctx, "by_artist", albumSelect+`
		WHERE al.artist_id = ?
		ORDER BY al.year, al.title COLLATE NOCASE`, artistID)
}

func (r *AlbumRepository) selectAlbums(ctx context.Context, op, query string, args ...any) ([]domain.Album, error) {
	var rows []albumRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, repoErr("album", op, err, nil)
	}
	albums := make([]domain.Album, len(rows))
	for i, row := range rows {
		albums[i] = row.toDomain()
	}
	return albums, nil
}

// GenreRepository stores genres.
type GenreRepository struct {
	db *sqlx.DB
}

// GetOrCreate returns the genre with the given name.
func (r *GenreRepository) GetOrCreate(ctx context.Context, name string) (domain.Genre, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Genre{}, domain.NewValidationError("name", name, "must not be empty")
	}
	g, err := getOrCreateGenre(ctx, r.db, name)
	return g, repoErr("genre", "get_or_create", err, nil)
}

// Get returns a genre by ID.
func (r *GenreRepository) Get(ctx context.Context, id string) (domain.Genre, error) {
	var row genreRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name FROM genres WHERE id = ?`, id); err != nil {
		return domain.Genre{}, repoErr("genre", "get", err, domain.ErrGenreNotFound)
	}
	return domain.Genre(row), nil
}

// List returns genres that have at least one track.
func (r *GenreRepository) List(ctx context.Context) ([]domain.Genre, error) {
	var rows []genreRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT g.id, g.name FROM genres g
		WHERE EXISTS (SELECT 1 FROM tracks t WHERE t.genre_id = g.id)
		ORDER BY g.name COLLATE NOCASE`)
	if err != nil {
		return nil, repoErr("genre", "list", err, nil)
	}
	genres := make([]domain.Genre, len(rows))
	for i, row := range rows {
		genres[i] = domain.Genre(row)
	}
	return genres, nil
}

var (
	_ ports.ArtistRepository = (*ArtistRepository)(nil)
	_ ports.AlbumRepository  = (*AlbumRepository)(nil)
	_ ports.GenreRepository  = (*GenreRepository)(nil)
)
