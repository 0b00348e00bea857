// Package sqlite implements the catalog, listening and queue repositories on
// an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var pragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// Store owns the database handle shared by the repositories.
type Store struct {
	db   *sqlx.DB
	path string
}

// Open connects to the database at path, creating it and its directory if
// needed, and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}

	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	if path == MemoryPath {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "connect to %s", path)
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	if path == MemoryPath {
		return "file::memory:?" + q.Encode()
	}
	return "file:" + filepath.ToSlash(path) + "?" + q.Encode()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Tracks returns the track repository.
func (s *Store) Tracks() *TrackRepository { return &TrackRepository{db: s.db} }

// Artists returns the artist repository.
func (s *Store) Artists() *ArtistRepository { return &ArtistRepository{db: s.db} }

// Albums returns the album repository.
func (s *Store) Albums() *AlbumRepository { return &AlbumRepository{db: s.db} }

// Genres returns the genre repository.
func (s *Store) Genres() *GenreRepository { return &GenreRepository{db: s.db} }

// Profiles returns the profile repository.
func (s *Store) Profiles() *ProfileRepository { return &ProfileRepository{db: s.db} }

// History returns the play history repository.
func (s *Store) History() *HistoryRepository { return &HistoryRepository{db: s.db} }

// Likes returns the like repository.
func (s *Store) Likes() *LikeRepository { return &LikeRepository{db: s.db} }

// Queue returns the queue state repository.
func (s *Store) Queue() *QueueRepository { return &QueueRepository{db: s.db} }

// withTx runs fn in a transaction, committing when it returns nil.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

// repoErr is the single error path of every repository method. It maps
// sql.ErrNoRows to notFound (when given) and wraps the result in a
// domain.RepositoryError.
func repoErr(entity, op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, sql.ErrNoRows) {
		err = notFound
	}
	return domain.NewRepositoryError(op, entity, err.Error(), err)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func now() int64 {
	return time.Now().UnixNano()
}

func fromUnix(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
