package sqlite

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

type profileRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt int64  `db:"created_at"`
}

func (r profileRow) toDomain() domain.Profile {
	return domain.Profile{ID: r.ID, Name: r.Name, CreatedAt: fromUnix(r.CreatedAt)}
}

// ProfileRepository stores listener profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// Create adds a profile. Names are unique.
func (r *ProfileRepository) Create(ctx context.Context, name string) (domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Profile{}, domain.NewValidationError("name", name, "must not be empty")
	}
	row := profileRow{ID: uuid.NewString(), Name: name, CreatedAt: now()}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO profiles (id, name, created_at) VALUES (:id, :name, :created_at)`, row)
	if err != nil {
		return domain.Profile{}, repoErr("profile", "create", err, nil)
	}
	return row.toDomain(), nil
}

// Get returns a profile by ID.
func (r *ProfileRepository) Get(ctx context.Context, id string) (domain.Profile, error) {
	var row profileRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, created_at FROM profiles WHERE id = ?`, id); err != nil {
		return domain.Profile{}, repoErr("profile", "get", err, domain.ErrProfileNotFound)
	}
	return row.toDomain(), nil
}

// GetByName returns a profile by name.
func (r *ProfileRepository) GetByName(ctx context.Context, name string) (domain.Profile, error) {
	var row profileRow
	err := r.db.GetContext(ctx, &row, `SELECT id, name, created_at FROM profiles WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return domain.Profile{}, repoErr("profile", "get_by_name", err, domain.ErrProfileNotFound)
	}
	return row.toDomain(), nil
}

// List returns all profiles in creation order.
func (r *ProfileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, created_at FROM profiles ORDER BY created_at, name`); err != nil {
		return nil, repoErr("profile", "list", err, nil)
	}
	profiles := make([]domain.Profile, len(rows))
	for i, row := range rows {
		profiles[i] = row.toDomain()
	}
	return profiles, nil
}

// Ensure returns the named profile, creating it on first use.
func (r *ProfileRepository) Ensure(ctx context.Context, name string) (domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Profile{}, domain.NewValidationError("name", name, "must not be empty")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, name, created_at) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
		uuid.NewString(), name, now())
	if err != nil {
		return domain.Profile{}, repoErr("profile", "ensure", err, nil)
	}
	return r.GetByName(ctx, name)
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)
