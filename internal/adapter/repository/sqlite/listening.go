package sqlite

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

type historyRow struct {
	HistoryID string `db:"history_id"`
	ProfileID string `db:"profile_id"`
	PlayedAt  int64  `db:"played_at"`
	trackRow
}

type playCountRow struct {
	Plays int `db:"plays"`
	trackRow
}

type likeRow struct {
	ProfileID string `db:"profile_id"`
	LikedAt   int64  `db:"liked_at"`
	trackRow
}

// HistoryRepository records plays per profile.
type HistoryRepository struct {
	db *sqlx.DB
}

// Record appends a play of the track to the profile's history.
func (r *HistoryRepository) Record(ctx context.Context, profileID, trackID string) (domain.PlayRecord, error) {
	id := uuid.NewString()
	playedAt := now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO play_history (id, profile_id, track_id, played_at) VALUES (?, ?, ?, ?)`,
		id, profileID, trackID, playedAt)
	if err != nil {
		return domain.PlayRecord{}, repoErr("history", "record", err, nil)
	}

	var row trackRow
	if err := r.db.GetContext(ctx, &row, trackSelect+` WHERE t.id = ?`, trackID); err != nil {
		return domain.PlayRecord{}, repoErr("history", "record", err, domain.ErrTrackNotFound)
	}
	return domain.PlayRecord{
		ID:        id,
		ProfileID: profileID,
		Track:     row.toDomain(),
		PlayedAt:  fromUnix(playedAt),
	}, nil
}

// Recent returns the latest plays, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, profileID string, limit int) ([]domain.PlayRecord, error) {
	var rows []historyRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT h.id AS history_id, h.profile_id, h.played_at, `+trackColumns+`
		FROM play_history h
		JOIN tracks t ON t.id = h.track_id`+trackJoins+`
		WHERE h.profile_id = ?
		ORDER BY h.played_at DESC, h.rowid DESC
		LIMIT ?`, profileID, limitOrAll(limit))
	if err != nil {
		return nil, repoErr("history", "recent", err, nil)
	}
	records := make([]domain.PlayRecord, len(rows))
	for i, row := range rows {
		records[i] = domain.PlayRecord{
			ID:        row.HistoryID,
			ProfileID: row.ProfileID,
			Track:     row.trackRow.toDomain(),
			PlayedAt:  fromUnix(row.PlayedAt),
		}
	}
	return records, nil
}

// MostPlayed returns the profile's tracks ordered by play count.
func (r *HistoryRepository) MostPlayed(ctx context.Context, profileID string, limit int) ([]domain.PlayCount, error) {
	var rows []playCountRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT COUNT(h.id) AS plays, `+trackColumns+`
		FROM play_history h
		JOIN tracks t ON t.id = h.track_id`+trackJoins+`
		WHERE h.profile_id = ?
		GROUP BY t.id
		ORDER BY plays DESC, MAX(h.played_at) DESC
		LIMIT ?`, profileID, limitOrAll(limit))
	if err != nil {
		return nil, repoErr("history", "most_played", err, nil)
	}
	counts := make([]domain.PlayCount, len(rows))
	for i, row := range rows {
		counts[i] = domain.PlayCount{Track: row.trackRow.toDomain(), Count: row.Plays}
	}
	return counts, nil
}

// PlayCount returns how often the profile played the track.
func (r *HistoryRepository) PlayCount(ctx context.Context, profileID, trackID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(1) FROM play_history WHERE profile_id = ? AND track_id = ?`, profileID, trackID)
	return n, repoErr("history", "play_count", err, nil)
}

// Clear deletes the profile's history.
func (r *HistoryRepository) Clear(ctx context.Context, profileID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM play_history WHERE profile_id = ?`, profileID)
	return repoErr("history", "clear", err, nil)
}

// LikeRepository stores liked tracks.
type LikeRepository struct {
	db *sqlx.DB
}

// Like marks the track as liked. Liking twice keeps the first timestamp.
func (r *LikeRepository) Like(ctx context.Context, profileID, trackID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO likes (profile_id, track_id, liked_at) VALUES (?, ?, ?)
		ON CONFLICT(profile_id, track_id) DO NOTHING`, profileID, trackID, now())
	return repoErr("like", "like", err, nil)
}

// Unlike removes the like, if any.
func (r *LikeRepository) Unlike(ctx context.Context, profileID, trackID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE profile_id = ? AND track_id = ?`, profileID, trackID)
	return repoErr("like", "unlike", err, nil)
}

// IsLiked reports whether the profile liked the track.
func (r *LikeRepository) IsLiked(ctx context.Context, profileID, trackID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(1) FROM likes WHERE profile_id = ? AND track_id = ?`, profileID, trackID)
	return n > 0, repoErr("like", "is_liked", err, nil)
}

// List returns liked tracks, most recent first.
func (r *LikeRepository) List(ctx context.Context, profileID string) ([]domain.Like, error) {
	var rows []likeRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT l.profile_id, l.liked_at, `+trackColumns+`
		FROM likes l
		JOIN tracks t ON t.id = l.track_id`+trackJoins+`
		WHERE l.profile_id = ?
		ORDER BY l.liked_at DESC, l.rowid DESC`, profileID)
	if err != nil {
		return nil, repoErr("like", "list", err, nil)
	}
	likes := make([]domain.Like, len(rows))
	for i, row := range rows {
		likes[i] = domain.Like{
			ProfileID: row.ProfileID,
			Track:     row.trackRow.toDomain(),
			LikedAt:   fromUnix(row.LikedAt),
		}
	}
	return likes, nil
}

// limitOrAll maps non-positive limits to SQLite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

var (
	_ ports.HistoryRepository = (*HistoryRepository)(nil)
	_ ports.LikeRepository    = (*LikeRepository)(nil)
)
