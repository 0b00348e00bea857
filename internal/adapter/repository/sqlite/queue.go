package sqlite

import (
	"context"
	"database/sql"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

type queueStateRow struct {
	CurrentIndex   int    `db:"current_index"`
	CurrentEntryID string `db:"current_entry_id"`
	Shuffle        bool   `db:"shuffle"`
	RepeatMode     string `db:"repeat_mode"`
}

type queueEntryRow struct {
	EntryID          string        `db:"entry_id"`
	Position         int           `db:"position"`
	OriginalPosition sql.NullInt64 `db:"original_position"`
	trackRow
}

// QueueRepository persists the play queue per profile.
type QueueRepository struct {
	db *sqlx.DB
}

// SaveQueue replaces the profile's stored queue in one transaction. Entries
// whose track is no longer in the catalog are skipped; positions keep their
// gaps so LoadQueue can place the current entry.
func (r *QueueRepository) SaveQueue(ctx context.Context, profileID string, snap domain.QueueSnapshot) error {
	original := make(map[string]int, len(snap.Original))
	if snap.Shuffle {
		for i, id := range snap.Original {
			original[id] = i
		}
	}

	var currentEntryID string
	if snap.Index >= 0 && snap.Index < len(snap.Entries) {
		currentEntryID = snap.Entries[snap.Index].EntryID
	}

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM queue_entries WHERE profile_id = ?`, profileID); err != nil {
			return errors.Wrap(err, "clear entries")
		}

		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO queue_entries (profile_id, entry_id, track_id, position, original_position)
			SELECT ?, ?, ?, ?, ?
			WHERE EXISTS (SELECT 1 FROM tracks WHERE id = ?)`)
		if err != nil {
			return errors.Wrap(err, "prepare entry insert")
		}
		defer stmt.Close()

		for i, e := range snap.Entries {
			var orig sql.NullInt64
			if pos, ok := original[e.EntryID]; ok {
				orig = sql.NullInt64{Int64: int64(pos), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, profileID, e.EntryID, e.Track.ID, i, orig, e.Track.ID); err != nil {
				return errors.Wrapf(err, "insert entry %d (track %s)", i, e.Track.ID)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO queue_state (profile_id, current_index, current_entry_id, shuffle, repeat_mode, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(profile_id) DO UPDATE SET
				current_index = excluded.current_index,
				current_entry_id = excluded.current_entry_id,
				shuffle = excluded.shuffle,
				repeat_mode = excluded.repeat_mode,
				updated_at = excluded.updated_at`,
			profileID, snap.Index, currentEntryID, snap.Shuffle, snap.Repeat.String(), now())
		return errors.Wrap(err, "upsert state")
	})
	return repoErr("queue", "save", err, nil)
}

// LoadQueue returns the profile's stored queue. A profile that never saved
// yields an empty snapshot. The current entry is located by ID so rows
// removed with their track do not shift it. When the current entry itself is
// gone, the next surviving entry becomes current, or the last one if none
// follows.
func (r *QueueRepository) LoadQueue(ctx context.Context, profileID string) (domain.QueueSnapshot, error) {
	var state queueStateRow
	err := r.db.GetContext(ctx, &state, `
		SELECT current_index, current_entry_id, shuffle, repeat_mode
		FROM queue_state WHERE profile_id = ?`, profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QueueSnapshot{}, nil
	}
	if err != nil {
		return domain.QueueSnapshot{}, repoErr("queue", "load", err, nil)
	}

	var rows []queueEntryRow
	err = r.db.SelectContext(ctx, &rows, `
		SELECT q.entry_id, q.position, q.original_position, `+trackColumns+`
		FROM queue_entries q
		JOIN tracks t ON t.id = q.track_id`+trackJoins+`
		WHERE q.profile_id = ?
		ORDER BY q.position`, profileID)
	if err != nil {
		return domain.QueueSnapshot{}, repoErr("queue", "load", err, nil)
	}

	repeat, err := domain.ParseRepeatMode(state.RepeatMode)
	if err != nil {
		repeat = domain.RepeatNone
	}

	snap := domain.QueueSnapshot{
		Entries: make([]domain.QueueEntry, len(rows)),
		Index:   state.CurrentIndex,
		Shuffle: state.Shuffle,
		Repeat:  repeat,
	}
	found := false
	for i, row := range rows {
		snap.Entries[i] = domain.QueueEntry{EntryID: row.EntryID, Track: row.trackRow.toDomain()}
		if row.EntryID == state.CurrentEntryID {
			snap.Index = i
			found = true
		}
	}
	if !found {
		snap.Index = 0
		for _, row := range rows {
			if row.Position < state.CurrentIndex {
				snap.Index++
			}
		}
	}
	if snap.Index >= len(snap.Entries) {
		snap.Index = len(snap.Entries) - 1
	}
	if snap.Index < 0 {
		snap.Index = 0
	}

	if snap.Shuffle {
		withOriginal := make([]queueEntryRow, 0, len(rows))
		for _, row := range rows {
			if row.OriginalPosition.Valid {
				withOriginal = append(withOriginal, row)
			}
		}
		sort.SliceStable(withOriginal, func(i, j int) bool {
			return withOriginal[i].OriginalPosition.Int64 < withOriginal[j].OriginalPosition.Int64
		})
		snap.Original = make([]string, len(withOriginal))
		for i, row := range withOriginal {
			snap.Original[i] = row.EntryID
		}
	}
	return snap, nil
}

// ClearQueue removes the profile's stored queue and state.
func (r *QueueRepository) ClearQueue(ctx context.Context, profileID string) error {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM queue_entries WHERE profile_id = ?`, profileID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM queue_state WHERE profile_id = ?`, profileID)
		return err
	})
	return repoErr("queue", "clear", err, nil)
}

var _ ports.QueueRepository = (*QueueRepository)(nil)
