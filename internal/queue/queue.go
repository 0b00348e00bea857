// Package queue implements the "now playing" queue: play order, the current
// position, shuffle with a restorable original order, and repeat modes.
//
// Queue is not safe for concurrent use. QueueService serializes access.
package queue

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// Queue holds the ordered entries and the transport position within them.
//
// Invariants:
//   - an empty queue has index 0
//   - a non-empty queue has 0 <= index < len(entries)
//   - while shuffled, original holds the same entries in pre-shuffle order
type Queue struct {
	entries  []domain.QueueEntry
	original []domain.QueueEntry
	index    int
	shuffle  bool
	repeat   domain.RepeatMode

	rng   *rand.Rand
	newID func() string
}

// Option configures a Queue.
type Option func(*Queue)

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(q *Queue) {
		q.rng = rng
	}
}

// WithIDGenerator sets the function used to mint entry IDs.
func WithIDGenerator(fn func() string) Option {
	return func(q *Queue) {
		q.newID = fn
	}
}

// New creates an empty queue with repeat off and shuffle off.
func New(opts ...Option) *Queue {
	q := &Queue{
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.rng == nil {
		q.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return q
}

// Len returns the number of entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Index returns the current position. It is 0 for an empty queue.
func (q *Queue) Index() int {
	return q.index
}

// Shuffled reports whether shuffle is on.
func (q *Queue) Shuffled() bool {
	return q.shuffle
}

// Repeat returns the current repeat mode.
func (q *Queue) Repeat() domain.RepeatMode {
	return q.repeat
}

// Entries returns a copy of the entries in play order.
func (q *Queue) Entries() []domain.QueueEntry {
	return cloneEntries(q.entries)
}

// Tracks returns the tracks in play order.
func (q *Queue) Tracks() []domain.Track {
	tracks := make([]domain.Track, len(q.entries))
	for i, e := range q.entries {
		tracks[i] = e.Track
	}
	return tracks
}

// Current returns the entry at the current position.
func (q *Queue) Current() (domain.QueueEntry, bool) {
	if len(q.entries) == 0 {
		return domain.QueueEntry{}, false
	}
	return q.entries[q.index], true
}

// Find returns the play-order position of the entry with the given ID, or -1.
func (q *Queue) Find(entryID string) int {
	return indexOf(q.entries, entryID)
}

// PlayTrack makes track the current entry.
//
// With a non-empty context the queue is replaced by the context and the
// current position becomes the first occurrence of track in it; a track
// missing from the context is put in front. With an empty context the track
// is spliced in right after the current entry and the rest of the queue is kept.
func (q *Queue) PlayTrack(track domain.Track, context []domain.Track) domain.QueueEntry {
	if len(context) > 0 {
		q.entries = q.makeEntries(context)
		q.original = nil
		pos := -1
		for i, e := range q.entries {
			if sameTrack(e.Track, track) {
				pos = i
				break
			}
		}
		if pos < 0 {
			q.entries = insertAt(q.entries, 0, q.makeEntry(track))
			pos = 0
		}
		q.index = pos
		if q.shuffle {
			q.original = cloneEntries(q.entries)
			q.shuffleAroundCurrent()
		}
		return q.entries[q.index]
	}

	entry := q.makeEntry(track)
	if len(q.entries) == 0 {
		q.entries = []domain.QueueEntry{entry}
		q.index = 0
		if q.shuffle {
			q.original = []domain.QueueEntry{entry}
		}
		return entry
	}

	q.insertAfterCurrent(entry)
	q.index++
	return entry
}

// Append adds tracks to the end of the queue.
func (q *Queue) Append(tracks ...domain.Track) []domain.QueueEntry {
	added := q.makeEntries(tracks)
	q.entries = append(q.entries, added...)
	if q.shuffle {
		q.original = append(q.original, added...)
	}
	return cloneEntries(added)
}

// PlayNext inserts tracks, in order, right after the current entry.
func (q *Queue) PlayNext(tracks ...domain.Track) []domain.QueueEntry {
	added := q.makeEntries(tracks)
	if len(added) == 0 {
		return nil
	}
	if len(q.entries) == 0 {
		q.entries = cloneEntries(added)
		q.index = 0
		if q.shuffle {
			q.original = cloneEntries(added)
		}
		return cloneEntries(added)
	}
	for i := len(added) - 1; i >= 0; i-- {
		q.insertAfterCurrent(added[i])
	}
	return cloneEntries(added)
}

// Next advances the current position.
//
// auto marks an advance caused by a track running to its end; with RepeatOne
// such an advance stays on the current entry. At the end of the queue
// RepeatAll and RepeatOne wrap to the first entry and RepeatNone returns
// domain.ErrEndOfQueue without moving.
func (q *Queue) Next(auto bool) (domain.QueueEntry, error) {
	if len(q.entries) == 0 {
		return domain.QueueEntry{}, domain.ErrQueueEmpty
	}
	if auto && q.repeat == domain.RepeatOne {
		return q.entries[q.index], nil
	}
	if q.index < len(q.entries)-1 {
		q.index++
		return q.entries[q.index], nil
	}
	if q.repeat == domain.RepeatNone {
		return domain.QueueEntry{}, domain.ErrEndOfQueue
	}
	q.index = 0
	return q.entries[q.index], nil
}

// Previous moves the current position back by one. At the first entry
// RepeatAll and RepeatOne wrap to the last entry and RepeatNone returns
// domain.ErrStartOfQueue.
func (q *Queue) Previous() (domain.QueueEntry, error) {
	if len(q.entries) == 0 {
		return domain.QueueEntry{}, domain.ErrQueueEmpty
	}
	if q.index > 0 {
		q.index--
		return q.entries[q.index], nil
	}
	if q.repeat == domain.RepeatNone {
		return domain.QueueEntry{}, domain.ErrStartOfQueue
	}
	q.index = len(q.entries) - 1
	return q.entries[q.index], nil
}

// HasNext reports whether an automatic advance would move to another entry
// or repeat the current one.
func (q *Queue) HasNext() bool {
	if len(q.entries) == 0 {
		return false
	}
	return q.repeat != domain.RepeatNone || q.index < len(q.entries)-1
}

// Jump makes the entry at position i current.
func (q *Queue) Jump(i int) (domain.QueueEntry, error) {
	if i < 0 || i >= len(q.entries) {
		return domain.QueueEntry{}, domain.ErrInvalidIndex
	}
	q.index = i
	return q.entries[i], nil
}

// SetShuffle turns shuffle on or off. Turning it on keeps the current entry
// playing, moves it to the front and randomizes the rest. Turning it off
// restores the pre-shuffle order, including entries added since, and keeps
// the current entry current.
func (q *Queue) SetShuffle(on bool) {
	if on == q.shuffle {
		return
	}
	q.shuffle = on
	if on {
		q.original = cloneEntries(q.entries)
		q.shuffleAroundCurrent()
		return
	}

	current, ok := q.Current()
	q.entries = q.original
	q.original = nil
	if !ok {
		q.index = 0
		return
	}
	if pos := indexOf(q.entries, current.EntryID); pos >= 0 {
		q.index = pos
	} else {
		q.index = 0
	}
}

// ToggleShuffle flips shuffle and returns the new state.
func (q *Queue) ToggleShuffle() bool {
	q.SetShuffle(!q.shuffle)
	return q.shuffle
}

// SetRepeat sets the repeat mode.
func (q *Queue) SetRepeat(mode domain.RepeatMode) error {
	if !mode.Valid() {
		return domain.NewValidationError("repeat_mode", int(mode), "unknown repeat mode")
	}
	q.repeat = mode
	return nil
}

// CycleRepeat advances the repeat mode None -> All -> One -> None.
func (q *Queue) CycleRepeat() domain.RepeatMode {
	q.repeat = q.repeat.Next()
	return q.repeat
}

// Move relocates the entry at from to position to. The current entry stays
// current. The pre-shuffle order is not affected.
func (q *Queue) Move(from, to int) error {
	n := len(q.entries)
	if from < 0 || from >= n || to < 0 || to >= n {
		return domain.ErrInvalidIndex
	}
	if from == to {
		return nil
	}

	entry := q.entries[from]
	q.entries = removeAt(q.entries, from)
	q.entries = insertAt(q.entries, to, entry)

	switch {
	case from == q.index:
		q.index = to
	case from < q.index && to >= q.index:
		q.index--
	case from > q.index && to <= q.index:
		q.index++
	}
	return nil
}

// Remove deletes the entry at position i. Removing the current entry makes
// the following entry current, or the new last entry when it was last.
func (q *Queue) Remove(i int) (domain.QueueEntry, error) {
	if i < 0 || i >= len(q.entries) {
		return domain.QueueEntry{}, domain.ErrInvalidIndex
	}
	removed := q.entries[i]
	q.entries = removeAt(q.entries, i)
	if q.shuffle {
		if pos := indexOf(q.original, removed.EntryID); pos >= 0 {
			q.original = removeAt(q.original, pos)
		}
	}

	if i < q.index {
		q.index--
	}
	if q.index >= len(q.entries) {
		q.index = max(len(q.entries)-1, 0)
	}
	return removed, nil
}

// Clear removes every entry. Shuffle and repeat settings are kept.
func (q *Queue) Clear() {
	q.entries = nil
	q.index = 0
	if q.shuffle {
		q.original = []domain.QueueEntry{}
	} else {
		q.original = nil
	}
}

// TotalDuration returns the summed length of all entries.
func (q *Queue) TotalDuration() time.Duration {
	var total time.Duration
	for _, e := range q.entries {
		total += e.Track.Duration
	}
	return total
}

// Remaining returns the time left to play from position within the current
// entry to the end of the queue.
func (q *Queue) Remaining(position time.Duration) time.Duration {
	if len(q.entries) == 0 {
		return 0
	}
	left := q.entries[q.index].Track.Duration - position
	if left < 0 {
		left = 0
	}
	for _, e := range q.entries[q.index+1:] {
		left += e.Track.Duration
	}
	return left
}

// Snapshot returns the persisted form of the queue.
func (q *Queue) Snapshot() domain.QueueSnapshot {
	snap := domain.QueueSnapshot{
		Entries: cloneEntries(q.entries),
		Index:   q.index,
		Shuffle: q.shuffle,
		Repeat:  q.repeat,
	}
	if q.shuffle {
		snap.Original = make([]string, len(q.original))
		for i, e := range q.original {
			snap.Original[i] = e.EntryID
		}
	}
	return snap
}

// Restore replaces the queue with a snapshot.
//
// Unknown IDs in the original order are dropped and entries missing from it
// are appended, so a snapshot whose tracks were partly deleted still
// restores. An out of range index is reset to 0. Duplicate entry IDs make
// the snapshot unusable; the queue is cleared and ErrInvalidSnapshot returned.
func (q *Queue) Restore(snap domain.QueueSnapshot) error {
	byID := make(map[string]domain.QueueEntry, len(snap.Entries))
	for _, e := range snap.Entries {
		if e.EntryID == "" {
			q.reset()
			return domain.NewValidationError("entry_id", e.Track.ID, "empty entry id")
		}
		if _, dup := byID[e.EntryID]; dup {
			q.reset()
			return domain.ErrInvalidSnapshot
		}
		byID[e.EntryID] = e
	}

	repeat := snap.Repeat
	if !repeat.Valid() {
		repeat = domain.RepeatNone
	}

	q.entries = cloneEntries(snap.Entries)
	q.repeat = repeat
	q.shuffle = snap.Shuffle
	q.index = snap.Index
	if q.index < 0 || q.index >= len(q.entries) {
		q.index = 0
	}

	q.original = nil
	if !q.shuffle {
		return nil
	}

	q.original = make([]domain.QueueEntry, 0, len(q.entries))
	seen := make(map[string]bool, len(q.entries))
	for _, id := range snap.Original {
		e, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		q.original = append(q.original, e)
	}
	for _, e := range q.entries {
		if !seen[e.EntryID] {
			q.original = append(q.original, e)
		}
	}
	return nil
}

func (q *Queue) reset() {
	q.entries = nil
	q.original = nil
	q.index = 0
	q.shuffle = false
	q.repeat = domain.RepeatNone
}

// shuffleAroundCurrent randomizes play order with the current entry first.
func (q *Queue) shuffleAroundCurrent() {
	if len(q.entries) == 0 {
		q.index = 0
		return
	}
	current := q.entries[q.index]
	rest := removeAt(cloneEntries(q.entries), q.index)
	q.rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
	q.entries = append([]domain.QueueEntry{current}, rest...)
	q.index = 0
}

// insertAfterCurrent places entry after the current one in play order and,
// when shuffled, after the current one in the original order too.
func (q *Queue) insertAfterCurrent(entry domain.QueueEntry) {
	current := q.entries[q.index]
	q.entries = insertAt(q.entries, q.index+1, entry)
	if !q.shuffle {
		return
	}
	pos := indexOf(q.original, current.EntryID)
	if pos < 0 {
		q.original = append(q.original, entry)
		return
	}
	q.original = insertAt(q.original, pos+1, entry)
}

func (q *Queue) makeEntry(track domain.Track) domain.QueueEntry {
	return domain.QueueEntry{EntryID: q.newID(), Track: track}
}

func (q *Queue) makeEntries(tracks []domain.Track) []domain.QueueEntry {
	entries := make([]domain.QueueEntry, len(tracks))
	for i, t := range tracks {
		entries[i] = q.makeEntry(t)
	}
	return entries
}

func sameTrack(a, b domain.Track) bool {
	if a.ID != "" || b.ID != "" {
		return a.ID == b.ID
	}
	return a.FilePath == b.FilePath
}

func indexOf(entries []domain.QueueEntry, entryID string) int {
	for i, e := range entries {
		if e.EntryID == entryID {
			return i
		}
	}
	return -1
}

func cloneEntries(entries []domain.QueueEntry) []domain.QueueEntry {
	if entries == nil {
		return nil
	}
	out := make([]domain.QueueEntry, len(entries))
	copy(out, entries)
	return out
}

func insertAt(entries []domain.QueueEntry, i int, e domain.QueueEntry) []domain.QueueEntry {
	entries = append(entries, domain.QueueEntry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	return entries
}

func removeAt(entries []domain.QueueEntry, i int) []domain.QueueEntry {
	return append(entries[:i], entries[i+1:]...)
}
