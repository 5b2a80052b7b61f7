package aggregate

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tbourn/go-meeting-backend/internal/slot"
)

// Snapshot is an immutable view of a tally. Counts must not be mutated;
// use CountsCopy when a writable map is needed.
type Snapshot struct {
	MeetingID string
	// Counts maps each slot to the number of participants available in it.
	// Zero counts are never present.
	Counts map[slot.Key]int
	// Respondents is the number of participants holding a record, including
	// records with an empty slot set.
	Respondents int
	// Seq increases with every published change.
	Seq uint64
}

// CountsCopy returns a writable copy of Counts.
func (s Snapshot) CountsCopy() map[slot.Key]int {
	out := make(map[slot.Key]int, len(s.Counts))
	for k, v := range s.Counts {
		out[k] = v
	}
	return out
}

// Best returns the most popular slot passing f (see BestSlot).
func (s Snapshot) Best(f slot.Filter) (slot.Key, int, bool) {
	return BestSlot(s.Counts, f)
}

type tracked struct {
	state   State
	version int64
}

// Tally is the aggregation state of one meeting. All mutation happens under
// mu; readers load the last published snapshot without locking.
type Tally struct {
	meetingID string

	mu      sync.Mutex
	counts  map[slot.Key]int
	members map[string]tracked
	closed  bool
	seq     uint64

	snap atomic.Pointer[Snapshot]
}

// NewTally returns an empty tally for meetingID.
func NewTally(meetingID string) *Tally {
	t := &Tally{
		meetingID: meetingID,
		counts:    make(map[slot.Key]int),
		members:   make(map[string]tracked),
	}
	t.publishLocked()
	return t
}

// MeetingID returns the meeting this tally aggregates.
func (t *Tally) MeetingID() string { return t.meetingID }

// Snapshot returns the latest published view.
func (t *Tally) Snapshot() Snapshot { return *t.snap.Load() }

// Apply folds one participant change into the tally as a single diff: slots
// only in the previous state are decremented, slots only in the current state
// are incremented, and the result is published at once.
//
// It returns applied=false without error for duplicates (the tally already
// reflects ev.Current). It returns ErrOutOfOrderEvent when ev.Previous does not
// match the tracked state or the version goes backwards, and ErrClosed for any
// new change once a terminal decision was taken; the tally is left untouched
// in both cases.
func (t *Tally) Apply(ev Event) (applied bool, err error) {
	if ev.ParticipantID == "" {
		return false, fmt.Errorf("%w: missing participant id", ErrOutOfOrderEvent)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.members[ev.ParticipantID]
	if ev.Version > 0 && cur.version > 0 && ev.Version <= cur.version {
		if cur.state.Equal(ev.Current) {
			return false, nil
		}
		return false, fmt.Errorf("%w: participant %s version %d after %d", ErrOutOfOrderEvent, ev.ParticipantID, ev.Version, cur.version)
	}
	if !cur.state.Equal(ev.Previous) {
		if cur.state.Equal(ev.Current) {
			// Already reflected, e.g. the record was loaded after this commit.
			if ev.Version > cur.version {
				cur.version = ev.Version
				t.members[ev.ParticipantID] = cur
			}
			return false, nil
		}
		return false, fmt.Errorf("%w: participant %s previous state mismatch", ErrOutOfOrderEvent, ev.ParticipantID)
	}
	if t.closed {
		return false, ErrClosed
	}

	removed, added := ev.Previous.Slots.Diff(ev.Current.Slots)
	for _, k := range removed {
		if n := t.counts[k] - 1; n > 0 {
			t.counts[k] = n
		} else {
			delete(t.counts, k)
		}
	}
	for _, k := range added {
		t.counts[k]++
	}
	t.members[ev.ParticipantID] = tracked{state: ev.Current, version: ev.Version}
	t.publishLocked()
	return true, nil
}

// Sync rebuilds the tally from persisted records. A participant whose
// in-memory version is newer than the fetched one keeps its in-memory state:
// that event was committed after the fetch and must not be lost.
func (t *Tally) Sync(records []Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	merged := make(map[string]tracked, len(records))
	for _, r := range records {
		merged[r.ParticipantID] = tracked{state: r.State, version: r.Version}
	}
	for pid, mem := range t.members {
		got, ok := merged[pid]
		if mem.version > 0 && (!ok || mem.version > got.version) {
			merged[pid] = mem
		}
	}

	counts := make(map[slot.Key]int)
	for _, m := range merged {
		if !m.state.Present {
			continue
		}
		for _, k := range m.state.Slots {
			counts[k]++
		}
	}
	t.members = merged
	t.counts = counts
	t.publishLocked()
}

// Finalize picks the best slot under f and marks the tally closed, inside the
// same critical section used by Apply, so no update can slip in between the
// decision and the close. It fails with ErrClosed if already closed and with
// ErrNoEligibleSlot if nothing qualifies.
func (t *Tally) Finalize(f slot.Filter) (slot.Key, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, 0, ErrClosed
	}
	best, count, ok := BestSlot(t.counts, f)
	if !ok {
		return 0, 0, ErrNoEligibleSlot
	}
	t.closed = true
	return best, count, nil
}

// Close marks the tally closed without choosing a slot (cancellation).
func (t *Tally) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	return nil
}

// Reopen undoes Finalize or Close when persisting the decision failed.
func (t *Tally) Reopen() {
	t.mu.Lock()
	t.closed = false
	t.mu.Unlock()
}

// Closed reports whether a terminal decision has been taken.
func (t *Tally) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Tally) publishLocked() {
	t.seq++
	counts := make(map[slot.Key]int, len(t.counts))
	for k, v := range t.counts {
		counts[k] = v
	}
	respondents := 0
	for _, m := range t.members {
		if m.state.Present {
			respondents++
		}
	}
	t.snap.Store(&Snapshot{
		MeetingID:   t.meetingID,
		Counts:      counts,
		Respondents: respondents,
		Seq:         t.seq,
	})
}
