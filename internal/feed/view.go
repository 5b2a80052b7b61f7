package feed

import (
	"sync"

	"github.com/tbourn/go-meeting-backend/internal/aggregate"
	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/slot"
)

// UpdateKind tells viewers why an update was sent.
type UpdateKind string

const (
	// UpdateTally follows an applied availability change.
	UpdateTally UpdateKind = "tally"
	// UpdateMeeting follows a change to the meeting itself (status, window).
	UpdateMeeting UpdateKind = "meeting"
	// UpdateResync follows a re-derivation; viewers should replace their state.
	UpdateResync UpdateKind = "resync"
)

// View is the public projection of a meeting's tally.
type View struct {
	MeetingID   string               `json:"meeting_id"`
	Status      domain.MeetingStatus `json:"status,omitempty"`
	Seq         uint64               `json:"seq"`
	Counts      map[slot.Key]int     `json:"counts"`
	Respondents int                  `json:"respondents"`
	Best        *aggregate.SlotCount `json:"best,omitempty"`
	ChosenSlot  *slot.Key            `json:"chosen_slot,omitempty"`
}

// BuildView projects snap under the meeting's eligibility filter. m may be
// nil, in which case every slot is eligible.
func BuildView(snap aggregate.Snapshot, m *domain.Meeting) View {
	v := View{
		MeetingID:   snap.MeetingID,
		Seq:         snap.Seq,
		Counts:      snap.Counts,
		Respondents: snap.Respondents,
	}
	if v.Counts == nil {
		v.Counts = map[slot.Key]int{}
	}
	var f slot.Filter
	if m != nil {
		f = m.SlotFilter()
		v.MeetingID = m.ID
		v.Status = m.Status
		v.ChosenSlot = m.ChosenSlot
	}
	if k, n, ok := snap.Best(f); ok {
		v.Best = &aggregate.SlotCount{Slot: k, Count: n}
	}
	return v
}

// Update is one message to a live viewer.
type Update struct {
	Kind UpdateKind `json:"kind"`
	View
}

// Viewer receives updates for one meeting. Each update carries the full
// state, so a slow viewer only ever misses intermediate states.
type Viewer struct {
	w    *watcher
	ch   chan Update
	once sync.Once
}

// C returns the update channel. It is closed when the viewer is closed or
// the adapter shuts down.
func (v *Viewer) C() <-chan Update { return v.ch }

// Close detaches the viewer. Other viewers of the meeting are unaffected.
func (v *Viewer) Close() {
	v.once.Do(func() { v.w.removeViewer(v) })
}

// offer enqueues u, replacing the oldest pending update when the buffer is
// full. Callers hold the watcher lock.
func (v *Viewer) offer(u Update) {
	select {
	case v.ch <- u:
		return
	default:
	}
	select {
	case <-v.ch:
	default:
	}
	select {
	case v.ch <- u:
	default:
	}
}
