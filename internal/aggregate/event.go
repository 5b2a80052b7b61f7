// Package aggregate maintains, per meeting, the tally of how many
// participants are available in each slot, and selects the most popular
// eligible slot.
//
// A Tally is mutated only through Apply (one atomic diff per participant
// change) or by re-derivation from persisted records. Readers get immutable
// snapshots and never block writers. The Registry owns one Tally per meeting
// and repairs inconsistencies by re-deriving from the persistence layer.
package aggregate

import (
	"errors"

	"github.com/tbourn/go-meeting-backend/internal/slot"
)

var (
	// ErrOutOfOrderEvent reports an event whose declared previous state does
	// not match what the tally tracks for that participant, or whose version
	// goes backwards. Callers recover by re-deriving the tally.
	ErrOutOfOrderEvent = errors.New("out-of-order availability event")

	// ErrClosed is returned by Finalize and Close once the tally has already
	// been committed to a terminal decision.
	ErrClosed = errors.New("meeting no longer collecting")

	// ErrNoEligibleSlot is returned by Finalize when no slot passes the filter.
	ErrNoEligibleSlot = errors.New("no eligible slot")
)

// State is a participant's availability as seen by the tally. The zero value
// means "no record" (never responded, or withdrawn), which differs from a
// present record with an empty slot set.
type State struct {
	Present bool
	Slots   slot.Set
}

// Absent is the state of a participant without a record.
var Absent = State{}

// Present returns the state of a participant whose record holds slots.
func Present(slots slot.Set) State { return State{Present: true, Slots: slots} }

// Equal compares two states. Absent never equals a present empty set.
func (s State) Equal(o State) bool {
	if s.Present != o.Present {
		return false
	}
	return !s.Present || s.Slots.Equal(o.Slots)
}

// Event is one committed change to a participant's record.
//
// Previous is the state the change was applied on top of and Current the
// state it produced. Version is the record version after the change; zero
// means the producer does not version its records.
type Event struct {
	ParticipantID string
	Previous      State
	Current       State
	Version       int64
}

// Inserted builds the event for a first submission.
func Inserted(participantID string, slots slot.Set, version int64) Event {
	return Event{ParticipantID: participantID, Previous: Absent, Current: Present(slots), Version: version}
}

// Replaced builds the event for a resubmission.
func Replaced(participantID string, prev, next slot.Set, version int64) Event {
	return Event{ParticipantID: participantID, Previous: Present(prev), Current: Present(next), Version: version}
}

// Deleted builds the event for a withdrawn record.
func Deleted(participantID string, prev slot.Set, version int64) Event {
	return Event{ParticipantID: participantID, Previous: Present(prev), Current: Absent, Version: version}
}

// Record is a persisted record as returned by a Source during re-derivation.
// Withdrawn records are reported with State Absent so their version still
// orders later events.
type Record struct {
	ParticipantID string
	State         State
	Version       int64
}
