// Package feed carries committed row changes from the persistence layer to
// the aggregator and on to live viewers.
//
// Hub is the change-feed collaborator: writers publish after commit, and
// every subscriber sees changes in publish order. Adapter consumes the hub
// per meeting, turns availability changes into aggregator events, and fans
// tally updates out to viewers.
package feed

import (
	"sync"
	"sync/atomic"
	"time"
)

// Table names a source table of row changes.
type Table string

const (
	TableMeetings     Table = "meetings"
	TableParticipants Table = "participants"
	TableAvailability Table = "availability"
)

// Op is the kind of row change.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is one committed row change. Old and New hold pointers to the
// domain rows (*domain.Meeting, *domain.Participant, *domain.Availability);
// Old is nil on insert, New is nil on a hard delete. MeetingID is optional:
// publishers that know the owning meeting set it, and consumers fall back to
// participant membership when it is empty.
type Change struct {
	Table       Table
	MeetingID   string
	Op          Op
	Old         any
	New         any
	CommittedAt time.Time
}

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 256

// Hub is an in-process publish/subscribe fan-out of row changes.
type Hub struct {
	buffer int

	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewHub returns a hub whose subscribers buffer up to buffer changes.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{buffer: buffer, subs: make(map[*Subscription]struct{})}
}

// Publish delivers ch to every subscriber without blocking. A subscriber
// whose buffer is full misses the change and is flagged as lagged.
func (h *Hub) Publish(ch Change) {
	if ch.CommittedAt.IsZero() {
		ch.CommittedAt = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- ch:
		default:
			s.lagged.Store(true)
			hubDropped.Inc()
		}
	}
	hubPublished.WithLabelValues(string(ch.Table)).Inc()
}

// Subscribe registers a new subscriber. Callers must Close it.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{hub: h, ch: make(chan Change, h.buffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Subscription is one consumer's ordered view of the hub.
type Subscription struct {
	hub    *Hub
	ch     chan Change
	lagged atomic.Bool
	once   sync.Once
}

// C returns the change channel. It is closed by Close.
func (s *Subscription) C() <-chan Change { return s.ch }

// Lagged reports whether changes were dropped since the last call, and
// resets the flag.
func (s *Subscription) Lagged() bool { return s.lagged.Swap(false) }

// Close unregisters the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}
