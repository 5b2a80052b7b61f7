package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Source lists the persisted records of a meeting, including withdrawn
// records (reported as Absent with their last version).
type Source interface {
	Records(ctx context.Context, meetingID string) ([]Record, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, meetingID string) ([]Record, error)

// Records implements Source.
func (f SourceFunc) Records(ctx context.Context, meetingID string) ([]Record, error) {
	return f(ctx, meetingID)
}

// Rederivation reasons, used as log fields and metric labels.
const (
	ReasonLoad       = "load"
	ReasonOutOfOrder = "out_of_order"
	ReasonLagged     = "lagged"
	ReasonWatch      = "watch"
	ReasonMembership = "membership"
)

// Registry owns one Tally per meeting. Tallies are loaded lazily from the
// Source; concurrent loads and re-derivations of the same meeting share one
// fetch.
type Registry struct {
	src      Source
	log      zerolog.Logger
	maxTries uint
	initial  time.Duration

	mu      sync.RWMutex
	tallies map[string]*Tally

	group singleflight.Group
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for re-derivation diagnostics.
func WithLogger(l zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// WithMaxTries bounds Source fetch attempts per re-derivation.
func WithMaxTries(n uint) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxTries = n
		}
	}
}

// WithInitialBackoff sets the first retry delay.
func WithInitialBackoff(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.initial = d
		}
	}
}

// NewRegistry returns an empty registry backed by src.
func NewRegistry(src Source, opts ...RegistryOption) *Registry {
	r := &Registry{
		src:      src,
		log:      zerolog.Nop(),
		maxTries: 5,
		initial:  50 * time.Millisecond,
		tallies:  make(map[string]*Tally),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Get returns the meeting's tally, loading it from the Source on first use.
func (r *Registry) Get(ctx context.Context, meetingID string) (*Tally, error) {
	r.mu.RLock()
	t, ok := r.tallies[meetingID]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	v, err, _ := r.group.Do("load:"+meetingID, func() (any, error) {
		r.mu.RLock()
		t, ok := r.tallies[meetingID]
		r.mu.RUnlock()
		if ok {
			return t, nil
		}
		recs, err := r.fetch(ctx, meetingID, ReasonLoad)
		if err != nil {
			return nil, err
		}
		t = NewTally(meetingID)
		t.Sync(recs)

		r.mu.Lock()
		if existing, ok := r.tallies[meetingID]; ok {
			t = existing
		} else {
			r.tallies[meetingID] = t
			talliesActive.Inc()
		}
		r.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tally), nil
}

// Peek returns the tally if it is already loaded.
func (r *Registry) Peek(meetingID string) (*Tally, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tallies[meetingID]
	return t, ok
}

// Apply folds ev into the meeting's tally. An out-of-order event is repaired
// locally: the tally is re-derived from the Source and the event re-applied
// on top, where it either lands or turns out to be already reflected.
func (r *Registry) Apply(ctx context.Context, meetingID string, ev Event) error {
	t, err := r.Get(ctx, meetingID)
	if err != nil {
		return err
	}
	applied, err := t.Apply(ev)
	switch {
	case err == nil && applied:
		eventsTotal.WithLabelValues("applied").Inc()
		return nil
	case err == nil:
		eventsTotal.WithLabelValues("duplicate").Inc()
		return nil
	case errors.Is(err, ErrClosed):
		// The decision is taken; later changes were refused by the store.
		eventsTotal.WithLabelValues("rejected").Inc()
		return nil
	case !errors.Is(err, ErrOutOfOrderEvent):
		return err
	}

	eventsTotal.WithLabelValues("out_of_order").Inc()
	r.log.Debug().
		Str("meeting_id", meetingID).
		Str("participant_id", ev.ParticipantID).
		Int64("version", ev.Version).
		Msg("out-of-order availability event, re-deriving")

	if err := r.Rederive(ctx, meetingID, ReasonOutOfOrder); err != nil {
		return err
	}
	if _, err := t.Apply(ev); err != nil && !errors.Is(err, ErrOutOfOrderEvent) && !errors.Is(err, ErrClosed) {
		return err
	}
	// Still out of order after a fresh fetch means the store already holds a
	// newer state than ev; the tally reflects the store, so there is nothing
	// left to repair.
	return nil
}

// Rederive rebuilds the meeting's tally from the Source. Loaded tallies are
// rebuilt in place so existing holders see the result; an unloaded meeting is
// simply loaded.
func (r *Registry) Rederive(ctx context.Context, meetingID, reason string) error {
	t, ok := r.Peek(meetingID)
	if !ok {
		_, err := r.Get(ctx, meetingID)
		return err
	}
	_, err, _ := r.group.Do("rederive:"+meetingID, func() (any, error) {
		recs, err := r.fetch(ctx, meetingID, reason)
		if err != nil {
			return nil, err
		}
		t.Sync(recs)
		return nil, nil
	})
	return err
}

// Forget drops the meeting's tally from memory. The next Get reloads it.
func (r *Registry) Forget(meetingID string) {
	r.mu.Lock()
	if _, ok := r.tallies[meetingID]; ok {
		delete(r.tallies, meetingID)
		talliesActive.Dec()
	}
	r.mu.Unlock()
}

// Len returns the number of loaded tallies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tallies)
}

func (r *Registry) fetch(ctx context.Context, meetingID, reason string) ([]Record, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.initial
	bo.MaxInterval = 2 * time.Second

	recs, err := backoff.Retry(ctx, func() ([]Record, error) {
		return r.src.Records(ctx, meetingID)
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(r.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.log.Warn().Err(err).
				Str("meeting_id", meetingID).
				Str("reason", reason).
				Dur("retry_in", next).
				Msg("availability fetch failed")
		}),
	)
	if err != nil {
		rederiveTotal.WithLabelValues(reason, "error").Inc()
		r.log.Error().Err(err).Str("meeting_id", meetingID).Str("reason", reason).Msg("re-derivation failed")
		return nil, fmt.Errorf("rederive meeting %s: %w", meetingID, err)
	}
	rederiveTotal.WithLabelValues(reason, "ok").Inc()
	return recs, nil
}
