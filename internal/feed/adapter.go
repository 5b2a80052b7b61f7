package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-meeting-backend/internal/aggregate"
	"github.com/tbourn/go-meeting-backend/internal/domain"
)

// ErrAdapterClosed is returned once Close has been called.
var ErrAdapterClosed = errors.New("change feed adapter closed")

// Directory resolves the data the adapter needs to scope the feed to one
// meeting.
type Directory interface {
	ParticipantIDs(ctx context.Context, meetingID string) ([]string, error)
	Meeting(ctx context.Context, meetingID string) (*domain.Meeting, error)
}

// Options tunes an Adapter.
type Options struct {
	// IdleTTL stops following a meeting that has had no viewers and no
	// callers for this long. Zero keeps watchers forever.
	IdleTTL time.Duration
	// ViewerBuffer is the per-viewer update queue length.
	ViewerBuffer int
	Logger       zerolog.Logger
}

// Adapter follows the change feed for each meeting someone is interested in.
// Each meeting gets a single goroutine, so events for a meeting are applied
// in the order the hub delivered them.
type Adapter struct {
	hub       *Hub
	reg       *aggregate.Registry
	dir       Directory
	log       zerolog.Logger
	idleTTL   time.Duration
	viewerBuf int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	watchers map[string]*watcher
}

// NewAdapter builds an adapter over hub that keeps reg up to date.
func NewAdapter(hub *Hub, reg *aggregate.Registry, dir Directory, opts Options) *Adapter {
	ctx, cancel := context.WithCancel(context.Background())
	if opts.ViewerBuffer <= 0 {
		opts.ViewerBuffer = 16
	}
	return &Adapter{
		hub:       hub,
		reg:       reg,
		dir:       dir,
		log:       opts.Logger,
		idleTTL:   opts.IdleTTL,
		viewerBuf: opts.ViewerBuffer,
		ctx:       ctx,
		cancel:    cancel,
		watchers:  make(map[string]*watcher),
	}
}

// Watch makes sure the meeting is followed and its tally is initialized.
func (a *Adapter) Watch(ctx context.Context, meetingID string) error {
	_, err := a.watch(ctx, meetingID)
	return err
}

// Tally returns the live tally of a followed meeting.
func (a *Adapter) Tally(ctx context.Context, meetingID string) (*aggregate.Tally, error) {
	if _, err := a.watch(ctx, meetingID); err != nil {
		return nil, err
	}
	return a.reg.Get(ctx, meetingID)
}

// Subscribe attaches a viewer to the meeting. The first update on the
// viewer's channel is the current state.
func (a *Adapter) Subscribe(ctx context.Context, meetingID string) (*Viewer, error) {
	for {
		w, err := a.watch(ctx, meetingID)
		if err != nil {
			return nil, err
		}
		if v, ok := w.addViewer(a.viewerBuf); ok {
			return v, nil
		}
		// The watcher stopped between watch and addViewer; start a new one.
	}
}

// Watching returns the number of followed meetings.
func (a *Adapter) Watching() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.watchers)
}

// Close stops every watcher and closes all viewers.
func (a *Adapter) Close() {
	a.cancel()
	a.wg.Wait()
}

func (a *Adapter) watch(ctx context.Context, meetingID string) (*watcher, error) {
	a.mu.Lock()
	if a.ctx.Err() != nil {
		a.mu.Unlock()
		return nil, ErrAdapterClosed
	}
	w, ok := a.watchers[meetingID]
	if !ok {
		w = &watcher{
			a:          a,
			meetingID:  meetingID,
			log:        a.log.With().Str("meeting_id", meetingID).Logger(),
			sub:        a.hub.Subscribe(),
			ready:      make(chan struct{}),
			members:    make(map[string]struct{}),
			viewers:    make(map[*Viewer]struct{}),
			lastActive: time.Now(),
		}
		a.watchers[meetingID] = w
		watchersActive.Inc()
		a.wg.Add(1)
		go w.run(a.ctx)
	}
	a.mu.Unlock()

	select {
	case <-w.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if w.err != nil {
		return nil, w.err
	}
	w.touch()
	return w, nil
}

// dropLocked unregisters w if it is still the current watcher for its meeting.
// Callers hold a.mu.
func (a *Adapter) dropLocked(w *watcher) {
	if cur, ok := a.watchers[w.meetingID]; ok && cur == w {
		delete(a.watchers, w.meetingID)
		watchersActive.Dec()
	}
}

type watcher struct {
	a         *Adapter
	meetingID string
	log       zerolog.Logger
	sub       *Subscription

	ready chan struct{}
	err   error // set before ready is closed

	// Owned by the run goroutine.
	members map[string]struct{}
	dirty   bool

	mu         sync.Mutex
	meeting    *domain.Meeting
	viewers    map[*Viewer]struct{}
	lastActive time.Time
	stopped    bool
}

func (w *watcher) run(ctx context.Context) {
	defer w.a.wg.Done()

	if err := w.init(ctx); err != nil {
		w.err = err
		w.a.mu.Lock()
		w.a.dropLocked(w)
		w.a.mu.Unlock()
		w.sub.Close()
		close(w.ready)
		return
	}
	close(w.ready)

	tick := time.NewTicker(w.tickEvery())
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			w.shutdown()
			return
		case ch, ok := <-w.sub.C():
			if !ok {
				return
			}
			w.handle(ctx, ch)
			if w.sub.Lagged() {
				w.resync(ctx, aggregate.ReasonLagged)
			}
		case <-tick.C:
			if w.sub.Lagged() || w.dirty {
				w.resync(ctx, aggregate.ReasonLagged)
			}
			if w.reapIfIdle() {
				return
			}
		}
	}
}

func (w *watcher) tickEvery() time.Duration {
	d := w.a.idleTTL / 2
	if d <= 0 || d > 30*time.Second {
		d = 30 * time.Second
	}
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

// init runs after the hub subscription exists, so nothing committed after
// the fetch below can be missed; anything committed before it and also
// delivered by the hub is dropped as a duplicate by the tally.
func (w *watcher) init(ctx context.Context) error {
	if err := w.resolve(ctx); err != nil {
		return err
	}
	m, err := w.a.dir.Meeting(ctx, w.meetingID)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.meeting = m
	w.mu.Unlock()

	if err := w.a.reg.Rederive(ctx, w.meetingID, aggregate.ReasonWatch); err != nil {
		return err
	}
	if m.Status != domain.StatusCollecting {
		if t, ok := w.a.reg.Peek(w.meetingID); ok {
			_ = t.Close()
		}
	}
	w.log.Debug().Int("participants", len(w.members)).Msg("watching meeting")
	return nil
}

func (w *watcher) resolve(ctx context.Context) error {
	ids, err := w.a.dir.ParticipantIDs(ctx, w.meetingID)
	if err != nil {
		return err
	}
	members := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}
	w.members = members
	return nil
}

func (w *watcher) handle(ctx context.Context, ch Change) {
	switch ch.Table {
	case TableAvailability:
		w.handleAvailability(ctx, ch)
	case TableParticipants:
		w.handleParticipant(ctx, ch)
	case TableMeetings:
		w.handleMeeting(ch)
	}
}

func (w *watcher) handleAvailability(ctx context.Context, ch Change) {
	ev, ok := EventFor(ch)
	if !ok {
		return
	}
	if ch.MeetingID != "" && ch.MeetingID != w.meetingID {
		return
	}
	if _, ok := w.members[ev.ParticipantID]; !ok {
		if ch.MeetingID == "" {
			return
		}
		// The participant joined after the last resolution.
		if err := w.resolve(ctx); err != nil {
			w.log.Warn().Err(err).Msg("participant resolution failed")
			w.dirty = true
			return
		}
		if _, ok := w.members[ev.ParticipantID]; !ok {
			return
		}
	}
	if err := w.a.reg.Apply(ctx, w.meetingID, ev); err != nil {
		w.log.Error().Err(err).Str("participant_id", ev.ParticipantID).Msg("apply availability change")
		w.dirty = true
		return
	}
	w.broadcast(UpdateTally)
}

func (w *watcher) handleParticipant(ctx context.Context, ch Change) {
	p, _ := ch.New.(*domain.Participant)
	if p == nil {
		p, _ = ch.Old.(*domain.Participant)
	}
	if p == nil || p.MeetingID != w.meetingID {
		return
	}
	if ch.Op == OpInsert {
		w.members[p.ID] = struct{}{}
		return
	}
	if err := w.resolve(ctx); err != nil {
		w.log.Warn().Err(err).Msg("participant resolution failed")
		w.dirty = true
		return
	}
	w.resync(ctx, aggregate.ReasonMembership)
}

func (w *watcher) handleMeeting(ch Change) {
	m, _ := ch.New.(*domain.Meeting)
	if m == nil || m.ID != w.meetingID {
		return
	}
	w.mu.Lock()
	w.meeting = m
	w.mu.Unlock()
	if m.Status != domain.StatusCollecting {
		if t, ok := w.a.reg.Peek(w.meetingID); ok {
			_ = t.Close()
		}
	}
	w.broadcast(UpdateMeeting)
}

func (w *watcher) resync(ctx context.Context, reason string) {
	if err := w.a.reg.Rederive(ctx, w.meetingID, reason); err != nil {
		w.log.Error().Err(err).Str("reason", reason).Msg("resync failed")
		w.dirty = true
		return
	}
	w.dirty = false
	w.broadcast(UpdateResync)
}

func (w *watcher) view() View {
	var snap aggregate.Snapshot
	if t, ok := w.a.reg.Peek(w.meetingID); ok {
		snap = t.Snapshot()
	}
	w.mu.Lock()
	m := w.meeting
	w.mu.Unlock()
	return BuildView(snap, m)
}

func (w *watcher) broadcast(kind UpdateKind) {
	u := Update{Kind: kind, View: w.view()}
	w.mu.Lock()
	defer w.mu.Unlock()
	for v := range w.viewers {
		v.offer(u)
	}
}

func (w *watcher) touch() {
	w.mu.Lock()
	w.lastActive = time.Now()
	w.mu.Unlock()
}

func (w *watcher) addViewer(buffer int) (*Viewer, bool) {
	first := Update{Kind: UpdateTally, View: w.view()}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil, false
	}
	v := &Viewer{w: w, ch: make(chan Update, buffer)}
	w.viewers[v] = struct{}{}
	w.lastActive = time.Now()
	viewersActive.Inc()
	v.offer(first)
	return v, true
}

func (w *watcher) removeViewer(v *Viewer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.viewers[v]; !ok {
		return
	}
	delete(w.viewers, v)
	close(v.ch)
	viewersActive.Dec()
	w.lastActive = time.Now()
}

func (w *watcher) reapIfIdle() bool {
	if w.a.idleTTL <= 0 {
		return false
	}
	w.a.mu.Lock()
	defer w.a.mu.Unlock()
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.viewers) > 0 || time.Since(w.lastActive) < w.a.idleTTL {
		return false
	}
	w.stopped = true
	w.a.dropLocked(w)
	w.sub.Close()
	w.a.reg.Forget(w.meetingID)
	w.log.Debug().Msg("stopped watching idle meeting")
	return true
}

func (w *watcher) shutdown() {
	w.a.mu.Lock()
	w.a.dropLocked(w)
	w.a.mu.Unlock()

	w.mu.Lock()
	w.stopped = true
	for v := range w.viewers {
		delete(w.viewers, v)
		close(v.ch)
		viewersActive.Dec()
	}
	w.mu.Unlock()
	w.sub.Close()
}

// EventFor converts an availability row change into an aggregator event.
// A soft-deleted New row reads as a withdrawal.
func EventFor(ch Change) (aggregate.Event, bool) {
	oldRow, _ := ch.Old.(*domain.Availability)
	newRow, _ := ch.New.(*domain.Availability)
	ev := aggregate.Event{Previous: stateOf(oldRow), Current: stateOf(newRow)}
	switch {
	case newRow != nil:
		ev.ParticipantID, ev.Version = newRow.ParticipantID, newRow.Version
	case oldRow != nil:
		ev.ParticipantID = oldRow.ParticipantID
	default:
		return ev, false
	}
	return ev, true
}

func stateOf(a *domain.Availability) aggregate.State {
	if !a.Live() {
		return aggregate.Absent
	}
	return aggregate.Present(a.Slots)
}
