// Package notify delivers best-effort user notifications. Producers enqueue
// without blocking; a background loop writes queued notifications in batches.
// A full queue or a failed batch loses notifications, never the caller's
// operation.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-meeting-backend/internal/domain"
)

// Writer persists a batch of notifications and returns the number stored.
type Writer interface {
	InsertNotifications(ctx context.Context, batch []domain.Notification) (int64, error)
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(ctx context.Context, batch []domain.Notification) (int64, error)

// InsertNotifications implements Writer.
func (f WriterFunc) InsertNotifications(ctx context.Context, batch []domain.Notification) (int64, error) {
	return f(ctx, batch)
}

var dispatched = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notifications by outcome (stored, dropped, failed).",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(dispatched)
}

// Options sizes the dispatcher.
type Options struct {
	QueueSize    int
	BatchMaxSize int
	BatchMaxWait time.Duration
	Logger       zerolog.Logger
	Now          func() time.Time
}

// Dispatcher queues notifications and flushes them on size or time.
type Dispatcher struct {
	queue        chan domain.Notification
	writer       Writer
	batchMaxSize int
	batchMaxWait time.Duration
	log          zerolog.Logger
	now          func() time.Time

	startOnce sync.Once
	done      chan struct{}
}

// NewDispatcher returns a stopped dispatcher; call Start to run it.
func NewDispatcher(w Writer, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.BatchMaxSize <= 0 {
		opts.BatchMaxSize = 100
	}
	if opts.BatchMaxWait <= 0 {
		opts.BatchMaxWait = time.Second
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Dispatcher{
		queue:        make(chan domain.Notification, opts.QueueSize),
		writer:       w,
		batchMaxSize: opts.BatchMaxSize,
		batchMaxWait: opts.BatchMaxWait,
		log:          opts.Logger,
		now:          opts.Now,
		done:         make(chan struct{}),
	}
}

// Start runs the flush loop until ctx is cancelled. The pending batch is
// flushed on the way out; Done is closed afterwards.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() { go d.loop(ctx) })
}

// Done is closed once the loop has exited.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

func (d *Dispatcher) loop(ctx context.Context) {
	defer close(d.done)

	batch := make([]domain.Notification, 0, d.batchMaxSize)
	t := time.NewTimer(d.batchMaxWait)
	defer t.Stop()

	resetTimer := func() {
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		t.Reset(d.batchMaxWait)
	}

	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			resetTimer()
			return
		}
		n, err := d.writer.InsertNotifications(ctx, batch)
		if err != nil {
			dispatched.WithLabelValues("failed").Add(float64(len(batch)))
			d.log.Error().Err(err).Int("dropped", len(batch)).Msg("notification batch insert failed")
		} else {
			dispatched.WithLabelValues("stored").Add(float64(n))
			d.log.Debug().Int64("inserted", n).Int("size", len(batch)).Msg("notification batch stored")
		}
		batch = batch[:0]
		resetTimer()
	}

	for {
		select {
		case <-ctx.Done():
			// Drain what is already queued, then write it with a fresh deadline.
		drain:
			for {
				select {
				case n := <-d.queue:
					batch = append(batch, n)
				default:
					break drain
				}
			}
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			flush(fctx)
			cancel()
			return
		case n := <-d.queue:
			batch = append(batch, n)
			if len(batch) >= d.batchMaxSize {
				flush(ctx)
			}
		case <-t.C:
			flush(ctx)
		}
	}
}

// Enqueue queues n without blocking. Missing IDs and timestamps are filled
// in. It reports false when the queue is full and n was dropped.
func (d *Dispatcher) Enqueue(n domain.Notification) bool {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.now()
	}
	select {
	case d.queue <- n:
		return true
	default:
		dispatched.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("user_id", n.UserID).Str("kind", string(n.Kind)).Msg("notification queue full, dropping")
		return false
	}
}

// Notify enqueues one notification of kind about m for every recipient.
// Duplicate and empty recipients are skipped.
func (d *Dispatcher) Notify(ctx context.Context, kind domain.NotificationKind, m *domain.Meeting, recipients ...string) {
	seen := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		title, msg := Compose(kind, m)
		d.Enqueue(domain.Notification{
			UserID:    r,
			MeetingID: m.ID,
			Kind:      kind,
			Title:     title,
			Message:   msg,
		})
	}
}
