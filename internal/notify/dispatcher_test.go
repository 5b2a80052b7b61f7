package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/slot"
)

type captureWriter struct {
	mu      sync.Mutex
	batches [][]domain.Notification
	err     error
}

func (w *captureWriter) InsertNotifications(ctx context.Context, batch []domain.Notification) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return 0, w.err
	}
	w.batches = append(w.batches, append([]domain.Notification(nil), batch...))
	return int64(len(batch)), nil
}

func (w *captureWriter) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func TestDispatcher_FlushesOnBatchSize(t *testing.T) {
	w := &captureWriter{}
	d := NewDispatcher(w, Options{QueueSize: 10, BatchMaxSize: 2, BatchMaxWait: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	m := &domain.Meeting{ID: "m1", Title: "Standup"}
	d.Notify(ctx, domain.NotifyMeetingCreated, m, "u1", "u2")

	deadline := time.Now().Add(2 * time.Second)
	for w.total() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if w.total() != 2 {
		t.Fatalf("stored = %d; want 2", w.total())
	}
	got := w.batches[0][0]
	if got.ID == "" || got.CreatedAt.IsZero() || got.MeetingID != "m1" || got.Kind != domain.NotifyMeetingCreated {
		t.Fatalf("unexpected notification %+v", got)
	}
}

func TestDispatcher_FlushesOnShutdown(t *testing.T) {
	w := &captureWriter{}
	d := NewDispatcher(w, Options{BatchMaxSize: 100, BatchMaxWait: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	m := &domain.Meeting{ID: "m1", Title: "Retro"}
	d.Notify(ctx, domain.NotifyMeetingCancelled, m, "u1", "u1", "", "u2")
	cancel()
	<-d.Done()

	if w.total() != 2 {
		t.Fatalf("stored = %d; want 2 (duplicates and blanks skipped)", w.total())
	}
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	d := NewDispatcher(&captureWriter{}, Options{QueueSize: 1})
	if !d.Enqueue(domain.Notification{UserID: "u1"}) {
		t.Fatal("first enqueue should fit")
	}
	if d.Enqueue(domain.Notification{UserID: "u2"}) {
		t.Fatal("second enqueue should be dropped on a full queue")
	}
}

func TestDispatcher_WriterFailureIsSwallowed(t *testing.T) {
	w := &captureWriter{err: errors.New("db down")}
	d := NewDispatcher(w, Options{BatchMaxSize: 1, BatchMaxWait: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	d.Enqueue(domain.Notification{UserID: "u1"})
	cancel()
	<-d.Done()
	if w.total() != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestCompose(t *testing.T) {
	k := slot.KeyOf(time.Date(2025, 1, 15, 9, 15, 0, 0, time.UTC))
	m := &domain.Meeting{Title: "Planning", ChosenSlot: &k}
	title, msg := Compose(domain.NotifyMeetingScheduled, m)
	if title != "Meeting Scheduled" || !strings.Contains(msg, "2025-01-15T09:15:00Z") {
		t.Fatalf("compose = %q / %q", title, msg)
	}
	if _, msg := Compose(domain.NotifyAvailabilityUpdated, m); !strings.Contains(msg, `"Planning"`) {
		t.Fatalf("availability message = %q", msg)
	}
}
