package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/feed"
	"github.com/tbourn/go-meeting-backend/internal/repo"
	"github.com/tbourn/go-meeting-backend/internal/slot"
)

func newAvailabilityService(t *testing.T) (*AvailabilityService, *recordingPublisher, *recordingNotifier) {
	t.Helper()
	pub, n := &recordingPublisher{}, &recordingNotifier{}
	s := NewAvailabilityService(newServiceDB(t), slot.MustCodec(slot.DefaultGranularity, true), pub, n)
	return s, pub, n
}

func TestUpsert_InsertThenReplace(t *testing.T) {
	s, pub, n := newAvailabilityService(t)
	ctx := context.Background()
	m := createMeeting(t, s.DB, "owner", nil)
	p := joinUser(t, s.DB, m.ID, "u1")

	a1, err := s.Upsert(ctx, "u1", p.ID, []string{at(9, 15), at(9, 0), at(9, 15)}, map[string]any{"note": "mornings"})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if a1.Version != 1 || !a1.Slots.Equal(slot.NewSet(key(9, 0), key(9, 15))) {
		t.Fatalf("unexpected record %+v", a1)
	}

	a2, err := s.Upsert(ctx, "u1", p.ID, []string{at(10, 0)}, nil)
	if err != nil || a2.Version != 2 || !a2.Slots.Equal(slot.NewSet(key(10, 0))) {
		t.Fatalf("replace = (%+v, %v)", a2, err)
	}

	changes := pub.all()
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].Op != feed.OpInsert || changes[0].Old != nil || changes[0].MeetingID != m.ID {
		t.Fatalf("first change = %+v", changes[0])
	}
	old, _ := changes[1].Old.(*domain.Availability)
	if changes[1].Op != feed.OpUpdate || old == nil || old.Version != 1 {
		t.Fatalf("second change = %+v", changes[1])
	}
	ev, ok := feed.EventFor(changes[1])
	if !ok || ev.Version != 2 || !ev.Previous.Slots.Equal(a1.Slots) || !ev.Current.Slots.Equal(a2.Slots) {
		t.Fatalf("event = %+v", ev)
	}

	if kinds := n.kinds(); len(kinds) != 2 || kinds[0] != domain.NotifyAvailabilityUpdated {
		t.Fatalf("notifications = %v", kinds)
	}
	if n.calls[0].recipients[0] != "owner" {
		t.Fatalf("recipients = %v", n.calls[0].recipients)
	}
}

func TestUpsert_EmptySetIsARecord(t *testing.T) {
	s, _, _ := newAvailabilityService(t)
	ctx := context.Background()
	m := createMeeting(t, s.DB, "owner", nil)
	p := joinUser(t, s.DB, m.ID, "u1")

	if _, err := s.Upsert(ctx, "u1", p.ID, nil, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.Get(ctx, p.ID)
	if err != nil || len(got.Slots) != 0 {
		t.Fatalf("Get = (%+v, %v)", got, err)
	}
	list, err := s.ListForMeeting(ctx, m.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListForMeeting = (%+v, %v)", list, err)
	}
}

func TestUpsert_Rejections(t *testing.T) {
	s, pub, _ := newAvailabilityService(t)
	ctx := context.Background()
	m := createMeeting(t, s.DB, "owner", nil)
	p := joinUser(t, s.DB, m.ID, "u1")

	_, err := s.Upsert(ctx, "u1", p.ID, []string{at(9, 0), "2025-01-15T09:07:00Z"}, nil)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "slots" {
		t.Fatalf("expected slots validation error, got %v", err)
	}
	if _, err := s.Upsert(ctx, "u1", p.ID, []string{"tomorrow"}, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := s.Upsert(ctx, "u1", "missing", []string{at(9, 0)}, nil); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
	if _, err := s.Upsert(ctx, "someone-else", p.ID, []string{at(9, 0)}, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := s.Upsert(ctx, "", p.ID, []string{at(9, 0)}, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("guest caller on a user participant should be forbidden, got %v", err)
	}

	if _, err := repo.TransitionMeeting(ctx, s.DB, m.ID, domain.StatusCollecting, domain.StatusCancelled, nil); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := s.Upsert(ctx, "u1", p.ID, []string{at(9, 0)}, nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if len(pub.all()) != 0 {
		t.Fatal("rejected writes must not publish")
	}
}

func TestUpsert_GuestParticipantByID(t *testing.T) {
	s, _, _ := newAvailabilityService(t)
	m := createMeeting(t, s.DB, "owner", nil)
	g := joinGuest(t, s.DB, m.ID, "Ann")

	if _, err := s.Upsert(context.Background(), "", g.ID, []string{at(9, 0)}, nil); err != nil {
		t.Fatalf("guest upsert: %v", err)
	}
}

func TestWithdraw(t *testing.T) {
	s, pub, _ := newAvailabilityService(t)
	ctx := context.Background()
	m := createMeeting(t, s.DB, "owner", nil)
	p := joinUser(t, s.DB, m.ID, "u1")

	if err := s.Withdraw(ctx, "u1", p.ID); !errors.Is(err, ErrAvailabilityNotFound) {
		t.Fatalf("withdraw before any answer: %v", err)
	}
	if _, err := s.Upsert(ctx, "u1", p.ID, []string{at(9, 0)}, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Withdraw(ctx, "u1", p.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := s.Get(ctx, p.ID); !errors.Is(err, ErrAvailabilityNotFound) {
		t.Fatalf("expected ErrAvailabilityNotFound after withdraw, got %v", err)
	}
	if err := s.Withdraw(ctx, "u1", p.ID); !errors.Is(err, ErrAvailabilityNotFound) {
		t.Fatalf("second withdraw: %v", err)
	}

	changes := pub.all()
	ev, ok := feed.EventFor(changes[len(changes)-1])
	if !ok || ev.Current.Present || !ev.Previous.Present || ev.Version != 2 {
		t.Fatalf("withdraw event = %+v", ev)
	}

	// Answering again revives the record with the next version.
	a, err := s.Upsert(ctx, "u1", p.ID, []string{at(9, 30)}, nil)
	if err != nil || a.Version != 3 {
		t.Fatalf("re-answer = (%+v, %v)", a, err)
	}
}

func TestGet_DistinguishesMissingParticipant(t *testing.T) {
	s, _, _ := newAvailabilityService(t)
	m := createMeeting(t, s.DB, "owner", nil)
	p := joinUser(t, s.DB, m.ID, "u1")

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
	if _, err := s.Get(context.Background(), p.ID); !errors.Is(err, ErrAvailabilityNotFound) {
		t.Fatalf("expected ErrAvailabilityNotFound, got %v", err)
	}
	if _, err := s.ListForMeeting(context.Background(), "missing"); !errors.Is(err, ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}
}

func TestUpsert_ConcurrentWritesPublishInCommitOrder(t *testing.T) {
	s, pub, _ := newAvailabilityService(t)
	m := createMeeting(t, s.DB, "owner", nil)
	p := joinUser(t, s.DB, m.ID, "u1")

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Upsert(context.Background(), "u1", p.ID, []string{at(9, 15*(i%4))}, nil)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	changes := pub.all()
	if len(changes) != writers {
		t.Fatalf("expected %d changes, got %d", writers, len(changes))
	}
	var prevVersion int64
	for i, ch := range changes {
		ev, _ := feed.EventFor(ch)
		if ev.Version != prevVersion+1 {
			t.Fatalf("change %d has version %d after %d", i, ev.Version, prevVersion)
		}
		if i > 0 {
			old := ch.Old.(*domain.Availability)
			if old.Version != prevVersion {
				t.Fatalf("change %d old version %d, want %d", i, old.Version, prevVersion)
			}
		}
		prevVersion = ev.Version
	}
	if s.locks.size() != 0 {
		t.Fatalf("participant locks leaked: %d", s.locks.size())
	}
}

func TestWrite_ReplaysWholeReplaceAfterLosingVersionCheck(t *testing.T) {
	s, _, _ := newAvailabilityService(t)
	ctx := context.Background()
	m := createMeeting(t, s.DB, "owner", nil)
	p := joinUser(t, s.DB, m.ID, "u1")
	if _, err := s.Upsert(ctx, "u1", p.ID, []string{at(9, 0)}, nil); err != nil {
		t.Fatal(err)
	}

	attempts := 0
	prev, next, err := s.write(ctx, m.ID, p.ID, func(tx *gorm.DB, cur *domain.Availability) (*domain.Availability, error) {
		attempts++
		if attempts == 1 {
			return nil, repo.ErrStale
		}
		return repo.SaveAvailability(ctx, tx, p.ID, cur, slot.NewSet(key(10, 0)), nil)
	})
	if err != nil || attempts != 2 {
		t.Fatalf("write = (%v) after %d attempts", err, attempts)
	}
	if prev.Version != 1 || next.Version != 2 || !next.Slots.Equal(slot.NewSet(key(10, 0))) {
		t.Fatalf("prev=%+v next=%+v", prev, next)
	}

	attempts = 0
	_, _, err = s.write(ctx, m.ID, p.ID, func(*gorm.DB, *domain.Availability) (*domain.Availability, error) {
		attempts++
		return nil, repo.ErrStale
	})
	if !errors.Is(err, ErrStoreUnavailable) || attempts != maxWriteAttempts {
		t.Fatalf("persistent conflict = (%v) after %d attempts", err, attempts)
	}
	stored, _ := repo.GetAvailability(ctx, s.DB, p.ID)
	if stored.Version != 2 {
		t.Fatalf("stored version = %d, want 2", stored.Version)
	}
}
