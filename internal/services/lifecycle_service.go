// Package services – LifecycleService
//
// This file implements the meeting lifecycle controller. A meeting starts
// collecting and moves once, either to scheduled (Finalize) or to cancelled
// (Cancel). The decision is taken in one transaction that first locks the
// meeting row, brings the tally up to date with the persisted records, closes
// it to further updates and writes the new status. Availability writes take
// the same lock, so none can land between the decision and the status write.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/aggregate"
	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/feed"
	"github.com/tbourn/go-meeting-backend/internal/repo"
	"github.com/tbourn/go-meeting-backend/internal/slot"
)

// Schedule is the outcome of a successful Finalize.
type Schedule struct {
	Meeting *domain.Meeting `json:"meeting"`
	Slot    slot.Key        `json:"slot"`
	Count   int             `json:"count"`
}

// LifecycleService owns meeting status transitions.
type LifecycleService struct {
	DB       *gorm.DB
	Tallies  Tallies
	Feed     Publisher
	Notifier Notifier
	Log      zerolog.Logger
}

// NewLifecycleService wires the controller to its collaborators.
func NewLifecycleService(db *gorm.DB, t Tallies, pub Publisher, n Notifier, log zerolog.Logger) *LifecycleService {
	return &LifecycleService{
		DB:       db,
		Tallies:  t,
		Feed:     publisherOrNop(pub),
		Notifier: notifierOrNop(n),
		Log:      log,
	}
}

// Finalize picks the most popular eligible slot of meetingID and schedules
// the meeting on it. Only the owner may finalize, and only while the meeting
// is collecting. Ties go to the earliest slot. Exactly one of several
// concurrent callers succeeds; the others get ErrInvalidState.
//
// The slot is chosen from the records persisted at decision time, with
// availability writes for the meeting held off until the status change
// commits.
func (s *LifecycleService) Finalize(ctx context.Context, meetingID, requesterID string) (*Schedule, error) {
	tr := otel.Tracer("services/LifecycleService")
	ctx, span := tr.Start(ctx, "Finalize",
		trace.WithAttributes(
			attribute.String("meeting.id", meetingID),
			attribute.String("user.id", requesterID),
		),
	)
	defer span.End()

	m, t, err := s.prepare(ctx, meetingID, requesterID)
	if err != nil {
		return nil, err
	}

	var (
		best  slot.Key
		count int
	)
	err = s.decide(ctx, t, m, domain.StatusScheduled, func(tx *gorm.DB) (*slot.Key, error) {
		recs, err := repo.ListRecords(ctx, tx, m.ID)
		if err != nil {
			return nil, err
		}
		t.Sync(recs)
		best, count, err = t.Finalize(m.SlotFilter())
		switch {
		case errors.Is(err, aggregate.ErrClosed):
			return nil, ErrInvalidState
		case errors.Is(err, aggregate.ErrNoEligibleSlot):
			return nil, ErrNoAvailability
		case err != nil:
			return nil, err
		}
		return &best, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("slot", best.String()), attribute.Int("count", count))

	s.announce(ctx, domain.NotifyMeetingScheduled, m)
	return &Schedule{Meeting: m, Slot: best, Count: count}, nil
}

// Cancel abandons meetingID. Same authorization and state rules as Finalize.
func (s *LifecycleService) Cancel(ctx context.Context, meetingID, requesterID string) (*domain.Meeting, error) {
	tr := otel.Tracer("services/LifecycleService")
	ctx, span := tr.Start(ctx, "Cancel",
		trace.WithAttributes(
			attribute.String("meeting.id", meetingID),
			attribute.String("user.id", requesterID),
		),
	)
	defer span.End()

	m, t, err := s.prepare(ctx, meetingID, requesterID)
	if err != nil {
		return nil, err
	}
	err = s.decide(ctx, t, m, domain.StatusCancelled, func(*gorm.DB) (*slot.Key, error) {
		if err := t.Close(); err != nil {
			return nil, ErrInvalidState
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	s.announce(ctx, domain.NotifyMeetingCancelled, m)
	return m, nil
}

// prepare loads the meeting, checks the requester and status, and resolves
// the live tally.
func (s *LifecycleService) prepare(ctx context.Context, meetingID, requesterID string) (*domain.Meeting, *aggregate.Tally, error) {
	if requesterID == "" {
		return nil, nil, ErrUnauthenticated
	}
	m, err := repo.GetMeeting(ctx, s.DB, meetingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrMeetingNotFound
		}
		return nil, nil, storeErr(err)
	}
	if m.OwnerID != requesterID {
		return nil, nil, ErrForbidden
	}
	if m.Status != domain.StatusCollecting {
		return nil, nil, ErrInvalidState
	}
	t, err := s.Tallies.Tally(ctx, meetingID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	return m, t, nil
}

// decide runs the terminal transition of m to status to in one transaction.
// The meeting row is locked first, so no availability write of the meeting
// can commit between choose and the status update. choose closes the tally t
// and returns the chosen slot; a failure after that reopens the tally.
func (s *LifecycleService) decide(ctx context.Context, t *aggregate.Tally, m *domain.Meeting, to domain.MeetingStatus, choose func(tx *gorm.DB) (*slot.Key, error)) error {
	closed := false
	var chosen *slot.Key
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := repo.LockCollectingMeeting(ctx, tx, m.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidState
		}
		if chosen, err = choose(tx); err != nil {
			return err
		}
		closed = true
		moved, err := repo.TransitionMeeting(ctx, tx, m.ID, domain.StatusCollecting, to, chosen)
		if err != nil {
			return err
		}
		if !moved {
			return ErrInvalidState
		}
		return nil
	})
	if err != nil {
		if closed {
			t.Reopen()
		}
		if errors.Is(err, ErrInvalidState) || errors.Is(err, ErrNoAvailability) {
			return err
		}
		return storeErr(err)
	}

	prev := *m
	m.Status = to
	m.ChosenSlot = chosen
	m.UpdatedAt = time.Now().UTC()
	s.Feed.Publish(feed.Change{
		Table:       feed.TableMeetings,
		MeetingID:   m.ID,
		Op:          feed.OpUpdate,
		Old:         &prev,
		New:         m,
		CommittedAt: m.UpdatedAt,
	})
	s.Log.Info().
		Str("meeting_id", m.ID).
		Str("status", string(to)).
		Msg("meeting transitioned")
	return nil
}

// announce notifies the owner and every authenticated participant.
func (s *LifecycleService) announce(ctx context.Context, kind domain.NotificationKind, m *domain.Meeting) {
	users, err := repo.ListParticipantUserIDs(ctx, s.DB, m.ID)
	if err != nil {
		s.Log.Warn().Err(err).Str("meeting_id", m.ID).Msg("list participants for notification")
	}
	s.Notifier.Notify(ctx, kind, m, append([]string{m.OwnerID}, users...)...)
}
