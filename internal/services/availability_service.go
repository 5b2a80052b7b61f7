// Package services – AvailabilityService
//
// This file implements the availability record store: one wholesale-replaced
// slot set per participant. Writes for the same participant are serialized
// in-process and guarded by a per-row version in the database, so the change
// events published after each commit arrive in commit order.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the participant and meeting identifiers.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/feed"
	"github.com/tbourn/go-meeting-backend/internal/repo"
	"github.com/tbourn/go-meeting-backend/internal/slot"
)

// maxWriteAttempts bounds retries of a versioned write that lost to a writer
// in another process. A write replaces the whole record, so re-reading and
// writing again has the same effect as the caller retrying: the last writer
// wins and nothing is applied twice.
const maxWriteAttempts = 3

// AvailabilityService owns the participant → slot set mapping.
type AvailabilityService struct {
	DB       *gorm.DB
	Codec    slot.Codec
	Feed     Publisher
	Notifier Notifier

	locks keyedMutex
}

// NewAvailabilityService wires the store to its codec and collaborators.
func NewAvailabilityService(db *gorm.DB, codec slot.Codec, pub Publisher, n Notifier) *AvailabilityService {
	return &AvailabilityService{DB: db, Codec: codec, Feed: publisherOrNop(pub), Notifier: notifierOrNop(n)}
}

// Upsert replaces participantID's record with the given slots and
// constraints. Slots are parsed with the service codec and deduplicated; an
// empty list is a valid "nothing works" answer.
//
// callerID is the authenticated identity ("" for guests). A participant that
// belongs to a user may only be written by that user; guest participants are
// addressed by their ID. The meeting must still be collecting.
func (s *AvailabilityService) Upsert(ctx context.Context, callerID, participantID string, rawSlots []string, constraints map[string]any) (*domain.Availability, error) {
	tr := otel.Tracer("services/AvailabilityService")
	ctx, span := tr.Start(ctx, "Upsert",
		trace.WithAttributes(
			attribute.String("participant.id", participantID),
			attribute.Int("slots", len(rawSlots)),
		),
	)
	defer span.End()

	keys, err := s.Codec.ParseAll(rawSlots)
	if err != nil {
		return nil, invalid("slots", slotMessage(err))
	}

	m, err := s.writable(ctx, callerID, participantID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("meeting.id", m.ID))

	unlock := s.locks.Lock(participantID)
	defer unlock()

	prev, next, err := s.write(ctx, m.ID, participantID, func(tx *gorm.DB, cur *domain.Availability) (*domain.Availability, error) {
		return repo.SaveAvailability(ctx, tx, participantID, cur, keys, constraints)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	op := feed.OpUpdate
	if prev == nil {
		op = feed.OpInsert
	}
	s.publish(m.ID, op, prev, next)
	s.Notifier.Notify(ctx, domain.NotifyAvailabilityUpdated, m, m.OwnerID)
	return next, nil
}

// Withdraw removes participantID's answer so the participant counts as
// never having responded. It fails with ErrAvailabilityNotFound when there
// is nothing to withdraw.
func (s *AvailabilityService) Withdraw(ctx context.Context, callerID, participantID string) error {
	tr := otel.Tracer("services/AvailabilityService")
	ctx, span := tr.Start(ctx, "Withdraw",
		trace.WithAttributes(attribute.String("participant.id", participantID)),
	)
	defer span.End()

	m, err := s.writable(ctx, callerID, participantID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(participantID)
	defer unlock()

	prev, next, err := s.write(ctx, m.ID, participantID, func(tx *gorm.DB, cur *domain.Availability) (*domain.Availability, error) {
		if !cur.Live() {
			return nil, ErrAvailabilityNotFound
		}
		return repo.WithdrawAvailability(ctx, tx, cur)
	})
	if err != nil {
		return err
	}

	s.publish(m.ID, feed.OpUpdate, prev, next)
	s.Notifier.Notify(ctx, domain.NotifyAvailabilityUpdated, m, m.OwnerID)
	return nil
}

// Get returns the participant's live record.
func (s *AvailabilityService) Get(ctx context.Context, participantID string) (*domain.Availability, error) {
	a, err := repo.GetAvailability(ctx, s.DB, participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if _, perr := repo.GetParticipant(ctx, s.DB, participantID); errors.Is(perr, gorm.ErrRecordNotFound) {
				return nil, ErrParticipantNotFound
			}
			return nil, ErrAvailabilityNotFound
		}
		return nil, storeErr(err)
	}
	return a, nil
}

// ListForMeeting returns every live record of the meeting's participants,
// ordered by join time. Records with an empty slot set are included.
func (s *AvailabilityService) ListForMeeting(ctx context.Context, meetingID string) ([]domain.Availability, error) {
	tr := otel.Tracer("services/AvailabilityService")
	ctx, span := tr.Start(ctx, "ListForMeeting",
		trace.WithAttributes(attribute.String("meeting.id", meetingID)),
	)
	defer span.End()

	if _, err := repo.GetMeeting(ctx, s.DB, meetingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, storeErr(err)
	}
	out, err := repo.ListAvailabilityForMeeting(ctx, s.DB, meetingID, false)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// Stats reports the record count and latest change of a meeting's
// availability, for conditional responses.
func (s *AvailabilityService) Stats(ctx context.Context, meetingID string) (int64, *time.Time, error) {
	n, at, err := repo.AvailabilityStats(ctx, s.DB, meetingID)
	if err != nil {
		return 0, nil, storeErr(err)
	}
	return n, at, nil
}

// writable loads the participant and its meeting and checks that callerID
// may write the participant's availability now.
func (s *AvailabilityService) writable(ctx context.Context, callerID, participantID string) (*domain.Meeting, error) {
	p, err := repo.GetParticipant(ctx, s.DB, participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, storeErr(err)
	}
	if p.UserID != nil && *p.UserID != callerID {
		return nil, ErrForbidden
	}
	m, err := repo.GetMeeting(ctx, s.DB, p.MeetingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, storeErr(err)
	}
	if m.Status != domain.StatusCollecting {
		return nil, ErrInvalidState
	}
	return m, nil
}

// write runs fn in a transaction over the participant's current row
// (tombstones included, nil when none) and retries when another writer
// committed first. The transaction holds the meeting lock and fails with
// ErrInvalidState once the meeting stopped collecting. It returns the row
// before and after the write.
func (s *AvailabilityService) write(ctx context.Context, meetingID, participantID string, fn func(tx *gorm.DB, cur *domain.Availability) (*domain.Availability, error)) (prev, next *domain.Availability, err error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			open, err := repo.LockCollectingMeeting(ctx, tx, meetingID)
			if err != nil {
				return err
			}
			if !open {
				return ErrInvalidState
			}
			cur, err := repo.GetAvailabilityAny(ctx, tx, participantID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				cur, err = nil, nil
			}
			if err != nil {
				return err
			}
			saved, err := fn(tx, cur)
			if err != nil {
				return err
			}
			prev, next = cur, saved
			return nil
		})
		if !errors.Is(err, repo.ErrStale) && !errors.Is(err, repo.ErrDuplicate) {
			break
		}
	}
	switch {
	case err == nil:
		return prev, next, nil
	case errors.Is(err, ErrAvailabilityNotFound), errors.Is(err, ErrInvalidState):
		return nil, nil, err
	default:
		return nil, nil, storeErr(err)
	}
}

func (s *AvailabilityService) publish(meetingID string, op feed.Op, prev, next *domain.Availability) {
	ch := feed.Change{
		Table:       feed.TableAvailability,
		MeetingID:   meetingID,
		Op:          op,
		New:         next,
		CommittedAt: time.Now().UTC(),
	}
	if prev != nil {
		ch.Old = prev
	}
	s.Feed.Publish(ch)
}
