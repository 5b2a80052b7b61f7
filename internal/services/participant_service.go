// Package services – ParticipantService
//
// This file implements ParticipantService, which registers people against a
// meeting. Joining is idempotent: an authenticated user or a guest name maps
// to at most one participant per meeting, and joining twice returns the row
// created the first time.
package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/feed"
	"github.com/tbourn/go-meeting-backend/internal/repo"
)

// ParticipantService implements the join use-case.
type ParticipantService struct {
	// DB is the database handle used for all participant operations.
	DB *gorm.DB
	// Feed receives a participants insert after each new join.
	Feed Publisher

	// GuestNameMaxLen caps guest display names by rune length.
	GuestNameMaxLen int
}

// NewParticipantService constructs a ParticipantService with defaults.
func NewParticipantService(db *gorm.DB, pub Publisher) *ParticipantService {
	return &ParticipantService{DB: db, Feed: publisherOrNop(pub), GuestNameMaxLen: 120}
}

// Join adds the caller to meetingID. An authenticated caller (userID set)
// joins as themselves and guestName is ignored; otherwise guestName is
// required. created reports whether a new participant was stored. New
// participants are only accepted while the meeting is collecting.
func (s *ParticipantService) Join(ctx context.Context, meetingID, userID, guestName string) (p *domain.Participant, created bool, err error) {
	var uid, guest *string
	if userID != "" {
		uid = &userID
	} else {
		name := normalizeText(guestName)
		switch {
		case name == "":
			return nil, false, invalid("guest_name", "is required without an authenticated user")
		case s.GuestNameMaxLen > 0 && utf8.RuneCountInString(name) > s.GuestNameMaxLen:
			return nil, false, invalid("guest_name", "is too long")
		}
		guest = &name
	}

	m, err := repo.GetMeeting(ctx, s.DB, meetingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrMeetingNotFound
		}
		return nil, false, storeErr(err)
	}

	if existing, err := repo.FindParticipant(ctx, s.DB, meetingID, uid, guest); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, storeErr(err)
	}

	if m.Status != domain.StatusCollecting {
		return nil, false, ErrInvalidState
	}

	p, err = repo.CreateParticipant(ctx, s.DB, meetingID, uid, guest)
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent join won the insert.
		existing, ferr := repo.FindParticipant(ctx, s.DB, meetingID, uid, guest)
		if ferr != nil {
			return nil, false, storeErr(ferr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, storeErr(err)
	}

	s.Feed.Publish(feed.Change{
		Table:       feed.TableParticipants,
		MeetingID:   meetingID,
		Op:          feed.OpInsert,
		New:         p,
		CommittedAt: time.Now().UTC(),
	})
	return p, true, nil
}

// Get returns the participant with the given ID.
func (s *ParticipantService) Get(ctx context.Context, id string) (*domain.Participant, error) {
	p, err := repo.GetParticipant(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, storeErr(err)
	}
	return p, nil
}
