// Package services – MeetingService
//
// This file implements MeetingService, which creates meetings and serves
// them back to their organizers. It validates and normalizes the organizer's
// input and coordinates repository operations. Status transitions are not
// handled here; they belong to LifecycleService.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/slot"
)

// MeetingRepo defines the repository contract required by MeetingService.
type MeetingRepo interface {
	// CreateMeeting inserts m, filling in its ID and timestamps.
	CreateMeeting(ctx context.Context, db *gorm.DB, m *domain.Meeting) error

	// GetMeeting fetches a meeting by ID.
	GetMeeting(ctx context.Context, db *gorm.DB, id string) (*domain.Meeting, error)

	// CountMeetings returns the number of meetings owned by ownerID.
	CountMeetings(ctx context.Context, db *gorm.DB, ownerID string) (int64, error)

	// ListMeetingsPage returns a page of ownerID's meetings.
	ListMeetingsPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Meeting, error)

	// MeetingsStats returns count and latest update time for ETag support.
	MeetingsStats(ctx context.Context, db *gorm.DB, ownerID string) (int64, *time.Time, error)
}

// NewMeeting is the organizer's input for Create.
type NewMeeting struct {
	Title       string
	Description string
	Duration    int // minutes
	StartDate   *slot.Date
	EndDate     *slot.Date
	DailyWindow *slot.Window
}

// MeetingService provides meeting creation and lookup.
type MeetingService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the meeting repository used by this service.
	Repo MeetingRepo
	// Notifier receives meeting_created notifications.
	Notifier Notifier

	// TitleMaxLen caps titles by rune length.
	TitleMaxLen int
	// DescriptionMaxLen caps descriptions by rune length.
	DescriptionMaxLen int
}

// NewMeetingService constructs a MeetingService with default length limits.
func NewMeetingService(db *gorm.DB, r MeetingRepo, n Notifier) *MeetingService {
	return &MeetingService{
		DB:                db,
		Repo:              r,
		Notifier:          notifierOrNop(n),
		TitleMaxLen:       255,
		DescriptionMaxLen: 4000,
	}
}

// Create validates in and stores a new collecting meeting owned by ownerID.
func (s *MeetingService) Create(ctx context.Context, ownerID string, in NewMeeting) (*domain.Meeting, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	title := normalizeText(in.Title)
	switch {
	case title == "":
		return nil, invalid("title", "must not be empty")
	case s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen:
		return nil, invalid("title", "is too long")
	}
	desc := norm.NFC.String(strings.TrimSpace(in.Description))
	if s.DescriptionMaxLen > 0 && utf8.RuneCountInString(desc) > s.DescriptionMaxLen {
		return nil, invalid("description", "is too long")
	}
	if in.Duration <= 0 || in.Duration > slot.MinutesPerDay {
		return nil, invalid("duration", "must be between 1 and 1440 minutes")
	}

	m := &domain.Meeting{
		OwnerID:     ownerID,
		Title:       title,
		Description: desc,
		Duration:    in.Duration,
		Status:      domain.StatusCollecting,
	}
	if in.StartDate != nil {
		if !in.StartDate.Valid() {
			return nil, invalid("start_date", "is not a calendar date")
		}
		t := in.StartDate.Midnight()
		m.StartDate = &t
	}
	if in.EndDate != nil {
		if !in.EndDate.Valid() {
			return nil, invalid("end_date", "is not a calendar date")
		}
		t := in.EndDate.Midnight()
		m.EndDate = &t
	}
	if m.StartDate != nil && m.EndDate != nil && m.EndDate.Before(*m.StartDate) {
		return nil, invalid("end_date", "must not be before start_date")
	}
	if in.DailyWindow != nil {
		if err := in.DailyWindow.Validate(); err != nil {
			return nil, invalid("daily_window", slotMessage(err))
		}
		w := *in.DailyWindow
		m.Constraints.DailyWindow = &w
	}

	if err := s.Repo.CreateMeeting(ctx, s.DB, m); err != nil {
		return nil, storeErr(err)
	}
	s.Notifier.Notify(ctx, domain.NotifyMeetingCreated, m, ownerID)
	return m, nil
}

// Get returns the meeting with the given ID.
func (s *MeetingService) Get(ctx context.Context, id string) (*domain.Meeting, error) {
	m, err := s.Repo.GetMeeting(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, storeErr(err)
	}
	return m, nil
}

// ListPage returns a page of ownerID's meetings and the total count.
// It applies defaults for invalid page/pageSize.
func (s *MeetingService) ListPage(ctx context.Context, ownerID string, page, pageSize int) ([]domain.Meeting, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountMeetings(ctx, s.DB, ownerID)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	if total == 0 {
		return []domain.Meeting{}, 0, nil
	}

	items, err := s.Repo.ListMeetingsPage(ctx, s.DB, ownerID, offset, pageSize)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	return items, total, nil
}

// Stats reports how many meetings ownerID has and when the latest changed.
func (s *MeetingService) Stats(ctx context.Context, ownerID string) (int64, *time.Time, error) {
	n, at, err := s.Repo.MeetingsStats(ctx, s.DB, ownerID)
	if err != nil {
		return 0, nil, storeErr(err)
	}
	return n, at, nil
}

// normalizeText composes to NFC, trims, and collapses runs of whitespace.
func normalizeText(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(norm.NFC.String(s)), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// slotMessage strips the slot package's sentinel prefix from err.
func slotMessage(err error) string {
	return strings.TrimPrefix(err.Error(), slot.ErrInvalidInput.Error()+": ")
}
