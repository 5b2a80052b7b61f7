package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/domain"
)

// CreateParticipant inserts a participant for meetingID identified by exactly
// one of userID or guestName. A unique violation is reported as ErrDuplicate.
func CreateParticipant(ctx context.Context, db *gorm.DB, meetingID string, userID, guestName *string) (*domain.Participant, error) {
	p := &domain.Participant{
		ID:        uuid.NewString(),
		MeetingID: meetingID,
		UserID:    userID,
		GuestName: guestName,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return p, nil
}

// FindParticipant looks up the participant of meetingID with the given user
// ID or, when userID is nil, guest name.
func FindParticipant(ctx context.Context, db *gorm.DB, meetingID string, userID, guestName *string) (*domain.Participant, error) {
	q := db.WithContext(ctx).Where("meeting_id = ?", meetingID)
	switch {
	case userID != nil:
		q = q.Where("user_id = ?", *userID)
	case guestName != nil:
		q = q.Where("guest_name = ? AND user_id IS NULL", *guestName)
	default:
		return nil, errors.New("participant lookup needs a user id or guest name")
	}
	var p domain.Participant
	if err := q.First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetParticipant fetches a participant by ID.
func GetParticipant(ctx context.Context, db *gorm.DB, id string) (*domain.Participant, error) {
	var p domain.Participant
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListParticipantIDs returns the IDs of every participant of meetingID.
func ListParticipantIDs(ctx context.Context, db *gorm.DB, meetingID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.Participant{}).
		Where("meeting_id = ?", meetingID).
		Order("created_at").
		Pluck("id", &ids).Error
	return ids, err
}

// ListParticipantUserIDs returns the user IDs of the authenticated
// participants of meetingID.
func ListParticipantUserIDs(ctx context.Context, db *gorm.DB, meetingID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.Participant{}).
		Where("meeting_id = ? AND user_id IS NOT NULL", meetingID).
		Pluck("user_id", &ids).Error
	return ids, err
}
