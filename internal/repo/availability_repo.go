package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/slot"
)

// ErrStale is returned when a versioned write finds the row changed since it
// was read.
var ErrStale = errors.New("stale version")

// GetAvailability fetches the live record of participantID.
func GetAvailability(ctx context.Context, db *gorm.DB, participantID string) (*domain.Availability, error) {
	var a domain.Availability
	if err := db.WithContext(ctx).Where("participant_id = ?", participantID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAvailabilityAny fetches participantID's record including a withdrawn
// tombstone.
func GetAvailabilityAny(ctx context.Context, db *gorm.DB, participantID string) (*domain.Availability, error) {
	var a domain.Availability
	if err := db.WithContext(ctx).Unscoped().Where("participant_id = ?", participantID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAvailability writes the participant's slot set over prev, the row read
// earlier in the same transaction (nil when none exists, possibly a
// tombstone). The version increases by one and a tombstone comes back to
// life. ErrStale reports a concurrent writer; ErrDuplicate a concurrent first
// insert.
func SaveAvailability(ctx context.Context, db *gorm.DB, participantID string, prev *domain.Availability, slots slot.Set, constraints map[string]any) (*domain.Availability, error) {
	if slots == nil {
		slots = slot.Set{}
	}
	if constraints == nil {
		constraints = map[string]any{}
	}
	now := time.Now().UTC()

	if prev == nil {
		a := &domain.Availability{
			ID:            uuid.NewString(),
			ParticipantID: participantID,
			Slots:         slots,
			Constraints:   constraints,
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := db.WithContext(ctx).Create(a).Error; err != nil {
			if isDuplicate(err) {
				return nil, ErrDuplicate
			}
			return nil, err
		}
		return a, nil
	}

	next := *prev
	next.Slots = slots
	next.Constraints = constraints
	next.Version = prev.Version + 1
	next.UpdatedAt = now
	next.DeletedAt = gorm.DeletedAt{}

	res := db.WithContext(ctx).Unscoped().
		Model(&domain.Availability{}).
		Where("id = ? AND version = ?", prev.ID, prev.Version).
		Select("slots", "constraints", "version", "updated_at", "deleted_at").
		Updates(&next)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrStale
	}
	return &next, nil
}

// WithdrawAvailability soft-deletes the live record prev, bumping its
// version so the tombstone orders after every earlier write.
func WithdrawAvailability(ctx context.Context, db *gorm.DB, prev *domain.Availability) (*domain.Availability, error) {
	now := time.Now().UTC()
	next := *prev
	next.Version = prev.Version + 1
	next.UpdatedAt = now
	next.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}

	res := db.WithContext(ctx).Unscoped().
		Model(&domain.Availability{}).
		Where("id = ? AND version = ? AND deleted_at IS NULL", prev.ID, prev.Version).
		Updates(map[string]any{
			"version":    next.Version,
			"updated_at": now,
			"deleted_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrStale
	}
	return &next, nil
}

// ListAvailabilityForMeeting returns the records of every participant of
// meetingID, ordered by participant join time. withWithdrawn includes
// tombstones.
func ListAvailabilityForMeeting(ctx context.Context, db *gorm.DB, meetingID string, withWithdrawn bool) ([]domain.Availability, error) {
	q := db.WithContext(ctx)
	if withWithdrawn {
		q = q.Unscoped()
	}
	var out []domain.Availability
	err := q.
		Select("availability.*").
		Joins("JOIN participants ON participants.id = availability.participant_id").
		Where("participants.meeting_id = ?", meetingID).
		Order("participants.created_at").
		Order("availability.participant_id").
		Find(&out).Error
	return out, err
}
