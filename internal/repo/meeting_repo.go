// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for meetings.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a transaction. They follow the "thin repository" approach: no
// business logic, only persistence and query composition.
//
// Error semantics:
//   - A missing meeting is reported as gorm.ErrRecordNotFound (ErrNotFound).
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/slot"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateMeeting inserts m, assigning an ID, the collecting status, and UTC
// timestamps when they are unset.
func CreateMeeting(ctx context.Context, db *gorm.DB, m *domain.Meeting) error {
	now := time.Now().UTC()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = domain.StatusCollecting
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = m.CreatedAt
	return db.WithContext(ctx).Create(m).Error
}

// GetMeeting fetches a meeting by ID.
func GetMeeting(ctx context.Context, db *gorm.DB, id string) (*domain.Meeting, error) {
	var m domain.Meeting
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// CountMeetings returns the number of meetings owned by ownerID.
func CountMeetings(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Meeting{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error
	return total, err
}

// ListMeetingsPage returns a page of ownerID's meetings, most recently
// updated first.
func ListMeetingsPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Meeting, error) {
	var out []domain.Meeting
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at desc").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// LockCollectingMeeting takes the write lock on meeting id inside the
// transaction db and reports whether the meeting is still collecting. It is
// the first statement of every transaction that writes availability or
// decides the meeting's outcome, so those transactions run one at a time per
// meeting: a row lock on Postgres, the database write lock on SQLite.
func LockCollectingMeeting(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Meeting{}).
		Where("id = ? AND status = ?", id, domain.StatusCollecting).
		UpdateColumn("status", gorm.Expr("status"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// TransitionMeeting moves a meeting from status from to status to, setting
// chosen as the chosen slot. The update only applies while the row is still
// in status from; it reports false when another writer got there first.
func TransitionMeeting(ctx context.Context, db *gorm.DB, id string, from, to domain.MeetingStatus, chosen *slot.Key) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Meeting{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":      to,
			"chosen_slot": chosen,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
