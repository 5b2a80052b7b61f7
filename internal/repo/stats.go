// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/domain"
)

// MeetingsStats returns the number of meetings owned by ownerID and the
// greatest UpdatedAt among them (nil when there are none).
func MeetingsStats(ctx context.Context, db *gorm.DB, ownerID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Meeting{}).Where("owner_id = ?", ownerID)
	return countAndLatest(q, "updated_at")
}

// AvailabilityStats returns the number of records (tombstones included) for
// meetingID and the greatest UpdatedAt among them. Withdrawals bump
// updated_at, so the pair changes on every write.
func AvailabilityStats(ctx context.Context, db *gorm.DB, meetingID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Unscoped().
		Model(&domain.Availability{}).
		Joins("JOIN participants ON participants.id = availability.participant_id").
		Where("participants.meeting_id = ?", meetingID)
	return countAndLatest(q, "availability.updated_at")
}

func countAndLatest(q *gorm.DB, column string) (int64, *time.Time, error) {
	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err := q.Session(&gorm.Session{}).
		Select(column + " AS updated_at").
		Order(column + " DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
