package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/domain"
)

// InsertNotifications stores a batch of notifications in one statement per
// chunk and returns the number of rows written.
func InsertNotifications(ctx context.Context, db *gorm.DB, batch []domain.Notification) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).CreateInBatches(batch, 100)
	return res.RowsAffected, res.Error
}

// ListNotifications returns up to limit notifications for userID, newest
// first. unreadOnly filters out read ones.
func ListNotifications(ctx context.Context, db *gorm.DB, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var out []domain.Notification
	err := q.Order("created_at desc").Order("id").Limit(limit).Find(&out).Error
	return out, err
}

// MarkNotificationRead flags one of userID's notifications as read. It
// returns ErrNotFound when the notification does not exist or belongs to
// someone else.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, userID, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Already-read rows still match; only a missing row ends here on
		// drivers that report matched rows. Re-check to be driver-neutral.
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Notification{}).
			Where("id = ? AND user_id = ?", id, userID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// MarkAllNotificationsRead flags every unread notification of userID as
// read and returns how many changed.
func MarkAllNotificationsRead(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}
