// Package services – NotificationService
//
// This file implements the read side of notifications: listing a user's
// inbox and marking entries as read. Notifications are written by the
// notify.Dispatcher.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/repo"
)

// NotificationService serves a user's notifications.
type NotificationService struct {
	DB *gorm.DB
	// MaxLimit caps List; zero means 100.
	MaxLimit int
}

// List returns up to limit of userID's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	max := s.MaxLimit
	if max <= 0 {
		max = 100
	}
	if limit <= 0 || limit > max {
		limit = max
	}
	out, err := repo.ListNotifications(ctx, s.DB, userID, unreadOnly, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// MarkRead flags one of userID's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if err := repo.MarkNotificationRead(ctx, s.DB, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return storeErr(err)
	}
	return nil
}

// MarkAllRead flags every unread notification of userID and returns how
// many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrUnauthenticated
	}
	n, err := repo.MarkAllNotificationsRead(ctx, s.DB, userID)
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}
