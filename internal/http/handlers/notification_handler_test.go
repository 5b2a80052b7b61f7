package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/services"
)

func TestListNotifications(t *testing.T) {
	type call struct {
		uid    string
		unread bool
		limit  int
	}
	var got call
	r := newTestRouter(Deps{Notifications: stubNotifications{
		list: func(_ context.Context, uid string, unread bool, limit int) ([]domain.Notification, error) {
			got = call{uid, unread, limit}
			if uid == "broken" {
				return nil, errors.New("boom")
			}
			if uid == "quiet" {
				return nil, nil
			}
			return []domain.Notification{{ID: notifID, UserID: uid, Kind: domain.NotifyMeetingScheduled}}, nil
		},
	}})

	w := doJSON(r, http.MethodGet, "/notifications", nil, asUser("alice"))
	if w.Code != http.StatusOK || len(decode[ListNotificationsResponse](t, w).Notifications) != 1 {
		t.Fatalf("list = %d %s", w.Code, w.Body.String())
	}
	if got != (call{"alice", false, 50}) {
		t.Fatalf("defaults = %+v", got)
	}

	doJSON(r, http.MethodGet, "/notifications?unread=true&limit=5", nil, asUser("alice"))
	if got != (call{"alice", true, 5}) {
		t.Fatalf("query = %+v", got)
	}

	w = doJSON(r, http.MethodGet, "/notifications", nil, asUser("quiet"))
	if resp := decode[ListNotificationsResponse](t, w); resp.Notifications == nil {
		t.Fatal("empty inbox must encode as []")
	}

	wantError(t, doJSON(r, http.MethodGet, "/notifications", nil, asUser("broken")), http.StatusInternalServerError, ErrCodeInternal)
}

func TestMarkNotificationRead(t *testing.T) {
	r := newTestRouter(Deps{Notifications: stubNotifications{
		read: func(_ context.Context, uid, id string) error {
			if uid != "alice" || id != notifID {
				return services.ErrNotificationNotFound
			}
			return nil
		},
		readAll: func(_ context.Context, uid string) (int64, error) {
			if uid == "alice" {
				return 3, nil
			}
			return 0, nil
		},
	}})

	if w := doJSON(r, http.MethodPost, "/notifications/"+notifID+"/read", nil, asUser("alice")); w.Code != http.StatusNoContent {
		t.Fatalf("read = %d", w.Code)
	}
	wantError(t, doJSON(r, http.MethodPost, "/notifications/"+notifID+"/read", nil, asUser("bob")), http.StatusNotFound, ErrCodeNotFound)
	wantError(t, doJSON(r, http.MethodPost, "/notifications/zzz/read", nil, asUser("alice")), http.StatusBadRequest, ErrCodeBadRequest)

	w := doJSON(r, http.MethodPost, "/notifications/read-all", nil, asUser("alice"))
	if w.Code != http.StatusOK || decode[MarkAllReadResponse](t, w).Updated != 3 {
		t.Fatalf("read-all = %d %s", w.Code, w.Body.String())
	}
}
