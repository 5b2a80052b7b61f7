package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/services"
)

func TestFinalizeMeeting(t *testing.T) {
	var gotUser string
	r := newTestRouter(Deps{Lifecycle: stubLifecycle{
		finalize: func(_ context.Context, mid, uid string) (*services.Schedule, error) {
			gotUser = uid
			switch uid {
			case "owner":
				m := collectingMeeting()
				m.Status = domain.StatusScheduled
				m.ChosenSlot = &quarter
				return &services.Schedule{Meeting: m, Slot: quarter, Count: 2}, nil
			case "stranger":
				return nil, services.ErrForbidden
			case "twice":
				return nil, services.ErrInvalidState
			case "empty":
				return nil, services.ErrNoAvailability
			default:
				return nil, fmt.Errorf("%w: tx: context deadline", services.ErrStoreUnavailable)
			}
		},
	}})
	target := "/meetings/" + meetingID + "/finalize"

	w := doJSON(r, http.MethodPost, target, nil, asUser("owner"))
	if w.Code != http.StatusOK || gotUser != "owner" {
		t.Fatalf("finalize = %d %s", w.Code, w.Body.String())
	}
	got := decode[services.Schedule](t, w)
	if got.Slot != quarter || got.Count != 2 || got.Meeting.Status != domain.StatusScheduled {
		t.Fatalf("schedule = %+v", got)
	}

	for _, tc := range []struct {
		user   string
		status int
		code   string
	}{
		{"stranger", http.StatusForbidden, ErrCodeForbidden},
		{"twice", http.StatusConflict, ErrCodeInvalidState},
		{"empty", http.StatusUnprocessableEntity, ErrCodeNoAvailability},
		{"flaky", http.StatusServiceUnavailable, ErrCodeStoreUnavailable},
	} {
		t.Run(tc.user, func(t *testing.T) {
			wantError(t, doJSON(r, http.MethodPost, target, nil, asUser(tc.user)), tc.status, tc.code)
		})
	}
}

func TestCancelMeeting(t *testing.T) {
	r := newTestRouter(Deps{Lifecycle: stubLifecycle{
		cancel: func(_ context.Context, mid, uid string) (*domain.Meeting, error) {
			if mid != meetingID {
				return nil, services.ErrMeetingNotFound
			}
			if uid != "owner" {
				return nil, services.ErrForbidden
			}
			m := collectingMeeting()
			m.Status = domain.StatusCancelled
			return m, nil
		},
	}})

	w := doJSON(r, http.MethodPost, "/meetings/"+meetingID+"/cancel", nil, asUser("owner"))
	if w.Code != http.StatusOK || decode[domain.Meeting](t, w).Status != domain.StatusCancelled {
		t.Fatalf("cancel = %d %s", w.Code, w.Body.String())
	}
	wantError(t, doJSON(r, http.MethodPost, "/meetings/"+meetingID+"/cancel", nil, asUser("bob")), http.StatusForbidden, ErrCodeForbidden)
	wantError(t, doJSON(r, http.MethodPost, "/meetings/"+participantID+"/cancel", nil, asUser("owner")), http.StatusNotFound, ErrCodeNotFound)
	wantError(t, doJSON(r, http.MethodPost, "/meetings/x/cancel", nil, asUser("owner")), http.StatusBadRequest, ErrCodeBadRequest)
}
