package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meeting-backend/internal/aggregate"
	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/feed"
	"github.com/tbourn/go-meeting-backend/internal/http/middleware"
	"github.com/tbourn/go-meeting-backend/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

const (
	meetingID     = "6f1c2a4e-0d3b-4c5a-9e8f-7a6b5c4d3e2f"
	participantID = "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	notifID       = "9f8e7d6c-5b4a-4c3d-8e2f-1a0b9c8d7e6f"
)

// ---------- stubs ----------

type stubMeetings struct {
	create   func(context.Context, string, services.NewMeeting) (*domain.Meeting, error)
	get      func(context.Context, string) (*domain.Meeting, error)
	listPage func(context.Context, string, int, int) ([]domain.Meeting, int64, error)
	stats    func(context.Context, string) (int64, *time.Time, error)
}

func (s stubMeetings) Create(ctx context.Context, owner string, in services.NewMeeting) (*domain.Meeting, error) {
	if s.create != nil {
		return s.create(ctx, owner, in)
	}
	return &domain.Meeting{ID: meetingID, OwnerID: owner, Title: in.Title, Duration: in.Duration, Status: domain.StatusCollecting}, nil
}

func (s stubMeetings) Get(ctx context.Context, id string) (*domain.Meeting, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.Meeting{ID: id, OwnerID: "owner", Status: domain.StatusCollecting}, nil
}

func (s stubMeetings) ListPage(ctx context.Context, owner string, page, size int) ([]domain.Meeting, int64, error) {
	if s.listPage != nil {
		return s.listPage(ctx, owner, page, size)
	}
	return nil, 0, nil
}

func (s stubMeetings) Stats(ctx context.Context, owner string) (int64, *time.Time, error) {
	if s.stats != nil {
		return s.stats(ctx, owner)
	}
	return 0, nil, nil
}

type stubParticipants struct {
	join func(context.Context, string, string, string) (*domain.Participant, bool, error)
}

func (s stubParticipants) Join(ctx context.Context, mid, uid, guest string) (*domain.Participant, bool, error) {
	return s.join(ctx, mid, uid, guest)
}

type stubAvailability struct {
	upsert   func(context.Context, string, string, []string, map[string]any) (*domain.Availability, error)
	withdraw func(context.Context, string, string) error
	get      func(context.Context, string) (*domain.Availability, error)
	list     func(context.Context, string) ([]domain.Availability, error)
	stats    func(context.Context, string) (int64, *time.Time, error)
}

func (s stubAvailability) Upsert(ctx context.Context, caller, pid string, slots []string, cons map[string]any) (*domain.Availability, error) {
	return s.upsert(ctx, caller, pid, slots, cons)
}

func (s stubAvailability) Withdraw(ctx context.Context, caller, pid string) error {
	return s.withdraw(ctx, caller, pid)
}

func (s stubAvailability) Get(ctx context.Context, pid string) (*domain.Availability, error) {
	return s.get(ctx, pid)
}

func (s stubAvailability) ListForMeeting(ctx context.Context, mid string) ([]domain.Availability, error) {
	return s.list(ctx, mid)
}

func (s stubAvailability) Stats(ctx context.Context, mid string) (int64, *time.Time, error) {
	if s.stats != nil {
		return s.stats(ctx, mid)
	}
	return 0, nil, nil
}

type stubLifecycle struct {
	finalize func(context.Context, string, string) (*services.Schedule, error)
	cancel   func(context.Context, string, string) (*domain.Meeting, error)
}

func (s stubLifecycle) Finalize(ctx context.Context, mid, uid string) (*services.Schedule, error) {
	return s.finalize(ctx, mid, uid)
}

func (s stubLifecycle) Cancel(ctx context.Context, mid, uid string) (*domain.Meeting, error) {
	return s.cancel(ctx, mid, uid)
}

type stubNotifications struct {
	list    func(context.Context, string, bool, int) ([]domain.Notification, error)
	read    func(context.Context, string, string) error
	readAll func(context.Context, string) (int64, error)
}

func (s stubNotifications) List(ctx context.Context, uid string, unread bool, limit int) ([]domain.Notification, error) {
	return s.list(ctx, uid, unread, limit)
}

func (s stubNotifications) MarkRead(ctx context.Context, uid, id string) error {
	return s.read(ctx, uid, id)
}

func (s stubNotifications) MarkAllRead(ctx context.Context, uid string) (int64, error) {
	return s.readAll(ctx, uid)
}

// memIdem is an in-memory IdempotencyStore.
type memIdem struct {
	mu   sync.Mutex
	recs map[string]domain.Idempotency
}

func newMemIdem() *memIdem { return &memIdem{recs: map[string]domain.Idempotency{}} }

func (m *memIdem) Get(_ context.Context, uid, scope, key string) (*domain.Idempotency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.recs[uid+"|"+scope+"|"+key]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *memIdem) Put(_ context.Context, uid, scope, key, rid string, status int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[uid+"|"+scope+"|"+key] = domain.Idempotency{UserID: uid, Scope: scope, Key: key, ResourceID: rid, Status: status}
	return nil
}

func (m *memIdem) lookup(ctx context.Context, uid, scope, key string, _ time.Time) (bool, error) {
	r, err := m.Get(ctx, uid, scope, key)
	return r != nil, err
}

// liveDir serves a fixed meeting and its records to a real feed.Adapter.
type liveDir struct {
	mu      sync.Mutex
	meeting *domain.Meeting
	records []aggregate.Record
}

func (d *liveDir) ParticipantIDs(context.Context, string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.records))
	for _, r := range d.records {
		ids = append(ids, r.ParticipantID)
	}
	return ids, nil
}

func (d *liveDir) Meeting(_ context.Context, id string) (*domain.Meeting, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.meeting == nil || d.meeting.ID != id {
		return nil, services.ErrMeetingNotFound
	}
	m := *d.meeting
	return &m, nil
}

func (d *liveDir) Records(context.Context, string) ([]aggregate.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]aggregate.Record(nil), d.records...), nil
}

func newLive(t *testing.T, dir *liveDir) (*feed.Hub, *feed.Adapter) {
	t.Helper()
	hub := feed.NewHub(16)
	reg := aggregate.NewRegistry(dir)
	a := feed.NewAdapter(hub, reg, dir, feed.Options{ViewerBuffer: 8})
	t.Cleanup(a.Close)
	return hub, a
}

// ---------- router + request helpers ----------

func newTestRouter(d Deps) *gin.Engine {
	h := New(d)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity(middleware.IdentityOptions{AllowHeader: true}))
	if idem, ok := d.Idempotency.(*memIdem); ok {
		r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, idem.lookup))
	}

	r.POST("/meetings", h.CreateMeeting)
	r.GET("/meetings", h.ListMeetings)
	r.GET("/meetings/:id", h.GetMeeting)
	r.POST("/meetings/:id/participants", h.JoinMeeting)
	r.GET("/meetings/:id/availability", h.ListMeetingAvailability)
	r.GET("/meetings/:id/tally", h.GetTally)
	r.GET("/meetings/:id/stream", h.StreamMeeting)
	r.POST("/meetings/:id/finalize", h.FinalizeMeeting)
	r.POST("/meetings/:id/cancel", h.CancelMeeting)
	r.PUT("/participants/:id/availability", h.PutAvailability)
	r.GET("/participants/:id/availability", h.GetAvailability)
	r.DELETE("/participants/:id/availability", h.DeleteAvailability)
	r.GET("/notifications", h.ListNotifications)
	r.POST("/notifications/read-all", h.MarkAllNotificationsRead)
	r.POST("/notifications/:id/read", h.MarkNotificationRead)
	return r
}

func doJSON(r http.Handler, method, target string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, target, &buf)
	if buf.Len() > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func asUser(uid string) map[string]string { return map[string]string{middleware.HeaderUserID: uid} }

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	if got := decode[ErrorResponse](t, w); got.Code != code || got.RequestID == "" {
		t.Fatalf("error body = %+v, want code %q", got, code)
	}
}
