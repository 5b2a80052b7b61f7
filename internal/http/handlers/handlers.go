// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind and check request shapes, call the
// application services, and translate results into HTTP responses including
// conditional (ETag) and streaming responses. Business rules live in the
// services package.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-meeting-backend/internal/aggregate"
	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/feed"
	"github.com/tbourn/go-meeting-backend/internal/services"
	"github.com/tbourn/go-meeting-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// MeetingService creates and looks up meetings.
type MeetingService interface {
	Create(ctx context.Context, ownerID string, in services.NewMeeting) (*domain.Meeting, error)
	Get(ctx context.Context, id string) (*domain.Meeting, error)
	ListPage(ctx context.Context, ownerID string, page, pageSize int) ([]domain.Meeting, int64, error)
	Stats(ctx context.Context, ownerID string) (int64, *time.Time, error)
}

// ParticipantService registers respondents.
type ParticipantService interface {
	Join(ctx context.Context, meetingID, userID, guestName string) (*domain.Participant, bool, error)
}

// AvailabilityService manages availability records.
type AvailabilityService interface {
	Upsert(ctx context.Context, callerID, participantID string, slots []string, constraints map[string]any) (*domain.Availability, error)
	Withdraw(ctx context.Context, callerID, participantID string) error
	Get(ctx context.Context, participantID string) (*domain.Availability, error)
	ListForMeeting(ctx context.Context, meetingID string) ([]domain.Availability, error)
	Stats(ctx context.Context, meetingID string) (int64, *time.Time, error)
}

// LifecycleService finalizes and cancels meetings.
type LifecycleService interface {
	Finalize(ctx context.Context, meetingID, requesterID string) (*services.Schedule, error)
	Cancel(ctx context.Context, meetingID, requesterID string) (*domain.Meeting, error)
}

// NotificationService serves a user's inbox.
type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// LiveTallies gives access to the in-memory tallies kept current by the
// change feed.
type LiveTallies interface {
	Tally(ctx context.Context, meetingID string) (*aggregate.Tally, error)
	Subscribe(ctx context.Context, meetingID string) (*feed.Viewer, error)
}

// IdempotencyStore remembers the resource created for an Idempotency-Key.
// Get returns (nil, nil) when nothing is recorded.
type IdempotencyStore interface {
	Get(ctx context.Context, userID, scope, key string) (*domain.Idempotency, error)
	Put(ctx context.Context, userID, scope, key, resourceID string, status int) error
}

//
// Handler wiring
//

// Deps lists the collaborators of Handlers. Idempotency may be nil, which
// disables replay of create requests.
type Deps struct {
	Meetings      MeetingService
	Participants  ParticipantService
	Availability  AvailabilityService
	Lifecycle     LifecycleService
	Notifications NotificationService
	Live          LiveTallies
	Idempotency   IdempotencyStore

	// Heartbeat is the interval of SSE keep-alive comments (default 15s).
	Heartbeat time.Duration
}

// Handlers groups the HTTP endpoints of the scheduling API.
type Handlers struct {
	meetings      MeetingService
	participants  ParticipantService
	availability  AvailabilityService
	lifecycle     LifecycleService
	notifications NotificationService
	live          LiveTallies
	idem          IdempotencyStore
	heartbeat     time.Duration
}

// New constructs Handlers from d.
func New(d Deps) *Handlers {
	hb := d.Heartbeat
	if hb <= 0 {
		hb = 15 * time.Second
	}
	return &Handlers{
		meetings:      d.Meetings,
		participants:  d.Participants,
		availability:  d.Availability,
		lifecycle:     d.Lifecycle,
		notifications: d.Notifications,
		live:          d.Live,
		idem:          d.Idempotency,
		heartbeat:     hb,
	}
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.Clamp(utils.AtoiDefault(c.Query("page"), defaultPage), 1, utils.MaxInt)
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// pathID reads the :id path parameter and rejects anything but a UUID.
func pathID(c *gin.Context, what string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, what+" id must be a UUID")
		return "", false
	}
	return id, true
}

// weakETag builds a validator from a collection's size and latest update.
// It sets the ETag header and reports true after answering 304 when the
// client's copy is current.
func weakETag(c *gin.Context, kind, scope string, count int64, latest *time.Time) bool {
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%s:%d:%d"`, kind, scope, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
