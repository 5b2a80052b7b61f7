// Meeting HTTP handlers.
//
// This file exposes REST endpoints for meetings and their participants:
//   - POST   /meetings                   (create, Idempotency-Key replay)
//   - GET    /meetings                   (list own, paginated, ETag support)
//   - GET    /meetings/{id}              (get)
//   - POST   /meetings/{id}/participants (join as user or guest)
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/http/middleware"
	"github.com/tbourn/go-meeting-backend/internal/services"
	"github.com/tbourn/go-meeting-backend/internal/slot"
)

// HeaderIdempotencyReplayed marks a response served from a recorded result.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

//
// DTOs
//

// CreateMeetingRequest is the JSON payload for creating a meeting.
type CreateMeetingRequest struct {
	// Title is required (1–255 chars after normalization).
	Title string `json:"title" example:"Quarterly planning"`
	// Description is optional free text.
	Description string `json:"description" example:"Agenda to follow"`
	// Duration is the meeting length in minutes (1–1440).
	Duration int `json:"duration" example:"60"`
	// StartDate optionally bounds eligible slots from this UTC day.
	StartDate string `json:"start_date,omitempty" example:"2025-01-13"`
	// EndDate optionally bounds eligible slots up to this UTC day, inclusive.
	EndDate string `json:"end_date,omitempty" example:"2025-01-17"`
	// DailyWindow restricts eligible slots to [start, end) minutes of the UTC day.
	DailyWindow *slot.Window `json:"daily_window,omitempty"`
}

// ListMeetingsResponse wraps a page of meetings and pagination information.
type ListMeetingsResponse struct {
	Meetings   []domain.Meeting `json:"meetings"`
	Pagination Pagination       `json:"pagination"`
}

// JoinMeetingRequest is the JSON payload for joining a meeting. Guests must
// give a name; authenticated callers send an empty body.
type JoinMeetingRequest struct {
	GuestName string `json:"guest_name,omitempty" example:"Alex"`
}

//
// Handlers
//

// CreateMeeting godoc
// @ID          createMeeting
// @Summary     Create a meeting
// @Description Creates a meeting owned by the caller, collecting availability. Supports idempotent retries via Idempotency-Key.
// @Tags        Meetings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateMeetingRequest  true  "Meeting"
//
// @Success     201  {object}  domain.Meeting
// @Header      201  {string}  Idempotency-Replayed  "true when served from a recorded result"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     401  {object}  handlers.ErrorResponse  "Authentication required"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /meetings [post]
func (h *Handlers) CreateMeeting(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	key, hasKey := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)

	if hasKey && h.idem != nil && middleware.IsReplay(c) {
		if rec, err := h.idem.Get(ctx, uid, scope, key); err == nil && rec != nil {
			if m, err := h.meetings.Get(ctx, rec.ResourceID); err == nil {
				c.Header(HeaderIdempotencyReplayed, "true")
				ok(c, rec.Status, m)
				return
			}
		}
	}

	var req CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	in := services.NewMeeting{
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		DailyWindow: req.DailyWindow,
	}
	var okDates bool
	if in.StartDate, okDates = parseDateField(c, "start_date", req.StartDate); !okDates {
		return
	}
	if in.EndDate, okDates = parseDateField(c, "end_date", req.EndDate); !okDates {
		return
	}

	m, err := h.meetings.Create(ctx, uid, in)
	if err != nil {
		failErr(c, err)
		return
	}
	if hasKey && h.idem != nil {
		if err := h.idem.Put(ctx, uid, scope, key, m.ID, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("meeting_id", m.ID).Msg("idempotency record not stored")
		}
	}
	ok(c, http.StatusCreated, m)
}

// ListMeetings godoc
// @ID          listMeetings
// @Summary     List own meetings (paginated)
// @Description Returns a page of the caller's meetings, most recently updated first. Supports weak ETag via If-None-Match.
// @Tags        Meetings
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListMeetingsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Failure     503  {object}  handlers.ErrorResponse "Store unavailable"
// @Router      /meetings [get]
func (h *Handlers) ListMeetings(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, latest, err := h.meetings.Stats(ctx, uid); err == nil {
		if weakETag(c, "meetings", uid, count, latest) {
			return
		}
	}

	items, total, err := h.meetings.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Meeting{}
	}
	ok(c, http.StatusOK, ListMeetingsResponse{
		Meetings:   items,
		Pagination: paginationOf(page, pageSize, total),
	})
}

// GetMeeting godoc
// @ID          getMeeting
// @Summary     Get a meeting
// @Tags        Meetings
// @Produce     json
//
// @Param       id   path  string  true  "Meeting ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Meeting
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Meeting not found"
// @Router      /meetings/{id} [get]
func (h *Handlers) GetMeeting(c *gin.Context) {
	id, valid := pathID(c, "meeting")
	if !valid {
		return
	}
	m, err := h.meetings.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// JoinMeeting godoc
// @ID          joinMeeting
// @Summary     Join a meeting
// @Description Registers the caller (or a named guest) as a participant. Joining again returns the existing participant with 200.
// @Tags        Participants
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                          true   "Meeting ID (UUID)"  format(uuid)
// @Param       body  body  handlers.JoinMeetingRequest     false  "Guest name (guests only)"
//
// @Success     201  {object}  domain.Participant  "Joined"
// @Success     200  {object}  domain.Participant  "Already a participant"
// @Failure     400  {object}  handlers.ErrorResponse "Validation error"
// @Failure     404  {object}  handlers.ErrorResponse "Meeting not found"
// @Failure     409  {object}  handlers.ErrorResponse "Meeting no longer collecting"
// @Router      /meetings/{id}/participants [post]
func (h *Handlers) JoinMeeting(c *gin.Context) {
	id, valid := pathID(c, "meeting")
	if !valid {
		return
	}
	var req JoinMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, created, err := h.participants.Join(c.Request.Context(), id, middleware.UserID(c), req.GuestName)
	if err != nil {
		failErr(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, p)
}

// parseDateField parses an optional YYYY-MM-DD field, answering 400 on
// failure.
func parseDateField(c *gin.Context, field, raw string) (*slot.Date, bool) {
	if raw == "" {
		return nil, true
	}
	d, err := slot.ParseDate(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, field+": must be a date in YYYY-MM-DD form")
		return nil, false
	}
	return &d, true
}
