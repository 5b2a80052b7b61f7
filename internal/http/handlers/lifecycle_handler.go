// Lifecycle HTTP handlers.
//
// This file exposes the organizer's terminal decisions:
//   - POST /meetings/{id}/finalize  (schedule the best eligible slot)
//   - POST /meetings/{id}/cancel    (abandon the meeting)
//
// Both are owner-only and succeed at most once per meeting; a repeated or
// racing request gets 409 invalid_state.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meeting-backend/internal/http/middleware"
)

// FinalizeMeeting godoc
// @ID          finalizeMeeting
// @Summary     Finalize a meeting
// @Description Chooses the slot with the most available participants inside the meeting's window and date range (earliest on ties), and schedules the meeting.
// @Tags        Lifecycle
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Meeting ID (UUID)"  format(uuid)
//
// @Success     200  {object}  services.Schedule
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Failure     403  {object}  handlers.ErrorResponse "Not the organizer"
// @Failure     404  {object}  handlers.ErrorResponse "Meeting not found"
// @Failure     409  {object}  handlers.ErrorResponse "Meeting no longer collecting"
// @Failure     422  {object}  handlers.ErrorResponse "No eligible slot has availability"
// @Failure     503  {object}  handlers.ErrorResponse "Store unavailable"
// @Router      /meetings/{id}/finalize [post]
func (h *Handlers) FinalizeMeeting(c *gin.Context) {
	id, valid := pathID(c, "meeting")
	if !valid {
		return
	}
	s, err := h.lifecycle.Finalize(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}

// CancelMeeting godoc
// @ID          cancelMeeting
// @Summary     Cancel a meeting
// @Tags        Lifecycle
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Meeting ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Meeting
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Failure     403  {object}  handlers.ErrorResponse "Not the organizer"
// @Failure     404  {object}  handlers.ErrorResponse "Meeting not found"
// @Failure     409  {object}  handlers.ErrorResponse "Meeting no longer collecting"
// @Router      /meetings/{id}/cancel [post]
func (h *Handlers) CancelMeeting(c *gin.Context) {
	id, valid := pathID(c, "meeting")
	if !valid {
		return
	}
	m, err := h.lifecycle.Cancel(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}
